package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	calculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxcalc",
		Name:      "calculations_total",
		Help:      "Tax calculations performed, by branch.",
	}, []string{"branch"})

	formResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxcalc",
		Name:      "form_resets_total",
		Help:      "Tax forms reset because the sales/TAVT mode was toggled.",
	})

	calculationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxcalc",
		Name:      "calculation_errors_total",
		Help:      "Failed calculations, by stage.",
	}, []string{"stage"})
)
