package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TavtMaster is a row of the TAVT rate master table.
type TavtMaster struct {
	ID            int64           `json:"id" yaml:"id"`
	Tag           string          `json:"tag" yaml:"tag"`
	Rate          decimal.Decimal `json:"rate" yaml:"rate"`
	EffectiveDate time.Time       `json:"effectiveDate" yaml:"effective_date"`
}

// BusinessStateChange is the county override rate for business buyers on
// state transfers.
type BusinessStateChange struct {
	ID       int64           `json:"id" yaml:"id"`
	CountyID int64           `json:"countyId" yaml:"county_id"`
	Rate     decimal.Decimal `json:"rate" yaml:"rate"`
}

// MilageRate is the per-mille Valorem rate for a county district and year.
type MilageRate struct {
	District string `json:"district" yaml:"district"`
	CountyID int64  `json:"countyId" yaml:"county_id"`
	Year     int    `json:"year" yaml:"year"`
	MillRate string `json:"millRate" yaml:"mill_rate"`
}
