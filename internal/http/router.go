package api

import (
	stdhttp "net/http"

	intconfig "titledesk/internal/config"
	h "titledesk/internal/http/handlers"
	"titledesk/internal/http/middleware"
	"titledesk/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func NewRouter(env intconfig.Env, tax h.TaxHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Logger().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		secured := api.Group("", middleware.Auth(env.JWTSecret))

		// Tax forms
		forms := secured.Group("/tickets/:id/tax-form")
		forms.GET("", tax.GetTaxForm)
		forms.PUT("", middleware.RequireRoles(writeRoles(env)...), tax.SaveTaxForm)
		forms.GET("/estimate", tax.EstimateTaxForm)
		forms.GET("/ws", tax.Subscribe)

		// Stateless engine
		secured.POST("/tax/compute", tax.Compute)
	}

	h.SetRouter(r)
	return r
}

// writeRoles is empty when auth is off, since no token carries a role.
func writeRoles(env intconfig.Env) []string {
	if env.JWTSecret == "" {
		return nil
	}
	return env.TaxWriteRoles
}
