package handlers

import (
	"io"
	"net/http"

	"titledesk/internal/http/middleware"
	"titledesk/internal/notify"
	"titledesk/internal/services"
	"titledesk/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxPayloadBytes = 1 << 20

// TaxHandler exposes the tax engine over HTTP.
type TaxHandler struct {
	Service services.TaxService
	Hub     *notify.Hub
}

// service returns a copy of the service tagged with the request id.
func (h TaxHandler) service(c *gin.Context) services.TaxService {
	svc := h.Service
	svc.RequestID = middleware.GetRequestID(c)
	return svc
}

// GET /api/tickets/:id/tax-form
func (h TaxHandler) GetTaxForm(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out, err := h.service(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// PUT /api/tickets/:id/tax-form
func (h TaxHandler) SaveTaxForm(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "failed to read body", err)
		return
	}

	out, err := h.service(c).Save(c.Request.Context(), id, raw)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/tickets/:id/tax-form/estimate
func (h TaxHandler) EstimateTaxForm(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	est, err := h.service(c).Estimate(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

// POST /api/tax/compute
func (h TaxHandler) Compute(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "failed to read body", err)
		return
	}
	req, err := services.DecodeComputeRequest(raw)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	res, err := h.service(c).Compute(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/tickets/:id/tax-form/ws
func (h TaxHandler) Subscribe(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if h.Hub == nil {
		RespondError(c, http.StatusServiceUnavailable, "live updates disabled", nil)
		return
	}
	if err := h.Hub.Serve(c.Writer, c.Request, id); err != nil {
		utils.LogEvent(middleware.GetRequestID(c), "tax", "subscribe", "websocket upgrade failed", zap.Int64("ticket_id", id), zap.Error(err))
	}
}
