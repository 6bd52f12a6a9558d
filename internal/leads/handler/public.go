package handler

import (
	"net/http"

	"leadexchange_backend/internal/leads/service"
	"leadexchange_backend/internal/leads/transport"
	"leadexchange_backend/platform/httpkit"
	"leadexchange_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// PublicHandler handles the unauthenticated intake endpoint.
type PublicHandler struct {
	svc *service.Service
	val *validator.Validator
}

func NewPublicHandler(svc *service.Service, val *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, val: val}
}

// RegisterRoutes registers public lead routes.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads", h.Submit)
}

// Submit accepts a consumer form submission and starts the auction pipeline.
func (h *PublicHandler) Submit(c *gin.Context) {
	var req transport.SubmitLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Submit(c.Request.Context(), service.SubmitParams{
		ServiceType: req.ServiceType,
		ZipCode:     req.ZipCode,
		FormAnswers: req.FormAnswers,
		HomeOwner:   req.HomeOwner,
		Timeframe:   req.Timeframe,
		Compliance:  req.Compliance,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.SubmitLeadResponse{ID: lead.ID, Status: string(lead.Status)})
}
