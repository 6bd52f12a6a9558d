// Package webhook receives buyer callbacks for the post-sale lifecycle:
// returns and disputes arrive here and drive the disposition sub-machine.
package webhook

import (
	"context"
	"net/http"

	leadsdomain "leadexchange_backend/internal/leads/domain"
	leadsrepo "leadexchange_backend/internal/leads/repository"
	"leadexchange_backend/platform/httpkit"
	"leadexchange_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// webhookDispositions is what a buyer may request; everything else on the
// disposition graph belongs to admins.
var webhookDispositions = map[leadsdomain.Disposition]bool{
	leadsdomain.DispositionReturned: true,
	leadsdomain.DispositionDisputed: true,
}

// LeadService is the slice of the leads service webhooks drive.
type LeadService interface {
	Get(ctx context.Context, id uuid.UUID) (leadsrepo.Lead, error)
	TransitionDisposition(ctx context.Context, leadID uuid.UUID, newDisposition leadsdomain.Disposition, reason string, actorID *uuid.UUID, source leadsdomain.ChangeSource) (leadsrepo.Lead, error)
}

type Handler struct {
	leads LeadService
	val   *validator.Validator
}

func NewHandler(leads LeadService, val *validator.Validator) *Handler {
	return &Handler{leads: leads, val: val}
}

// RegisterRoutes registers webhook routes on the public group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/buyers/:buyerId/leads/:leadId/disposition", h.Disposition)
}

type dispositionRequest struct {
	Disposition string `json:"disposition" validate:"required,oneof=RETURNED DISPUTED"`
	Reason      string `json:"reason" validate:"required,min=3,max=500"`
}

// Disposition lets the buyer who bought a lead return or dispute it.
func (h *Handler) Disposition(c *gin.Context) {
	buyerID, err := uuid.Parse(c.Param("buyerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req dispositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	disposition := leadsdomain.Disposition(req.Disposition)
	if !webhookDispositions[disposition] {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "disposition not allowed via webhook")
		return
	}

	lead, err := h.leads.Get(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	// Only the buyer the lead was sold to may touch it.
	if lead.WinningBuyerID == nil || *lead.WinningBuyerID != buyerID {
		httpkit.Error(c, http.StatusForbidden, "lead does not belong to this buyer", nil)
		return
	}

	updated, err := h.leads.TransitionDisposition(
		c.Request.Context(), leadID, disposition, req.Reason, nil, leadsdomain.SourceWebhook,
	)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"leadId":      updated.ID,
		"status":      updated.Status,
		"disposition": updated.Disposition,
	})
}
