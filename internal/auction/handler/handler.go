package handler

import (
	"context"
	"net/http"

	"leadexchange_backend/internal/auction/repository"
	"leadexchange_backend/internal/auction/transport"
	"leadexchange_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

// TransactionReader lists the audit log for a lead.
type TransactionReader interface {
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]repository.Transaction, error)
}

// AuctionEnqueuer schedules an auction run.
type AuctionEnqueuer interface {
	EnqueueAuctionRun(ctx context.Context, leadID uuid.UUID) error
}

// Handler exposes the auction audit log and the manual run trigger.
type Handler struct {
	txns     TransactionReader
	enqueuer AuctionEnqueuer
}

func New(txns TransactionReader, enqueuer AuctionEnqueuer) *Handler {
	return &Handler{txns: txns, enqueuer: enqueuer}
}

// RegisterRoutes registers auction routes under a leads subtree.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads/:id/transactions", h.ListTransactions)
	rg.POST("/leads/:id/auction", h.TriggerAuction)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	txns, err := h.txns.ListByLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, transport.TransactionFromDomain(t))
	}
	httpkit.OK(c, out)
}

// TriggerAuction enqueues a run for the lead. Useful for retrying a stuck
// PENDING lead whose original enqueue was lost.
func (h *Handler) TriggerAuction(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if h.enqueuer == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "auction queue not configured", nil)
		return
	}
	if err := h.enqueuer.EnqueueAuctionRun(c.Request.Context(), leadID); err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to enqueue auction run", nil)
		return
	}
	httpkit.JSON(c, http.StatusAccepted, gin.H{"leadId": leadID, "enqueued": true})
}
