package handler

import (
	"net/http"
	"strconv"

	"leadexchange_backend/internal/leads/domain"
	"leadexchange_backend/internal/leads/service"
	"leadexchange_backend/internal/leads/transport"
	"leadexchange_backend/platform/httpkit"
	"leadexchange_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles admin HTTP requests for leads.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers admin lead routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/history", h.GetHistory)
	rg.POST("/:id/transition", h.Transition)
	rg.POST("/:id/disposition", h.TransitionDisposition)
	rg.POST("/:id/credit", h.IssueCredit)
}

func (h *Handler) List(c *gin.Context) {
	status := domain.Status(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	leads, err := h.svc.ListByStatus(c.Request.Context(), status, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, transport.LeadFromDomain(lead))
	}
	httpkit.OK(c, out)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadFromDomain(lead))
}

func (h *Handler) GetHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	entries, err := h.svc.GetStatusHistory(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, transport.HistoryFromDomain(entry))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Transition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := service.TransitionParams{
		LeadID:    id,
		NewStatus: domain.Status(req.Status),
		Reason:    req.Reason,
		ActorID:   httpkit.ActorID(c),
		Source:    domain.SourceAdmin,
	}
	if req.Disposition != nil {
		disposition := domain.Disposition(*req.Disposition)
		params.NewDisposition = &disposition
	}

	lead, err := h.svc.Transition(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadFromDomain(lead))
}

func (h *Handler) TransitionDisposition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.DispositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.TransitionDisposition(
		c.Request.Context(), id, domain.Disposition(req.Disposition), req.Reason,
		httpkit.ActorID(c), domain.SourceAdmin,
	)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadFromDomain(lead))
}

func (h *Handler) IssueCredit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.IssueCredit(c.Request.Context(), id, req.Amount, req.Reason, httpkit.ActorID(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadFromDomain(lead))
}
