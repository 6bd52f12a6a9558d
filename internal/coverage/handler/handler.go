package handler

import (
	"net/http"

	"leadexchange_backend/internal/coverage/service"
	"leadexchange_backend/internal/coverage/transport"
	"leadexchange_backend/platform/httpkit"
	"leadexchange_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for coverage entries.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers coverage routes under a buyers subtree.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/buyers/:id/coverage", h.List)
	rg.POST("/buyers/:id/coverage", h.Create)
	rg.PUT("/coverage/:entryId", h.Update)
	rg.DELETE("/coverage/:entryId", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	buyerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	entries, err := h.svc.ListEntries(c.Request.Context(), buyerID)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, transport.EntryFromDomain(e))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Create(c *gin.Context) {
	buyerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	entry, err := h.svc.CreateEntry(c.Request.Context(), req.ToDomain(buyerID))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.EntryFromDomain(entry))
}

func (h *Handler) Update(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	existing, err := h.svc.GetEntry(c.Request.Context(), entryID)
	if httpkit.HandleError(c, err) {
		return
	}

	entry := req.ToDomain(existing.BuyerID)
	entry.ID = entryID
	updated, err := h.svc.UpdateEntry(c.Request.Context(), entry)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.EntryFromDomain(updated))
}

func (h *Handler) Delete(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteEntry(c.Request.Context(), entryID)) {
		return
	}
	httpkit.JSON(c, http.StatusNoContent, nil)
}
