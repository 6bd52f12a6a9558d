package handler

import (
	"net/http"

	"leadexchange_backend/internal/buyers/domain"
	"leadexchange_backend/internal/buyers/service"
	"leadexchange_backend/internal/buyers/transport"
	"leadexchange_backend/internal/mapping"
	"leadexchange_backend/platform/httpkit"
	"leadexchange_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for buyers and their configurations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers buyer routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)

	rg.GET("/:id/configs", h.ListConfigs)
	rg.POST("/:id/configs", h.CreateConfig)
	rg.GET("/:id/configs/:configId", h.GetConfig)
	rg.PUT("/:id/configs/:configId", h.UpdateConfig)
	rg.POST("/:id/configs/:configId/preview", h.PreviewConfig)
}

func (h *Handler) List(c *gin.Context) {
	buyers, err := h.svc.ListBuyers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.BuyerResponse, 0, len(buyers))
	for _, b := range buyers {
		out = append(out, transport.BuyerFromDomain(b))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	buyer, err := h.svc.CreateBuyer(c.Request.Context(), req.ToDomain())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.BuyerFromDomain(buyer))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	buyer, err := h.svc.GetBuyer(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BuyerFromDomain(buyer))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.UpdateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	buyer := req.ToDomain()
	buyer.ID = id
	updated, err := h.svc.UpdateBuyer(c.Request.Context(), buyer)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BuyerFromDomain(updated))
}

func (h *Handler) ListConfigs(c *gin.Context) {
	buyerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	configs, err := h.svc.ListConfigs(c.Request.Context(), buyerID)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.ConfigResponse, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, transport.ConfigFromDomain(cfg))
	}
	httpkit.OK(c, out)
}

func (h *Handler) CreateConfig(c *gin.Context) {
	buyerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	cfg, err := h.svc.CreateConfig(c.Request.Context(), req.ToDomain(buyerID))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ConfigFromDomain(cfg))
}

func (h *Handler) GetConfig(c *gin.Context) {
	configID, err := uuid.Parse(c.Param("configId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	cfg, err := h.svc.GetConfig(c.Request.Context(), configID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ConfigFromDomain(cfg))
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	buyerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	configID, err := uuid.Parse(c.Param("configId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	cfg := req.ToDomain(buyerID)
	cfg.ID = configID
	updated, err := h.svc.UpdateConfig(c.Request.Context(), cfg)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ConfigFromDomain(updated))
}

// PreviewConfig dry-runs a configuration against sample answers and returns
// the rendered payload with any per-field failures. No buyer is contacted.
func (h *Handler) PreviewConfig(c *gin.Context) {
	configID, err := uuid.Parse(c.Param("configId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	cfg, err := h.svc.GetConfig(c.Request.Context(), configID)
	if httpkit.HandleError(c, err) {
		return
	}

	out := transport.PreviewResponse{Phase: req.Phase}
	payload, fieldErrs, renderErr := mapping.Render(req.Answers, &cfg, domain.Phase(req.Phase))
	for _, fe := range fieldErrs {
		out.FieldErrors = append(out.FieldErrors, transport.PreviewFieldError{
			Field:     fe.Field,
			Transform: string(fe.Transform),
			Message:   fe.Err.Error(),
		})
	}
	if renderErr != nil {
		out.RenderError = renderErr.Error()
		httpkit.OK(c, out)
		return
	}

	raw, err := payload.MarshalJSON()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to render payload", nil)
		return
	}
	out.Payload = raw
	out.Fields = payload.Keys()
	httpkit.OK(c, out)
}
