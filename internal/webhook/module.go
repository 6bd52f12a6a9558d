package webhook

import (
	apphttp "leadexchange_backend/internal/http"
	"leadexchange_backend/platform/validator"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the webhook module.
func NewModule(leads LeadService, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(leads, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the public, rate-limited group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Public)
}

var _ apphttp.Module = (*Module)(nil)
