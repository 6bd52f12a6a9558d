// Package leads provides the leads bounded context module: intake, the
// status machine, credits, and the audit history.
package leads

import (
	"leadexchange_backend/internal/events"
	apphttp "leadexchange_backend/internal/http"
	"leadexchange_backend/internal/leads/handler"
	"leadexchange_backend/internal/leads/repository"
	"leadexchange_backend/internal/leads/service"
	"leadexchange_backend/platform/logger"
	"leadexchange_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(db repository.DB, eventBus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(db)
	svc := service.New(repo, log)
	svc.SetEventBus(eventBus)
	h := handler.New(svc, val)
	ph := handler.NewPublicHandler(svc, val)

	return &Module{handler: h, publicHandler: ph, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes: the intake endpoint on the public group
// and everything else behind admin auth.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.publicHandler.RegisterRoutes(ctx.Public)
	m.handler.RegisterRoutes(ctx.Admin.Group("/leads"))
}

var _ apphttp.Module = (*Module)(nil)
