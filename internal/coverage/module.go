// Package coverage provides the coverage bounded context module: the index
// that decides which buyers may bid on a lead in a given service/ZIP cell.
package coverage

import (
	"leadexchange_backend/internal/coverage/handler"
	"leadexchange_backend/internal/coverage/repository"
	"leadexchange_backend/internal/coverage/service"
	apphttp "leadexchange_backend/internal/http"
	"leadexchange_backend/platform/logger"
	"leadexchange_backend/platform/validator"
)

// Module is the coverage bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the coverage module with all its dependencies.
func NewModule(db repository.DB, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(db)
	svc := service.New(repo, log)
	h := handler.New(svc, val)
	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "coverage"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts coverage management routes on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
