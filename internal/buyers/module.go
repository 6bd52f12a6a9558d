// Package buyers provides the buyers bounded context module: buyer records
// and their per-service protocol configurations.
package buyers

import (
	"leadexchange_backend/internal/buyers/handler"
	"leadexchange_backend/internal/buyers/repository"
	"leadexchange_backend/internal/buyers/service"
	apphttp "leadexchange_backend/internal/http"
	"leadexchange_backend/platform/logger"
	"leadexchange_backend/platform/validator"
)

// Module is the buyers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the buyers module with all its dependencies.
func NewModule(db repository.DB, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(db)
	svc := service.New(repo, log)
	h := handler.New(svc, val)
	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "buyers"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts buyer management routes on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/buyers"))
}

var _ apphttp.Module = (*Module)(nil)
