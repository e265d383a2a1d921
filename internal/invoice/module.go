// Package invoice provides the invoice lifecycle domain module.
package invoice

import (
	"buildportal/internal/docstore"
	apphttp "buildportal/internal/http"
	"buildportal/internal/invoice/handler"
	"buildportal/internal/invoice/repository"
	"buildportal/internal/invoice/service"
	"buildportal/platform/events"
	"buildportal/platform/validator"
)

// Module represents the invoice domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new invoice module with all dependencies wired
func NewModule(store docstore.Store, eventBus events.Bus, val *validator.Validator) *Module {
	repo := repository.New(store)
	svc := service.New(repo)
	svc.SetEventBus(eventBus)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "invoice"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	invoices := ctx.Protected.Group("/invoices")
	m.handler.RegisterRoutes(invoices)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
