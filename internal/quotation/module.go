// Package quotation provides the quotation lifecycle domain module.
package quotation

import (
	"buildportal/internal/docstore"
	apphttp "buildportal/internal/http"
	"buildportal/internal/quotation/handler"
	"buildportal/internal/quotation/repository"
	"buildportal/internal/quotation/service"
	"buildportal/platform/events"
	"buildportal/platform/validator"
)

// Module represents the quotation domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new quotation module with all dependencies wired
func NewModule(store docstore.Store, eventBus events.Bus, val *validator.Validator) *Module {
	repo := repository.New(store)
	svc := service.New(repo)
	svc.SetEventBus(eventBus)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotation"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapter wiring
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// SetInvoiceConverter injects the invoice conversion dependency (set after
// construction to break circular deps).
func (m *Module) SetInvoiceConverter(conv handler.InvoiceConverter) {
	m.handler.SetInvoiceConverter(conv)
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	quotations := ctx.Protected.Group("/quotations")
	m.handler.RegisterRoutes(quotations)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
