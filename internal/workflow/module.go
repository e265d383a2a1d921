// Package workflow provides the workflow notification domain module: it
// turns domain events into deduplicated, templated workflow messages and
// serves the per-user inbox.
package workflow

import (
	"buildportal/internal/directory"
	"buildportal/internal/docstore"
	"buildportal/internal/events"
	apphttp "buildportal/internal/http"
	"buildportal/internal/workflow/handler"
	"buildportal/internal/workflow/repository"
	"buildportal/internal/workflow/service"
	"buildportal/platform/logger"
	"buildportal/platform/validator"
)

// Module represents the workflow notification domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new workflow module with all dependencies wired and
// its bus subscriptions registered.
func NewModule(store docstore.Store, dir *directory.Service, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(store)
	svc := service.New(repo, dir, log)
	RegisterSubscribers(bus, svc)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "workflow"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	messages := ctx.Protected.Group("/workflow-messages")
	m.handler.RegisterRoutes(messages)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
