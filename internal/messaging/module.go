// Package messaging provides the direct-message domain module with
// spam, similarity, and rate-limit validation.
package messaging

import (
	"buildportal/internal/directory"
	"buildportal/internal/docstore"
	apphttp "buildportal/internal/http"
	"buildportal/internal/messaging/handler"
	"buildportal/internal/messaging/repository"
	"buildportal/internal/messaging/service"
	"buildportal/platform/logger"
	"buildportal/platform/validator"
)

// Module represents the messaging domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new messaging module with all dependencies wired.
// The limiter is injected so deployments can choose the process-local or
// Redis-backed implementation.
func NewModule(store docstore.Store, dir *directory.Service, limiter service.RateLimiter, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(store)
	svc := service.New(repo, dir, limiter, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "messaging"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	messages := ctx.Protected.Group("/messages")
	m.handler.RegisterRoutes(messages)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
