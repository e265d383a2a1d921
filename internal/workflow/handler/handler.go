package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"buildportal/internal/workflow/service"
	"buildportal/internal/workflow/transport"
	"buildportal/platform/httpkit"
	"buildportal/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the workflow message inbox and event
// ingestion.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new workflow handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the workflow routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Inbox)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/read", h.MarkRead)
	rg.POST("/events", h.Ingest)
}

// GetByID handles GET /api/v1/workflow-messages/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Message(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Inbox handles GET /api/v1/workflow-messages — the caller's inbox.
func (h *Handler) Inbox(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Inbox(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MarkRead handles POST /api/v1/workflow-messages/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.MarkRead(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Ingest handles POST /api/v1/workflow-messages/events — direct system
// event ingestion for callers outside the in-process event bus.
func (h *Handler) Ingest(c *gin.Context) {
	var evt transport.SystemEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(evt); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	delivered := h.svc.Process(c.Request.Context(), evt)
	httpkit.OK(c, transport.IngestResponse{Delivered: delivered})
}
