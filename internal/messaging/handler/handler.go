package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"buildportal/internal/messaging/service"
	"buildportal/internal/messaging/transport"
	"buildportal/platform/httpkit"
	"buildportal/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for direct messaging
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new messaging handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the messaging routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Inbox)
	rg.POST("", h.Send)
	rg.POST("/broadcast", h.Broadcast)
	rg.POST("/validate", h.Validate)
	rg.GET("/threads/:id", h.Thread)
	rg.POST("/:id/read", h.MarkRead)
}

// Inbox handles GET /api/v1/messages
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

// Send handles POST /api/v1/messages. A rejected message returns 422 with
// the structured validation result.
func (h *Handler) Send(c *gin.Context) {
	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Send(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	if !result.Validation.Valid {
		httpkit.JSON(c, http.StatusUnprocessableEntity, result)
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Broadcast handles POST /api/v1/messages/broadcast
func (h *Handler) Broadcast(c *gin.Context) {
	var req transport.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Broadcast(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	if !result.Validation.Valid {
		httpkit.JSON(c, http.StatusUnprocessableEntity, result)
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Validate handles POST /api/v1/messages/validate — dry-run validation
// without persisting. Note the rate-limit timestamp is still recorded.
func (h *Handler) Validate(c *gin.Context) {
	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var result transport.ValidationResult
	if req.ThreadID != nil {
		result = h.svc.ValidateReply(c.Request.Context(), req)
	} else {
		result = h.svc.ValidateMessage(c.Request.Context(), req)
	}
	httpkit.OK(c, result)
}

// Thread handles GET /api/v1/messages/threads/:id
func (h *Handler) Thread(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Thread(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MarkRead handles POST /api/v1/messages/:id/read
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
