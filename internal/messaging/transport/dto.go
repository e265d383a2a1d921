package transport

import (
	"time"

	"github.com/google/uuid"
)

// Severity grades a validation outcome.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ValidationResult is the structured outcome of message validation.
// Valid=false with errors means the message was rejected; warnings alone
// never block a send.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Severity Severity `json:"severity,omitempty"`
}

// AddError records a blocking problem.
func (r *ValidationResult) AddError(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

// AddWarning records a non-blocking observation.
func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// SendMessageRequest is the request body for sending a direct message.
// ThreadID marks the message as a reply inside an existing thread, which
// relaxes the receiver/project/subject requirements.
type SendMessageRequest struct {
	SenderID   uuid.UUID  `json:"senderId" validate:"required"`
	ReceiverID uuid.UUID  `json:"receiverId"`
	ProjectID  uuid.UUID  `json:"projectId"`
	ThreadID   *uuid.UUID `json:"threadId"`
	Subject    string     `json:"subject"`
	Content    string     `json:"content"`
}

// BroadcastRequest is the request body for messaging all project
// participants at once.
type BroadcastRequest struct {
	SenderID       uuid.UUID   `json:"senderId" validate:"required"`
	ProjectID      uuid.UUID   `json:"projectId" validate:"required"`
	ParticipantIDs []uuid.UUID `json:"participantIds" validate:"required,min=1"`
	Subject        string      `json:"subject"`
	Content        string      `json:"content"`
}

// MessageResponse is the API representation of a persisted message.
type MessageResponse struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   uuid.UUID  `json:"senderId"`
	ReceiverID uuid.UUID  `json:"receiverId"`
	ProjectID  uuid.UUID  `json:"projectId"`
	ThreadID   *uuid.UUID `json:"threadId,omitempty"`
	Subject    string     `json:"subject"`
	Content    string     `json:"content"`
	IsRead     bool       `json:"isRead"`
	SentAt     time.Time  `json:"sentAt"`
}

// SendResponse couples the validation outcome with the persisted message
// (nil when rejected).
type SendResponse struct {
	Validation ValidationResult  `json:"validation"`
	Message    *MessageResponse  `json:"message,omitempty"`
	Messages   []MessageResponse `json:"messages,omitempty"`
}
