package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Workflow types routed by the notifier.
const (
	TypeQuotationWorkflow = "quotation_workflow"
	TypeInvoiceWorkflow   = "invoice_workflow"
	TypeTaskAssignment    = "task_assignment"
	TypeProjectUpdate     = "project_update"
	TypeSystemAlert       = "system_alert"
)

// Message priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValueKind discriminates the typed template values.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindDate
)

// Value is a typed template value: string, number, date, or null.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Date time.Time
}

// String creates a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number creates a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Date creates a date value.
func Date(t time.Time) Value { return Value{Kind: KindDate, Date: t} }

// Null creates a null value.
func Null() Value { return Value{Kind: KindNull} }

// MarshalJSON encodes the value as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindDate:
		return json.Marshal(v.Date.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into a typed value. Strings that
// parse as RFC 3339 timestamps become dates.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case nil:
		*v = Null()
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			*v = Date(t)
		} else {
			*v = String(val)
		}
	case float64:
		*v = Number(val)
	case bool:
		*v = String(fmt.Sprintf("%t", val))
	default:
		return fmt.Errorf("unsupported template value %s", string(data))
	}
	return nil
}

// SystemEvent is a normalized workflow occurrence fed to the notifier,
// either converted from a domain event or ingested over HTTP.
type SystemEvent struct {
	WorkflowType   string           `json:"workflowType" validate:"required"`
	Action         string           `json:"action" validate:"required"`
	EntityType     string           `json:"entityType" validate:"required"`
	EntityID       string           `json:"entityId" validate:"required"`
	ProjectID      uuid.UUID        `json:"projectId"`
	ClientID       uuid.UUID        `json:"clientId"`
	ManagerID      uuid.UUID        `json:"managerId"`
	ParticipantIDs []uuid.UUID      `json:"participantIds,omitempty"`
	RecipientIDs   []uuid.UUID      `json:"recipientIds,omitempty"`
	Data           map[string]Value `json:"data,omitempty"`
}

// WorkflowMessageResponse is the API representation of a persisted
// workflow message, scoped to the requesting recipient.
type WorkflowMessageResponse struct {
	ID           uuid.UUID   `json:"id"`
	WorkflowType string      `json:"workflowType"`
	Action       string      `json:"action"`
	EntityType   string      `json:"entityType"`
	EntityID     string      `json:"entityId"`
	ProjectID    uuid.UUID   `json:"projectId"`
	Subject      string      `json:"subject"`
	Content      string      `json:"content"`
	Priority     string      `json:"priority"`
	Recipients   []uuid.UUID `json:"recipients"`
	Status       string      `json:"status"`
	Read         bool        `json:"read"`
	ReadAt       *time.Time  `json:"readAt,omitempty"`
	SentAt       time.Time   `json:"sentAt"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// IngestResponse reports whether an ingested event produced or matched a
// workflow message.
type IngestResponse struct {
	Delivered bool `json:"delivered"`
}
