// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"buildportal/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Quotation Domain Events
// =============================================================================

// QuotationSubmitted is published when a draft quotation is submitted for
// project-manager approval.
type QuotationSubmitted struct {
	BaseEvent
	QuotationID     uuid.UUID `json:"quotationId"`
	ProjectID       uuid.UUID `json:"projectId"`
	ClientID        uuid.UUID `json:"clientId"`
	ManagerID       uuid.UUID `json:"managerId"`
	GrandTotalCents int64     `json:"grandTotalCents"`
}

func (e QuotationSubmitted) EventName() string { return "quotation.submitted" }

// QuotationApproved is published when the project manager approves a
// pending quotation.
type QuotationApproved struct {
	BaseEvent
	QuotationID     uuid.UUID `json:"quotationId"`
	ProjectID       uuid.UUID `json:"projectId"`
	ClientID        uuid.UUID `json:"clientId"`
	ManagerID       uuid.UUID `json:"managerId"`
	GrandTotalCents int64     `json:"grandTotalCents"`
}

func (e QuotationApproved) EventName() string { return "quotation.approved" }

// QuotationRejected is published when the project manager rejects a
// pending quotation.
type QuotationRejected struct {
	BaseEvent
	QuotationID uuid.UUID `json:"quotationId"`
	ProjectID   uuid.UUID `json:"projectId"`
	ClientID    uuid.UUID `json:"clientId"`
	ManagerID   uuid.UUID `json:"managerId"`
	Note        string    `json:"note,omitempty"`
}

func (e QuotationRejected) EventName() string { return "quotation.rejected" }

// QuotationSent is published when an approved quotation goes out to the
// client, including re-sends.
type QuotationSent struct {
	BaseEvent
	QuotationID     uuid.UUID  `json:"quotationId"`
	ProjectID       uuid.UUID  `json:"projectId"`
	ClientID        uuid.UUID  `json:"clientId"`
	ManagerID       uuid.UUID  `json:"managerId"`
	GrandTotalCents int64      `json:"grandTotalCents"`
	ValidUntil      *time.Time `json:"validUntil,omitempty"`
}

func (e QuotationSent) EventName() string { return "quotation.sent" }

// QuotationAccepted is published when the client accepts a quotation.
type QuotationAccepted struct {
	BaseEvent
	QuotationID     uuid.UUID `json:"quotationId"`
	ProjectID       uuid.UUID `json:"projectId"`
	ClientID        uuid.UUID `json:"clientId"`
	ManagerID       uuid.UUID `json:"managerId"`
	GrandTotalCents int64     `json:"grandTotalCents"`
	Note            string    `json:"note,omitempty"`
}

func (e QuotationAccepted) EventName() string { return "quotation.accepted" }

// QuotationDeclined is published when the client declines a quotation.
type QuotationDeclined struct {
	BaseEvent
	QuotationID uuid.UUID `json:"quotationId"`
	ProjectID   uuid.UUID `json:"projectId"`
	ClientID    uuid.UUID `json:"clientId"`
	ManagerID   uuid.UUID `json:"managerId"`
	Note        string    `json:"note,omitempty"`
}

func (e QuotationDeclined) EventName() string { return "quotation.declined" }

// =============================================================================
// Invoice Domain Events
// =============================================================================

// InvoiceIssued is published when a draft invoice is issued to the client.
type InvoiceIssued struct {
	BaseEvent
	InvoiceID       uuid.UUID `json:"invoiceId"`
	ProjectID       uuid.UUID `json:"projectId"`
	ClientID        uuid.UUID `json:"clientId"`
	ManagerID       uuid.UUID `json:"managerId"`
	GrandTotalCents int64     `json:"grandTotalCents"`
	DueDate         time.Time `json:"dueDate"`
}

func (e InvoiceIssued) EventName() string { return "invoice.issued" }

// InvoicePaid is published when an issued invoice is marked paid.
type InvoicePaid struct {
	BaseEvent
	InvoiceID       uuid.UUID `json:"invoiceId"`
	ProjectID       uuid.UUID `json:"projectId"`
	ClientID        uuid.UUID `json:"clientId"`
	ManagerID       uuid.UUID `json:"managerId"`
	GrandTotalCents int64     `json:"grandTotalCents"`
	PaidBy          string    `json:"paidBy"`
	PaidAt          time.Time `json:"paidAt"`
}

func (e InvoicePaid) EventName() string { return "invoice.paid" }

// InvoiceCancelled is published when a draft or issued invoice is cancelled.
type InvoiceCancelled struct {
	BaseEvent
	InvoiceID uuid.UUID `json:"invoiceId"`
	ProjectID uuid.UUID `json:"projectId"`
	ClientID  uuid.UUID `json:"clientId"`
	ManagerID uuid.UUID `json:"managerId"`
}

func (e InvoiceCancelled) EventName() string { return "invoice.cancelled" }
