package transport

import (
	"time"

	"github.com/google/uuid"
)

// Status defines the lifecycle status of an invoice.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusIssued    Status = "Issued"
	StatusPaid      Status = "Paid"
	StatusCancelled Status = "Cancelled"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// LineItemRequest is the input for a single invoice line.
type LineItemRequest struct {
	Name           string  `json:"name" validate:"required,min=1,max=500"`
	Quantity       float64 `json:"quantity" validate:"gt=0"`
	UnitPriceCents int64   `json:"unitPriceCents" validate:"min=0"`
	TaxRateBps     int     `json:"taxRateBps" validate:"min=0,max=10000"`
}

// CreateInvoiceRequest is the request body for creating a draft invoice.
type CreateInvoiceRequest struct {
	ProjectID    uuid.UUID         `json:"projectId" validate:"required"`
	ClientID     uuid.UUID         `json:"clientId" validate:"required"`
	ContractorID uuid.UUID         `json:"contractorId" validate:"required"`
	ManagerID    uuid.UUID         `json:"managerId" validate:"required"`
	DueDate      *time.Time        `json:"dueDate"`
	Items        []LineItemRequest `json:"items" validate:"omitempty,dive"`
}

// IssueRequest is the request body for issuing a draft invoice. The due
// date may come from the draft; the request value wins when both are set.
type IssueRequest struct {
	DueDate *time.Time `json:"dueDate"`
}

// MarkPaidRequest is the request body for recording a payment.
type MarkPaidRequest struct {
	PaidBy string     `json:"paidBy" validate:"required,min=1,max=200"`
	PaidAt *time.Time `json:"paidAt"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// LineItemResponse is a computed invoice line.
type LineItemResponse struct {
	Name           string  `json:"name"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	TaxRateBps     int     `json:"taxRateBps"`
	LineTotalCents int64   `json:"lineTotalCents"`
}

// InvoiceResponse is the API representation of an invoice.
type InvoiceResponse struct {
	ID              uuid.UUID          `json:"id"`
	ProjectID       uuid.UUID          `json:"projectId"`
	ClientID        uuid.UUID          `json:"clientId"`
	ContractorID    uuid.UUID          `json:"contractorId"`
	ManagerID       uuid.UUID          `json:"managerId"`
	QuotationID     *uuid.UUID         `json:"quotationId,omitempty"`
	Status          Status             `json:"status"`
	Items           []LineItemResponse `json:"items"`
	SubtotalCents   int64              `json:"subtotalCents"`
	TaxTotalCents   int64              `json:"taxTotalCents"`
	GrandTotalCents int64              `json:"grandTotalCents"`
	IssuedAt        *time.Time         `json:"issuedAt,omitempty"`
	DueDate         *time.Time         `json:"dueDate,omitempty"`
	PaidAt          *time.Time         `json:"paidAt,omitempty"`
	PaidBy          *string            `json:"paidBy,omitempty"`
	CancelledAt     *time.Time         `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}
