package transport

import (
	"time"

	"github.com/google/uuid"
)

// Status defines the lifecycle status of a quotation.
type Status string

const (
	StatusDraft             Status = "Draft"
	StatusPendingPMApproval Status = "PendingPMApproval"
	StatusSentToClient      Status = "SentToClient"
	StatusPMRejected        Status = "PMRejected"
	StatusClientAccepted    Status = "ClientAccepted"
	StatusClientDeclined    Status = "ClientDeclined"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// LineItemRequest is the input for a single line item.
type LineItemRequest struct {
	Name           string  `json:"name" validate:"required,min=1,max=500"`
	Quantity       float64 `json:"quantity" validate:"gt=0"`
	UnitPriceCents int64   `json:"unitPriceCents" validate:"min=0"`
	TaxRateBps     int     `json:"taxRateBps" validate:"min=0,max=10000"`
}

// CreateQuotationRequest is the request body for creating a new quotation.
type CreateQuotationRequest struct {
	ProjectID    uuid.UUID         `json:"projectId" validate:"required"`
	ClientID     uuid.UUID         `json:"clientId" validate:"required"`
	ContractorID uuid.UUID         `json:"contractorId" validate:"required"`
	ManagerID    uuid.UUID         `json:"managerId" validate:"required"`
	ValidUntil   *time.Time        `json:"validUntil"`
	Items        []LineItemRequest `json:"items" validate:"omitempty,dive"`
}

// ClientDecisionRequest is the request body for the client's accept/decline
// decision on a sent quotation.
type ClientDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept decline"`
	Note     string `json:"note" validate:"max=1000"`
}

// RejectRequest is the request body for a project-manager rejection.
type RejectRequest struct {
	Note string `json:"note" validate:"max=1000"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// LineItemResponse is a computed line item.
type LineItemResponse struct {
	Name           string  `json:"name"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	TaxRateBps     int     `json:"taxRateBps"`
	LineTotalCents int64   `json:"lineTotalCents"`
}

// QuotationResponse is the API representation of a quotation.
type QuotationResponse struct {
	ID              uuid.UUID          `json:"id"`
	ProjectID       uuid.UUID          `json:"projectId"`
	ClientID        uuid.UUID          `json:"clientId"`
	ContractorID    uuid.UUID          `json:"contractorId"`
	ManagerID       uuid.UUID          `json:"managerId"`
	Status          Status             `json:"status"`
	Items           []LineItemResponse `json:"items"`
	SubtotalCents   int64              `json:"subtotalCents"`
	TaxTotalCents   int64              `json:"taxTotalCents"`
	GrandTotalCents int64              `json:"grandTotalCents"`
	SubmittedAt     *time.Time         `json:"submittedAt,omitempty"`
	ApprovedAt      *time.Time         `json:"approvedAt,omitempty"`
	SentAt          *time.Time         `json:"sentAt,omitempty"`
	RespondedAt     *time.Time         `json:"respondedAt,omitempty"`
	ValidUntil      *time.Time         `json:"validUntil,omitempty"`
	DecisionNote    *string            `json:"decisionNote,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}
