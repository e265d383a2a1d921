package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"buildportal/internal/invoice/repository"
	"buildportal/internal/invoice/transport"
	"buildportal/platform/apperr"
)

// SourceQuotation carries the fields conversion needs without importing
// the quotation domain.
type SourceQuotation struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	ClientID        uuid.UUID
	ContractorID    uuid.UUID
	ManagerID       uuid.UUID
	Items           []repository.LineItem
	SubtotalCents   int64
	TaxTotalCents   int64
	GrandTotalCents int64
}

// QuotationSource is the narrow interface the invoice service needs to
// read an accepted quotation. Implemented by an adapter in
// internal/adapters that wraps the quotation repository.
type QuotationSource interface {
	// GetAccepted returns the quotation when it exists and is in
	// ClientAccepted status; a not-found or invalid-state error otherwise.
	GetAccepted(ctx context.Context, id uuid.UUID) (*SourceQuotation, error)
}

// SetQuotationSource injects the quotation reader (set after construction
// to break circular deps).
func (s *Service) SetQuotationSource(src QuotationSource) {
	s.quotation = src
}

// CreateFromQuotation converts an accepted quotation into a draft invoice.
// Conversion is idempotent: a second call for the same quotation returns
// the invoice created by the first.
func (s *Service) CreateFromQuotation(ctx context.Context, quotationID uuid.UUID) (*transport.InvoiceResponse, error) {
	existing, err := s.repo.FindByQuotationID(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return toResponse(existing), nil
	}

	if s.quotation == nil {
		return nil, apperr.Internal("quotation source not configured")
	}
	src, err := s.quotation.GetAccepted(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	qid := src.ID
	inv := &repository.Invoice{
		ID:              uuid.New(),
		ProjectID:       src.ProjectID,
		ClientID:        src.ClientID,
		ContractorID:    src.ContractorID,
		ManagerID:       src.ManagerID,
		QuotationID:     &qid,
		Status:          transport.StatusDraft,
		Items:           src.Items,
		SubtotalCents:   src.SubtotalCents,
		TaxTotalCents:   src.TaxTotalCents,
		GrandTotalCents: src.GrandTotalCents,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return toResponse(inv), nil
}
