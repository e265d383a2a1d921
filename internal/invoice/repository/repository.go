package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"buildportal/internal/docstore"
	"buildportal/internal/invoice/transport"
	"buildportal/platform/apperr"
)

const collection = "invoices"

// LineItem is a stored invoice line with its computed total.
type LineItem struct {
	Name           string  `json:"name"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	TaxRateBps     int     `json:"taxRateBps"`
	LineTotalCents int64   `json:"lineTotalCents"`
}

// Invoice is the persisted invoice aggregate. Amounts in cents, tax rates
// in basis points.
type Invoice struct {
	ID              uuid.UUID        `json:"id"`
	ProjectID       uuid.UUID        `json:"projectId"`
	ClientID        uuid.UUID        `json:"clientId"`
	ContractorID    uuid.UUID        `json:"contractorId"`
	ManagerID       uuid.UUID        `json:"managerId"`
	QuotationID     *uuid.UUID       `json:"quotationId,omitempty"`
	Status          transport.Status `json:"status"`
	Items           []LineItem       `json:"items"`
	SubtotalCents   int64            `json:"subtotalCents"`
	TaxTotalCents   int64            `json:"taxTotalCents"`
	GrandTotalCents int64            `json:"grandTotalCents"`
	IssuedAt        *time.Time       `json:"issuedAt,omitempty"`
	DueDate         *time.Time       `json:"dueDate,omitempty"`
	PaidAt          *time.Time       `json:"paidAt,omitempty"`
	PaidBy          *string          `json:"paidBy,omitempty"`
	CancelledAt     *time.Time       `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Repository persists invoices in the document store.
type Repository struct {
	store docstore.Store
}

func New(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// GetByID returns the invoice or (nil, nil) when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	raw, err := r.store.Get(ctx, collection, id.String())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load invoice", err)
	}
	var inv Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "decode invoice", err)
	}
	return &inv, nil
}

// List returns all invoices in insertion order.
func (r *Repository) List(ctx context.Context) ([]Invoice, error) {
	docs, err := r.store.List(ctx, collection)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list invoices", err)
	}
	out := make([]Invoice, 0, len(docs))
	for _, doc := range docs {
		var inv Invoice
		if err := json.Unmarshal(doc.Data, &inv); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "decode invoice", err)
		}
		out = append(out, inv)
	}
	return out, nil
}

// FindByQuotationID returns the invoice created from the given quotation,
// or (nil, nil) when none exists. Conversion creates at most one invoice
// per quotation, so the first match wins.
func (r *Repository) FindByQuotationID(ctx context.Context, quotationID uuid.UUID) (*Invoice, error) {
	invoices, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		if invoices[i].QuotationID != nil && *invoices[i].QuotationID == quotationID {
			return &invoices[i], nil
		}
	}
	return nil, nil
}

// Create stores a new invoice under its ID.
func (r *Repository) Create(ctx context.Context, inv *Invoice) error {
	if err := r.store.AddWithID(ctx, collection, inv.ID.String(), inv); err != nil {
		return apperr.Wrap(apperr.KindInternal, "store invoice", err)
	}
	return nil
}

// Update overwrites an existing invoice.
func (r *Repository) Update(ctx context.Context, inv *Invoice) error {
	if err := r.store.Update(ctx, collection, inv.ID.String(), inv); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperr.NotFound("invoice")
		}
		return apperr.Wrap(apperr.KindInternal, "update invoice", err)
	}
	return nil
}
