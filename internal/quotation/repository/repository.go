package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"buildportal/internal/docstore"
	"buildportal/internal/quotation/transport"
	"buildportal/platform/apperr"
)

const collection = "quotations"

// LineItem is a stored quotation line with its computed total.
type LineItem struct {
	Name           string  `json:"name"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	TaxRateBps     int     `json:"taxRateBps"`
	LineTotalCents int64   `json:"lineTotalCents"`
}

// Quotation is the persisted quotation aggregate. All monetary amounts are
// in cents; tax rates in basis points.
type Quotation struct {
	ID              uuid.UUID        `json:"id"`
	ProjectID       uuid.UUID        `json:"projectId"`
	ClientID        uuid.UUID        `json:"clientId"`
	ContractorID    uuid.UUID        `json:"contractorId"`
	ManagerID       uuid.UUID        `json:"managerId"`
	Status          transport.Status `json:"status"`
	Items           []LineItem       `json:"items"`
	SubtotalCents   int64            `json:"subtotalCents"`
	TaxTotalCents   int64            `json:"taxTotalCents"`
	GrandTotalCents int64            `json:"grandTotalCents"`
	SubmittedAt     *time.Time       `json:"submittedAt,omitempty"`
	ApprovedAt      *time.Time       `json:"approvedAt,omitempty"`
	SentAt          *time.Time       `json:"sentAt,omitempty"`
	RespondedAt     *time.Time       `json:"respondedAt,omitempty"`
	ValidUntil      *time.Time       `json:"validUntil,omitempty"`
	DecisionNote    *string          `json:"decisionNote,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Repository persists quotations in the document store.
type Repository struct {
	store docstore.Store
}

func New(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// GetByID returns the quotation or (nil, nil) when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	raw, err := r.store.Get(ctx, collection, id.String())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load quotation", err)
	}
	var q Quotation
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "decode quotation", err)
	}
	return &q, nil
}

// List returns all quotations in insertion order.
func (r *Repository) List(ctx context.Context) ([]Quotation, error) {
	docs, err := r.store.List(ctx, collection)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list quotations", err)
	}
	out := make([]Quotation, 0, len(docs))
	for _, doc := range docs {
		var q Quotation
		if err := json.Unmarshal(doc.Data, &q); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "decode quotation", err)
		}
		out = append(out, q)
	}
	return out, nil
}

// Create stores a new quotation under its ID.
func (r *Repository) Create(ctx context.Context, q *Quotation) error {
	if err := r.store.AddWithID(ctx, collection, q.ID.String(), q); err != nil {
		return apperr.Wrap(apperr.KindInternal, "store quotation", err)
	}
	return nil
}

// Update overwrites an existing quotation.
func (r *Repository) Update(ctx context.Context, q *Quotation) error {
	if err := r.store.Update(ctx, collection, q.ID.String(), q); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperr.NotFound("quotation")
		}
		return apperr.Wrap(apperr.KindInternal, "update quotation", err)
	}
	return nil
}
