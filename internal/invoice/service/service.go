package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"buildportal/internal/events"
	"buildportal/internal/invoice/repository"
	"buildportal/internal/invoice/transport"
	"buildportal/platform/apperr"
)

// Service provides business logic for the invoice lifecycle.
type Service struct {
	repo      *repository.Repository
	eventBus  events.Bus      // optional — nil means no event publication
	quotation QuotationSource // optional — nil means no conversion support
}

// New creates a new invoice service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// SetEventBus injects the event bus (set after construction to break circular deps).
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, event)
	}
}

// Create creates a new draft invoice, computing totals server-side.
func (s *Service) Create(ctx context.Context, req transport.CreateInvoiceRequest) (*transport.InvoiceResponse, error) {
	items, subtotal, tax := calculateTotals(req.Items)
	now := time.Now().UTC()

	inv := &repository.Invoice{
		ID:              uuid.New(),
		ProjectID:       req.ProjectID,
		ClientID:        req.ClientID,
		ContractorID:    req.ContractorID,
		ManagerID:       req.ManagerID,
		Status:          transport.StatusDraft,
		Items:           items,
		SubtotalCents:   subtotal,
		TaxTotalCents:   tax,
		GrandTotalCents: subtotal + tax,
		DueDate:         req.DueDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return toResponse(inv), nil
}

// Get returns a single invoice by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.InvoiceResponse, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(inv), nil
}

// List returns all invoices.
func (s *Service) List(ctx context.Context) ([]transport.InvoiceResponse, error) {
	invoices, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, *toResponse(&invoices[i]))
	}
	return out, nil
}

// Issue moves a draft invoice to Issued. A due date is required, either on
// the draft or in the request. Issuing an already-issued invoice is a no-op.
func (s *Service) Issue(ctx context.Context, id uuid.UUID, req transport.IssueRequest) (*transport.InvoiceResponse, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.Status == transport.StatusIssued {
		return toResponse(inv), nil
	}
	if inv.Status != transport.StatusDraft {
		return nil, apperr.InvalidState(fmt.Sprintf("invoice in status %s cannot be issued", inv.Status))
	}

	dueDate := inv.DueDate
	if req.DueDate != nil {
		dueDate = req.DueDate
	}
	if dueDate == nil {
		return nil, apperr.Validation("invoice cannot be issued without a due date")
	}
	if len(inv.Items) == 0 {
		return nil, apperr.Validation("invoice must have at least one line item")
	}

	now := time.Now().UTC()
	inv.Status = transport.StatusIssued
	inv.IssuedAt = &now
	inv.DueDate = dueDate
	inv.UpdatedAt = now

	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.publish(ctx, events.InvoiceIssued{
		BaseEvent:       events.NewBaseEvent(),
		InvoiceID:       inv.ID,
		ProjectID:       inv.ProjectID,
		ClientID:        inv.ClientID,
		ManagerID:       inv.ManagerID,
		GrandTotalCents: inv.GrandTotalCents,
		DueDate:         *dueDate,
	})
	return toResponse(inv), nil
}

// MarkPaid records a payment against an issued invoice. Marking an
// already-paid invoice is a no-op.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, req transport.MarkPaidRequest) (*transport.InvoiceResponse, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.Status == transport.StatusPaid {
		return toResponse(inv), nil
	}
	if inv.Status != transport.StatusIssued {
		return nil, apperr.InvalidState(fmt.Sprintf("invoice in status %s cannot be marked paid", inv.Status))
	}
	if req.PaidBy == "" {
		return nil, apperr.Validation("invoice cannot be marked paid without a payer")
	}

	now := time.Now().UTC()
	paidAt := now
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}

	paidBy := req.PaidBy
	inv.Status = transport.StatusPaid
	inv.PaidAt = &paidAt
	inv.PaidBy = &paidBy
	inv.UpdatedAt = now

	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.publish(ctx, events.InvoicePaid{
		BaseEvent:       events.NewBaseEvent(),
		InvoiceID:       inv.ID,
		ProjectID:       inv.ProjectID,
		ClientID:        inv.ClientID,
		ManagerID:       inv.ManagerID,
		GrandTotalCents: inv.GrandTotalCents,
		PaidBy:          paidBy,
		PaidAt:          paidAt,
	})
	return toResponse(inv), nil
}

// Cancel voids a draft or issued invoice. Paid invoices cannot be
// cancelled. Cancelling an already-cancelled invoice is a no-op.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*transport.InvoiceResponse, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.Status == transport.StatusCancelled {
		return toResponse(inv), nil
	}
	if inv.Status == transport.StatusPaid {
		return nil, apperr.InvalidState("paid invoice cannot be cancelled")
	}

	now := time.Now().UTC()
	inv.Status = transport.StatusCancelled
	inv.CancelledAt = &now
	inv.UpdatedAt = now

	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.publish(ctx, events.InvoiceCancelled{
		BaseEvent: events.NewBaseEvent(),
		InvoiceID: inv.ID,
		ProjectID: inv.ProjectID,
		ClientID:  inv.ClientID,
		ManagerID: inv.ManagerID,
	})
	return toResponse(inv), nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*repository.Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperr.NotFound("invoice")
	}
	return inv, nil
}

func roundCents(v float64) int64 {
	return int64(math.Round(v))
}

func calculateTotals(items []transport.LineItemRequest) ([]repository.LineItem, int64, int64) {
	var subtotalFloat, taxFloat float64
	lines := make([]repository.LineItem, 0, len(items))
	for _, item := range items {
		lineSubtotal := item.Quantity * float64(item.UnitPriceCents)
		lineTax := lineSubtotal * (float64(item.TaxRateBps) / 10000.0)
		lines = append(lines, repository.LineItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TaxRateBps:     item.TaxRateBps,
			LineTotalCents: roundCents(lineSubtotal + lineTax),
		})
		subtotalFloat += lineSubtotal
		taxFloat += lineTax
	}
	return lines, roundCents(subtotalFloat), roundCents(taxFloat)
}

func toResponse(inv *repository.Invoice) *transport.InvoiceResponse {
	items := make([]transport.LineItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, transport.LineItemResponse{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TaxRateBps:     item.TaxRateBps,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return &transport.InvoiceResponse{
		ID:              inv.ID,
		ProjectID:       inv.ProjectID,
		ClientID:        inv.ClientID,
		ContractorID:    inv.ContractorID,
		ManagerID:       inv.ManagerID,
		QuotationID:     inv.QuotationID,
		Status:          inv.Status,
		Items:           items,
		SubtotalCents:   inv.SubtotalCents,
		TaxTotalCents:   inv.TaxTotalCents,
		GrandTotalCents: inv.GrandTotalCents,
		IssuedAt:        inv.IssuedAt,
		DueDate:         inv.DueDate,
		PaidAt:          inv.PaidAt,
		PaidBy:          inv.PaidBy,
		CancelledAt:     inv.CancelledAt,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}
