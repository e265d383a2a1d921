package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"buildportal/internal/docstore"
	"buildportal/internal/invoice/repository"
	"buildportal/internal/invoice/transport"
	"buildportal/platform/apperr"
	"buildportal/platform/events"
)

func newTestService(t *testing.T) (*Service, *events.InMemoryBus) {
	t.Helper()
	bus := events.NewInMemoryBus(nil)
	svc := New(repository.New(docstore.NewMemoryStore()))
	svc.SetEventBus(bus)
	return svc, bus
}

func recordEvents(bus *events.InMemoryBus, names ...string) *[]string {
	seen := &[]string{}
	for _, name := range names {
		bus.Subscribe(name, events.HandlerFunc(func(_ context.Context, e events.Event) error {
			*seen = append(*seen, e.EventName())
			return nil
		}))
	}
	return seen
}

func createDraft(t *testing.T, svc *Service, dueDate *time.Time) *transport.InvoiceResponse {
	t.Helper()
	inv, err := svc.Create(context.Background(), transport.CreateInvoiceRequest{
		ProjectID:    uuid.New(),
		ClientID:     uuid.New(),
		ContractorID: uuid.New(),
		ManagerID:    uuid.New(),
		DueDate:      dueDate,
		Items: []transport.LineItemRequest{
			{Name: "Foundation work", Quantity: 1, UnitPriceCents: 250000, TaxRateBps: 2100},
		},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv
}

func inThirtyDays() *time.Time {
	d := time.Now().UTC().Add(30 * 24 * time.Hour)
	return &d
}

func TestIssue_RequiresDueDate(t *testing.T) {
	svc, _ := newTestService(t)
	inv := createDraft(t, svc, nil)

	_, err := svc.Issue(context.Background(), inv.ID, transport.IssueRequest{})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error without due date, got %v", err)
	}

	due := inThirtyDays()
	issued, err := svc.Issue(context.Background(), inv.ID, transport.IssueRequest{DueDate: due})
	if err != nil {
		t.Fatalf("issue with due date: %v", err)
	}
	if issued.Status != transport.StatusIssued {
		t.Fatalf("expected Issued, got %s", issued.Status)
	}
	if issued.IssuedAt == nil || issued.DueDate == nil {
		t.Fatal("expected issuedAt and dueDate to be set")
	}
}

func TestIssue_IsIdempotent(t *testing.T) {
	svc, bus := newTestService(t)
	seen := recordEvents(bus, "invoice.issued")
	inv := createDraft(t, svc, inThirtyDays())

	if _, err := svc.Issue(context.Background(), inv.ID, transport.IssueRequest{}); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := svc.Issue(context.Background(), inv.ID, transport.IssueRequest{})
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if second.Status != transport.StatusIssued {
		t.Fatalf("expected Issued, got %s", second.Status)
	}
	if len(*seen) != 1 {
		t.Fatalf("expected exactly 1 issued event, got %d", len(*seen))
	}
}

func TestMarkPaid_StampsPayerAndPublishes(t *testing.T) {
	svc, bus := newTestService(t)
	seen := recordEvents(bus, "invoice.paid")
	inv := createDraft(t, svc, inThirtyDays())

	if _, err := svc.MarkPaid(context.Background(), inv.ID, transport.MarkPaidRequest{PaidBy: "acme bank transfer"}); apperr.GetKind(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid-state paying a draft, got %v", err)
	}

	if _, err := svc.Issue(context.Background(), inv.ID, transport.IssueRequest{}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	paid, err := svc.MarkPaid(context.Background(), inv.ID, transport.MarkPaidRequest{PaidBy: "acme bank transfer"})
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	if paid.Status != transport.StatusPaid {
		t.Fatalf("expected Paid, got %s", paid.Status)
	}
	if paid.PaidBy == nil || *paid.PaidBy != "acme bank transfer" {
		t.Fatal("expected payer to be recorded")
	}
	if paid.PaidAt == nil {
		t.Fatal("expected paidAt to be stamped")
	}

	// Re-marking a paid invoice is a no-op and publishes nothing new.
	if _, err := svc.MarkPaid(context.Background(), inv.ID, transport.MarkPaidRequest{PaidBy: "someone else"}); err != nil {
		t.Fatalf("second mark paid: %v", err)
	}
	if len(*seen) != 1 {
		t.Fatalf("expected exactly 1 paid event, got %d", len(*seen))
	}
}

func TestMarkPaid_RequiresPayer(t *testing.T) {
	svc, bus := newTestService(t)
	seen := recordEvents(bus, "invoice.paid")
	inv := createDraft(t, svc, inThirtyDays())

	if _, err := svc.Issue(context.Background(), inv.ID, transport.IssueRequest{}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.MarkPaid(context.Background(), inv.ID, transport.MarkPaidRequest{}); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for empty payer, got %v", err)
	}

	got, err := svc.Get(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != transport.StatusIssued {
		t.Fatalf("invoice left status Issued without a payer: %s", got.Status)
	}
	if len(*seen) != 0 {
		t.Fatalf("expected no paid event, got %d", len(*seen))
	}
}

func TestCancel_PaidInvoiceRejected(t *testing.T) {
	svc, _ := newTestService(t)
	inv := createDraft(t, svc, inThirtyDays())

	if _, err := svc.Issue(context.Background(), inv.ID, transport.IssueRequest{}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.MarkPaid(context.Background(), inv.ID, transport.MarkPaidRequest{PaidBy: "client"}); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	_, err := svc.Cancel(context.Background(), inv.ID)
	if apperr.GetKind(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid-state cancelling a paid invoice, got %v", err)
	}
}

func TestCancel_DraftAndIssuedAllowed(t *testing.T) {
	svc, bus := newTestService(t)
	seen := recordEvents(bus, "invoice.cancelled")

	draft := createDraft(t, svc, nil)
	cancelled, err := svc.Cancel(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("cancel draft: %v", err)
	}
	if cancelled.Status != transport.StatusCancelled {
		t.Fatalf("expected Cancelled, got %s", cancelled.Status)
	}

	issued := createDraft(t, svc, inThirtyDays())
	if _, err := svc.Issue(context.Background(), issued.ID, transport.IssueRequest{}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), issued.ID); err != nil {
		t.Fatalf("cancel issued: %v", err)
	}

	// Cancelling twice is a no-op.
	if _, err := svc.Cancel(context.Background(), issued.ID); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if len(*seen) != 2 {
		t.Fatalf("expected 2 cancelled events, got %d", len(*seen))
	}
}

// fakeQuotationSource serves a single accepted quotation.
type fakeQuotationSource struct {
	quotation *SourceQuotation
}

func (f *fakeQuotationSource) GetAccepted(_ context.Context, id uuid.UUID) (*SourceQuotation, error) {
	if f.quotation == nil || f.quotation.ID != id {
		return nil, apperr.NotFound("quotation")
	}
	return f.quotation, nil
}

func TestCreateFromQuotation_IsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	quotationID := uuid.New()
	svc.SetQuotationSource(&fakeQuotationSource{quotation: &SourceQuotation{
		ID:           quotationID,
		ProjectID:    uuid.New(),
		ClientID:     uuid.New(),
		ContractorID: uuid.New(),
		ManagerID:    uuid.New(),
		Items: []repository.LineItem{
			{Name: "Drywall installation", Quantity: 2, UnitPriceCents: 10000, TaxRateBps: 1500, LineTotalCents: 23000},
		},
		SubtotalCents:   20000,
		TaxTotalCents:   3000,
		GrandTotalCents: 23000,
	}})

	first, err := svc.CreateFromQuotation(context.Background(), quotationID)
	if err != nil {
		t.Fatalf("first conversion: %v", err)
	}
	if first.Status != transport.StatusDraft {
		t.Fatalf("expected Draft, got %s", first.Status)
	}
	if first.QuotationID == nil || *first.QuotationID != quotationID {
		t.Fatal("expected quotation link on invoice")
	}
	if first.GrandTotalCents != 23000 {
		t.Fatalf("expected grand total 23000, got %d", first.GrandTotalCents)
	}

	second, err := svc.CreateFromQuotation(context.Background(), quotationID)
	if err != nil {
		t.Fatalf("second conversion: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the existing invoice back, got %s and %s", first.ID, second.ID)
	}

	invoices, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(invoices))
	}
}

func TestCreateFromQuotation_UnknownQuotation(t *testing.T) {
	svc, _ := newTestService(t)
	svc.SetQuotationSource(&fakeQuotationSource{})

	_, err := svc.CreateFromQuotation(context.Background(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}
