package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"buildportal/internal/docstore"
	"buildportal/internal/invoice/transport"
)

func sampleInvoice() *Invoice {
	now := time.Now().UTC().Truncate(time.Second)
	return &Invoice{
		ID:           uuid.New(),
		ProjectID:    uuid.New(),
		ClientID:     uuid.New(),
		ContractorID: uuid.New(),
		ManagerID:    uuid.New(),
		Status:       transport.StatusDraft,
		Items: []LineItem{
			{Name: "Labour", Quantity: 2, UnitPriceCents: 10000, TaxRateBps: 1500, LineTotalCents: 23000},
		},
		SubtotalCents:   20000,
		TaxTotalCents:   3000,
		GrandTotalCents: 23000,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestCreateRoundTrip(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := New(store)
	ctx := context.Background()

	inv := sampleInvoice()
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected invoice, got nil")
	}
	if got.Status != transport.StatusDraft || got.GrandTotalCents != 23000 {
		t.Fatalf("unexpected invoice after round trip: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].Name != "Labour" {
		t.Fatalf("unexpected items after round trip: %+v", got.Items)
	}
}

func TestCreateStoresJSONObject(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := New(store)
	ctx := context.Background()

	inv := sampleInvoice()
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// The stored payload must be a JSON object keyed by the entity's
	// fields, not a re-encoded string.
	raw, err := store.Get(ctx, "invoices", inv.ID.String())
	if err != nil {
		t.Fatalf("raw get failed: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("stored document is not an object: %v (payload %s)", err, raw)
	}
	if doc["id"] != inv.ID.String() {
		t.Fatalf("expected id %s in document, got %v", inv.ID, doc["id"])
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := New(store)
	ctx := context.Background()

	inv := sampleInvoice()
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	inv.Status = transport.StatusIssued
	issuedAt := time.Now().UTC()
	inv.IssuedAt = &issuedAt
	if err := repo.Update(ctx, inv); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != transport.StatusIssued || got.IssuedAt == nil {
		t.Fatalf("update not persisted: %+v", got)
	}
}
