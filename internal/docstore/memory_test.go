package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type sampleDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.AddWithID(ctx, "samples", "a", sampleDoc{Name: "first", Count: 1}); err != nil {
		t.Fatalf("AddWithID failed: %v", err)
	}

	data, err := store.Get(ctx, "samples", "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var got sampleDoc
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Name != "first" || got.Count != 1 {
		t.Fatalf("unexpected document: %+v", got)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "samples", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreUpdateMissing(t *testing.T) {
	store := NewMemoryStore()

	err := store.Update(context.Background(), "samples", "missing", sampleDoc{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreListPreservesInsertionOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		if err := store.AddWithID(ctx, "samples", id, sampleDoc{Name: id}); err != nil {
			t.Fatalf("AddWithID %s failed: %v", id, err)
		}
	}

	docs, err := store.List(ctx, "samples")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for i, want := range []string{"c", "a", "b"} {
		if docs[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, docs[i].ID)
		}
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.AddWithID(ctx, "samples", "a", sampleDoc{Name: "first"}); err != nil {
		t.Fatalf("AddWithID failed: %v", err)
	}
	if err := store.Delete(ctx, "samples", "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "samples", "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting an absent document is a no-op.
	if err := store.Delete(ctx, "samples", "a"); err != nil {
		t.Fatalf("repeat Delete failed: %v", err)
	}
}

func TestMemoryStoreAddGeneratesID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Add(ctx, "samples", sampleDoc{Name: "generated"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}
	if _, err := store.Get(ctx, "samples", id); err != nil {
		t.Fatalf("Get after Add failed: %v", err)
	}
}
