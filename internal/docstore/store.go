// Package docstore provides a generic document store keyed by collection
// name and document id. Domain repositories layer typed access on top of
// it; the store itself knows nothing about entity shapes.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when no document exists for the id.
// Repositories translate it into an absent result so callers can decide
// the HTTP-level response.
var ErrNotFound = errors.New("document not found")

// Document is a stored record with its id and raw JSON payload.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Store is the external document-store boundary. All methods may fail
// with a transport/storage error, which callers propagate unmodified.
type Store interface {
	// Get returns the document payload or ErrNotFound.
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	// List returns every document in the collection.
	List(ctx context.Context, collection string) ([]Document, error)
	// Add stores the value under a generated id and returns the id.
	Add(ctx context.Context, collection string, value any) (string, error)
	// AddWithID stores the value under the caller-provided id.
	AddWithID(ctx context.Context, collection, id string, value any) error
	// Update replaces the document payload; ErrNotFound when absent.
	Update(ctx context.Context, collection, id string, value any) error
	// Delete removes the document; deleting an absent id is not an error.
	Delete(ctx context.Context, collection, id string) error
}
