// Package directory provides read access to the user directory: the set
// of known users and their active flags. Recipient resolution and message
// validation both consult it; user administration itself lives outside
// this service.
package directory

import (
	"context"
	"encoding/json"
	"errors"

	"buildportal/internal/docstore"
)

const collectionUsers = "users"

// User is a directory entry.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// Repository reads users from the document store.
type Repository struct {
	store docstore.Store
}

// NewRepository creates a directory repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// GetByID returns the user or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	data, err := r.store.Get(ctx, collectionUsers, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns all directory users.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	docs, err := r.store.List(ctx, collectionUsers)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(docs))
	for _, doc := range docs {
		var user User
		if err := json.Unmarshal(doc.Data, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
