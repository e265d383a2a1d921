package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation used in tests and for
// local development without a database. Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
	order       map[string][]string // insertion order per collection
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]json.RawMessage),
		order:       make(map[string][]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRaw(data), nil
}

func (s *MemoryStore) List(_ context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[collection]
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		data, ok := s.collections[collection][id]
		if !ok {
			continue
		}
		docs = append(docs, Document{ID: id, Data: cloneRaw(data)})
	}
	return docs, nil
}

func (s *MemoryStore) Add(ctx context.Context, collection string, value any) (string, error) {
	id := uuid.NewString()
	if err := s.AddWithID(ctx, collection, id, value); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) AddWithID(_ context.Context, collection, id string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("docstore marshal %s/%s: %w", collection, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]json.RawMessage)
	}
	if _, exists := s.collections[collection][id]; !exists {
		s.order[collection] = append(s.order[collection], id)
	}
	s.collections[collection][id] = data
	return nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("docstore marshal %s/%s: %w", collection, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}
	s.collections[collection][id] = data
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return nil
	}
	delete(s.collections[collection], id)

	ids := s.order[collection]
	for i, existing := range ids {
		if existing == id {
			s.order[collection] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func cloneRaw(data json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(data))
	copy(out, data)
	return out
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
