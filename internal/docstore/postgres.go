package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a single JSONB table keyed by
// (collection, id). See migrations/000001_create_documents.up.sql.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed document store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var data json.RawMessage
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore get %s/%s: %w", collection, id, err)
	}
	return data, nil
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at ASC`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("docstore list %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return nil, fmt.Errorf("docstore list %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("docstore list %s: %w", collection, rows.Err())
	}
	return docs, nil
}

func (s *PostgresStore) Add(ctx context.Context, collection string, value any) (string, error) {
	id := uuid.NewString()
	if err := s.AddWithID(ctx, collection, id, value); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) AddWithID(ctx context.Context, collection, id string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("docstore marshal %s/%s: %w", collection, id, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`,
		collection, id, data,
	)
	if err != nil {
		return fmt.Errorf("docstore add %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("docstore marshal %s/%s: %w", collection, id, err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET data = $3, updated_at = now() WHERE collection = $1 AND id = $2`,
		collection, id, data,
	)
	if err != nil {
		return fmt.Errorf("docstore update %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("docstore delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
