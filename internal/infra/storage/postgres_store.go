package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore is the primary document backend: a single documents table
// keyed by (kind, key) with a JSONB value column.
type PostgresStore struct {
	db *sql.DB
}

const schemaDDL = `CREATE TABLE IF NOT EXISTS documents (
    kind       VARCHAR(64)  NOT NULL,
    key        VARCHAR(255) NOT NULL,
    value      JSONB        NOT NULL,
    updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    PRIMARY KEY (kind, key)
)`

// NewPostgresStore prepares the documents table on the given connection.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if _, err := db.Exec(schemaDDL); err != nil {
		return nil, fmt.Errorf("failed to ensure documents schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	query := `SELECT value FROM documents WHERE kind = $1 AND key = $2`
	var value []byte
	err := s.db.QueryRowContext(ctx, query, string(kind), key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting document %s/%s: %w", kind, key, err)
	}
	return value, nil
}

func (s *PostgresStore) Put(ctx context.Context, kind Kind, key string, value []byte) error {
	query := `INSERT INTO documents (kind, key, value, updated_at)
               VALUES ($1, $2, $3, NOW())
               ON CONFLICT (kind, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, string(kind), key, value); err != nil {
		return fmt.Errorf("error putting document %s/%s: %w", kind, key, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, kind Kind) (map[string][]byte, error) {
	query := `SELECT key, value FROM documents WHERE kind = $1 ORDER BY key`
	rows, err := s.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("error listing documents of kind %s: %w", kind, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("error scanning document row: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return out, nil
}

// Close is a no-op: the *sql.DB is owned and closed by the caller.
func (s *PostgresStore) Close() error { return nil }
