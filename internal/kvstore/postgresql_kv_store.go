package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

// PostgreSQLStore implements Store on top of a PostgreSQL kv_entries table.
type PostgreSQLStore struct {
	db *sql.DB
}

// NewPostgreSQLStore creates a new PostgreSQL-backed key-value store.
func NewPostgreSQLStore(db *sql.DB) *PostgreSQLStore {
	return &PostgreSQLStore{db: db}
}

// Get returns the values for the given keys. Absent keys are omitted from
// the result map.
func (p *PostgreSQLStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = key
	}

	query := fmt.Sprintf(
		`SELECT k, v FROM kv_entries WHERE k IN (%s)`,
		strings.Join(placeholders, ", "),
	)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get kv entries")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan kv entry")
		}
		result[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate kv entries")
	}

	return result, nil
}

// Set upserts all given pairs inside a single transaction.
func (p *PostgreSQLStore) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, "failed to begin kv transaction")
	}

	query := `INSERT INTO kv_entries (k, v, updated_at) VALUES ($1, $2, $3)
			  ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	for k, v := range values {
		if _, err := tx.ExecContext(ctx, query, k, v, now); err != nil {
			_ = tx.Rollback()
			return apperrors.Wrap(err, "failed to set kv entry")
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, "failed to commit kv transaction")
	}
	return nil
}

// Remove deletes the given keys. Removing absent keys is not an error.
func (p *PostgreSQLStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = key
	}

	query := fmt.Sprintf(
		`DELETE FROM kv_entries WHERE k IN (%s)`,
		strings.Join(placeholders, ", "),
	)

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to remove kv entries")
	}
	return nil
}
