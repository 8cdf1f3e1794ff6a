package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

// MySQLStore implements Store on top of a MySQL kv_entries table.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore creates a new MySQL-backed key-value store.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// Get returns the values for the given keys. Absent keys are omitted from
// the result map.
func (m *MySQLStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		placeholders[i] = "?"
		args[i] = key
	}

	query := fmt.Sprintf(
		`SELECT k, v FROM kv_entries WHERE k IN (%s)`,
		strings.Join(placeholders, ", "),
	)

	rows, err := m.db.QueryContext(ctx, query, args...)
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
func (m *MySQLStore) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, "failed to begin kv transaction")
	}

	query := `INSERT INTO kv_entries (k, v, updated_at) VALUES (?, ?, ?)
			  ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = VALUES(updated_at)`

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
func (m *MySQLStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		placeholders[i] = "?"
		args[i] = key
	}

	query := fmt.Sprintf(
		`DELETE FROM kv_entries WHERE k IN (%s)`,
		strings.Join(placeholders, ", "),
	)

	if _, err := m.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to remove kv entries")
	}
	return nil
}
