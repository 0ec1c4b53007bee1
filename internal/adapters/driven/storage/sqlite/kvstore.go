package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// kvStore implements driven.KVStore.
type kvStore struct {
	store *Store
}

var _ driven.KVStore = (*kvStore)(nil)

// Get returns the values of the requested keys, or every entry when no keys are given.
func (s *kvStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	query := "SELECT key, value FROM kv_state"
	args := make([]any, 0, len(keys))
	if len(keys) > 0 {
		query += " WHERE key IN (" + placeholders(len(keys)) + ")"
		for _, k := range keys {
			args = append(args, k)
		}
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying state: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning state: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state: %w", err)
	}
	return values, nil
}

// Set upserts all entries in one transaction.
func (s *kvStore) Set(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kv_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for k, v := range entries {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			return fmt.Errorf("saving %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing state: %w", err)
	}
	return nil
}

// Remove deletes the given keys.
func (s *kvStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, k)
	}
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM kv_state WHERE key IN ("+placeholders(len(keys))+")", args...)
	if err != nil {
		return fmt.Errorf("removing state: %w", err)
	}
	return nil
}

// Clear deletes every entry.
func (s *kvStore) Clear(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM kv_state"); err != nil {
		return fmt.Errorf("clearing state: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
