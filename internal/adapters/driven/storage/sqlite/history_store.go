package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// historyStore implements driven.HistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

// RecordOutcome appends a terminal outcome.
func (s *historyStore) RecordOutcome(ctx context.Context, o *domain.OutcomeRecord) error {
	if o == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO outcome_history
			(id, attempt_id, status, message, error_code, retry_count, trigger, recorded_at, credential_count, missing)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.NewString(),
		o.AttemptID,
		string(o.Status),
		o.Message,
		nullInt(o.ErrorCode),
		o.RetryCount,
		string(o.Trigger),
		o.Timestamp.UTC().Format(time.RFC3339Nano),
		o.CredentialCount,
		strings.Join(o.Missing, ","),
	)
	if err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	return nil
}

// ListOutcomes returns recent outcomes, most recent first.
func (s *historyStore) ListOutcomes(ctx context.Context, limit int) ([]domain.OutcomeRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT attempt_id, status, message, error_code, retry_count, trigger, recorded_at, credential_count, missing
		FROM outcome_history
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying outcome history: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.OutcomeRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outcome history: %w", err)
	}
	return outcomes, nil
}

// PruneHistory removes all but the most recent 'keep' outcomes.
func (s *historyStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM outcome_history
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (ORDER BY recorded_at DESC, rowid DESC) as rn
				FROM outcome_history
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning outcome history: %w", err)
	}
	return nil
}

// ClearHistory removes every outcome.
func (s *historyStore) ClearHistory(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM outcome_history"); err != nil {
		return fmt.Errorf("clearing outcome history: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

func scanOutcome(rows *sql.Rows) (*domain.OutcomeRecord, error) {
	var o domain.OutcomeRecord
	var status, trigger, recordedAt, missing string
	var errorCode sql.NullInt64

	if err := rows.Scan(&o.AttemptID, &status, &o.Message, &errorCode, &o.RetryCount,
		&trigger, &recordedAt, &o.CredentialCount, &missing); err != nil {
		return nil, fmt.Errorf("scanning outcome: %w", err)
	}

	o.Status = domain.OutcomeStatus(status)
	o.Trigger = domain.Trigger(trigger)
	if errorCode.Valid {
		code := int(errorCode.Int64)
		o.ErrorCode = &code
	}
	if missing != "" {
		o.Missing = strings.Split(missing, ",")
	}

	t, err := time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing recorded_at: %w", err)
	}
	o.Timestamp = t
	return &o, nil
}

// nullInt converts an optional int to a nullable SQL value.
func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
