package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
	"github.com/custodia-labs/sessync/internal/logger"
)

// Keys of the persisted state.
const (
	KeyLastSync        = "lastSync"
	KeyLastSyncStatus  = "lastSyncStatus"
	KeyLastSyncMessage = "lastSyncMessage"
	KeyLastError       = "lastError"
	KeyErrorCode       = "errorCode"
	KeyRetryCount      = "retryCount"
	KeyLastTrigger     = "lastTrigger"
	KeyCookieCount     = "cookieCount"
	KeyMissingCookies  = "missingCookies"
	KeyLastAttemptID   = "lastAttemptId"

	KeyLastClear          = "lastClear"
	KeyLastClearStatus    = "lastClearStatus"
	KeyLastClearMessage   = "lastClearMessage"
	KeyLastClearError     = "lastClearError"
	KeyClearedCookieCount = "clearedCookieCount"

	KeyLastConnectionTest    = "lastConnectionTest"
	KeyLastConnectionStatus  = "lastConnectionStatus"
	KeyLastConnectionMessage = "lastConnectionMessage"
	KeyConnectionMethod      = "connectionMethod"
)

// HistoryLimit is the number of outcomes kept in history.
const HistoryLimit = 100

var outcomeKeys = []string{
	KeyLastSync, KeyLastSyncStatus, KeyLastSyncMessage, KeyLastError, KeyErrorCode,
	KeyRetryCount, KeyLastTrigger, KeyCookieCount, KeyMissingCookies, KeyLastAttemptID,
}

var clearKeys = []string{
	KeyLastClear, KeyLastClearStatus, KeyLastClearMessage, KeyLastClearError, KeyClearedCookieCount,
}

var connectionKeys = []string{
	KeyLastConnectionTest, KeyLastConnectionStatus, KeyLastConnectionMessage, KeyConnectionMethod,
}

// OutcomeRecorder persists terminal outcomes and operation metadata in the
// key/value store. History is optional.
type OutcomeRecorder struct {
	store   driven.KVStore
	history driven.HistoryStore
}

// NewOutcomeRecorder creates a recorder. history may be nil.
func NewOutcomeRecorder(store driven.KVStore, history driven.HistoryStore) *OutcomeRecorder {
	return &OutcomeRecorder{store: store, history: history}
}

// Record overwrites the last outcome. A success removes any persisted error
// fields; other statuses keep the last success message.
func (r *OutcomeRecorder) Record(ctx context.Context, o *domain.OutcomeRecord) error {
	entries := map[string]string{
		KeyLastSync:       formatMillis(o.Timestamp),
		KeyLastSyncStatus: string(o.Status),
		KeyRetryCount:     strconv.Itoa(o.RetryCount),
		KeyLastTrigger:    string(o.Trigger),
		KeyCookieCount:    strconv.Itoa(o.CredentialCount),
		KeyMissingCookies: strings.Join(o.Missing, ","),
		KeyLastAttemptID:  o.AttemptID,
	}

	var stale []string
	if o.Status == domain.OutcomeSuccess {
		entries[KeyLastSyncMessage] = o.Message
		stale = append(stale, KeyLastError, KeyErrorCode)
	} else {
		entries[KeyLastError] = o.Message
		if o.ErrorCode != nil {
			entries[KeyErrorCode] = strconv.Itoa(*o.ErrorCode)
		} else {
			stale = append(stale, KeyErrorCode)
		}
	}
	if len(o.Missing) == 0 {
		stale = append(stale, KeyMissingCookies)
		delete(entries, KeyMissingCookies)
	}

	if err := r.store.Set(ctx, entries); err != nil {
		return fmt.Errorf("persist outcome: %w", err)
	}
	if len(stale) > 0 {
		if err := r.store.Remove(ctx, stale...); err != nil {
			return fmt.Errorf("clear error fields: %w", err)
		}
	}

	if r.history != nil {
		if err := r.history.RecordOutcome(ctx, o); err != nil {
			logger.Warn("outcomes: recording history: %v", err)
		} else if err := r.history.PruneHistory(ctx, HistoryLimit); err != nil {
			logger.Warn("outcomes: pruning history: %v", err)
		}
	}
	return nil
}

// Last returns the last persisted outcome, or nil if there is none.
func (r *OutcomeRecorder) Last(ctx context.Context) (*domain.OutcomeRecord, error) {
	values, err := r.store.Get(ctx, outcomeKeys...)
	if err != nil {
		return nil, fmt.Errorf("read outcome: %w", err)
	}
	status := values[KeyLastSyncStatus]
	if status == "" {
		return nil, nil
	}

	o := &domain.OutcomeRecord{
		AttemptID:       values[KeyLastAttemptID],
		Status:          domain.OutcomeStatus(status),
		Trigger:         domain.Trigger(values[KeyLastTrigger]),
		Timestamp:       parseMillis(values[KeyLastSync]),
		RetryCount:      atoi(values[KeyRetryCount]),
		CredentialCount: atoi(values[KeyCookieCount]),
	}
	if o.Status == domain.OutcomeSuccess {
		o.Message = values[KeyLastSyncMessage]
	} else {
		o.Message = values[KeyLastError]
	}
	if code, ok := values[KeyErrorCode]; ok && code != "" {
		n := atoi(code)
		o.ErrorCode = &n
	}
	if missing := values[KeyMissingCookies]; missing != "" {
		o.Missing = strings.Split(missing, ",")
	}
	return o, nil
}

// RecordClear stores the metadata of a "clear all" operation.
func (r *OutcomeRecorder) RecordClear(ctx context.Context, c domain.ClearRecord) error {
	entries := map[string]string{
		KeyLastClear:          formatMillis(c.Timestamp),
		KeyClearedCookieCount: strconv.Itoa(c.ClearedCount),
	}
	if c.Success {
		entries[KeyLastClearStatus] = "success"
		entries[KeyLastClearMessage] = c.Message
	} else {
		entries[KeyLastClearStatus] = "error"
		entries[KeyLastClearError] = c.Message
	}
	if err := r.store.Set(ctx, entries); err != nil {
		return fmt.Errorf("persist clear: %w", err)
	}
	return nil
}

// LastClear returns the last clear metadata, or nil if there is none.
func (r *OutcomeRecorder) LastClear(ctx context.Context) (*domain.ClearRecord, error) {
	values, err := r.store.Get(ctx, clearKeys...)
	if err != nil {
		return nil, fmt.Errorf("read clear: %w", err)
	}
	status := values[KeyLastClearStatus]
	if status == "" {
		return nil, nil
	}
	c := &domain.ClearRecord{
		Timestamp:    parseMillis(values[KeyLastClear]),
		Success:      status == "success",
		ClearedCount: atoi(values[KeyClearedCookieCount]),
		Message:      values[KeyLastClearMessage],
	}
	if !c.Success {
		c.Message = values[KeyLastClearError]
	}
	return c, nil
}

// RecordConnection stores the result of a connectivity test.
func (r *OutcomeRecorder) RecordConnection(ctx context.Context, c domain.ConnectionRecord) error {
	entries := map[string]string{
		KeyLastConnectionTest:    formatMillis(c.Timestamp),
		KeyLastConnectionStatus:  c.Status,
		KeyLastConnectionMessage: c.Message,
	}
	if c.Method != "" {
		entries[KeyConnectionMethod] = c.Method
	}
	if err := r.store.Set(ctx, entries); err != nil {
		return fmt.Errorf("persist connection test: %w", err)
	}
	if c.Method == "" {
		return r.store.Remove(ctx, KeyConnectionMethod)
	}
	return nil
}

// LastConnection returns the last connectivity test, or nil if there is none.
func (r *OutcomeRecorder) LastConnection(ctx context.Context) (*domain.ConnectionRecord, error) {
	values, err := r.store.Get(ctx, connectionKeys...)
	if err != nil {
		return nil, fmt.Errorf("read connection test: %w", err)
	}
	if values[KeyLastConnectionStatus] == "" {
		return nil, nil
	}
	return &domain.ConnectionRecord{
		Timestamp: parseMillis(values[KeyLastConnectionTest]),
		Status:    values[KeyLastConnectionStatus],
		Message:   values[KeyLastConnectionMessage],
		Method:    values[KeyConnectionMethod],
	}, nil
}

// History returns recent outcomes. Without a history store only the last
// outcome is available.
func (r *OutcomeRecorder) History(ctx context.Context, limit int) ([]domain.OutcomeRecord, error) {
	if r.history != nil {
		return r.history.ListOutcomes(ctx, limit)
	}
	last, err := r.Last(ctx)
	if err != nil || last == nil {
		return nil, err
	}
	return []domain.OutcomeRecord{*last}, nil
}

// Reset clears every persisted entry and the history.
func (r *OutcomeRecorder) Reset(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	if r.history != nil {
		if err := r.history.ClearHistory(ctx); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
	}
	return nil
}

func formatMillis(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
