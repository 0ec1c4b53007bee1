package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
	"github.com/custodia-labs/sessync/internal/logger"
	"github.com/custodia-labs/sessync/internal/metrics"
)

// StatusReporter sends lightweight credential-count reports to the backend.
// It is rate limited independently of sync attempts, and its failures never
// reach the caller.
type StatusReporter struct {
	gate     *LivenessGate
	backend  driven.Backend
	clock    driven.Clock
	interval time.Duration
	version  string
	metrics  *metrics.Metrics

	mu   sync.Mutex
	last time.Time
	wg   sync.WaitGroup
}

// NewStatusReporter creates a reporter.
func NewStatusReporter(
	gate *LivenessGate,
	backend driven.Backend,
	clock driven.Clock,
	cfg domain.SyncConfig,
	version string,
	m *metrics.Metrics,
) *StatusReporter {
	return &StatusReporter{
		gate:     gate,
		backend:  backend,
		clock:    clock,
		interval: cfg.MinStatusInterval,
		version:  version,
		metrics:  m,
	}
}

// Report dispatches a status report for count present credentials.
// Returns true if a report was dispatched; the POST itself runs in the background.
func (r *StatusReporter) Report(ctx context.Context, count int, trigger domain.Trigger) bool {
	if !Allow(r.clock.Now(), r.LastReportAt(), r.interval) {
		r.metrics.RecordStatusReport("rate_limited")
		return false
	}
	// The gate enumerates surfaces and may block; it runs unlocked.
	if !r.gate.IsCompanionActive(ctx) {
		r.metrics.RecordStatusReport("inactive")
		return false
	}
	now, ok := r.claim()
	if !ok {
		r.metrics.RecordStatusReport("rate_limited")
		return false
	}

	payload := domain.StatusPayload{
		CookieCount:      count,
		RequiredCount:    domain.RequiredCredentialCount,
		Status:           domain.Classify(count).String(),
		Timestamp:        now.UnixMilli(),
		Trigger:          trigger.String(),
		ExtensionVersion: r.version,
	}

	detached := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.backend.ReportStatus(detached, payload); err != nil {
			r.metrics.RecordStatusReport("failed")
			logger.Debug("status report failed: %v", err)
			return
		}
		r.metrics.RecordStatusReport("sent")
		logger.Debug("status report sent: %d/%d (%s)", count, domain.RequiredCredentialCount, payload.Status)
	}()
	return true
}

// claim takes the rate window if it is still open.
func (r *StatusReporter) claim() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	if !Allow(now, r.last, r.interval) {
		return time.Time{}, false
	}
	r.last = now
	return now, true
}

// LastReportAt returns when the last report was dispatched.
func (r *StatusReporter) LastReportAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Wait blocks until all dispatched reports have finished.
func (r *StatusReporter) Wait() {
	r.wg.Wait()
}
