package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
	"github.com/custodia-labs/sessync/internal/logger"
	"github.com/custodia-labs/sessync/internal/metrics"
)

const (
	inboxSize    = 64
	inboxTimeout = 5 * time.Second
)

// Ensure SyncScheduler implements the interface.
var _ driving.Scheduler = (*SyncScheduler)(nil)

// SyncScheduler serialises every sync attempt through a single loop.
//
// The loop owns SchedulerState and the batch window. Public methods only post
// messages. The network portion of an attempt runs on a worker goroutine that
// reports back to the loop, which then releases the guard and arms any retry.
type SyncScheduler struct {
	cfg       domain.SyncConfig
	clock     driven.Clock
	gate      *LivenessGate
	collector *CredentialCollector
	reporter  *StatusReporter
	backend   driven.Backend
	outcomes  *OutcomeRecorder
	retry     RetryPolicy
	version   string
	metrics   *metrics.Metrics

	inbox    chan message
	done     chan struct{}
	stopOnce sync.Once
	workers  sync.WaitGroup

	mu      sync.Mutex
	running bool

	// Owned by the loop.
	state domain.SchedulerState
	batch *BatchWindow
}

// SchedulerDeps groups the collaborators of a SyncScheduler.
type SchedulerDeps struct {
	Clock     driven.Clock
	Gate      *LivenessGate
	Collector *CredentialCollector
	Reporter  *StatusReporter
	Backend   driven.Backend
	Outcomes  *OutcomeRecorder
	Metrics   *metrics.Metrics
	Version   string
}

// NewSyncScheduler creates a scheduler. Run must be called for it to process requests.
func NewSyncScheduler(cfg domain.SyncConfig, deps SchedulerDeps) *SyncScheduler {
	s := &SyncScheduler{
		cfg:       cfg,
		clock:     deps.Clock,
		gate:      deps.Gate,
		collector: deps.Collector,
		reporter:  deps.Reporter,
		backend:   deps.Backend,
		outcomes:  deps.Outcomes,
		retry:     NewRetryPolicy(cfg),
		version:   deps.Version,
		metrics:   deps.Metrics,
		inbox:     make(chan message, inboxSize),
		done:      make(chan struct{}),
	}
	s.batch = NewBatchWindow(deps.Clock, cfg.BatchDelay, func(generation uint64) {
		s.post(message{kind: msgBatchFired, generation: generation})
	})
	return s
}

// Run processes messages until ctx is cancelled. In-flight attempts and status
// reports are drained before it returns. A scheduler cannot be restarted.
func (s *SyncScheduler) Run(ctx context.Context) error {
	select {
	case <-s.done:
		return domain.ErrSchedulerStopped
	default:
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	logger.Info("scheduler: started (min interval %s, batch delay %s)", s.cfg.MinSyncInterval, s.cfg.BatchDelay)
	defer func() {
		s.stopOnce.Do(func() { close(s.done) })
		s.batch.Cancel()
		s.workers.Wait()
		s.reporter.Wait()
		logger.Info("scheduler: stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-s.inbox:
			s.handle(ctx, msg)
		}
	}
}

// Schedule queues a trigger through the batch window.
func (s *SyncScheduler) Schedule(trigger domain.Trigger, detail string) {
	s.post(message{kind: msgSchedule, trigger: trigger, detail: detail})
}

// RequestNow bypasses the batch window and waits for the first attempt of the
// chain. The rate limit and guard still apply; a dropped request returns a
// report with Skipped set.
func (s *SyncScheduler) RequestNow(ctx context.Context, trigger domain.Trigger, detail string) (*domain.AttemptReport, error) {
	reply := make(chan *domain.AttemptReport, 1)
	msg := message{kind: msgRequest, attempt: s.newAttempt(trigger, detail), reply: reply}
	if err := s.send(ctx, msg); err != nil {
		return nil, err
	}

	select {
	case report := <-reply:
		return report, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, domain.ErrSchedulerStopped
	}
}

// Snapshot returns a copy of the scheduler state.
func (s *SyncScheduler) Snapshot(ctx context.Context) (domain.SchedulerState, error) {
	reply := make(chan domain.SchedulerState, 1)
	if err := s.send(ctx, message{kind: msgSnapshot, state: reply}); err != nil {
		return domain.SchedulerState{}, err
	}
	select {
	case state := <-reply:
		return state, nil
	case <-ctx.Done():
		return domain.SchedulerState{}, ctx.Err()
	case <-s.done:
		return domain.SchedulerState{}, domain.ErrSchedulerStopped
	}
}

func (s *SyncScheduler) newAttempt(trigger domain.Trigger, detail string) domain.AttemptContext {
	return domain.AttemptContext{ID: uuid.NewString(), Trigger: trigger, Detail: detail}
}

// send posts msg, giving up when ctx is done or the loop has stopped.
func (s *SyncScheduler) send(ctx context.Context, msg message) error {
	select {
	case s.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return domain.ErrSchedulerStopped
	}
}

// post is send for callers without a context, such as timer callbacks.
func (s *SyncScheduler) post(msg message) bool {
	timeout := time.NewTimer(inboxTimeout)
	defer timeout.Stop()

	select {
	case s.inbox <- msg:
		return true
	case <-s.done:
		return false
	case <-timeout.C:
		logger.Warn("scheduler: inbox send timeout (%s, depth %d)", msg.kind, len(s.inbox))
		return false
	}
}

func (s *SyncScheduler) handle(ctx context.Context, msg message) {
	switch msg.kind {
	case msgSchedule:
		s.batch.Schedule(msg.trigger, msg.detail)
		s.state.BatchPending = true
		logger.Debug("scheduler: batched %s (%s)", msg.trigger, msg.detail)

	case msgBatchFired:
		trigger, detail, ok := s.batch.Take(msg.generation)
		if !ok {
			return
		}
		s.state.BatchPending = false
		s.request(ctx, s.newAttempt(trigger, detail), nil)

	case msgRequest:
		if msg.attempt.IsRetry() {
			s.state.PendingRetries--
		}
		s.request(ctx, msg.attempt, msg.reply)

	case msgAttemptDone:
		s.finish(msg.report, msg.reply)

	case msgSnapshot:
		state := s.state
		state.BatchPending = s.batch.Pending()
		state.LastStatusReportAt = s.reporter.LastReportAt()
		msg.state <- state
	}
}

// request applies the rate limit and the guard, then starts the attempt.
func (s *SyncScheduler) request(ctx context.Context, attempt domain.AttemptContext, reply chan *domain.AttemptReport) {
	now := s.clock.Now()

	if !attempt.IsRetry() && !Allow(now, s.state.LastSyncAttemptAt, s.cfg.MinSyncInterval) {
		s.skip(attempt, domain.SkipRateLimited, reply)
		return
	}
	if s.state.SyncInProgress {
		s.skip(attempt, domain.SkipInProgress, reply)
		return
	}

	s.state.SyncInProgress = true
	s.state.LastSyncAttemptAt = now
	attempt.StartedAt = now
	s.metrics.RecordAttempt(attempt.Trigger.String())
	logger.Debug("scheduler: attempt %s #%d (%s)", attempt.ID, attempt.AttemptNumber, attempt.Trigger)

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		report := s.execute(ctx, attempt)
		select {
		case s.inbox <- message{kind: msgAttemptDone, report: report, reply: reply}:
		case <-s.done:
			if reply != nil {
				reply <- report
			}
		}
	}()
}

func (s *SyncScheduler) skip(attempt domain.AttemptContext, reason domain.SkipReason, reply chan *domain.AttemptReport) {
	s.metrics.RecordSkipped(string(reason))
	logger.Debug("scheduler: dropped %s #%d: %s", attempt.Trigger, attempt.AttemptNumber, reason)
	if reply != nil {
		reply <- &domain.AttemptReport{Attempt: attempt, Skipped: reason}
	}
}

// finish releases the guard, then arms the retry if one was decided.
func (s *SyncScheduler) finish(report *domain.AttemptReport, reply chan *domain.AttemptReport) {
	s.state.SyncInProgress = false

	if report.RetryScheduled() {
		next := report.Attempt
		next.AttemptNumber++
		next.StartedAt = time.Time{}
		s.state.PendingRetries++
		s.metrics.RecordRetryScheduled()
		logger.Info("scheduler: %v, retry %d/%d in %s", report.Err, next.AttemptNumber, s.cfg.MaxRetries, report.RetryIn)

		s.clock.AfterFunc(report.RetryIn, func() {
			s.post(message{kind: msgRequest, attempt: next})
		})
	}

	if reply != nil {
		reply <- report
	}
}

// execute runs the gated pipeline of one attempt. It never touches loop state.
func (s *SyncScheduler) execute(ctx context.Context, attempt domain.AttemptContext) *domain.AttemptReport {
	started := time.Now()
	report := &domain.AttemptReport{Attempt: attempt}
	defer func() { report.Duration = time.Since(started) }()

	if !s.gate.IsCompanionActive(ctx) {
		report.Err = domain.ErrCompanionInactive
		report.Outcome = s.terminal(ctx, attempt, terminalOutcome{
			status:  domain.OutcomeTabNotOpen,
			message: fmt.Sprintf("Companion app not open - open %s to enable sync", s.cfg.CompanionHost),
		})
		return report
	}

	records := s.collector.Collect(ctx, s.cfg.CredentialDomain)
	if len(records) == 0 {
		report.Err = domain.ErrNoCredentials
		report.Outcome = s.terminal(ctx, attempt, terminalOutcome{
			status:  domain.OutcomeNoCredentials,
			message: fmt.Sprintf("No session cookies found - log in to %s", s.cfg.CredentialDomain),
			missing: domain.MissingCredentials(nil),
		})
		s.reporter.Report(ctx, 0, attempt.Trigger)
		return report
	}

	s.reporter.Report(ctx, len(records), attempt.Trigger)

	if len(records) < domain.RequiredCredentialCount {
		missing := domain.MissingCredentials(records)
		report.Err = domain.ErrInsufficientCredentials
		report.Outcome = s.terminal(ctx, attempt, terminalOutcome{
			status:  domain.OutcomeInsufficientCredentials,
			message: fmt.Sprintf("Missing required cookies: %s", strings.Join(missing, ", ")),
			count:   len(records),
			missing: missing,
		})
		return report
	}

	resp, err := s.transfer(ctx, attempt, records)
	if err == nil {
		message := resp.Message
		if message == "" {
			message = "Cookies synced successfully"
		}
		count := resp.CookieCount
		if count == 0 {
			count = len(records)
		}
		report.Outcome = s.terminal(ctx, attempt, terminalOutcome{
			status:  domain.OutcomeSuccess,
			message: message,
			count:   count,
		})
		return report
	}

	report.Err = err
	if s.retry.ShouldRetry(err, attempt.AttemptNumber) {
		report.RetryIn = s.retry.Backoff(attempt.AttemptNumber)
		return report
	}

	outcome := terminalOutcome{status: domain.OutcomeError, message: errorMessage(err), count: len(records)}
	if code := domain.StatusCodeOf(err); code > 0 {
		outcome.code = &code
	}
	report.Outcome = s.terminal(ctx, attempt, outcome)
	return report
}

func (s *SyncScheduler) transfer(
	ctx context.Context,
	attempt domain.AttemptContext,
	records []domain.CredentialRecord,
) (*domain.SyncResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TransferTimeout)
	defer cancel()

	payload := domain.SyncPayload{
		Cookies:          domain.SerializeCredentials(records),
		Timestamp:        s.clock.Now().UnixMilli(),
		Source:           domain.SourceBrowserExtension,
		Trigger:          attempt.Trigger.String(),
		CookieCount:      len(records),
		ExtensionVersion: s.version,
	}

	started := time.Now()
	resp, err := s.backend.PushCredentials(ctx, payload)
	s.metrics.ObserveTransfer(time.Since(started))
	if err == nil && resp == nil {
		resp = &domain.SyncResponse{}
	}
	return resp, err
}

type terminalOutcome struct {
	status  domain.OutcomeStatus
	message string
	code    *int
	count   int
	missing []string
}

// terminal persists the outcome of an attempt chain.
func (s *SyncScheduler) terminal(ctx context.Context, attempt domain.AttemptContext, t terminalOutcome) *domain.OutcomeRecord {
	o := &domain.OutcomeRecord{
		AttemptID:       attempt.ID,
		Status:          t.status,
		Message:         t.message,
		ErrorCode:       t.code,
		RetryCount:      attempt.AttemptNumber,
		Trigger:         attempt.Trigger,
		Timestamp:       s.clock.Now(),
		CredentialCount: t.count,
		Missing:         t.missing,
	}
	if err := s.outcomes.Record(context.WithoutCancel(ctx), o); err != nil {
		logger.Error("scheduler: %v", err)
	}
	s.metrics.RecordOutcome(string(t.status))
	logger.Info("scheduler: %s after %d retries: %s", t.status, attempt.AttemptNumber, t.message)
	return o
}

func errorMessage(err error) string {
	var netErr *domain.NetworkError
	if errors.As(err, &netErr) && netErr.Err != nil {
		return "Network error: " + netErr.Err.Error()
	}
	return err.Error()
}
