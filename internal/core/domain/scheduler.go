package domain

import "time"

// SyncConfig holds the timing and scoping configuration of the scheduler.
type SyncConfig struct {
	// CredentialDomain is the domain whose credentials are synchronised.
	CredentialDomain string

	// CompanionHost is the host of the companion application that must be open.
	CompanionHost string

	// MinSyncInterval is the floor between two initial attempts.
	MinSyncInterval time.Duration

	// MinStatusInterval is the floor between two status reports.
	MinStatusInterval time.Duration

	// BatchDelay is the debounce window for scheduled attempts.
	BatchDelay time.Duration

	// TransferTimeout bounds the credential transfer request.
	TransferTimeout time.Duration

	// ProbeTimeout bounds each leg of a connectivity test.
	ProbeTimeout time.Duration

	// RetryBaseDelay is the backoff for the first retry; it doubles per retry.
	RetryBaseDelay time.Duration

	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// HeartbeatInterval drives periodic presence evaluation. Zero disables it.
	HeartbeatInterval time.Duration

	// HeartbeatSync schedules a sync on every heartbeat while present.
	HeartbeatSync bool

	// SurfaceCloseSettle delays presence evaluation after a surface closes.
	SurfaceCloseSettle time.Duration

	// PageLoadSettle delays scheduling after a target page finishes loading.
	PageLoadSettle time.Duration
}

// DefaultSyncConfig returns the production timings.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		CredentialDomain:   "webserviced.anaf.ro",
		CompanionHost:      "u-core.test",
		MinSyncInterval:    15 * time.Second,
		MinStatusInterval:  8 * time.Second,
		BatchDelay:         3 * time.Second,
		TransferTimeout:    15 * time.Second,
		ProbeTimeout:       5 * time.Second,
		RetryBaseDelay:     2 * time.Second,
		MaxRetries:         3,
		HeartbeatInterval:  30 * time.Second,
		HeartbeatSync:      true,
		SurfaceCloseSettle: 500 * time.Millisecond,
		PageLoadSettle:     8 * time.Second,
	}
}

// SchedulerState is the scheduler's process-wide state.
// It is owned by the scheduler loop; callers only ever see copies.
type SchedulerState struct {
	LastSyncAttemptAt  time.Time     `json:"last_sync_attempt_at"`
	LastStatusReportAt time.Time     `json:"last_status_report_at"`
	SyncInProgress     bool          `json:"sync_in_progress"`
	BatchPending       bool          `json:"batch_pending"`
	PendingRetries     int           `json:"pending_retries"`
	Presence           PresenceState `json:"presence"`
}

// AttemptContext describes one execution of the sync pipeline.
type AttemptContext struct {
	ID            string    `json:"id"`
	Trigger       Trigger   `json:"trigger"`
	Detail        string    `json:"detail,omitempty"`
	AttemptNumber int       `json:"attempt_number"`
	StartedAt     time.Time `json:"started_at"`
}

// IsRetry returns true for scheduled retries.
func (a AttemptContext) IsRetry() bool {
	return a.AttemptNumber > 0
}

// SkipReason explains why a requested attempt did not run.
type SkipReason string

// Skip reasons.
const (
	SkipNone        SkipReason = ""
	SkipRateLimited SkipReason = "rate_limited"
	SkipInProgress  SkipReason = "in_progress"
	SkipStopped     SkipReason = "stopped"
)

// AttemptReport is the result of one attempt, delivered to whoever requested it.
type AttemptReport struct {
	Attempt AttemptContext `json:"attempt"`

	// Skipped is set when the attempt was dropped before running.
	Skipped SkipReason `json:"skipped,omitempty"`

	// Outcome is set when the attempt reached a terminal state.
	Outcome *OutcomeRecord `json:"outcome,omitempty"`

	// RetryIn is set when a retry was scheduled instead of a terminal outcome.
	RetryIn time.Duration `json:"retry_in,omitempty"`

	// Err is the failure that led to a retry or an error outcome.
	Err error `json:"-"`

	Duration time.Duration `json:"duration"`
}

// RetryScheduled returns true when the attempt ended in a scheduled retry.
func (r AttemptReport) RetryScheduled() bool {
	return r.Outcome == nil && r.Skipped == SkipNone && r.RetryIn > 0
}
