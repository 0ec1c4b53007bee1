package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
	"github.com/custodia-labs/sessync/internal/logger"
)

// Ensure Agent implements the interfaces.
var (
	_ driving.AgentService = (*Agent)(nil)
	_ driving.EventSink    = (*Agent)(nil)
)

// Agent is the command surface and event sink of the sync agent.
type Agent struct {
	cfg       domain.SyncConfig
	clock     driven.Clock
	source    driven.CredentialSource
	scheduler *SyncScheduler
	collector *CredentialCollector
	presence  *PresenceIndicator
	probe     *ConnectivityProbe
	outcomes  *OutcomeRecorder
}

// AgentDeps groups the collaborators of an Agent.
type AgentDeps struct {
	Clock     driven.Clock
	Source    driven.CredentialSource
	Scheduler *SyncScheduler
	Collector *CredentialCollector
	Presence  *PresenceIndicator
	Probe     *ConnectivityProbe
	Outcomes  *OutcomeRecorder
}

// NewAgent creates an agent. With cfg.HeartbeatSync set, every heartbeat that
// finds the companion present schedules a sync.
func NewAgent(cfg domain.SyncConfig, deps AgentDeps) *Agent {
	a := &Agent{
		cfg:       cfg,
		clock:     deps.Clock,
		source:    deps.Source,
		scheduler: deps.Scheduler,
		collector: deps.Collector,
		presence:  deps.Presence,
		probe:     deps.Probe,
		outcomes:  deps.Outcomes,
	}
	if cfg.HeartbeatSync {
		a.presence.OnHeartbeat(func() {
			a.scheduler.Schedule(domain.TriggerHeartbeat, "")
		})
	}
	return a
}

// Run computes the initial presence and runs the scheduler until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	a.presence.Start(ctx)
	defer a.presence.Stop()
	return a.scheduler.Run(ctx)
}

// SyncNow runs an attempt immediately and reports its first result.
func (a *Agent) SyncNow(ctx context.Context, trigger domain.Trigger) (*domain.CommandResult, error) {
	if !trigger.IsValid() {
		return nil, fmt.Errorf("%w: unknown trigger %q", domain.ErrInvalidInput, trigger)
	}

	report, err := a.scheduler.RequestNow(ctx, trigger, "")
	if err != nil {
		return nil, err
	}
	return a.syncResult(report), nil
}

func (a *Agent) syncResult(report *domain.AttemptReport) *domain.CommandResult {
	metrics := map[string]any{
		"attempt_id":  report.Attempt.ID,
		"trigger":     report.Attempt.Trigger.String(),
		"duration_ms": report.Duration.Milliseconds(),
	}

	switch {
	case report.Skipped == domain.SkipRateLimited:
		return &domain.CommandResult{
			Error:   fmt.Sprintf("Sync skipped: the last attempt was less than %s ago", a.cfg.MinSyncInterval),
			Metrics: metrics,
		}
	case report.Skipped == domain.SkipInProgress:
		return &domain.CommandResult{Error: "Sync skipped: another attempt is in progress", Metrics: metrics}
	case report.RetryScheduled():
		metrics["retry_in_ms"] = report.RetryIn.Milliseconds()
		return &domain.CommandResult{
			Message: fmt.Sprintf("Transfer failed, retrying in %s", report.RetryIn),
			Error:   errorMessage(report.Err),
			Metrics: metrics,
		}
	case report.Outcome == nil:
		return &domain.CommandResult{Error: "Sync did not run", Metrics: metrics}
	}

	o := report.Outcome
	metrics["status"] = string(o.Status)
	metrics["cookie_count"] = o.CredentialCount
	metrics["retry_count"] = o.RetryCount
	if o.ErrorCode != nil {
		metrics["error_code"] = *o.ErrorCode
	}
	if len(o.Missing) > 0 {
		metrics["missing"] = o.Missing
	}

	if o.Status == domain.OutcomeSuccess {
		return &domain.CommandResult{Success: true, Message: o.Message, Metrics: metrics}
	}
	return &domain.CommandResult{Error: o.Message, Metrics: metrics}
}

// GetCredentials lists the relevant credentials of the configured domain.
func (a *Agent) GetCredentials(ctx context.Context) (*domain.CommandResult, error) {
	views, err := a.collector.Inspect(ctx, a.cfg.CredentialDomain)
	if err != nil {
		return &domain.CommandResult{Error: fmt.Sprintf("Reading credentials: %v", err)}, nil
	}

	present := a.collector.Collect(ctx, a.cfg.CredentialDomain)
	return &domain.CommandResult{
		Success: true,
		Message: fmt.Sprintf("Found %d credentials (%d of %d required)",
			len(views), len(present), domain.RequiredCredentialCount),
		Metrics: map[string]any{
			"total":            len(views),
			"required_present": len(present),
			"status":           domain.Classify(len(present)).String(),
			"missing":          domain.MissingCredentials(present),
		},
		Credentials: views,
	}, nil
}

// TestConnection runs the connectivity probe and persists its result.
func (a *Agent) TestConnection(ctx context.Context) (*domain.CommandResult, error) {
	result := a.probe.Test(ctx)

	status := "error"
	if result.Success {
		status = "success"
	}
	record := domain.ConnectionRecord{
		Timestamp: a.clock.Now(),
		Status:    status,
		Message:   result.Message,
		Method:    result.Method,
	}
	if err := a.outcomes.RecordConnection(ctx, record); err != nil {
		logger.Warn("agent: %v", err)
	}

	cmd := &domain.CommandResult{
		Success:    result.Success,
		Diagnostic: &result,
		Metrics: map[string]any{
			"kind":   string(result.Kind),
			"method": result.Method,
		},
	}
	if result.Success {
		cmd.Message = result.Message
	} else {
		cmd.Error = result.Message
	}
	return cmd, nil
}

// ClearAll removes every credential in scope, clears the persisted state and
// records the clear metadata.
func (a *Agent) ClearAll(ctx context.Context) (*domain.CommandResult, error) {
	cleared, err := a.source.RemoveAll(ctx, a.cfg.CredentialDomain)
	if err != nil {
		message := fmt.Sprintf("Clearing credentials failed after %d: %v", cleared, err)
		if recErr := a.outcomes.RecordClear(ctx, domain.ClearRecord{
			Timestamp:    a.clock.Now(),
			Message:      message,
			ClearedCount: cleared,
		}); recErr != nil {
			logger.Warn("agent: %v", recErr)
		}
		return &domain.CommandResult{
			Error:   message,
			Metrics: map[string]any{"cleared_count": cleared, "failed": true},
		}, nil
	}

	if err := a.outcomes.Reset(ctx); err != nil {
		return &domain.CommandResult{
			Error:   fmt.Sprintf("Cleared %d credentials but resetting state failed: %v", cleared, err),
			Metrics: map[string]any{"cleared_count": cleared},
		}, nil
	}

	message := fmt.Sprintf("Cleared %d session cookies", cleared)
	if err := a.outcomes.RecordClear(ctx, domain.ClearRecord{
		Timestamp:    a.clock.Now(),
		Success:      true,
		Message:      message,
		ClearedCount: cleared,
	}); err != nil {
		logger.Warn("agent: %v", err)
	}

	a.presence.EvaluateAsync()
	return &domain.CommandResult{
		Success: true,
		Message: message,
		Metrics: map[string]any{"cleared_count": cleared},
	}, nil
}

// RemoveCredential removes one credential by name.
func (a *Agent) RemoveCredential(ctx context.Context, name string) (*domain.CommandResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: credential name is required", domain.ErrInvalidInput)
	}

	err := a.source.Remove(ctx, a.cfg.CredentialDomain, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &domain.CommandResult{Error: fmt.Sprintf("Credential %s not found", name)}, nil
	case err != nil:
		return &domain.CommandResult{Error: fmt.Sprintf("Removing %s: %v", name, err)}, nil
	}
	return &domain.CommandResult{Success: true, Message: fmt.Sprintf("Removed %s", name)}, nil
}

// Status combines the persisted state with the live scheduler and presence state.
func (a *Agent) Status(ctx context.Context) (*domain.AgentStatus, error) {
	outcome, err := a.outcomes.Last(ctx)
	if err != nil {
		return nil, err
	}
	lastClear, err := a.outcomes.LastClear(ctx)
	if err != nil {
		return nil, err
	}
	connection, err := a.outcomes.LastConnection(ctx)
	if err != nil {
		return nil, err
	}
	state, err := a.scheduler.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	state.Presence = a.presence.State()

	return &domain.AgentStatus{
		Outcome:    outcome,
		LastClear:  lastClear,
		Connection: connection,
		Scheduler:  state,
		Indicator:  a.presence.View(),
	}, nil
}

// History returns recent terminal outcomes.
func (a *Agent) History(ctx context.Context, limit int) ([]domain.OutcomeRecord, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	return a.outcomes.History(ctx, limit)
}

// CredentialChanged re-evaluates presence and debounces a sync when a
// required credential of the configured domain changed.
func (a *Agent) CredentialChanged(name, domainScope string) {
	if !domain.MatchesDomain(domainScope, a.cfg.CredentialDomain) {
		return
	}
	a.presence.EvaluateAsync()
	if domain.IsRequiredCredential(name) {
		logger.Debug("agent: required credential %s changed", name)
		a.scheduler.Schedule(domain.TriggerCredentialChange, name)
	}
}

// NavigationCompleted re-evaluates presence, and schedules a sync once a page
// of the credential domain has settled.
func (a *Agent) NavigationCompleted(address string) {
	if !a.isTargetPage(address) {
		if a.isCompanionPage(address) {
			a.presence.EvaluateAsync()
		}
		return
	}

	a.presence.EvaluateAsync()
	a.clock.AfterFunc(a.cfg.PageLoadSettle, func() {
		a.scheduler.Schedule(domain.TriggerPageLoad, address)
	})
}

// SurfaceClosed re-evaluates presence after the settle delay.
func (a *Agent) SurfaceClosed() {
	a.presence.EvaluateAfter(a.cfg.SurfaceCloseSettle)
}

// FocusChanged re-evaluates presence.
func (a *Agent) FocusChanged() {
	a.presence.EvaluateAsync()
}

func (a *Agent) isTargetPage(address string) bool {
	return strings.HasPrefix(address, "https://"+a.cfg.CredentialDomain+"/")
}

func (a *Agent) isCompanionPage(address string) bool {
	u, err := url.Parse(address)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	companion := strings.ToLower(a.cfg.CompanionHost)
	return host == companion || strings.HasSuffix(host, "."+companion)
}
