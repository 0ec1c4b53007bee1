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

// PresenceIndicator tracks whether the companion application is open and
// mirrors transitions to the external indicator. Evaluations are serialised.
type PresenceIndicator struct {
	gate      *LivenessGate
	indicator driven.Indicator
	clock     driven.Clock
	heartbeat time.Duration
	metrics   *metrics.Metrics

	// onHeartbeat runs after each heartbeat evaluation that found the companion present.
	onHeartbeat func()

	mu      sync.Mutex
	state   domain.PresenceState
	ctx     context.Context
	timer   driven.Timer
	stopped bool
}

// NewPresenceIndicator creates an indicator. indicator may be nil, in which
// case transitions are only tracked.
func NewPresenceIndicator(
	gate *LivenessGate,
	indicator driven.Indicator,
	clock driven.Clock,
	cfg domain.SyncConfig,
	m *metrics.Metrics,
) *PresenceIndicator {
	return &PresenceIndicator{
		gate:      gate,
		indicator: indicator,
		clock:     clock,
		heartbeat: cfg.HeartbeatInterval,
		metrics:   m,
		ctx:       context.Background(),
	}
}

// OnHeartbeat registers f to run on heartbeats while present.
// Must be called before Start.
func (p *PresenceIndicator) OnHeartbeat(f func()) {
	p.onHeartbeat = f
}

// Start computes the initial state and arms the heartbeat.
func (p *PresenceIndicator) Start(ctx context.Context) {
	p.mu.Lock()
	p.ctx = ctx
	p.stopped = false
	p.mu.Unlock()

	p.Evaluate(ctx)
	p.armHeartbeat()
}

// Stop cancels the heartbeat and any pending settle evaluation.
func (p *PresenceIndicator) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Evaluate re-checks liveness. Returns true if the state changed.
func (p *PresenceIndicator) Evaluate(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := domain.PresenceAbsent
	if p.gate.IsCompanionActive(ctx) {
		next = domain.PresencePresent
	}
	if next == p.state {
		return false
	}

	view := domain.IndicatorFor(next)
	if p.indicator != nil {
		if err := p.indicator.Show(ctx, view); err != nil {
			logger.Warn("presence: updating indicator: %v", err)
			return false
		}
	}

	logger.Info("presence: %s -> %s", displayState(p.state), next)
	p.state = next
	p.metrics.SetPresence(next == domain.PresencePresent)
	return true
}

// EvaluateAfter schedules an evaluation after a settle delay.
func (p *PresenceIndicator) EvaluateAfter(d time.Duration) {
	p.clock.AfterFunc(d, func() {
		p.mu.Lock()
		ctx, stopped := p.ctx, p.stopped
		p.mu.Unlock()
		if !stopped {
			p.Evaluate(ctx)
		}
	})
}

// EvaluateAsync re-checks liveness in the background.
func (p *PresenceIndicator) EvaluateAsync() {
	p.mu.Lock()
	ctx, stopped := p.ctx, p.stopped
	p.mu.Unlock()
	if stopped {
		return
	}
	go p.Evaluate(ctx)
}

// State returns the current presence state.
func (p *PresenceIndicator) State() domain.PresenceState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// View returns what the indicator currently shows.
func (p *PresenceIndicator) View() domain.IndicatorState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == domain.PresenceUnknown {
		return domain.IndicatorState{}
	}
	return domain.IndicatorFor(p.state)
}

func (p *PresenceIndicator) armHeartbeat() {
	if p.heartbeat <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.timer = p.clock.AfterFunc(p.heartbeat, p.beat)
}

func (p *PresenceIndicator) beat() {
	p.mu.Lock()
	ctx, stopped := p.ctx, p.stopped
	p.mu.Unlock()
	if stopped {
		return
	}

	p.Evaluate(ctx)
	if p.State() == domain.PresencePresent && p.onHeartbeat != nil {
		p.onHeartbeat()
	}
	p.armHeartbeat()
}

func displayState(s domain.PresenceState) string {
	if s == domain.PresenceUnknown {
		return "unknown"
	}
	return string(s)
}
