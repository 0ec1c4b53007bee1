package services

import (
	"time"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// BatchWindow debounces scheduling requests: every Schedule restarts the
// countdown and replaces the pending trigger. It is not safe for concurrent
// use; the scheduler loop owns it.
type BatchWindow struct {
	clock driven.Clock
	delay time.Duration
	fire  func(generation uint64)

	timer      driven.Timer
	generation uint64
	trigger    domain.Trigger
	detail     string
}

// NewBatchWindow creates a window. fire is called from the timer goroutine
// with the generation of the expired countdown and must not touch the window;
// the owner then calls Take with that generation.
func NewBatchWindow(clock driven.Clock, delay time.Duration, fire func(generation uint64)) *BatchWindow {
	return &BatchWindow{clock: clock, delay: delay, fire: fire}
}

// Schedule cancels any pending countdown and starts a new one for trigger.
func (b *BatchWindow) Schedule(trigger domain.Trigger, detail string) {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.generation++
	b.trigger = trigger
	b.detail = detail

	generation := b.generation
	b.timer = b.clock.AfterFunc(b.delay, func() { b.fire(generation) })
}

// Take consumes the pending request if generation is the current countdown.
// Fires from reset countdowns return ok=false.
func (b *BatchWindow) Take(generation uint64) (trigger domain.Trigger, detail string, ok bool) {
	if b.timer == nil || generation != b.generation {
		return "", "", false
	}
	b.timer = nil
	trigger, detail = b.trigger, b.detail
	b.trigger, b.detail = "", ""
	return trigger, detail, true
}

// Pending reports whether a countdown is running.
func (b *BatchWindow) Pending() bool {
	return b.timer != nil
}

// Cancel stops the pending countdown, if any.
func (b *BatchWindow) Cancel() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.generation++
}
