// Package clock provides the wall-clock implementation of driven.Clock.
package clock

import (
	"time"

	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// System is the wall clock.
type System struct{}

var _ driven.Clock = System{}

// New returns the wall clock.
func New() System {
	return System{}
}

// Now returns the current local time.
func (System) Now() time.Time {
	return time.Now()
}

// AfterFunc wraps time.AfterFunc.
func (System) AfterFunc(d time.Duration, f func()) driven.Timer {
	return time.AfterFunc(d, f)
}
