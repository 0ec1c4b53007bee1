package driven

import "time"

// Clock abstracts time so that timers can be driven deterministically in tests.
type Clock interface {
	Now() time.Time

	// AfterFunc calls f in its own goroutine after d.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call if it has not fired yet. Returns false if the
	// timer already fired or was stopped.
	Stop() bool
}
