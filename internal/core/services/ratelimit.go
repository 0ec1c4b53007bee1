package services

import "time"

// Allow reports whether an action may run at now, given when it last ran.
// A zero last time always allows.
func Allow(now, last time.Time, minInterval time.Duration) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= minInterval
}
