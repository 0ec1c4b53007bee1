package services

import "github.com/custodia-labs/sessync/internal/core/domain"

// messageType identifies a message sent to the scheduler loop.
type messageType int

const (
	msgSchedule    messageType = iota // debounce a trigger
	msgBatchFired                     // debounce countdown expired
	msgRequest                        // run an attempt now
	msgAttemptDone                    // worker finished an attempt
	msgSnapshot                       // copy the state
)

// String returns a human-readable representation of the message type.
func (m messageType) String() string {
	switch m {
	case msgSchedule:
		return "schedule"
	case msgBatchFired:
		return "batch_fired"
	case msgRequest:
		return "request"
	case msgAttemptDone:
		return "attempt_done"
	case msgSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// message is the container for everything sent to the scheduler loop.
type message struct {
	kind       messageType
	trigger    domain.Trigger
	detail     string
	generation uint64
	attempt    domain.AttemptContext
	report     *domain.AttemptReport

	// reply receives the first report of a requested attempt.
	reply chan *domain.AttemptReport
	// state receives a snapshot.
	state chan domain.SchedulerState
}
