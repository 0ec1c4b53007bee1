package domain

import "time"

// OutcomeStatus is the terminal classification of an attempt chain.
type OutcomeStatus string

// Terminal outcome statuses.
const (
	OutcomeSuccess                 OutcomeStatus = "success"
	OutcomeTabNotOpen              OutcomeStatus = "tab_not_open"
	OutcomeNoCredentials           OutcomeStatus = "no_credentials"
	OutcomeInsufficientCredentials OutcomeStatus = "insufficient_credentials"
	OutcomeError                   OutcomeStatus = "error"
)

// IsValid returns true if the status is recognised.
func (s OutcomeStatus) IsValid() bool {
	switch s {
	case OutcomeSuccess, OutcomeTabNotOpen, OutcomeNoCredentials, OutcomeInsufficientCredentials, OutcomeError:
		return true
	default:
		return false
	}
}

// OutcomeRecord is the persisted result of the last terminal attempt.
// It is the single source of truth for "last known status".
type OutcomeRecord struct {
	// AttemptID identifies the attempt that produced this outcome.
	AttemptID string `json:"attempt_id,omitempty"`

	Status  OutcomeStatus `json:"status"`
	Message string        `json:"message"`

	// ErrorCode is the HTTP status of a failed transfer, if any.
	ErrorCode *int `json:"error_code,omitempty"`

	// RetryCount is the number of retries performed before this outcome.
	RetryCount int `json:"retry_count"`

	Trigger   Trigger   `json:"trigger"`
	Timestamp time.Time `json:"timestamp"`

	// CredentialCount is the number of required credentials found.
	CredentialCount int `json:"credential_count"`

	// Missing lists required credential names absent at collection time.
	Missing []string `json:"missing,omitempty"`
}

// IsZero reports whether no outcome has been recorded.
func (o OutcomeRecord) IsZero() bool {
	return o.Status == ""
}

// ClearRecord describes the last "clear all" operation.
type ClearRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	ClearedCount int       `json:"cleared_count"`
}

// ConnectionRecord describes the last persisted connectivity test.
type ConnectionRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Method    string    `json:"method,omitempty"`
}
