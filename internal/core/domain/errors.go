package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync attempt is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrRateLimited indicates the minimum interval between attempts has not elapsed.
	ErrRateLimited = errors.New("rate limited")

	// Gating and data-state errors. None of these are retryable.

	// ErrCompanionInactive indicates no companion surface is open.
	ErrCompanionInactive = errors.New("companion application is not open")

	// ErrNoCredentials indicates no required credential is present.
	ErrNoCredentials = errors.New("no session credentials found")

	// ErrInsufficientCredentials indicates some required credentials are missing.
	ErrInsufficientCredentials = errors.New("insufficient session credentials")

	// ErrSchedulerStopped indicates the scheduler loop is not running.
	ErrSchedulerStopped = errors.New("scheduler stopped")
)

// HTTPStatusError is returned by the backend when it answers with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	// Message is the structured error message, the raw body, or "no body".
	Message string
}

func (e *HTTPStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NetworkError wraps a transport-level failure, including timeouts and aborts.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusCodeOf returns the HTTP status code carried by err, or 0.
func StatusCodeOf(err error) int {
	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
