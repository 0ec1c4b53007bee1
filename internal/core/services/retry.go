package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

// retryableStatus lists the HTTP statuses worth retrying.
var retryableStatus = map[int]bool{
	500: true,
	502: true,
	503: true,
	504: true,
	408: true,
	429: true,
}

// RetryPolicy decides whether a failed transfer is retried and after how long.
type RetryPolicy struct {
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
}

// NewRetryPolicy returns the policy configured by cfg.
func NewRetryPolicy(cfg domain.SyncConfig) RetryPolicy {
	return RetryPolicy{BaseDelay: cfg.RetryBaseDelay, MaxRetries: cfg.MaxRetries}
}

// ShouldRetry returns true if err is transient and attempt (0-based) has
// retries left.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.MaxRetries {
		return false
	}
	if isDataStateError(err) {
		return false
	}

	var httpErr *domain.HTTPStatusError
	if errors.As(err, &httpErr) {
		return retryableStatus[httpErr.StatusCode]
	}

	var netErr *domain.NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Backoff returns the delay before retry attempt+1.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return p.BaseDelay << uint(attempt)
}

func isDataStateError(err error) bool {
	return errors.Is(err, domain.ErrCompanionInactive) ||
		errors.Is(err, domain.ErrNoCredentials) ||
		errors.Is(err, domain.ErrInsufficientCredentials)
}
