package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	p := NewRetryPolicy(domain.DefaultSyncConfig())

	tests := []struct {
		name    string
		err     error
		attempt int
		want    bool
	}{
		{"nil error", nil, 0, false},
		{"500", &domain.HTTPStatusError{StatusCode: 500}, 0, true},
		{"502", &domain.HTTPStatusError{StatusCode: 502}, 0, true},
		{"503", &domain.HTTPStatusError{StatusCode: 503}, 1, true},
		{"504", &domain.HTTPStatusError{StatusCode: 504}, 2, true},
		{"408", &domain.HTTPStatusError{StatusCode: 408}, 0, true},
		{"429", &domain.HTTPStatusError{StatusCode: 429}, 0, true},
		{"400", &domain.HTTPStatusError{StatusCode: 400}, 0, false},
		{"401", &domain.HTTPStatusError{StatusCode: 401}, 0, false},
		{"404", &domain.HTTPStatusError{StatusCode: 404}, 0, false},
		{"422", &domain.HTTPStatusError{StatusCode: 422}, 0, false},
		{"501", &domain.HTTPStatusError{StatusCode: 501}, 0, false},
		{"wrapped 503", fmt.Errorf("push: %w", &domain.HTTPStatusError{StatusCode: 503}), 0, true},
		{"network", &domain.NetworkError{Op: "POST /sync", Err: errors.New("connection reset")}, 0, true},
		{"deadline", context.DeadlineExceeded, 0, true},
		{"exhausted", &domain.HTTPStatusError{StatusCode: 503}, 3, false},
		{"exhausted network", &domain.NetworkError{Err: errors.New("eof")}, 4, false},
		{"companion inactive", domain.ErrCompanionInactive, 0, false},
		{"no credentials", domain.ErrNoCredentials, 0, false},
		{"insufficient", domain.ErrInsufficientCredentials, 0, false},
		{"unknown", errors.New("boom"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ShouldRetry(tt.err, tt.attempt))
		})
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := NewRetryPolicy(domain.DefaultSyncConfig())

	assert.Equal(t, 2*time.Second, p.Backoff(0))
	assert.Equal(t, 4*time.Second, p.Backoff(1))
	assert.Equal(t, 8*time.Second, p.Backoff(2))
	assert.Equal(t, 2*time.Second, p.Backoff(-1))
}
