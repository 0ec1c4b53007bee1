package driven

import (
	"context"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

// Backend is the remote application that receives credentials.
type Backend interface {
	// PushCredentials transfers the serialised credentials.
	// A non-2xx answer is returned as *domain.HTTPStatusError; transport
	// failures are returned as *domain.NetworkError.
	PushCredentials(ctx context.Context, payload domain.SyncPayload) (*domain.SyncResponse, error)

	// ReportStatus sends a lightweight status report. The response body is ignored.
	ReportStatus(ctx context.Context, payload domain.StatusPayload) error
}

// SessionProber performs the connectivity test round-trip.
type SessionProber interface {
	// Probe issues GET <base>/session/status over the transport selected by
	// mode. Any HTTP answer is a ProbeResponse; only transport failures are errors.
	Probe(ctx context.Context, mode domain.ProbeMode) (*domain.ProbeResponse, error)
}
