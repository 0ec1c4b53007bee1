package services

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

func newTestProbe(live *mockLivenessSource, prober *mockProber) *ConnectivityProbe {
	gate := NewLivenessGate(live, "u-core.test")
	return NewConnectivityProbe(gate, prober, domain.DefaultSyncConfig())
}

func openLiveness() *mockLivenessSource {
	live := &mockLivenessSource{}
	live.open(testCompanion)
	return live
}

func TestConnectivityProbe_CompanionInactive(t *testing.T) {
	prober := &mockProber{}
	p := newTestProbe(&mockLivenessSource{}, prober)

	result := p.Test(context.Background())
	assert.False(t, result.Success)
	assert.Equal(t, domain.DiagnosticTabNotOpen, result.Kind)
	assert.Empty(t, prober.modes, "no network call without the companion")
}

func TestConnectivityProbe_Primary(t *testing.T) {
	prober := &mockProber{results: map[domain.ProbeMode]*domain.ProbeResponse{
		domain.ProbePrimary: {StatusCode: 200, Status: "OK", URL: "https://u-core.test/api/anaf/session/status", SessionActive: true, BodyValid: true},
	}}
	p := newTestProbe(openLiveness(), prober)

	result := p.Test(context.Background())
	assert.True(t, result.Success)
	assert.Equal(t, domain.DiagnosticOK, result.Kind)
	assert.Equal(t, "HTTPS", result.Method)
	assert.True(t, result.SessionActive)
	assert.Equal(t, "Connection successful via HTTPS! Session active: Yes", result.Message)
	assert.Equal(t, []domain.ProbeMode{domain.ProbePrimary}, prober.modes)
}

func TestConnectivityProbe_Fallback(t *testing.T) {
	prober := &mockProber{
		errs: map[domain.ProbeMode]error{domain.ProbePrimary: x509.UnknownAuthorityError{}},
		results: map[domain.ProbeMode]*domain.ProbeResponse{
			domain.ProbeFallback: {StatusCode: 200, BodyValid: true},
		},
	}
	p := newTestProbe(openLiveness(), prober)

	result := p.Test(context.Background())
	assert.True(t, result.Success)
	assert.Equal(t, "HTTP (fallback)", result.Method)
	assert.Contains(t, result.Message, "Session active: No")
	assert.Equal(t, []domain.ProbeMode{domain.ProbePrimary, domain.ProbeFallback}, prober.modes)
}

func TestConnectivityProbe_BothFail(t *testing.T) {
	prober := &mockProber{errs: map[domain.ProbeMode]error{
		domain.ProbePrimary:  x509.UnknownAuthorityError{},
		domain.ProbeFallback: errors.New("connection refused"),
	}}
	p := newTestProbe(openLiveness(), prober)

	result := p.Test(context.Background())
	assert.False(t, result.Success)
	assert.Equal(t, domain.DiagnosticTrustRequired, result.Kind)
	assert.Equal(t, domain.TransportCertificateAuthority, result.ErrorClass)
	assert.Contains(t, result.Message, "https://u-core.test")
	require.NotEmpty(t, result.Troubleshooting)
	assert.Equal(t, "Visit https://u-core.test in your browser", result.Troubleshooting[0])
}

func TestConnectivityProbe_HTTPErrorDoesNotFallBack(t *testing.T) {
	prober := &mockProber{results: map[domain.ProbeMode]*domain.ProbeResponse{
		domain.ProbePrimary: {StatusCode: 500, Status: "Internal Server Error"},
	}}
	p := newTestProbe(openLiveness(), prober)

	result := p.Test(context.Background())
	assert.False(t, result.Success)
	assert.Equal(t, domain.DiagnosticHTTPError, result.Kind)
	assert.Equal(t, 500, result.StatusCode)
	assert.Equal(t, "Connection failed: HTTP 500 - Internal Server Error", result.Message)
	assert.Equal(t, []domain.ProbeMode{domain.ProbePrimary}, prober.modes)
}

func TestConnectivityProbe_InvalidBody(t *testing.T) {
	prober := &mockProber{results: map[domain.ProbeMode]*domain.ProbeResponse{
		domain.ProbePrimary: {StatusCode: 200, BodyValid: false},
	}}
	p := newTestProbe(openLiveness(), prober)

	result := p.Test(context.Background())
	assert.False(t, result.Success)
	assert.Equal(t, domain.DiagnosticInvalidBody, result.Kind)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.TransportErrorClass
	}{
		{"nil", nil, domain.TransportNetwork},
		{"unknown authority", fmt.Errorf("get: %w", x509.UnknownAuthorityError{}), domain.TransportCertificateAuthority},
		{"invalid certificate", x509.CertificateInvalidError{Reason: x509.Expired}, domain.TransportCertificateAuthority},
		{"hostname", x509.HostnameError{Host: "u-core.test", Certificate: &x509.Certificate{}}, domain.TransportCertificateName},
		{"refused", &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, domain.TransportConnectionRefused},
		{"deadline", context.DeadlineExceeded, domain.TransportTimeout},
		{"net timeout", timeoutErr{}, domain.TransportTimeout},
		{"pattern authority", errors.New("x509: certificate signed by unknown authority"), domain.TransportCertificateAuthority},
		{"pattern name", errors.New("x509: certificate is valid for localhost, not u-core.test"), domain.TransportCertificateName},
		{"pattern refused", errors.New("dial tcp 127.0.0.1:443: connect: connection refused"), domain.TransportConnectionRefused},
		{"pattern timeout", errors.New("Client.Timeout exceeded while awaiting headers"), domain.TransportTimeout},
		{"other", errors.New("no such host"), domain.TransportNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTransportError(tt.err))
		})
	}
}

func TestTransportErrorMessages(t *testing.T) {
	classes := []domain.TransportErrorClass{
		domain.TransportTimeout,
		domain.TransportCertificateAuthority,
		domain.TransportCertificateName,
		domain.TransportConnectionRefused,
		domain.TransportNetwork,
	}
	seen := make(map[string]bool)
	for _, c := range classes {
		msg := TransportErrorMessage(c)
		assert.NotEmpty(t, msg)
		assert.NotEmpty(t, TransportErrorHint(c, "https://u-core.test"))
		assert.False(t, seen[msg], "duplicate message %q", msg)
		seen[msg] = true
	}
}
