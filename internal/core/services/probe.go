package services

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
	"github.com/custodia-labs/sessync/internal/logger"
)

// ConnectivityProbe runs the diagnostic round-trip to the backend.
// It is independent of the sync path.
type ConnectivityProbe struct {
	gate    *LivenessGate
	prober  driven.SessionProber
	timeout time.Duration
	host    string
}

// NewConnectivityProbe creates a probe.
func NewConnectivityProbe(gate *LivenessGate, prober driven.SessionProber, cfg domain.SyncConfig) *ConnectivityProbe {
	return &ConnectivityProbe{
		gate:    gate,
		prober:  prober,
		timeout: cfg.ProbeTimeout,
		host:    cfg.CompanionHost,
	}
}

// Test probes the backend over the primary transport, falling back once.
func (p *ConnectivityProbe) Test(ctx context.Context) domain.DiagnosticResult {
	if !p.gate.IsCompanionActive(ctx) {
		return domain.DiagnosticResult{
			Kind:    domain.DiagnosticTabNotOpen,
			Message: fmt.Sprintf("Companion app not open - open https://%s and try again", p.host),
		}
	}

	mode := domain.ProbePrimary
	resp, err := p.leg(ctx, mode)
	if err != nil {
		logger.Debug("probe: %s failed: %v", mode, err)
		mode = domain.ProbeFallback
		var fallbackErr error
		resp, fallbackErr = p.leg(ctx, mode)
		if fallbackErr != nil {
			logger.Debug("probe: %s failed: %v", mode, fallbackErr)
			return p.trustRequired(err)
		}
	}

	result := domain.DiagnosticResult{
		Method:        mode.String(),
		URL:           resp.URL,
		StatusCode:    resp.StatusCode,
		SessionActive: resp.SessionActive,
	}
	switch {
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		result.Kind = domain.DiagnosticHTTPError
		result.Message = fmt.Sprintf("Connection failed: HTTP %d - %s", resp.StatusCode, statusText(resp))
	case !resp.BodyValid:
		result.Kind = domain.DiagnosticInvalidBody
		result.Message = fmt.Sprintf("Connected via %s but the response was not valid session status JSON", mode)
	default:
		result.Success = true
		result.Kind = domain.DiagnosticOK
		result.Message = fmt.Sprintf("Connection successful via %s! Session active: %s", mode, yesNo(resp.SessionActive))
	}
	return result
}

func (p *ConnectivityProbe) leg(ctx context.Context, mode domain.ProbeMode) (*domain.ProbeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.prober.Probe(ctx, mode)
}

func (p *ConnectivityProbe) trustRequired(err error) domain.DiagnosticResult {
	class := ClassifyTransportError(err)
	site := "https://" + p.host
	return domain.DiagnosticResult{
		Kind:       domain.DiagnosticTrustRequired,
		ErrorClass: class,
		Message: fmt.Sprintf("Connection failed (%s): the certificate may need acceptance. Visit %s and accept the certificate warning. Automatic sync works independently of this test.",
			TransportErrorMessage(class), site),
		Troubleshooting: []string{
			"Visit " + site + " in your browser",
			"Accept the certificate warning when prompted",
			"Run the connection test again",
			TransportErrorHint(class, site),
		},
	}
}

// ClassifyTransportError maps a transport failure to a human-oriented class.
func ClassifyTransportError(err error) domain.TransportErrorClass {
	if err == nil {
		return domain.TransportNetwork
	}

	var unknownAuthority x509.UnknownAuthorityError
	var invalidCert x509.CertificateInvalidError
	var hostname x509.HostnameError
	var netErr net.Error
	switch {
	case errors.As(err, &hostname):
		return domain.TransportCertificateName
	case errors.As(err, &unknownAuthority), errors.As(err, &invalidCert):
		return domain.TransportCertificateAuthority
	case errors.Is(err, syscall.ECONNREFUSED):
		return domain.TransportConnectionRefused
	case errors.Is(err, context.DeadlineExceeded):
		return domain.TransportTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return domain.TransportTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "certificate is valid for"), strings.Contains(msg, "common_name"):
		return domain.TransportCertificateName
	case strings.Contains(msg, "unknown authority"), strings.Contains(msg, "cert_authority"):
		return domain.TransportCertificateAuthority
	case strings.Contains(msg, "connection refused"):
		return domain.TransportConnectionRefused
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return domain.TransportTimeout
	default:
		return domain.TransportNetwork
	}
}

// TransportErrorMessage returns the short label of a class.
func TransportErrorMessage(class domain.TransportErrorClass) string {
	switch class {
	case domain.TransportTimeout:
		return "Connection Timeout"
	case domain.TransportCertificateAuthority:
		return "SSL Certificate Error"
	case domain.TransportCertificateName:
		return "SSL Certificate Name Mismatch"
	case domain.TransportConnectionRefused:
		return "Connection Refused"
	default:
		return "Network Connection Failed"
	}
}

// TransportErrorHint returns the remediation text of a class.
func TransportErrorHint(class domain.TransportErrorClass, site string) string {
	switch class {
	case domain.TransportTimeout:
		return "The connection attempt timed out. Check that the app is running and reachable."
	case domain.TransportCertificateAuthority:
		return "Visit " + site + " in your browser and accept the certificate warning first."
	case domain.TransportCertificateName:
		return "The certificate does not match the host. Try localhost or 127.0.0.1 instead."
	case domain.TransportConnectionRefused:
		return "The app appears to be offline. Check that it is listening on the configured port."
	default:
		return "Check that the app is running and reachable. Try opening the app URL directly."
	}
}

func statusText(resp *domain.ProbeResponse) string {
	if resp.Status == "" {
		return "no status text"
	}
	return resp.Status
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
