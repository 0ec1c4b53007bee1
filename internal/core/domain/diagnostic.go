package domain

// DiagnosticKind classifies a connectivity test result.
type DiagnosticKind string

// Diagnostic kinds.
const (
	DiagnosticOK            DiagnosticKind = "ok"
	DiagnosticTabNotOpen    DiagnosticKind = "tab_not_open"
	DiagnosticHTTPError     DiagnosticKind = "http_error"
	DiagnosticTrustRequired DiagnosticKind = "trust_required"
	DiagnosticInvalidBody   DiagnosticKind = "invalid_body"
)

// TransportErrorClass is a human-oriented classification of a transport failure.
// It never influences retry decisions.
type TransportErrorClass string

// Transport error classes.
const (
	TransportTimeout              TransportErrorClass = "timeout"
	TransportCertificateAuthority TransportErrorClass = "certificate_authority"
	TransportCertificateName      TransportErrorClass = "certificate_name"
	TransportConnectionRefused    TransportErrorClass = "connection_refused"
	TransportNetwork              TransportErrorClass = "network"
)

// ProbeMode selects the transport used for a connectivity probe.
type ProbeMode int

// Probe modes.
const (
	ProbePrimary ProbeMode = iota
	ProbeFallback
)

// String returns the display name used in diagnostics.
func (m ProbeMode) String() string {
	if m == ProbeFallback {
		return "HTTP (fallback)"
	}
	return "HTTPS"
}

// ProbeResponse is what the backend answered to a connectivity probe.
type ProbeResponse struct {
	StatusCode int
	Status     string
	URL        string
	// SessionActive is read from the "session.active" field of the body.
	SessionActive bool
	// BodyValid is false when the body was not the expected JSON.
	BodyValid bool
}

// DiagnosticResult is the outcome of a connectivity test.
type DiagnosticResult struct {
	Success         bool                `json:"success"`
	Kind            DiagnosticKind      `json:"kind"`
	Method          string              `json:"method,omitempty"`
	URL             string              `json:"url,omitempty"`
	Message         string              `json:"message"`
	StatusCode      int                 `json:"status_code,omitempty"`
	SessionActive   bool                `json:"session_active"`
	ErrorClass      TransportErrorClass `json:"error_class,omitempty"`
	Troubleshooting []string            `json:"troubleshooting,omitempty"`
}
