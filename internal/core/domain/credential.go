package domain

import (
	"strings"
	"time"
)

// RequiredCredentials is the fixed, ordered set of credential names that
// define a fully synchronised session.
var RequiredCredentials = [RequiredCredentialCount]string{"MRHSession", "F5_ST", "LastMRH_Session"}

// RequiredCredentialCount is the number of credentials a complete session carries.
const RequiredCredentialCount = 3

// CredentialRecord is a single session credential read from the host.
type CredentialRecord struct {
	// Name is the credential (cookie) name.
	Name string `json:"name"`

	// Value is the opaque credential value.
	Value string `json:"value"`

	// Domain is the domain scope the credential belongs to.
	Domain string `json:"domain"`

	// Path is the path scope of the credential.
	Path string `json:"path,omitempty"`

	// ExpiresAt is nil for credentials without an expiry.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Session is true when the credential lives only for the browser session.
	Session bool `json:"session"`

	// Secure indicates the credential is only sent over TLS.
	Secure bool `json:"secure"`

	// HTTPOnly indicates the credential is not visible to scripts.
	HTTPOnly bool `json:"http_only"`
}

// IsExpired reports whether the credential has an expiry at or before now.
func (c CredentialRecord) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// IsRequiredCredential reports whether name is one of RequiredCredentials.
func IsRequiredCredential(name string) bool {
	for _, required := range RequiredCredentials {
		if name == required {
			return true
		}
	}
	return false
}

// IsAnalyticsCredential reports whether name belongs to an analytics cookie.
func IsAnalyticsCredential(name string) bool {
	return strings.HasPrefix(name, "_ga") || strings.HasPrefix(name, "AMP_")
}

// MatchesDomain reports whether a credential domain belongs to scope.
// Both the host-only form and the leading-dot form match.
func MatchesDomain(credentialDomain, scope string) bool {
	return strings.TrimPrefix(credentialDomain, ".") == strings.TrimPrefix(scope, ".")
}

// MissingCredentials returns the required names absent from records, in order.
func MissingCredentials(records []CredentialRecord) []string {
	present := make(map[string]bool, len(records))
	for _, r := range records {
		present[r.Name] = true
	}

	var missing []string
	for _, name := range RequiredCredentials {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// SerializeCredentials formats records the way a browser sends a Cookie header.
func SerializeCredentials(records []CredentialRecord) string {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, r.Name+"="+r.Value)
	}
	return strings.Join(parts, "; ")
}

// Surface is an active client surface (a browser tab or window).
type Surface struct {
	Address string `json:"address"`
}
