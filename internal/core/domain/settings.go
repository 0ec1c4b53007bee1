package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// CredentialSourceKind selects where credentials are read from.
type CredentialSourceKind string

// Credential source kinds.
const (
	// CredentialSourceCookieFile reads a Netscape cookies.txt export.
	CredentialSourceCookieFile CredentialSourceKind = "cookiefile"
	// CredentialSourcePush keeps credentials pushed by the host over the local API.
	CredentialSourcePush CredentialSourceKind = "push"
)

// LivenessSourceKind selects how active surfaces are enumerated.
type LivenessSourceKind string

// Liveness source kinds.
const (
	// LivenessSourceDevTools lists pages through a browser remote-debugging endpoint.
	LivenessSourceDevTools LivenessSourceKind = "devtools"
	// LivenessSourcePush keeps surfaces pushed by the host over the local API.
	LivenessSourcePush LivenessSourceKind = "push"
)

// StorageBackend selects the persisted key/value store.
type StorageBackend string

// Storage backends.
const (
	StorageSQLite StorageBackend = "sqlite"
	StorageRedis  StorageBackend = "redis"
	StorageMemory StorageBackend = "memory"
)

// Settings is the user-editable configuration of the agent.
type Settings struct {
	Backend     BackendSettings
	Credentials CredentialSettings
	Liveness    LivenessSettings
	Storage     StorageSettings
	Server      ServerSettings

	// HeartbeatSync schedules a sync on each heartbeat while the companion is open.
	HeartbeatSync bool
}

// BackendSettings configures the remote backend.
type BackendSettings struct {
	// URL is the base address; /sync, /status and /session/status resolve against it.
	URL string
	// Token is an optional bearer token.
	Token string
	// RequestsPerSecond throttles outbound requests. Zero disables throttling.
	RequestsPerSecond float64
}

// CredentialSettings configures the credential source.
type CredentialSettings struct {
	Domain     string
	Source     CredentialSourceKind
	CookieFile string
}

// LivenessSettings configures companion detection.
type LivenessSettings struct {
	Source        LivenessSourceKind
	DevToolsURL   string
	CompanionHost string
}

// StorageSettings configures persistence.
type StorageSettings struct {
	Backend      StorageBackend
	DataDir      string
	RedisAddress string
	RedisDB      int
}

// ServerSettings configures the local HTTP API.
type ServerSettings struct {
	Listen string
}

// DefaultSettings returns settings matching the default deployment.
func DefaultSettings() Settings {
	sync := DefaultSyncConfig()
	return Settings{
		Backend: BackendSettings{
			URL:               "https://u-core.test/api/anaf",
			RequestsPerSecond: 2,
		},
		Credentials: CredentialSettings{
			Domain: sync.CredentialDomain,
			Source: CredentialSourceCookieFile,
		},
		Liveness: LivenessSettings{
			Source:        LivenessSourceDevTools,
			DevToolsURL:   "http://127.0.0.1:9222",
			CompanionHost: sync.CompanionHost,
		},
		Storage: StorageSettings{
			Backend:      StorageSQLite,
			RedisAddress: "localhost:6379",
		},
		Server: ServerSettings{
			Listen: "127.0.0.1:7733",
		},
		HeartbeatSync: sync.HeartbeatSync,
	}
}

// Validate checks that the settings can be used to build the agent.
func (s Settings) Validate() error {
	u, err := url.Parse(s.Backend.URL)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("%w: backend.url must be an http(s) URL, got %q", ErrInvalidInput, s.Backend.URL)
	}
	if s.Backend.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: backend.requests_per_second must not be negative", ErrInvalidInput)
	}
	if strings.TrimSpace(s.Credentials.Domain) == "" {
		return fmt.Errorf("%w: credentials.domain is required", ErrInvalidInput)
	}
	if strings.TrimSpace(s.Liveness.CompanionHost) == "" {
		return fmt.Errorf("%w: liveness.companion_host is required", ErrInvalidInput)
	}

	switch s.Credentials.Source {
	case CredentialSourceCookieFile, CredentialSourcePush:
	default:
		return fmt.Errorf("%w: unknown credentials.source %q", ErrInvalidInput, s.Credentials.Source)
	}
	switch s.Liveness.Source {
	case LivenessSourceDevTools, LivenessSourcePush:
	default:
		return fmt.Errorf("%w: unknown liveness.source %q", ErrInvalidInput, s.Liveness.Source)
	}
	switch s.Storage.Backend {
	case StorageSQLite, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("%w: unknown storage.backend %q", ErrInvalidInput, s.Storage.Backend)
	}
	return nil
}

// SyncConfig returns the scheduler configuration derived from these settings.
func (s Settings) SyncConfig() SyncConfig {
	cfg := DefaultSyncConfig()
	cfg.CredentialDomain = strings.TrimPrefix(s.Credentials.Domain, ".")
	cfg.CompanionHost = s.Liveness.CompanionHost
	cfg.HeartbeatSync = s.HeartbeatSync
	return cfg
}
