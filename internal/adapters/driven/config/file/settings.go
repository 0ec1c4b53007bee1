package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyBackendURL         = "backend.url"
	KeyBackendToken       = "backend.token"
	KeyBackendRPS         = "backend.requests_per_second"
	KeyCredentialsDomain  = "credentials.domain"
	KeyCredentialsSource  = "credentials.source"
	KeyCookieFile         = "credentials.cookie_file"
	KeyLivenessSource     = "liveness.source"
	KeyDevToolsURL        = "liveness.devtools_url"
	KeyCompanionHost      = "liveness.companion_host"
	KeyStorageBackend     = "storage.backend"
	KeyStorageDataDir     = "storage.data_dir"
	KeyRedisAddress       = "storage.redis_address"
	KeyRedisDB            = "storage.redis_db"
	KeyServerListen       = "server.listen"
	KeyHeartbeatSync      = "scheduler.heartbeat_sync"
	envPrefix             = "SESSYNC_"
	defaultCookieFileName = "cookies.txt"
)

// KnownKeys lists every key the agent reads, in display order.
var KnownKeys = []string{
	KeyBackendURL, KeyBackendToken, KeyBackendRPS,
	KeyCredentialsDomain, KeyCredentialsSource, KeyCookieFile,
	KeyLivenessSource, KeyDevToolsURL, KeyCompanionHost,
	KeyStorageBackend, KeyStorageDataDir, KeyRedisAddress, KeyRedisDB,
	KeyServerListen, KeyHeartbeatSync,
}

// EnvName returns the environment variable overriding key,
// e.g. backend.url -> SESSYNC_BACKEND_URL.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// Existing variables are not overwritten. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadSettings builds settings from defaults, then the store, then
// SESSYNC_* environment variables, and validates the result.
// Call LoadEnvFile first to include a .env file.
func LoadSettings(store driven.ConfigStore) (domain.Settings, error) {
	s := domain.DefaultSettings()
	configDir := filepath.Dir(store.Path())
	s.Credentials.CookieFile = filepath.Join(configDir, defaultCookieFileName)
	s.Storage.DataDir = filepath.Join(configDir, "data")

	l := &loader{store: store}

	s.Backend.URL = l.str(KeyBackendURL, s.Backend.URL)
	s.Backend.Token = l.str(KeyBackendToken, s.Backend.Token)
	s.Backend.RequestsPerSecond = l.float(KeyBackendRPS, s.Backend.RequestsPerSecond)

	s.Credentials.Domain = l.str(KeyCredentialsDomain, s.Credentials.Domain)
	s.Credentials.Source = domain.CredentialSourceKind(l.str(KeyCredentialsSource, string(s.Credentials.Source)))
	s.Credentials.CookieFile = expandHome(l.str(KeyCookieFile, s.Credentials.CookieFile))

	s.Liveness.Source = domain.LivenessSourceKind(l.str(KeyLivenessSource, string(s.Liveness.Source)))
	s.Liveness.DevToolsURL = l.str(KeyDevToolsURL, s.Liveness.DevToolsURL)
	s.Liveness.CompanionHost = l.str(KeyCompanionHost, s.Liveness.CompanionHost)

	s.Storage.Backend = domain.StorageBackend(l.str(KeyStorageBackend, string(s.Storage.Backend)))
	s.Storage.DataDir = expandHome(l.str(KeyStorageDataDir, s.Storage.DataDir))
	s.Storage.RedisAddress = l.str(KeyRedisAddress, s.Storage.RedisAddress)
	s.Storage.RedisDB = l.int(KeyRedisDB, s.Storage.RedisDB)

	s.Server.Listen = l.str(KeyServerListen, s.Server.Listen)
	s.HeartbeatSync = l.bool(KeyHeartbeatSync, s.HeartbeatSync)

	if l.err != nil {
		return s, l.err
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// loader resolves one key at a time, recording the first parse error.
type loader struct {
	store driven.ConfigStore
	err   error
}

func (l *loader) env(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvName(key))
	return strings.TrimSpace(v), ok
}

func (l *loader) fail(key, raw string, err error) {
	if l.err == nil {
		l.err = fmt.Errorf("%w: %s=%q: %v", domain.ErrInvalidInput, EnvName(key), raw, err)
	}
}

func (l *loader) str(key, def string) string {
	if v, ok := l.env(key); ok {
		return v
	}
	if _, ok := l.store.Get(key); ok {
		return l.store.GetString(key)
	}
	return def
}

func (l *loader) float(key string, def float64) float64 {
	if v, ok := l.env(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			l.fail(key, v, err)
			return def
		}
		return f
	}
	if _, ok := l.store.Get(key); ok {
		return l.store.GetFloat(key)
	}
	return def
}

func (l *loader) int(key string, def int) int {
	if v, ok := l.env(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			l.fail(key, v, err)
			return def
		}
		return n
	}
	if _, ok := l.store.Get(key); ok {
		return l.store.GetInt(key)
	}
	return def
}

func (l *loader) bool(key string, def bool) bool {
	if v, ok := l.env(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			l.fail(key, v, err)
			return def
		}
		return b
	}
	if _, ok := l.store.Get(key); ok {
		return l.store.GetBool(key)
	}
	return def
}

// ParseValue converts a command-line value to the type stored for key.
func ParseValue(key, raw string) (any, error) {
	switch key {
	case KeyBackendRPS:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		return f, nil
	case KeyRedisDB:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		return n, nil
	case KeyHeartbeatSync:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		return b, nil
	default:
		return raw, nil
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Values returns the effective value of every known key as text.
func Values(s domain.Settings) map[string]string {
	return map[string]string{
		KeyBackendURL:        s.Backend.URL,
		KeyBackendToken:      s.Backend.Token,
		KeyBackendRPS:        strconv.FormatFloat(s.Backend.RequestsPerSecond, 'f', -1, 64),
		KeyCredentialsDomain: s.Credentials.Domain,
		KeyCredentialsSource: string(s.Credentials.Source),
		KeyCookieFile:        s.Credentials.CookieFile,
		KeyLivenessSource:    string(s.Liveness.Source),
		KeyDevToolsURL:       s.Liveness.DevToolsURL,
		KeyCompanionHost:     s.Liveness.CompanionHost,
		KeyStorageBackend:    string(s.Storage.Backend),
		KeyStorageDataDir:    s.Storage.DataDir,
		KeyRedisAddress:      s.Storage.RedisAddress,
		KeyRedisDB:           strconv.Itoa(s.Storage.RedisDB),
		KeyServerListen:      s.Server.Listen,
		KeyHeartbeatSync:     strconv.FormatBool(s.HeartbeatSync),
	}
}

// Origin reports where the effective value of key comes from:
// "env", "file" or "default".
func Origin(store driven.ConfigStore, key string) string {
	if _, ok := os.LookupEnv(EnvName(key)); ok {
		return "env"
	}
	if _, ok := store.Get(key); ok {
		return "file"
	}
	return "default"
}
