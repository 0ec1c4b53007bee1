package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// --- Mock implementations for service testing ---

var (
	_ driven.CredentialSource = (*mockCredentialSource)(nil)
	_ driven.LivenessSource   = (*mockLivenessSource)(nil)
	_ driven.KVStore          = (*mockKVStore)(nil)
	_ driven.HistoryStore     = (*mockHistoryStore)(nil)
	_ driven.Backend          = (*mockBackend)(nil)
	_ driven.SessionProber    = (*mockProber)(nil)
	_ driven.Indicator        = (*mockIndicator)(nil)
)

// mockCredentialSource implements driven.CredentialSource for testing.
type mockCredentialSource struct {
	mu         sync.Mutex
	records    []domain.CredentialRecord
	collectErr error
	removeErr  error
	calls      int
}

func (m *mockCredentialSource) set(records ...domain.CredentialRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
}

func (m *mockCredentialSource) Collect(_ context.Context, scope string) ([]domain.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.collectErr != nil {
		return nil, m.collectErr
	}
	var out []domain.CredentialRecord
	for _, r := range m.records {
		if domain.MatchesDomain(r.Domain, scope) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockCredentialSource) Remove(_ context.Context, scope, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	for i, r := range m.records {
		if r.Name == name && domain.MatchesDomain(r.Domain, scope) {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockCredentialSource) RemoveAll(_ context.Context, scope string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return 0, m.removeErr
	}
	kept := m.records[:0]
	removed := 0
	for _, r := range m.records {
		if domain.MatchesDomain(r.Domain, scope) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return removed, nil
}

// mockLivenessSource implements driven.LivenessSource for testing.
type mockLivenessSource struct {
	mu       sync.Mutex
	surfaces []domain.Surface
	err      error
	calls    int
	// entered and release, when set, hold ListActiveSurfaces until release is closed.
	entered chan struct{}
	release chan struct{}
}

func (m *mockLivenessSource) open(addresses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surfaces = nil
	for _, a := range addresses {
		m.surfaces = append(m.surfaces, domain.Surface{Address: a})
	}
}

func (m *mockLivenessSource) ListActiveSurfaces(_ context.Context) ([]domain.Surface, error) {
	if m.release != nil {
		m.entered <- struct{}{}
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Surface(nil), m.surfaces...), nil
}

func (m *mockLivenessSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockKVStore implements driven.KVStore for testing.
type mockKVStore struct {
	mu     sync.Mutex
	data   map[string]string
	setErr error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string]string)}
}

func (m *mockKVStore) Get(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	if len(keys) == 0 {
		for k, v := range m.data {
			out[k] = v
		}
		return out, nil
	}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *mockKVStore) Set(_ context.Context, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	for k, v := range entries {
		m.data[k] = v
	}
	return nil
}

func (m *mockKVStore) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *mockKVStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

func (m *mockKVStore) value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// mockHistoryStore implements driven.HistoryStore for testing.
type mockHistoryStore struct {
	mu       sync.Mutex
	outcomes []domain.OutcomeRecord
}

func (m *mockHistoryStore) RecordOutcome(_ context.Context, o *domain.OutcomeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, *o)
	return nil
}

func (m *mockHistoryStore) ListOutcomes(_ context.Context, limit int) ([]domain.OutcomeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.OutcomeRecord, len(m.outcomes))
	copy(out, m.outcomes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockHistoryStore) PruneHistory(_ context.Context, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.outcomes) > keep {
		m.outcomes = m.outcomes[len(m.outcomes)-keep:]
	}
	return nil
}

func (m *mockHistoryStore) ClearHistory(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = nil
	return nil
}

// mockBackend implements driven.Backend for testing.
// Responses are consumed in order; the last one repeats.
type mockBackend struct {
	mu        sync.Mutex
	responses []error
	message   string
	pushes    []domain.SyncPayload
	statuses  []domain.StatusPayload
	statusErr error
	block     chan struct{}
	started   chan struct{}
}

func (m *mockBackend) PushCredentials(ctx context.Context, payload domain.SyncPayload) (*domain.SyncResponse, error) {
	m.mu.Lock()
	m.pushes = append(m.pushes, payload)
	var err error
	if len(m.responses) > 0 {
		err = m.responses[0]
		if len(m.responses) > 1 {
			m.responses = m.responses[1:]
		}
	}
	block, started, message := m.block, m.started, m.message
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, &domain.NetworkError{Op: "POST /sync", Err: ctx.Err()}
		}
	}
	if err != nil {
		return nil, err
	}
	return &domain.SyncResponse{Message: message, CookieCount: payload.CookieCount}, nil
}

func (m *mockBackend) ReportStatus(_ context.Context, payload domain.StatusPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, payload)
	return m.statusErr
}

func (m *mockBackend) pushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pushes)
}

func (m *mockBackend) statusReports() []domain.StatusPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.StatusPayload(nil), m.statuses...)
}

func (m *mockBackend) lastPush() domain.SyncPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushes[len(m.pushes)-1]
}

// mockProber implements driven.SessionProber for testing.
type mockProber struct {
	mu      sync.Mutex
	results map[domain.ProbeMode]*domain.ProbeResponse
	errs    map[domain.ProbeMode]error
	modes   []domain.ProbeMode
}

func (m *mockProber) Probe(_ context.Context, mode domain.ProbeMode) (*domain.ProbeResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes = append(m.modes, mode)
	if err := m.errs[mode]; err != nil {
		return nil, err
	}
	return m.results[mode], nil
}

// mockIndicator implements driven.Indicator for testing.
type mockIndicator struct {
	mu      sync.Mutex
	shown   []domain.IndicatorState
	showErr error
}

func (m *mockIndicator) Show(_ context.Context, state domain.IndicatorState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.showErr != nil {
		return m.showErr
	}
	m.shown = append(m.shown, state)
	return nil
}

func (m *mockIndicator) updates() []domain.IndicatorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.IndicatorState(nil), m.shown...)
}

// --- Fixtures ---

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

const (
	testDomain    = "webserviced.anaf.ro"
	testCompanion = "https://u-core.test/dashboard"
)

func credential(name string) domain.CredentialRecord {
	return domain.CredentialRecord{Name: name, Value: name + "-value", Domain: testDomain, Path: "/", Session: true}
}

func fullCredentials() []domain.CredentialRecord {
	return []domain.CredentialRecord{credential("MRHSession"), credential("F5_ST"), credential("LastMRH_Session")}
}
