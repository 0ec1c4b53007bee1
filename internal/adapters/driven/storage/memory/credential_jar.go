package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// Ensure CredentialJar implements the interface.
var _ driven.CredentialSource = (*CredentialJar)(nil)

type jarKey struct {
	domain string
	path   string
	name   string
}

// CredentialJar holds credentials pushed by the host.
// Credentials are keyed by domain, path and name like a browser cookie jar.
type CredentialJar struct {
	mu      sync.RWMutex
	records map[jarKey]domain.CredentialRecord
	order   []jarKey
}

// NewCredentialJar creates an empty jar.
func NewCredentialJar() *CredentialJar {
	return &CredentialJar{records: make(map[jarKey]domain.CredentialRecord)}
}

// Put stores or replaces a credential.
func (j *CredentialJar) Put(rec domain.CredentialRecord) {
	k := jarKey{domain: rec.Domain, path: rec.Path, name: rec.Name}
	rec.ExpiresAt = copyTime(rec)

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.records[k]; !ok {
		j.order = append(j.order, k)
	}
	j.records[k] = rec
}

// Collect returns credentials whose domain matches scope, in insertion order.
func (j *CredentialJar) Collect(_ context.Context, domainScope string) ([]domain.CredentialRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []domain.CredentialRecord
	for _, k := range j.order {
		if !domain.MatchesDomain(k.domain, domainScope) {
			continue
		}
		rec := j.records[k]
		rec.ExpiresAt = copyTime(rec)
		out = append(out, rec)
	}
	return out, nil
}

// Remove deletes every credential named name in scope.
func (j *CredentialJar) Remove(_ context.Context, domainScope, name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	removed := j.removeLocked(func(k jarKey) bool {
		return k.name == name && domain.MatchesDomain(k.domain, domainScope)
	})
	if removed == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RemoveAll deletes every credential in scope.
func (j *CredentialJar) RemoveAll(_ context.Context, domainScope string) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.removeLocked(func(k jarKey) bool {
		return domain.MatchesDomain(k.domain, domainScope)
	}), nil
}

func (j *CredentialJar) removeLocked(match func(jarKey) bool) int {
	kept := j.order[:0]
	removed := 0
	for _, k := range j.order {
		if match(k) {
			delete(j.records, k)
			removed++
			continue
		}
		kept = append(kept, k)
	}
	j.order = kept
	return removed
}

func copyTime(rec domain.CredentialRecord) *time.Time {
	if rec.ExpiresAt == nil {
		return nil
	}
	t := *rec.ExpiresAt
	return &t
}
