package services

import (
	"context"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
	"github.com/custodia-labs/sessync/internal/logger"
)

// CredentialCollector reads the current credential set of a domain.
type CredentialCollector struct {
	source driven.CredentialSource
	clock  driven.Clock
}

// NewCredentialCollector creates a collector over source.
func NewCredentialCollector(source driven.CredentialSource, clock driven.Clock) *CredentialCollector {
	return &CredentialCollector{source: source, clock: clock}
}

// Collect returns the unexpired required credentials of domainScope, in
// required-set order, at most one per name. Read failures yield an empty list.
func (c *CredentialCollector) Collect(ctx context.Context, domainScope string) []domain.CredentialRecord {
	all, err := c.source.Collect(ctx, domainScope)
	if err != nil {
		logger.Warn("collector: reading credentials for %s: %v", domainScope, err)
		return []domain.CredentialRecord{}
	}

	now := c.clock.Now()
	byName := make(map[string]domain.CredentialRecord, domain.RequiredCredentialCount)
	for _, r := range all {
		if !domain.IsRequiredCredential(r.Name) || r.IsExpired(now) {
			continue
		}
		if _, seen := byName[r.Name]; seen {
			continue
		}
		byName[r.Name] = copyRecord(r)
	}

	out := make([]domain.CredentialRecord, 0, len(byName))
	for _, name := range domain.RequiredCredentials {
		if r, ok := byName[name]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Inspect returns the credentials worth showing to a user: session-scoped,
// required, or analytics credentials. Expired ones are kept so users can see them.
func (c *CredentialCollector) Inspect(ctx context.Context, domainScope string) ([]domain.CredentialView, error) {
	all, err := c.source.Collect(ctx, domainScope)
	if err != nil {
		return nil, err
	}

	views := make([]domain.CredentialView, 0, len(all))
	for _, r := range all {
		required := domain.IsRequiredCredential(r.Name)
		if !required && !r.Session && !domain.IsAnalyticsCredential(r.Name) {
			continue
		}
		views = append(views, domain.CredentialView{CredentialRecord: copyRecord(r), Required: required})
	}
	return views, nil
}

func copyRecord(r domain.CredentialRecord) domain.CredentialRecord {
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		r.ExpiresAt = &t
	}
	return r
}
