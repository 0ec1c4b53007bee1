package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
	"github.com/custodia-labs/sessync/internal/logger"
)

// LivenessGate answers whether the companion application is currently open.
type LivenessGate struct {
	source driven.LivenessSource
	host   string
}

// NewLivenessGate creates a gate matching surfaces served from companionHost.
func NewLivenessGate(source driven.LivenessSource, companionHost string) *LivenessGate {
	return &LivenessGate{
		source: source,
		host:   strings.ToLower(companionHost),
	}
}

// IsCompanionActive enumerates the active surfaces on every call.
// Enumeration failures count as inactive.
func (g *LivenessGate) IsCompanionActive(ctx context.Context) bool {
	surfaces, err := g.source.ListActiveSurfaces(ctx)
	if err != nil {
		logger.Debug("liveness: enumeration failed: %v", err)
		return false
	}
	for _, s := range surfaces {
		if g.matches(s) {
			return true
		}
	}
	return false
}

func (g *LivenessGate) matches(s domain.Surface) bool {
	if g.host == "" {
		return false
	}
	u, err := url.Parse(s.Address)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == g.host || strings.HasSuffix(host, "."+g.host)
}
