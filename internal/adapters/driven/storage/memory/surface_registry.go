package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// Ensure SurfaceRegistry implements the interface.
var _ driven.LivenessSource = (*SurfaceRegistry)(nil)

// SurfaceRegistry tracks surfaces reported open by the host, keyed by a
// host-chosen identifier.
type SurfaceRegistry struct {
	mu       sync.RWMutex
	surfaces map[string]domain.Surface
}

// NewSurfaceRegistry creates an empty registry.
func NewSurfaceRegistry() *SurfaceRegistry {
	return &SurfaceRegistry{surfaces: make(map[string]domain.Surface)}
}

// Open records or updates a surface.
func (r *SurfaceRegistry) Open(id, address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces[id] = domain.Surface{Address: address}
}

// Close forgets a surface. It reports whether the surface was known.
func (r *SurfaceRegistry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.surfaces[id]
	delete(r.surfaces, id)
	return ok
}

// Replace discards every known surface and records surfaces instead.
func (r *SurfaceRegistry) Replace(surfaces map[string]string) {
	next := make(map[string]domain.Surface, len(surfaces))
	for id, address := range surfaces {
		next[id] = domain.Surface{Address: address}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces = next
}

// ListActiveSurfaces returns open surfaces ordered by identifier.
func (r *SurfaceRegistry) ListActiveSurfaces(_ context.Context) ([]domain.Surface, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.surfaces))
	for id := range r.surfaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.Surface, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.surfaces[id])
	}
	return out, nil
}
