// Package devtools lists open browser pages through the remote-debugging
// HTTP endpoint (chrome --remote-debugging-port).
package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.LivenessSource = (*Source)(nil)

// DefaultTimeout bounds a single listing request.
const DefaultTimeout = 3 * time.Second

// Source is a LivenessSource backed by GET <endpoint>/json/list.
type Source struct {
	client   *http.Client
	endpoint string
}

type target struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// New creates a source for the debugging endpoint, e.g. http://127.0.0.1:9222.
func New(endpoint string) *Source {
	return &Source{
		client:   &http.Client{Timeout: DefaultTimeout},
		endpoint: strings.TrimRight(endpoint, "/"),
	}
}

// ListActiveSurfaces returns the address of every page target.
// Workers, extensions and other target types are skipped.
func (s *Source) ListActiveSurfaces(ctx context.Context) ([]domain.Surface, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"/json/list", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing targets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing targets: status %d", resp.StatusCode)
	}

	var targets []target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("decode targets: %w", err)
	}

	surfaces := make([]domain.Surface, 0, len(targets))
	for _, t := range targets {
		if t.Type != "page" || t.URL == "" {
			continue
		}
		surfaces = append(surfaces, domain.Surface{Address: t.URL})
	}
	return surfaces, nil
}
