package cookiefile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.CredentialSource = (*Source)(nil)

// Source is a CredentialSource over a cookies.txt file.
type Source struct {
	mu   sync.Mutex
	path string
}

// New creates a source for the file at path. The file need not exist yet.
func New(path string) *Source {
	return &Source{path: path}
}

// Path returns the cookie file path.
func (s *Source) Path() string {
	return s.path
}

// Collect returns every cookie in the domain scope. A missing file yields
// no credentials.
func (s *Source) Collect(_ context.Context, domainScope string) ([]domain.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}

	var out []domain.CredentialRecord
	for _, e := range entries {
		if e.record != nil && domain.MatchesDomain(e.record.Domain, domainScope) {
			out = append(out, *e.record)
		}
	}
	return out, nil
}

// Remove deletes every cookie named name in scope.
func (s *Source) Remove(_ context.Context, domainScope, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.rewrite(func(rec *domain.CredentialRecord) bool {
		return rec.Name == name && domain.MatchesDomain(rec.Domain, domainScope)
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RemoveAll deletes every cookie in scope.
func (s *Source) RemoveAll(_ context.Context, domainScope string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rewrite(func(rec *domain.CredentialRecord) bool {
		return domain.MatchesDomain(rec.Domain, domainScope)
	})
}

func (s *Source) read() ([]entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening cookie file: %w", err)
	}
	defer f.Close()
	return parse(f)
}

// rewrite drops matching cookies and replaces the file atomically.
func (s *Source) rewrite(drop func(*domain.CredentialRecord) bool) (int, error) {
	entries, err := s.read()
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	removed := 0
	for _, e := range entries {
		if e.record != nil && drop(e.record) {
			removed++
			continue
		}
		buf.WriteString(e.raw)
		buf.WriteByte('\n')
	}
	if removed == 0 {
		return 0, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return 0, fmt.Errorf("creating temp cookie file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing cookie file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("setting cookie file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing cookie file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return 0, fmt.Errorf("replacing cookie file: %w", err)
	}
	return removed, nil
}

// snapshot maps "domain|path|name" to value for every cookie in scope.
func (s *Source) snapshot(domainScope string) (map[string]domain.CredentialRecord, error) {
	records, err := s.Collect(context.Background(), domainScope)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.CredentialRecord, len(records))
	for _, r := range records {
		out[strings.Join([]string{r.Domain, r.Path, r.Name}, "|")] = r
	}
	return out, nil
}
