package cookiefile

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
	"github.com/custodia-labs/sessync/internal/logger"
)

// Watcher reports cookie changes in the file to an event sink.
// The parent directory is watched so atomic replacements are seen.
type Watcher struct {
	source *Source
	scope  string
	sink   driving.EventSink
	last   map[string]domain.CredentialRecord
}

// NewWatcher creates a watcher for source's file, limited to domainScope.
func NewWatcher(source *Source, domainScope string, sink driving.EventSink) *Watcher {
	return &Watcher{source: source, scope: domainScope, sink: sink}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.source.Path())); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.source.Path()), err)
	}

	if w.last, err = w.source.snapshot(w.scope); err != nil {
		logger.Warn("cookie file: initial read failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("cookie file watcher: %v", err)
		}
	}
}

// handleEvent diffs the file against the last snapshot and emits one
// CredentialChanged per changed cookie. It returns the changed names.
func (w *Watcher) handleEvent(ev fsnotify.Event) []string {
	if filepath.Clean(ev.Name) != filepath.Clean(w.source.Path()) {
		return nil
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return nil
	}

	current, err := w.source.snapshot(w.scope)
	if err != nil {
		logger.Warn("cookie file: read failed: %v", err)
		return nil
	}

	changed := diff(w.last, current)
	w.last = current

	names := make([]string, 0, len(changed))
	for _, rec := range changed {
		logger.Debug("cookie file: %s changed on %s", rec.Name, rec.Domain)
		w.sink.CredentialChanged(rec.Name, rec.Domain)
		names = append(names, rec.Name)
	}
	return names
}

// diff returns records added, removed or modified between before and after,
// sorted by key.
func diff(before, after map[string]domain.CredentialRecord) []domain.CredentialRecord {
	var keys []string
	for k, rec := range after {
		if old, ok := before[k]; !ok || old.Value != rec.Value {
			keys = append(keys, k)
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]domain.CredentialRecord, 0, len(keys))
	for _, k := range keys {
		if rec, ok := after[k]; ok {
			out = append(out, rec)
		} else {
			out = append(out, before[k])
		}
	}
	return out
}
