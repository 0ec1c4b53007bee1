package cookiefile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

const fixture = "# Netscape HTTP Cookie File\n" +
	"\n" +
	"#HttpOnly_webserviced.anaf.ro\tFALSE\t/\tTRUE\t0\tMRHSession\tsess-1\n" +
	".webserviced.anaf.ro\tTRUE\t/\tTRUE\t1893456000\tF5_ST\tst-1\n" +
	"webserviced.anaf.ro\tFALSE\t/\tFALSE\t0\tLastMRH_Session\tlast-1\n" +
	"example.test\tFALSE\t/\tFALSE\t0\tother\tx\n" +
	"garbage line\n"

const scope = "webserviced.anaf.ro"

func writeFixture(t *testing.T, content string) *Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return New(path)
}

func TestSource_Collect(t *testing.T) {
	src := writeFixture(t, fixture)

	records, err := src.Collect(context.Background(), scope)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "MRHSession", records[0].Name)
	assert.True(t, records[0].HTTPOnly)
	assert.True(t, records[0].Session)
	assert.Nil(t, records[0].ExpiresAt)

	assert.Equal(t, "F5_ST", records[1].Name)
	assert.Equal(t, ".webserviced.anaf.ro", records[1].Domain)
	require.NotNil(t, records[1].ExpiresAt)
	assert.Equal(t, int64(1893456000), records[1].ExpiresAt.Unix())
	assert.False(t, records[1].Session)
	assert.True(t, records[1].Secure)

	assert.False(t, records[2].Secure)
}

func TestSource_CollectMissingFile(t *testing.T) {
	src := New(filepath.Join(t.TempDir(), "absent.txt"))

	records, err := src.Collect(context.Background(), scope)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSource_RemovePreservesOtherLines(t *testing.T) {
	src := writeFixture(t, fixture)
	ctx := context.Background()

	require.NoError(t, src.Remove(ctx, scope, "F5_ST"))
	assert.ErrorIs(t, src.Remove(ctx, scope, "F5_ST"), domain.ErrNotFound)

	raw, err := os.ReadFile(src.Path())
	require.NoError(t, err)
	content := string(raw)
	assert.NotContains(t, content, "F5_ST")
	assert.Contains(t, content, "# Netscape HTTP Cookie File")
	assert.Contains(t, content, "garbage line")
	assert.Contains(t, content, "#HttpOnly_webserviced.anaf.ro")
}

func TestSource_RemoveAll(t *testing.T) {
	src := writeFixture(t, fixture)
	ctx := context.Background()

	n, err := src.RemoveAll(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	records, err := src.Collect(ctx, scope)
	require.NoError(t, err)
	assert.Empty(t, records)

	others, err := src.Collect(ctx, "example.test")
	require.NoError(t, err)
	assert.Len(t, others, 1)

	n, err = src.RemoveAll(ctx, scope)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFormat_RoundTrip(t *testing.T) {
	exp := time.Unix(1893456000, 0).UTC()
	rec := domain.CredentialRecord{
		Name: "F5_ST", Value: "v", Domain: ".webserviced.anaf.ro", Path: "/",
		Secure: true, HTTPOnly: true, ExpiresAt: &exp,
	}

	line := format(rec)
	assert.True(t, strings.HasPrefix(line, "#HttpOnly_.webserviced.anaf.ro\tTRUE\t"))

	parsed, ok := parseLine(line)
	require.True(t, ok)
	assert.Equal(t, rec.Name, parsed.Name)
	assert.Equal(t, rec.Value, parsed.Value)
	assert.True(t, parsed.HTTPOnly)
	assert.True(t, exp.Equal(*parsed.ExpiresAt))
}

func TestParseLine_Rejects(t *testing.T) {
	for _, line := range []string{"", "# comment", "a\tb\tc", "d\tF\t/\tF\tnotanumber\tn\tv"} {
		_, ok := parseLine(line)
		assert.False(t, ok, line)
	}
}

type recordingSink struct {
	mu      sync.Mutex
	changes []string
}

func (s *recordingSink) CredentialChanged(name, domainScope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, name+"@"+domainScope)
}
func (s *recordingSink) NavigationCompleted(string) {}
func (s *recordingSink) SurfaceClosed()             {}
func (s *recordingSink) FocusChanged()              {}

func TestWatcher_HandleEvent(t *testing.T) {
	src := writeFixture(t, fixture)
	sink := &recordingSink{}
	w := NewWatcher(src, scope, sink)

	var err error
	w.last, err = src.snapshot(scope)
	require.NoError(t, err)

	updated := strings.Replace(fixture, "st-1", "st-2", 1)
	updated = strings.Replace(updated, "webserviced.anaf.ro\tFALSE\t/\tFALSE\t0\tLastMRH_Session\tlast-1\n", "", 1)
	require.NoError(t, os.WriteFile(src.Path(), []byte(updated), 0600))

	names := w.handleEvent(fsnotify.Event{Name: src.Path(), Op: fsnotify.Write})
	assert.ElementsMatch(t, []string{"F5_ST", "LastMRH_Session"}, names)
	assert.Len(t, sink.changes, 2)

	// Unchanged content emits nothing.
	assert.Empty(t, w.handleEvent(fsnotify.Event{Name: src.Path(), Op: fsnotify.Write}))
}

func TestWatcher_HandleEventIgnoresOtherFiles(t *testing.T) {
	src := writeFixture(t, fixture)
	w := NewWatcher(src, scope, &recordingSink{})

	other := filepath.Join(filepath.Dir(src.Path()), "other.txt")
	assert.Nil(t, w.handleEvent(fsnotify.Event{Name: other, Op: fsnotify.Write}))
	assert.Nil(t, w.handleEvent(fsnotify.Event{Name: src.Path(), Op: fsnotify.Chmod}))
}

func TestWatcher_RunDetectsWrites(t *testing.T) {
	src := writeFixture(t, fixture)
	sink := &recordingSink{}
	w := NewWatcher(src, scope, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Rewrite until the watcher has registered and picked the change up.
	require.Eventually(t, func() bool {
		content := strings.Replace(fixture, "sess-1", "sess-"+time.Now().Format("150405.000000000"), 1)
		_ = os.WriteFile(src.Path(), []byte(content), 0600)
		sink.mu.Lock()
		defer sink.mu.Unlock()
		for _, c := range sink.changes {
			if strings.HasPrefix(c, "MRHSession@") {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
