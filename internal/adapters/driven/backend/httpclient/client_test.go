package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api/anaf", Version: "1.2.3", Token: token})
	require.NoError(t, err)
	return c, srv
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPushCredentials_Success(t *testing.T) {
	var got domain.SyncPayload
	var headers http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/anaf/sync", r.URL.Path)
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":"Stored 3 cookies","cookie_count":3}`))
	}, "secret")

	resp, err := c.PushCredentials(context.Background(), domain.SyncPayload{
		Cookies:          "MRHSession=a; F5_ST=b",
		Timestamp:        1700000000000,
		Source:           domain.SourceBrowserExtension,
		Trigger:          "manual_api",
		CookieCount:      2,
		ExtensionVersion: "1.2.3",
	})
	require.NoError(t, err)

	assert.Equal(t, "Stored 3 cookies", resp.Message)
	assert.Equal(t, 3, resp.CookieCount)
	assert.Equal(t, "MRHSession=a; F5_ST=b", got.Cookies)
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "1.2.3", headers.Get(HeaderVersion))
	assert.Equal(t, ClientName, headers.Get(HeaderClient))
	assert.Equal(t, "Bearer secret", headers.Get("Authorization"))
}

func TestPushCredentials_EmptyBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, "")

	resp, err := c.PushCredentials(context.Background(), domain.SyncPayload{})
	require.NoError(t, err)
	assert.Empty(t, resp.Message)
}

func TestPushCredentials_HTTPErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"structured message", http.StatusUnprocessableEntity, `{"message":"bad cookies"}`, "bad cookies"},
		{"structured error field", http.StatusBadRequest, `{"error":"missing field"}`, "missing field"},
		{"raw text", http.StatusInternalServerError, "boom\n", "boom"},
		{"no body", http.StatusBadGateway, "", "no body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, "")

			_, err := c.PushCredentials(context.Background(), domain.SyncPayload{})
			var httpErr *domain.HTTPStatusError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.message, httpErr.Message)
		})
	}
}

func TestPushCredentials_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base})
	require.NoError(t, err)

	_, err = c.PushCredentials(context.Background(), domain.SyncPayload{})
	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "POST /sync", netErr.Op)
}

func TestPushCredentials_ContextDeadline(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// The server only notices the client going away once the body is read.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}, "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.PushCredentials(ctx, domain.SyncPayload{})
	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReportStatus(t *testing.T) {
	var got domain.StatusPayload
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/anaf/status", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ignored":true}`))
	}, "")

	err := c.ReportStatus(context.Background(), domain.StatusPayload{CookieCount: 2, RequiredCount: 3, Status: "partial"})
	require.NoError(t, err)
	assert.Equal(t, 2, got.CookieCount)
	assert.Equal(t, "partial", got.Status)
}

func TestReportStatus_Error(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}, "")

	err := c.ReportStatus(context.Background(), domain.StatusPayload{})
	assert.Equal(t, http.StatusServiceUnavailable, domain.StatusCodeOf(err))
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantValid     bool
		wantActive    bool
		wantStatusTxt string
	}{
		{"active session", http.StatusOK, `{"session":{"active":true}}`, true, true, "OK"},
		{"inactive session", http.StatusOK, `{"session":{"active":false}}`, true, false, "OK"},
		{"json without session", http.StatusOK, `{}`, true, false, "OK"},
		{"invalid body", http.StatusOK, `<html>`, false, false, "OK"},
		{"http error", http.StatusNotFound, `nope`, false, false, "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/anaf/session/status", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, "")

			resp, err := c.Probe(context.Background(), domain.ProbePrimary)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.wantStatusTxt, resp.Status)
			assert.Equal(t, tt.wantValid, resp.BodyValid)
			assert.Equal(t, tt.wantActive, resp.SessionActive)
			assert.Equal(t, srv.URL+"/api/anaf/session/status", resp.URL)
		})
	}
}

func TestProbe_FallbackRewritesScheme(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"session":{"active":true}}`))
	}))
	t.Cleanup(srv.Close)

	// An https base pointing at a plain-http server: the primary leg fails
	// the TLS handshake, the fallback leg succeeds over http.
	base := strings.Replace(srv.URL, "http://", "https://", 1) + "/api/anaf"
	c, err := New(Config{BaseURL: base})
	require.NoError(t, err)

	_, err = c.Probe(context.Background(), domain.ProbePrimary)
	require.Error(t, err)

	resp, err := c.Probe(context.Background(), domain.ProbeFallback)
	require.NoError(t, err)
	assert.True(t, resp.SessionActive)
	assert.True(t, strings.HasPrefix(resp.URL, "http://"))
	assert.Equal(t, int32(1), hits.Load())
}

func TestRateLimiter_Throttles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, RequestsPerSecond: 10})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.ReportStatus(context.Background(), domain.StatusPayload{}))
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
