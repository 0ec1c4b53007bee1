// Package httpclient provides the Backend and SessionProber adapters over HTTP.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// Ensure Client implements the interfaces.
var (
	_ driven.Backend       = (*Client)(nil)
	_ driven.SessionProber = (*Client)(nil)
)

// Request headers. The backend treats both as advisory.
const (
	HeaderVersion = "X-Sessync-Version"
	HeaderClient  = "X-Sessync-Client"
	ClientName    = "sessync-agent"
)

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 4 << 10

// Config holds configuration for the backend client.
type Config struct {
	// BaseURL is the backend base address, e.g. https://u-core.test/api/anaf.
	BaseURL string

	// Version is sent in the version header.
	Version string

	// Token is an optional bearer token.
	Token string

	// RequestsPerSecond throttles outbound requests. Zero disables throttling.
	RequestsPerSecond float64

	// Timeout is a safety net on every request. Callers set tighter
	// deadlines through the context. Default: 30s.
	Timeout time.Duration

	// Transport overrides the base round tripper for both legs (tests).
	Transport http.RoundTripper
}

// Client talks to the backend.
type Client struct {
	primary  *http.Client
	fallback *http.Client
	limiter  *rate.Limiter
	baseURL  string
	version  string
}

type syncResponse struct {
	Message     string `json:"message"`
	CookieCount int    `json:"cookie_count"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type sessionStatus struct {
	Session *struct {
		Active bool `json:"active"`
	} `json:"session"`
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid backend url %q", domain.ErrInvalidInput, cfg.BaseURL)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	primaryBase := cfg.Transport
	if primaryBase == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if err := http2.ConfigureTransport(t); err != nil {
			return nil, fmt.Errorf("configuring http2: %w", err)
		}
		primaryBase = t
	}
	fallbackBase := cfg.Transport
	if fallbackBase == nil {
		fallbackBase = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Client{
		primary:  &http.Client{Timeout: cfg.Timeout, Transport: withToken(primaryBase, cfg.Token)},
		fallback: &http.Client{Timeout: cfg.Timeout, Transport: withToken(fallbackBase, cfg.Token)},
		limiter:  rate.NewLimiter(limit, 1),
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		version:  cfg.Version,
	}, nil
}

func withToken(base http.RoundTripper, token string) http.RoundTripper {
	if token == "" {
		return base
	}
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   base,
	}
}

// PushCredentials posts the payload to <base>/sync.
func (c *Client) PushCredentials(ctx context.Context, payload domain.SyncPayload) (*domain.SyncResponse, error) {
	resp, err := c.postJSON(ctx, "/sync", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	// A 2xx without a JSON body is still a successful transfer.
	var body syncResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return &domain.SyncResponse{Message: body.Message, CookieCount: body.CookieCount}, nil
}

// ReportStatus posts the payload to <base>/status and discards the body.
func (c *Client) ReportStatus(ctx context.Context, payload domain.StatusPayload) error {
	resp, err := c.postJSON(ctx, "/status", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return checkStatus(resp)
}

// Probe issues GET <base>/session/status. The fallback leg rewrites an
// https base to http.
func (c *Client) Probe(ctx context.Context, mode domain.ProbeMode) (*domain.ProbeResponse, error) {
	target := c.baseURL + "/session/status"
	client := c.primary
	if mode == domain.ProbeFallback {
		target = strings.Replace(target, "https://", "http://", 1)
		client = c.fallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, client, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &domain.ProbeResponse{
		StatusCode: resp.StatusCode,
		Status:     strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))),
		URL:        target,
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		var status sessionStatus
		if err := json.NewDecoder(resp.Body).Decode(&status); err == nil {
			out.BodyValid = true
			out.SessionActive = status.Session != nil && status.Session.Active
		}
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, c.primary, req)
}

func (c *Client) do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	op := req.Method + " " + req.URL.Path
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set(HeaderVersion, c.version)
	req.Header.Set(HeaderClient, ClientName)
}

// checkStatus converts a non-2xx answer to *domain.HTTPStatusError with the
// structured message, the raw body, or "no body".
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &domain.HTTPStatusError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Message:    errorMessage(raw),
	}
}

func errorMessage(raw []byte) string {
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return "no body"
}
