// Package composio is a thin REST client for the Composio backend.
package composio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/rendis/composiotools/pkg/schema"
)

// Client is the set of vendor capabilities the component relies on.
type Client interface {
	GetConnection(ctx context.Context, entityID, app string) (*Connection, error)
	ListConnections(ctx context.Context, entityID string) ([]Connection, error)
	GetApp(ctx context.Context, app string) (*App, error)
	ListApps(ctx context.Context) ([]App, error)
	ListActions(ctx context.Context, filter ActionFilter) ([]Action, error)
	InitiateConnection(ctx context.Context, req ConnectionRequest) (*ConnectionRequestResult, error)
	ExecuteAction(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error)
}

// DefaultBaseURL is the production Composio backend.
const DefaultBaseURL = "https://backend.composio.dev"

const (
	defaultTimeout         = 30 * time.Second
	defaultMaxResponseBody = 10 * 1024 * 1024 // 10MB
)

// Config configures an HTTPClient.
type Config struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	MaxResponseBody int64
	MaxRetries      int           // GET retries; 0 means the default, negative disables
	RetryDelay      time.Duration // first retry delay, doubled per attempt
	HTTPClient      *http.Client  // overrides the cached transport (tests)
	Logger          *slog.Logger
}

// Compile-time interface satisfaction check.
var _ Client = (*HTTPClient)(nil)

// HTTPClient implements Client against the Composio REST API.
type HTTPClient struct {
	apiKey  string
	baseURL *url.URL
	http    *http.Client
	maxBody int64
	retry   retryPolicy
	logger  *slog.Logger
}

// NewHTTPClient builds a client. Catalog GETs go through an ETag-aware
// in-memory cache unless cfg.HTTPClient is set.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.APIKey == "" {
		return nil, schema.NewError(schema.ErrCodeConfig, "composio api key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxResponseBody <= 0 {
		cfg.MaxResponseBody = defaultMaxResponseBody
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeConfig, "invalid base url %q", cfg.BaseURL).WithCause(err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   cfg.Timeout,
		}
	}

	return &HTTPClient{
		apiKey:  cfg.APIKey,
		baseURL: u,
		http:    hc,
		maxBody: cfg.MaxResponseBody,
		retry:   newRetryPolicy(cfg.MaxRetries, cfg.RetryDelay),
		logger:  cfg.Logger,
	}, nil
}

// listResponse is the envelope the vendor uses for collection endpoints.
type listResponse[T any] struct {
	Items      []T `json:"items"`
	TotalPages int `json:"totalPages,omitempty"`
	Page       int `json:"page,omitempty"`
}

// get issues a GET and decodes the JSON body into out.
func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// post issues a POST with a JSON body and decodes the JSON response into out.
func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// do sends one request, retrying GETs per the client's retry policy.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return schema.NewErrorf(schema.ErrCodeExecution, "composio: marshal %s body", path).WithCause(err)
		}
		payload = b
	}

	for attempt := 0; ; attempt++ {
		err := c.once(ctx, method, u.String(), path, payload, out)
		if err == nil || method != http.MethodGet || attempt >= c.retry.maxRetries || !isRetryable(err) {
			return err
		}
		delay := c.retry.backoff(attempt)
		c.logger.WarnContext(ctx, "composio request failed, retrying",
			slog.String("path", path),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		if werr := waitBackoff(ctx, delay); werr != nil {
			return err
		}
	}
}

func (c *HTTPClient) once(ctx context.Context, method, target, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeExecution, "composio: build request %s %s", method, path).WithCause(err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeVendor, "composio: %s %s: %v", method, path, err).WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeVendor, "composio: read %s response", path).WithCause(err)
	}

	c.logger.DebugContext(ctx, "composio request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Bool("cached", resp.Header.Get(httpcache.XFromCache) != ""),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return statusError(method, path, resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return schema.NewErrorf(schema.ErrCodeVendor, "composio: decode %s response", path).WithCause(err)
	}
	return nil
}

// statusError maps a non-2xx vendor response onto a ToolsetError.
func statusError(method, path string, status int, body []byte) *schema.ToolsetError {
	msg := vendorMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}

	code := schema.ErrCodeVendor
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = schema.ErrCodeUnauthorized
	case http.StatusNotFound:
		code = schema.ErrCodeNotFound
	}
	return schema.NewErrorf(code, "composio: %s %s returned %d: %s", method, path, status, msg).
		WithDetails(map[string]any{
			"status_code": status,
			"body":        string(body),
		})
}

// vendorMessage pulls a human-readable message out of an error body.
func vendorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if payload.Message != "" {
		return payload.Message
	}
	switch e := payload.Error.(type) {
	case string:
		return e
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	return strings.TrimSpace(string(body))
}
