// Package apiclient is the client for the Approved Premises REST API.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Observer is told about every completed call. status is 0 when no response arrived.
type Observer func(endpoint, method string, status int, duration time.Duration)

// Client is the upstream API client. Calls are authenticated with the token
// carried by the context.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   Observer
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit caps outbound calls at rps per second with the given burst.
// A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithObserver registers a callback for completed calls
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New creates a new API client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type ctxKey int

const (
	tokenKey ctxKey = iota
	requestIDKey
)

// ContextWithToken attaches the user's access token to ctx
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the access token carried by ctx
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// ContextWithRequestID attaches the inbound request ID, forwarded as X-Request-Id
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// MaskToken returns the first 8 characters of a token for logging
func MaskToken(token string) string {
	if len(token) < 8 {
		return "***"
	}
	return token[:8] + "..."
}

// call describes one API request. name labels the endpoint in logs and metrics.
type call struct {
	name   string
	method string
	path   string
	query  url.Values
	body   any
}

// do performs the call and decodes the response into out when out is not nil
func (c *Client) do(ctx context.Context, r call, out any) (http.Header, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limit: %w", r.name, err)
		}
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-Id", requestID(ctx))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(r, 0, start)
		slog.Error("upstream request failed", "endpoint", r.name, "method", r.method, "path", r.path, "error", err)
		return nil, fmt.Errorf("%s: request failed: %w", r.name, err)
	}
	defer resp.Body.Close()
	c.observe(r, resp.StatusCode, start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	slog.Debug("upstream request",
		"endpoint", r.name,
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= 400 {
		return resp.Header, newError(r, resp.StatusCode, respBody)
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("%s: failed to unmarshal response: %w", r.name, err)
		}
	}
	return resp.Header, nil
}

func (c *Client) observe(r call, status int, start time.Time) {
	if c.observer != nil {
		c.observer(r.name, r.method, status, time.Since(start))
	}
}

// Paginated is a page of results with the totals reported by the API
type Paginated[T any] struct {
	Items        []T
	PageNumber   int
	TotalPages   int
	TotalResults int
	PageSize     int
}

func getPaginated[T any](ctx context.Context, c *Client, r call) (*Paginated[T], error) {
	page := &Paginated[T]{}
	header, err := c.do(ctx, r, &page.Items)
	if err != nil {
		return nil, err
	}
	page.PageNumber = headerInt(header, "X-Pagination-CurrentPage")
	page.TotalPages = headerInt(header, "X-Pagination-TotalPages")
	page.TotalResults = headerInt(header, "X-Pagination-TotalResults")
	page.PageSize = headerInt(header, "X-Pagination-PageSize")
	return page, nil
}

func headerInt(h http.Header, key string) int {
	n, _ := strconv.Atoi(h.Get(key))
	return n
}

// PageQuery is the paging and sorting of a list request
type PageQuery struct {
	Page          int
	SortBy        string
	SortDirection string
}

func (q PageQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortDirection != "" {
		v.Set("sortDirection", q.SortDirection)
	}
	return v
}

// Health checks that the API is up
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, call{name: "health", method: http.MethodGet, path: "/health"}, nil)
	return err
}

func path(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}
