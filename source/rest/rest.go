// Package rest is a source.Source over the dashboard's JSON API.
//
// Every response uses the same envelope:
//
//	{"success": true, "data": [...], "pagination": {"total": 42}}
//	{"success": false, "message": "forbidden"}
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmcleod/erpdesk/session"
	"github.com/jmcleod/erpdesk/source"
)

const (
	HeaderUserID     = "X-User-ID"
	HeaderUserEmail  = "X-User-Email"
	HeaderActiveRole = "X-Active-Role"

	DefaultTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
)

// ErrUnexpectedStatus is returned for non-2xx responses without an envelope.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// APIError is a response the API marked as unsuccessful.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (status %d)", e.Status)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Envelope is the response wrapper shared by all endpoints.
type Envelope[T any] struct {
	Success    bool        `json:"success"`
	Data       T           `json:"data"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the page served and the size of the filtered set.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// SetAuthHeaders writes the identity headers for auth onto h.
func SetAuthHeaders(h http.Header, auth source.AuthContext) {
	if auth.Identity.ID != "" {
		h.Set(HeaderUserID, auth.Identity.ID)
	}
	if auth.Identity.Email != "" {
		h.Set(HeaderUserEmail, auth.Identity.Email)
	}
	if auth.ActiveRole != "" {
		h.Set(HeaderActiveRole, auth.ActiveRole)
	}
}

type options struct {
	httpClient *http.Client
	headers    http.Header
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient replaces the default client, which times out after
// DefaultTimeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithHeader adds a fixed header to every request.
func WithHeader(key, value string) Option {
	return func(o *options) {
		o.headers.Set(key, value)
	}
}

func buildOptions(opts []Option) options {
	o := options{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		headers:    http.Header{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Client fetches one resource collection, e.g. "inventory".
type Client[R any] struct {
	endpoint string
	opts     options
}

var _ source.Source[struct{}] = (*Client[struct{}])(nil)

// New returns a Client for {baseURL}/{resource}.
func New[R any](baseURL, resource string, opts ...Option) (*Client[R], error) {
	endpoint, err := joinURL(baseURL, resource)
	if err != nil {
		return nil, err
	}
	return &Client[R]{endpoint: endpoint, opts: buildOptions(opts)}, nil
}

// Fetch performs GET {endpoint}?{q}. When the response carries no
// pagination block, Total is the number of records returned.
func (c *Client[R]) Fetch(ctx context.Context, q source.Query, auth source.AuthContext) (source.Result[R], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Values().Encode(), nil)
	if err != nil {
		return source.Result[R]{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	SetAuthHeaders(req.Header, auth)

	env, err := do[[]R](c.opts, req)
	if err != nil {
		return source.Result[R]{}, err
	}

	res := source.Result[R]{Data: env.Data, Total: len(env.Data)}
	if env.Pagination != nil {
		res.Total = env.Pagination.Total
	}
	return res, nil
}

type loginRequest struct {
	Email string `json:"email"`
}

// Login posts email to {baseURL}/auth/login and returns the identity the
// API answered with. Whatever credential checks exist happen server-side.
func Login(ctx context.Context, baseURL, email string, opts ...Option) (session.Identity, error) {
	endpoint, err := joinURL(baseURL, "auth/login")
	if err != nil {
		return session.Identity{}, err
	}
	body, err := json.Marshal(loginRequest{Email: email})
	if err != nil {
		return session.Identity{}, fmt.Errorf("encoding login request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return session.Identity{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	env, err := do[session.Identity](buildOptions(opts), req)
	if err != nil {
		return session.Identity{}, err
	}
	return env.Data, nil
}

func do[T any](o options, req *http.Request) (Envelope[T], error) {
	var env Envelope[T]
	for k, vs := range o.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return env, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return env, fmt.Errorf("reading response: %w", err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if err := json.Unmarshal(raw, &env); err != nil {
		if !ok {
			return env, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		}
		return env, fmt.Errorf("decoding response: %w", err)
	}
	if !ok || !env.Success {
		return env, &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	return env, nil
}

func joinURL(base, path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", base)
	}
	return u.JoinPath(path).String(), nil
}
