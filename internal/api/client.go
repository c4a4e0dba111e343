package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the Fee API base used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api"

// Client wraps every outbound call to the Fee API. Calls are single
// attempt: no retries and no backoff. Every failure is logged before it
// is returned as an *Error.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("api")
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool { return r.status >= 200 && r.status < 300 }

// do sends a request and reads the whole body. Only transport failures
// are returned as errors; HTTP error statuses are left to the caller.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (*response, error) {
	if payload == nil {
		return c.do(ctx, method, path, nil, "")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(data), "application/json")
}

// failure builds the normalized error for op, preferring the backend's
// "error" field over fallback, and logs it.
func (c *Client) failure(op string, status int, body []byte, cause error, fallback string) *Error {
	msg := backendMessage(body)
	if msg == "" {
		msg = fallback
	}
	c.log.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("message", msg),
		zap.Error(cause),
	)
	return &Error{Op: op, Status: status, Message: msg, Err: cause}
}

// statusFailure wraps a non-2xx response.
func (c *Client) statusFailure(op string, resp *response, fallback string) *Error {
	return c.failure(op, resp.status, resp.body, fmt.Errorf("unexpected status %d", resp.status), fallback)
}

// backendMessage extracts the "error" string from a JSON error body.
func backendMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return strings.TrimSpace(envelope.Error)
}
