// Package client provides an HTTP client for the trip-planning chat backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raphaelgruber/tripchat/internal/metrics"
)

// APIPrefix is prepended to every endpoint path.
const APIPrefix = "/api/v1"

// Default timeouts.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultStreamTimeout = 5 * time.Minute
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// ErrUnauthorized is matched by errors.Is for 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP error: status %d: %s", e.StatusCode, e.Body)
}

// Is reports whether target is ErrUnauthorized for a 401 response.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Client talks to the chat backend.
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	streamClient *http.Client
	collector    *metrics.Collector
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken attaches a bearer token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the timeout for non-streaming requests.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithStreamTimeout bounds a whole streaming request, body included.
func WithStreamTimeout(d time.Duration) Option {
	return func(c *Client) { c.streamClient.Timeout = d }
}

// WithHTTPClient replaces the transport used for all requests. Timeouts
// set on hc are kept for non-streaming requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		stream := *hc
		stream.Timeout = c.streamClient.Timeout
		c.streamClient = &stream
	}
}

// WithCollector records request timings.
func WithCollector(m *metrics.Collector) Option {
	return func(c *Client) { c.collector = m }
}

// WithLogger logs every request and its timing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the backend at baseURL (e.g. http://localhost:8000).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		streamClient: &http.Client{Timeout: DefaultStreamTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger != nil {
		c.httpClient = withLogging(c.httpClient, c.logger)
		c.streamClient = withLogging(c.streamClient, c.logger)
	}
	return c
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + APIPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// Execute sends a JSON request and decodes the JSON response into result.
// result may be nil when the response body is not needed.
func (c *Client) Execute(ctx context.Context, method, path string, query url.Values, body, result any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.collector.RecordTiming(metrics.OpRequest, time.Since(start))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp, respBody)
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func statusError(resp *http.Response, body []byte) *StatusError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}
