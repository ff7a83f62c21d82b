// Package delivery provides the HTTP client for the upstream delivery API.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is returned before any network call when either
// credential is missing.
var ErrNotConfigured = errors.New("delivery API credentials not configured")

// Config holds the upstream connection settings.
type Config struct {
	BaseURL  string
	ClientID string
	SecretID string
	// Country is sent on quote requests.
	Country string
	Timeout time.Duration
}

// Client issues exactly one HTTP request per Do call. It never retries.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new delivery API client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// Configured reports whether both credentials are set.
func (c *Client) Configured() bool {
	return c.cfg.ClientID != "" && c.cfg.SecretID != ""
}

// Request describes one upstream call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON encoded when non-nil.
	Body any
	// Quote adds the Country header.
	Quote bool
}

// Response is a decoded 2xx upstream response.
type Response struct {
	StatusCode int
	Raw        []byte
	Data       map[string]any
}

// Success reports whether the upstream business code signals success.
func (r *Response) Success() bool {
	switch code := r.Data["code"].(type) {
	case string:
		return code == "0"
	case json.Number:
		return code.String() == "0"
	}
	return false
}

// Compact returns the raw payload as single-line JSON.
func (r *Response) Compact() string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, r.Raw); err != nil {
		return string(r.Raw)
	}
	return buf.String()
}

// HTTPError is returned for non-2xx upstream responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d - %s", e.StatusCode, e.Body)
}

// Do performs the request. Cancellation of ctx does not abort an issued
// call; only the per-call timeout does.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	target := strings.TrimSuffix(c.cfg.BaseURL, "/") + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("clientid", c.cfg.ClientID)
	httpReq.Header.Set("secretid", c.cfg.SecretID)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Quote && c.cfg.Country != "" {
		httpReq.Header.Set("Country", c.cfg.Country)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	data := map[string]any{}
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Raw: raw, Data: data}, nil
}
