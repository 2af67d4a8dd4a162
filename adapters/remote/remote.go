// Package remote provides adapters that talk to the CMS admin API over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/artpar/cmsdesk/adapters/metrics"
	"github.com/artpar/cmsdesk/ports"
	"github.com/rs/zerolog"
)

// Client provides HTTP communication with the CMS.
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu      sync.RWMutex
	token   string
	headers map[string]string

	logger  zerolog.Logger
	metrics *metrics.Collector
}

// ClientConfig configures the remote client.
type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Headers map[string]string
	Logger  zerolog.Logger
	Metrics *metrics.Collector
}

// NewClient creates a new remote HTTP client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		headers:    cfg.Headers,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	c.mu.RLock()
	headers := c.headers
	c.mu.RUnlock()
	return &Client{
		httpClient: c.httpClient,
		baseURL:    c.baseURL,
		token:      token,
		headers:    headers,
		logger:     c.logger,
		metrics:    c.metrics,
	}
}

// SetAuth replaces the token and extra headers used by later requests.
func (c *Client) SetAuth(token string, headers map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.headers = headers
}

// Request sends an HTTP request to the CMS. body is encoded as JSON when
// non-nil; result receives the decoded response when non-nil.
func (c *Client) Request(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	c.mu.RUnlock()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, path, 0, start, err)
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	c.observe(method, path, resp.StatusCode, start, nil)

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// HealthCheck asks the CMS for one model to confirm it answers and accepts
// the token.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.Request(ctx, http.MethodGet, "/models?limit=1", nil, nil); err != nil {
		return fmt.Errorf("cms health: %w", err)
	}
	return nil
}

func (c *Client) observe(method, path string, status int, start time.Time, err error) {
	d := time.Since(start)
	c.metrics.ObserveRemote(method, path, status, d)

	ev := c.logger.Debug()
	if err != nil {
		ev = c.logger.Warn().Err(err)
	}
	ev.Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration", d).
		Msg("cms request")
}

// errorMessage extracts a readable message from an error body. The CMS
// answers {"error":{"message":...}} or {"message":...}; anything else is
// returned as text.
func errorMessage(body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if json.Unmarshal(envelope.Error, &flat) == nil && flat != "" {
			return flat
		}
	}
	return strings.TrimSpace(string(body))
}

// RemoteError represents an error from the CMS.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.StatusCode, e.Message)
}

// Is makes a 404 match ports.ErrNotFound.
func (e *RemoteError) Is(target error) bool {
	return target == ports.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsNotFound returns true if the error is a 404.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the CMS rejected the credentials.
func IsUnauthorized(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) &&
		(re.StatusCode == http.StatusUnauthorized || re.StatusCode == http.StatusForbidden)
}
