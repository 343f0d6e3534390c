// Package daytona is a small client for the Daytona sandbox API: sandbox
// create/delete, the per-sandbox toolbox (files, processes, sessions), log
// streaming and signed preview URLs. Only the calls the launcher needs are
// implemented.
package daytona

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

	. "github.com/jamesmurdza/openclaw-daytona/internal/logging"
)

const (
	// DefaultAPIURL is the hosted Daytona control plane.
	DefaultAPIURL = "https://app.daytona.io/api"

	defaultHTTPTimeout = 60 * time.Second
	defaultPollEvery   = time.Second

	sourceHeader = "openclaw-daytona"
)

// ErrNoAPIKey is returned by New when no API key is configured.
var ErrNoAPIKey = errors.New("DAYTONA_API_KEY is not set")

// ClientConfig holds connection settings for the Daytona API.
type ClientConfig struct {
	APIKey         string
	APIURL         string        // defaults to DefaultAPIURL
	Target         string        // region; empty lets the server choose
	OrganizationID string        // sent as X-Daytona-Organization-ID when set
	HTTPTimeout    time.Duration // per-request timeout for non-streaming calls
	PollInterval   time.Duration // sandbox state polling while waiting for "started"
}

// Client talks to the Daytona control plane and sandbox toolbox.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// APIError is a non-2xx response from the Daytona API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daytona: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// New creates a client. The API key is required.
func New(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollEvery
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}, nil
}

// toolboxPath returns the path prefix of a sandbox's toolbox API.
func toolboxPath(sandboxID string) string {
	return "/toolbox/" + url.PathEscape(sandboxID) + "/toolbox"
}

func (c *Client) setHeaders(h http.Header) {
	h.Set("Authorization", "Bearer "+c.cfg.APIKey)
	h.Set("X-Daytona-Source", sourceHeader)
	if c.cfg.OrganizationID != "" {
		h.Set("X-Daytona-Organization-ID", c.cfg.OrganizationID)
	}
}

// call performs a JSON request against the API. body and result may be nil.
func (c *Client) call(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req.Header)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daytona: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("daytona: reading response: %w", err)
	}

	L_trace("daytona: request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("daytona: failed to decode response: %w", err)
		}
	}
	return nil
}

// errorMessage pulls "message" out of a JSON error body, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Message any    `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch m := payload.Message.(type) {
		case string:
			if m != "" {
				return m
			}
		case []any:
			parts := make([]string, 0, len(m))
			for _, p := range m {
				parts = append(parts, fmt.Sprint(p))
			}
			return strings.Join(parts, "; ")
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response"
	}
	return msg
}
