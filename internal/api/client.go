package api

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

	"github.com/google/uuid"
)

const (
	defaultTimeout  = 30 * time.Second
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 512
)

// Client talks to the search backend's admin REST API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	apiKey     string
	userAgent  string
	logger     *slog.Logger
}

// Config configures the backend client.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("base URL cannot be empty")
	}
	parsed, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("base URL must include scheme and host")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "searchadmin"
	}
	return &Client{
		httpClient: hc,
		baseURL:    parsed,
		apiKey:     cfg.APIKey,
		userAgent:  ua,
		logger:     logger,
	}, nil
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status %d, message: %s", e.StatusCode, e.Message)
}

// Is matches any *APIError with the same status code, so errors.Is(err, ErrNotFound) works.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if errors.As(target, &t) {
		return t.StatusCode == e.StatusCode
	}
	return false
}

// ErrNotFound is returned for HTTP 404 responses.
var ErrNotFound = &APIError{StatusCode: http.StatusNotFound, Message: "resource not found"}

// Message returns the text to show an operator for err: the backend's
// detail/message field when there is one, otherwise err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse path: %w", err)
	}
	full := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, full.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// do sends req and decodes a JSON body into v when v is non-nil.
// It reports whether the body was JSON null so callers can tell "no value"
// from a zero value.
func (c *Client) do(req *http.Request, v any) (isNull bool, err error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.String("request_id", req.Header.Get(requestIDHeader)),
			slog.String("error", err.Error()))
		return false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("request complete",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", req.Header.Get(requestIDHeader)),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, newAPIError(resp.StatusCode, payload)
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true, nil
	}
	if v != nil {
		if err := json.Unmarshal(trimmed, v); err != nil {
			return false, fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
		}
	}
	return false, nil
}

func newAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Body: body}
	var detail struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &detail); err == nil {
		var s string
		switch {
		case len(detail.Detail) > 0 && json.Unmarshal(detail.Detail, &s) == nil && s != "":
			apiErr.Message = s
		case len(detail.Detail) > 0 && string(detail.Detail) != "null":
			// FastAPI validation errors carry a list here.
			apiErr.Message = string(detail.Detail)
		case detail.Message != "":
			apiErr.Message = detail.Message
		}
	}
	if apiErr.Message == "" {
		if len(body) > 0 && len(body) < maxErrorBody {
			apiErr.Message = strings.TrimSpace(string(body))
		} else {
			apiErr.Message = http.StatusText(status)
		}
	}
	if status == http.StatusNotFound && apiErr.Message == http.StatusText(status) {
		return ErrNotFound
	}
	return apiErr
}

func (c *Client) getJSON(ctx context.Context, path string, out any) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	return c.do(req, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	_, err = c.do(req, out)
	return err
}
