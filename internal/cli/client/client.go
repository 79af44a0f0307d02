package client

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

	"github.com/google/uuid"
)

const (
	authorizationHeader = "Authorization"
	requestIDHeader     = "X-Request-ID"
	bearerPrefix        = "Bearer "
)

// Client represents an HTTP client for the CarePoint API.
//
// Default headers (notably Authorization) are attached to every request and
// may be changed concurrently with in-flight calls.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	headers http.Header
}

// New creates a new API client. A bare host gets an https:// scheme.
func New(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: http.Header{},
	}
}

// BaseURL returns the API root this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// SetAuthToken attaches Authorization: Bearer <token> to every subsequent request
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Set(authorizationHeader, bearerPrefix+token)
}

// ClearAuthToken removes the default Authorization header
func (c *Client) ClearAuthToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Del(authorizationHeader)
}

// AuthToken returns the bearer token currently attached, or ""
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return strings.TrimPrefix(c.headers.Get(authorizationHeader), bearerPrefix)
}

// APIError is a non-2xx answer from the API
type APIError struct {
	Status  int
	Message string // From the {message} error envelope; empty when the body had none
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// StatusCode extracts the HTTP status from an *APIError, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type errorEnvelope struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// envelope is the success body {data: ...}; Data holds a pointer to decode into
type envelope struct {
	Data any `json:"data"`
}

// do sends a JSON request and decodes the {data: ...} envelope into out (if non-nil)
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.RLock()
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	c.mu.RUnlock()

	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var payload errorEnvelope
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}

	env := envelope{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
