// Package client is the Go API client for an Insight server, used by the
// CLI and usable as a library.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/accessify/insight/internal/history"
	"github.com/accessify/insight/internal/logging"
	"github.com/accessify/insight/internal/model"
)

const (
	defaultTimeout = 5 * time.Minute
	defaultRetries = 2
	defaultBackoff = 500 * time.Millisecond
)

// APIError is a non-2xx response decoded from the server's error payload.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to one Insight server. Server-side failures (5xx and
// transport errors) are retried with exponential backoff; validation
// failures (4xx) never are.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
	retries int
	backoff time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets a logger. Default is silent.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetries sets how many times a server-side failure is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the initial retry delay. It doubles per attempt.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// New creates a Client for the server at baseURL, e.g.
// "http://localhost:3001".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logging.Discard{},
		retries: defaultRetries,
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunTest runs an accessibility scan.
func (c *Client) RunTest(ctx context.Context, target string, opts *model.ScanOptions, enhanced bool) (*model.TestRecord, error) {
	path := "/api/test"
	if enhanced {
		path += "?enhanced=true"
	}
	var rec model.TestRecord
	if err := c.do(ctx, http.MethodPost, path, model.ScanRequest{URL: target, Options: opts}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RunLighthouse runs a performance audit.
func (c *Client) RunLighthouse(ctx context.Context, target string) (*model.TestRecord, error) {
	var rec model.TestRecord
	if err := c.do(ctx, http.MethodPost, "/api/test/lighthouse", model.ScanRequest{URL: target}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RunAnalysis runs the combined scan. axe and lighthouse select the
// executors; disabling both is rejected server-side.
func (c *Client) RunAnalysis(ctx context.Context, target string, axe, lighthouse, enhanced bool, opts *model.ScanOptions) (*model.TestRecord, error) {
	q := url.Values{}
	q.Set("axe", fmt.Sprintf("%t", axe))
	q.Set("lighthouse", fmt.Sprintf("%t", lighthouse))
	if enhanced {
		q.Set("enhanced", "true")
	}
	var rec model.TestRecord
	if err := c.do(ctx, http.MethodPost, "/api/test/analyze?"+q.Encode(), model.ScanRequest{URL: target, Options: opts}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecord fetches one test record by id.
func (c *Client) GetRecord(ctx context.Context, id string) (*model.TestRecord, error) {
	var rec model.TestRecord
	if err := c.do(ctx, http.MethodGet, "/api/test/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// History fetches reconciled history, optionally filtered by URL
// substring.
func (c *Client) History(ctx context.Context, filter string) ([]history.Entry, error) {
	path := "/api/test/history"
	if filter != "" {
		path += "/" + url.PathEscape(filter)
	}
	var entries []history.Entry
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// do issues one request with the retry policy and decodes the JSON
// response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	delay := c.backoff
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Info("retrying request",
				logging.Field{Key: "path", Value: path},
				logging.Field{Key: "attempt", Value: attempt})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		retryable, err := c.doOnce(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return lastErr
}

// doOnce reports whether a failure is worth retrying: transport errors
// and 5xx are, everything else is not.
func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, out any) (retryable bool, err error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return false, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var errBody struct {
			Error string `json:"error"`
		}
		if derr := json.NewDecoder(resp.Body).Decode(&errBody); derr == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		}
		return resp.StatusCode >= 500, apiErr
	}

	if out == nil {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}
