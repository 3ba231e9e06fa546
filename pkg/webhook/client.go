// Package webhook posts tool invocations to the business backend.
// The backend owns all business logic (inventory, pricing, bookings);
// this client only relays tool calls and returns whatever the backend
// answered, verbatim, so the model can phrase it to the caller.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/storline-ai/storline/internal/httpc"
	"github.com/storline-ai/storline/internal/log"
)

// DefaultTimeout bounds one webhook round trip. A caller is waiting on
// the phone, so this stays short.
const DefaultTimeout = 5 * time.Second

// maxBodySize caps how much of a backend response is read.
const maxBodySize = 64 * 1024

// Result is the outcome of one webhook delivery. OK is true only for a
// 2xx response; Body then holds the backend's answer verbatim.
type Result struct {
	OK     bool
	Status int
	Body   string
	Err    error
}

// Client delivers tool calls to a single webhook URL.
type Client struct {
	url  string
	http *http.Client
}

// New creates a webhook client for the given URL.
func New(url string) *Client {
	return NewWithTimeout(url, DefaultTimeout)
}

// NewWithTimeout creates a webhook client with a custom request timeout.
func NewWithTimeout(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: httpc.NewClient(timeout),
	}
}

// URL returns the configured webhook URL.
func (c *Client) URL() string {
	return c.url
}

// Post delivers one tool invocation. The wire form is a flat JSON object:
// the payload fields plus a "tool_name" discriminator. Exactly one POST is
// made per call; failures are reported in the Result, never panicked or
// retried.
func (c *Client) Post(ctx context.Context, toolName string, payload map[string]any) Result {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["tool_name"] = toolName

	data, err := json.Marshal(body)
	if err != nil {
		return Result{Err: fmt.Errorf("webhook: encode %s payload: %w", toolName, err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return Result{Err: fmt.Errorf("webhook: build %s request: %w", toolName, err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("webhook delivery failed",
			"tool", toolName,
			"elapsed", time.Since(start).Round(time.Millisecond),
			"error", err)
		return Result{Err: fmt.Errorf("webhook: post %s: %w", toolName, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Result{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("webhook: read %s response: %w", toolName, err),
		}
	}

	result := Result{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
		Body:   string(raw),
	}

	if !result.OK {
		log.Warn("webhook returned failure status",
			"tool", toolName,
			"status", resp.StatusCode)
		result.Err = fmt.Errorf("webhook: %s returned status %d", toolName, resp.StatusCode)
	} else {
		log.Debug("webhook delivered",
			"tool", toolName,
			"status", resp.StatusCode,
			"elapsed", time.Since(start).Round(time.Millisecond))
	}

	return result
}
