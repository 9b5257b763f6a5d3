package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/donaldgifford/shopping-notifier/internal/engine"
)

type invokeRequest struct {
	CurrentBatch int    `json:"current_batch"`
	RunID        string `json:"run_id,omitempty"`
}

// Invoke runs a batch on the server and waits for it. A batch that fails
// on the server is returned as a Response with its status code, not as an
// error.
func (c *Client) Invoke(ctx context.Context, p engine.Payload) (engine.Response, error) {
	var out engine.Response
	err := c.post(ctx, "/api/v1/invoke", invokeRequest(p), &out)

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		var failed engine.Response
		if jerr := json.Unmarshal(apiErr.Body, &failed); jerr == nil && failed.StatusCode != 0 {
			return failed, nil
		}
	}
	if err != nil {
		return engine.Response{}, fmt.Errorf("invoking batch %d: %w", p.CurrentBatch, err)
	}
	return out, nil
}

// InvokeAsync queues a batch on the server.
func (c *Client) InvokeAsync(ctx context.Context, p engine.Payload) error {
	if err := c.post(ctx, "/api/v1/invoke/async", invokeRequest(p), nil); err != nil {
		return fmt.Errorf("queueing batch %d: %w", p.CurrentBatch, err)
	}
	return nil
}

// TriggerNext chains the next batch through the server's async endpoint,
// so Client can serve as an engine trigger.
func (c *Client) TriggerNext(ctx context.Context, p engine.Payload) error {
	return c.InvokeAsync(ctx, p)
}

// Quota is the search API quota status.
type Quota struct {
	DailyLimit int64     `json:"daily_limit"`
	DailyUsed  int64     `json:"daily_used"`
	Remaining  int64     `json:"remaining"`
	Exhausted  bool      `json:"exhausted"`
	ResetAt    time.Time `json:"reset_at"`
}

// GetQuota returns the server's search quota status.
func (c *Client) GetQuota(ctx context.Context) (*Quota, error) {
	var q Quota
	if err := c.get(ctx, "/api/v1/quota", &q); err != nil {
		return nil, err
	}
	return &q, nil
}
