package api

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
)

// Client talks to a running daemon over its HTTP API.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for the given bind address (host:port or URL).
func NewClient(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, fmt.Errorf("api bind address is empty")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	return &Client{
		base: base,
		http: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Status fetches the daemon's runtime summary.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var payload DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &payload)
	return payload, err
}

// Workers fetches the pool's worker snapshots.
func (c *Client) Workers(ctx context.Context) (WorkerListResponse, error) {
	var payload WorkerListResponse
	err := c.do(ctx, http.MethodGet, "/api/workers", nil, &payload)
	return payload, err
}

// History fetches the processed-task history log, newest first.
func (c *Client) History(ctx context.Context) (HistoryResponse, error) {
	var payload HistoryResponse
	err := c.do(ctx, http.MethodGet, "/api/history", nil, &payload)
	return payload, err
}

// Queue fetches the live queue and its summary counts.
func (c *Client) Queue(ctx context.Context) (QueueListResponse, error) {
	var payload QueueListResponse
	err := c.do(ctx, http.MethodGet, "/api/queue", nil, &payload)
	return payload, err
}

// ClearQueue removes all queue items. History is preserved.
func (c *Client) ClearQueue(ctx context.Context) (ClearQueueResponse, error) {
	var payload ClearQueueResponse
	err := c.do(ctx, http.MethodDelete, "/api/queue", nil, &payload)
	return payload, err
}

// Enqueue asks the daemon to queue a file for conversion.
func (c *Client) Enqueue(ctx context.Context, path string) (EnqueueResponse, error) {
	var payload EnqueueResponse
	err := c.do(ctx, http.MethodPost, "/api/queue", EnqueueRequest{Path: path}, &payload)
	return payload, err
}

// SetTargetWorkers changes the pool's target concurrency.
func (c *Client) SetTargetWorkers(ctx context.Context, target int) (TargetWorkersResponse, error) {
	var payload TargetWorkersResponse
	err := c.do(ctx, http.MethodPut, "/api/workers/target", TargetWorkersRequest{Target: target}, &payload)
	return payload, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("api %s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
