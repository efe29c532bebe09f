// Package client is a Go client for the connector-pipedrive HTTP API.
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

	"github.com/google/uuid"

	"github.com/bturcanu/pipedrive-connector/pkg/types"
)

type Client struct {
	baseURL    string
	apiKey     string
	agentID    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default 30s-timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAgentID tags every call with the calling agent.
func WithAgentID(id string) Option {
	return func(c *Client) { c.agentID = id }
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTools returns the connector's tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]types.ToolInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/tools", http.NoBody)
	if err != nil {
		return nil, err
	}
	var list types.ToolList
	if err := c.doJSON(httpReq, &list); err != nil {
		return nil, err
	}
	return list.Tools, nil
}

// Call invokes a tool. A call ID is generated for idempotent journaling.
func (c *Client) Call(ctx context.Context, tool string, args map[string]any) (*types.InvokeResponse, error) {
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}
	body, err := json.Marshal(types.InvokeRequest{
		CallID:    uuid.NewString(),
		AgentID:   c.agentID,
		Arguments: rawArgs,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tools/"+url.PathEscape(tool), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp types.InvokeResponse
	if err := c.doJSON(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var apiErr types.APIError
		if decodeErr := json.Unmarshal(raw, &apiErr); decodeErr == nil && apiErr.Message != "" {
			apiErr.HTTPCode = resp.StatusCode
			return &apiErr
		}
		return fmt.Errorf("http status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
