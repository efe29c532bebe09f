// Package pipedrive provides an authenticated HTTP client for the Pipedrive
// REST API (v1 and v2).
package pipedrive

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bturcanu/pipedrive-connector/pkg/config"
)

const maxResponseBytes = 4 << 20

// APIVersion selects one of the two parallel Pipedrive REST surfaces.
type APIVersion int

const (
	// V2 is the current API. Most entity families live here.
	V2 APIVersion = iota
	// V1 is the legacy API, still required for notes, users and mail.
	V1
)

// BasePath returns the URL path prefix for the version.
func (v APIVersion) BasePath() string {
	if v == V1 {
		return "/api/v1"
	}
	return "/api/v2"
}

func (v APIVersion) String() string {
	if v == V1 {
		return "v1"
	}
	return "v2"
}

// Request describes a single call.
type Request struct {
	Method  string
	Path    string // relative to the version base path, e.g. "/deals/42"
	Query   url.Values
	Body    any
	Version APIVersion
	Header  http.Header
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pipedrive API error %d: %s", e.StatusCode, e.Body)
}

// Client performs authenticated requests against one Pipedrive company.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the https://<domain>.pipedrive.com origin.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the configured company domain.
func NewClient(cfg config.Plugin, opts ...Option) *Client {
	c := &Client{
		baseURL:  "https://" + NormalizeDomain(cfg.Domain) + ".pipedrive.com",
		apiToken: cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tracer: otel.Tracer("github.com/bturcanu/pipedrive-connector/pkg/pipedrive"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeDomain reduces "https://acme.pipedrive.com/" and
// "acme.pipedrive.com" to "acme".
func NormalizeDomain(domain string) string {
	return config.NormalizeDomain(domain)
}

// URL returns the fully authenticated URL for req.
func (c *Client) URL(req Request) string {
	q := url.Values{}
	for k, vs := range req.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("api_token", c.apiToken)
	return c.baseURL + req.Version.BasePath() + req.Path + "?" + q.Encode()
}

// Do performs req and returns the raw JSON body of a successful response.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "pipedrive.request", trace.WithAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("pipedrive.path", req.Path),
		attribute.String("pipedrive.version", req.Version.String()),
	))
	defer span.End()

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("pipedrive marshal body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req), body)
	if err != nil {
		return nil, fmt.Errorf("pipedrive new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// url.Error embeds the full URL, api_token included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("pipedrive %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("pipedrive read response: %w", err)
	}
	if len(respBody) > maxResponseBytes {
		err := fmt.Errorf("pipedrive response exceeds %d bytes", maxResponseBytes)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		span.SetStatus(codes.Error, apiErr.Error())
		return nil, apiErr
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(respBody), nil
}
