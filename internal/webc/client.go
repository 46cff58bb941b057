// Package webc is the thin HTTP layer under the provider adapters. It
// executes an adapter-built request descriptor and hands back raw bytes or
// a raw event stream; interpreting either is the adapter's job.
package webc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const userAgent = "unichat/1.0"

// Header is one request header pair.
type Header struct {
	Name  string
	Value string
}

// Request is the transport descriptor an adapter produces: where to POST,
// which headers to attach, and the JSON body.
type Request struct {
	URL     string
	Headers []Header
	Payload any
}

// Response is a completed exchange. Body is fully read; Status is the HTTP
// status code. Non-2xx statuses are not turned into errors here, because
// only the adapter can classify a vendor's error envelope.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger for request/response debug logging.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracing instruments outbound requests with OpenTelemetry.
func WithTracing() ClientOption {
	return func(c *Client) {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		instrumented := *c.httpClient
		instrumented.Transport = otelhttp.NewTransport(base)
		c.httpClient = &instrumented
	}
}

// Client executes adapter request descriptors.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a web client.
func New(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the request and reads the full response body.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("web request completed",
		slog.String("url", req.URL),
		slog.Int("status", resp.StatusCode),
		slog.Int("body_bytes", len(body)),
	)

	return &Response{Status: resp.StatusCode, Body: body}, nil
}

// open executes the request without reading the body, for streaming. A
// non-2xx status is drained into a Response and the body is closed.
func (c *Client) open(ctx context.Context, req *Request) (io.ReadCloser, *Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, &Response{Status: resp.StatusCode, Body: body}, nil
	}

	return resp.Body, nil, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	for _, h := range req.Headers {
		httpReq.Header.Set(h.Name, h.Value)
	}

	return httpReq, nil
}
