// Package unichat is the public entry point of the library: one client,
// one request/response model, and one tool-calling protocol across every
// supported chat-completion vendor.
package unichat

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/omnillm/unichat/internal/adapter"
	"github.com/omnillm/unichat/internal/webc"

	// Vendor adapters self-register on import.
	_ "github.com/omnillm/unichat/internal/adapter/anthropic"
	_ "github.com/omnillm/unichat/internal/adapter/gemini"
	_ "github.com/omnillm/unichat/internal/adapter/openai"
)

const tracerName = "github.com/omnillm/unichat"

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for all vendor traffic.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.webOpts = append(c.webOpts, webc.WithHTTPClient(httpClient))
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
		c.webOpts = append(c.webOpts, webc.WithLogger(logger))
	}
}

// WithTracing instruments outbound HTTP with OpenTelemetry.
func WithTracing() Option {
	return func(c *Client) {
		c.webOpts = append(c.webOpts, webc.WithTracing())
	}
}

// WithVendorConfig overrides parts of a vendor's default configuration.
// Empty fields keep the default, so setting only an APIKey or only a
// BaseURL works.
func WithVendorConfig(kind Kind, cfg Config) Option {
	return func(c *Client) {
		c.overrides[kind] = cfg
	}
}

// Client executes chat calls against any registered vendor. It is safe for
// concurrent use: configuration is resolved once at construction and never
// mutated, and each call owns its own request.
type Client struct {
	web     *webc.Client
	webOpts []webc.ClientOption
	logger  *slog.Logger

	configs   map[adapter.Kind]adapter.Config
	overrides map[adapter.Kind]adapter.Config

	tracer trace.Tracer
}

// New creates a client. Vendor defaults (credential environment variable
// names, endpoint bases) are captured here, once, from each registered
// adapter.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		logger:    slog.Default(),
		configs:   make(map[adapter.Kind]adapter.Config),
		overrides: make(map[adapter.Kind]adapter.Config),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.web = webc.New(c.webOpts...)

	for _, kind := range []adapter.Kind{KindOpenAI, KindOllama, KindGroq, KindAnthropic, KindGemini} {
		a, err := adapter.For(kind)
		if err != nil {
			return nil, err
		}
		cfg := a.DefaultConfig()
		if ovr, ok := c.overrides[kind]; ok {
			if ovr.AuthEnvName != "" {
				cfg.AuthEnvName = ovr.AuthEnvName
			}
			if ovr.APIKey != "" {
				cfg.APIKey = ovr.APIKey
			}
			if ovr.BaseURL != "" {
				cfg.BaseURL = ovr.BaseURL
			}
		}
		c.configs[kind] = cfg
	}

	return c, nil
}

// Chat executes one non-streaming chat call.
func (c *Client) Chat(ctx context.Context, model ModelRef, req *ChatRequest, opts *ChatOptions) (*ChatResponse, error) {
	a, err := adapter.For(model.Kind)
	if err != nil {
		return nil, err
	}

	wreq, err := a.BuildRequest(model, c.configs[model.Kind], adapter.ServiceChat, req, opts)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "unichat.Chat", trace.WithAttributes(
		attribute.String("vendor.kind", model.Kind.String()),
		attribute.String("vendor.model", model.Name),
	))
	defer span.End()

	c.logger.Debug("chat call",
		slog.String("model", model.String()),
		slog.String("url", wreq.URL),
		slog.Int("messages", len(req.Messages)),
	)

	resp, err := c.web.Do(ctx, wreq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	parsed, err := a.ParseResponse(model, resp)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return parsed, nil
}

// ChatStream executes one streaming chat call. The returned stream is
// driven by the caller; cancel ctx to abandon it early and release the
// connection.
func (c *Client) ChatStream(ctx context.Context, model ModelRef, req *ChatRequest, opts *ChatOptions) (*ChatStreamResponse, error) {
	a, err := adapter.For(model.Kind)
	if err != nil {
		return nil, err
	}

	wreq, err := a.BuildRequest(model, c.configs[model.Kind], adapter.ServiceChatStream, req, opts)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "unichat.ChatStream", trace.WithAttributes(
		attribute.String("vendor.kind", model.Kind.String()),
		attribute.String("vendor.model", model.Name),
	))
	defer span.End()

	c.logger.Debug("chat stream call",
		slog.String("model", model.String()),
		slog.String("url", wreq.URL),
		slog.Int("messages", len(req.Messages)),
	)

	stream, err := a.NewStream(ctx, c.web, model, wreq, opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return stream, nil
}

// ModelNames enumerates the known model identifiers of a vendor kind.
func (c *Client) ModelNames(ctx context.Context, kind Kind) ([]string, error) {
	a, err := adapter.For(kind)
	if err != nil {
		return nil, err
	}
	return a.ModelNames(ctx)
}

// VendorConfig returns the resolved configuration for a kind, defaults
// plus overrides.
func (c *Client) VendorConfig(kind Kind) Config {
	return c.configs[kind]
}
