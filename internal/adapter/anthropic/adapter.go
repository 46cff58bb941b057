// Package anthropic translates the conversation model to and from the
// Anthropic Messages API. System content moves to the top-level system
// field and the API has no tool-response role.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/omnillm/unichat/internal/adapter"
	"github.com/omnillm/unichat/internal/chat"
	"github.com/omnillm/unichat/internal/webc"
)

func init() {
	adapter.Register(New())
}

const (
	defaultBaseURL   = "https://api.anthropic.com/v1/"
	anthropicVersion = "2023-06-01"

	// The Messages API rejects requests without max_tokens.
	defaultMaxTokens = 1024
)

var models = []string{
	"claude-3-5-sonnet-20240620",
	"claude-3-opus-20240229",
	"claude-3-sonnet-20240229",
	"claude-3-haiku-20240307",
}

// Adapter serves the Anthropic vendor kind.
type Adapter struct {
	config adapter.Config
}

// New creates the Anthropic adapter.
func New() *Adapter {
	return &Adapter{
		config: adapter.Config{AuthEnvName: "ANTHROPIC_API_KEY"},
	}
}

func (a *Adapter) Kind() adapter.Kind { return adapter.KindAnthropic }

// ModelNames returns the commonly known Claude models.
func (a *Adapter) ModelNames(_ context.Context) ([]string, error) {
	names := make([]string, len(models))
	copy(names, models)
	return names, nil
}

func (a *Adapter) DefaultConfig() adapter.Config { return a.config }

func (a *Adapter) ServiceURL(_ adapter.ModelRef, cfg adapter.Config, _ adapter.ServiceType) string {
	base := defaultBaseURL
	if cfg.BaseURL != "" {
		base = cfg.BaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "messages"
}

func (a *Adapter) BuildRequest(model adapter.ModelRef, cfg adapter.Config, svc adapter.ServiceType, req *chat.ChatRequest, opts *chat.Options) (*webc.Request, error) {
	apiKey, err := cfg.ResolveAPIKey(adapter.KindAnthropic)
	if err != nil {
		return nil, err
	}

	messages, err := buildMessages(model, req)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"model":    model.Name,
		"messages": messages,
		"stream":   svc == adapter.ServiceChatStream,
	}

	// All system entries collapse into the single top-level system slot.
	if system, ok := req.CombineSystems(); ok {
		payload["system"] = system
	}

	maxTokens := defaultMaxTokens
	if opts != nil {
		if opts.Temperature != nil {
			payload["temperature"] = *opts.Temperature
		}
		if opts.TopP != nil {
			payload["top_p"] = *opts.TopP
		}
		if opts.MaxTokens != nil {
			maxTokens = *opts.MaxTokens
		}
	}
	payload["max_tokens"] = maxTokens

	return &webc.Request{
		URL: a.ServiceURL(model, cfg, svc),
		Headers: []webc.Header{
			{Name: "x-api-key", Value: apiKey},
			{Name: "anthropic-version", Value: anthropicVersion},
		},
		Payload: payload,
	}, nil
}

func buildMessages(model adapter.ModelRef, req *chat.ChatRequest) ([]any, error) {
	var messages []any

	for _, msg := range req.Messages {
		switch m := msg.(type) {
		case chat.SystemMessage:
			// Collected by CombineSystems in BuildRequest.
		case chat.UserMessage:
			messages = append(messages, map[string]any{"role": "user", "content": m.Content.Text})
		case chat.AssistantMessage:
			messages = append(messages, map[string]any{"role": "assistant", "content": m.Content.Text})
		case chat.ToolResponseMessage:
			return nil, &adapter.RoleNotSupportedError{Model: model, Role: chat.RoleTool}
		default:
			return nil, &adapter.RoleNotSupportedError{Model: model, Role: msg.Role()}
		}
	}

	return messages, nil
}

type wireUsage struct {
	InputTokens  *int `json:"input_tokens"`
	OutputTokens *int `json:"output_tokens"`
}

func (u *wireUsage) toMeta() chat.MetaUsage {
	if u == nil {
		return chat.MetaUsage{}
	}
	return chat.NewUsage(u.InputTokens, u.OutputTokens)
}

type wireResponse struct {
	Content []struct {
		Text *string `json:"text"`
	} `json:"content"`
	Usage *wireUsage `json:"usage"`
}

// ParseResponse concatenates the text of all content items. An empty
// result is absent content, never an empty string.
func (a *Adapter) ParseResponse(model adapter.ModelRef, resp *webc.Response) (*chat.ChatResponse, error) {
	if !resp.OK() {
		return nil, &adapter.VendorError{Model: model, Status: resp.Status, Body: resp.Body}
	}

	var body wireResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &adapter.ShapeError{Model: model, Detail: fmt.Sprintf("invalid response body: %v", err)}
	}
	if body.Content == nil {
		return nil, &adapter.ShapeError{Model: model, Detail: "content array is missing"}
	}

	var parts []string
	for i, item := range body.Content {
		if item.Text == nil {
			return nil, &adapter.ShapeError{Model: model, Detail: fmt.Sprintf("/content/%d/text is missing", i)}
		}
		parts = append(parts, *item.Text)
	}

	var content *chat.MessageContent
	if len(parts) > 0 {
		c := chat.TextContent(strings.Join(parts, ""))
		content = &c
	}

	return &chat.ChatResponse{
		Payload: chat.ContentPayload{Content: content},
		Usage:   body.Usage.toMeta(),
	}, nil
}
