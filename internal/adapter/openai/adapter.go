// Package openai translates the conversation model to and from the OpenAI
// chat-completions wire format. Groq and Ollama expose the same format, so
// their kinds register instances of this adapter with their own endpoints
// and credentials.
package openai

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
	adapter.Register(New(adapter.KindOpenAI))
	adapter.Register(New(adapter.KindOllama))
	adapter.Register(New(adapter.KindGroq))
}

var kindDefaults = map[adapter.Kind]struct {
	baseURL string
	authEnv string
	models  []string
}{
	adapter.KindOpenAI: {
		baseURL: "https://api.openai.com/v1/",
		authEnv: "OPENAI_API_KEY",
		models:  []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-4", "gpt-3.5-turbo"},
	},
	adapter.KindGroq: {
		baseURL: "https://api.groq.com/openai/v1/",
		authEnv: "GROQ_API_KEY",
		models:  []string{"llama-3.1-70b-versatile", "llama-3.1-8b-instant", "mixtral-8x7b-32768", "gemma2-9b-it"},
	},
	adapter.KindOllama: {
		baseURL: "http://localhost:11434/v1/",
		authEnv: "",
		models:  []string{"llama3.1", "mistral", "gemma2"},
	},
}

// Adapter serves one OpenAI-compatible vendor kind.
type Adapter struct {
	kind    adapter.Kind
	baseURL string
	config  adapter.Config
	models  []string
}

// New creates the adapter for an OpenAI-compatible kind.
func New(kind adapter.Kind) *Adapter {
	def, ok := kindDefaults[kind]
	if !ok {
		panic(fmt.Sprintf("openai: kind %s is not OpenAI-compatible", kind))
	}
	return &Adapter{
		kind:    kind,
		baseURL: def.baseURL,
		config:  adapter.Config{AuthEnvName: def.authEnv},
		models:  def.models,
	}
}

func (a *Adapter) Kind() adapter.Kind { return a.kind }

// ModelNames returns the commonly known models for the kind.
func (a *Adapter) ModelNames(_ context.Context) ([]string, error) {
	names := make([]string, len(a.models))
	copy(names, a.models)
	return names, nil
}

func (a *Adapter) DefaultConfig() adapter.Config { return a.config }

func (a *Adapter) ServiceURL(_ adapter.ModelRef, cfg adapter.Config, _ adapter.ServiceType) string {
	base := a.baseURL
	if cfg.BaseURL != "" {
		base = cfg.BaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "chat/completions"
}

func (a *Adapter) BuildRequest(model adapter.ModelRef, cfg adapter.Config, svc adapter.ServiceType, req *chat.ChatRequest, opts *chat.Options) (*webc.Request, error) {
	apiKey, err := cfg.ResolveAPIKey(a.kind)
	if err != nil {
		return nil, err
	}

	messages, err := a.buildMessages(model, req)
	if err != nil {
		return nil, err
	}

	stream := svc == adapter.ServiceChatStream

	payload := map[string]any{
		"model":    model.Name,
		"messages": messages,
		"stream":   stream,
	}
	if len(req.Tools) > 0 {
		payload["tools"] = req.Tools
	}

	if opts != nil {
		if opts.JSONMode {
			payload["response_format"] = map[string]any{"type": "json_object"}
		}
		if stream && opts.CaptureUsage {
			payload["stream_options"] = map[string]any{"include_usage": true}
		}
		if opts.Temperature != nil {
			payload["temperature"] = *opts.Temperature
		}
		if opts.MaxTokens != nil {
			payload["max_tokens"] = *opts.MaxTokens
		}
		if opts.TopP != nil {
			payload["top_p"] = *opts.TopP
		}
	}

	var headers []webc.Header
	if apiKey != "" {
		headers = append(headers, webc.Header{Name: "Authorization", Value: "Bearer " + apiKey})
	}

	return &webc.Request{
		URL:     a.ServiceURL(model, cfg, svc),
		Headers: headers,
		Payload: payload,
	}, nil
}

// buildMessages maps the conversation to the OpenAI messages array. Every
// system entry keeps its own role-"system" message, except for Ollama,
// whose compatibility layer misbehaves with multiple system messages; for
// that kind all system content is concatenated into one leading message.
func (a *Adapter) buildMessages(model adapter.ModelRef, req *chat.ChatRequest) ([]any, error) {
	concatSystems := a.kind == adapter.KindOllama

	var systems []string
	var messages []any

	for _, msg := range req.Messages {
		switch m := msg.(type) {
		case chat.SystemMessage:
			if concatSystems {
				systems = append(systems, m.Content)
			} else {
				messages = append(messages, map[string]any{"role": "system", "content": m.Content})
			}
		case chat.UserMessage:
			messages = append(messages, map[string]any{"role": "user", "content": m.Content.Text})
		case chat.AssistantMessage:
			if m.Extra != nil && len(m.Extra.ToolCalls) > 0 {
				messages = append(messages, map[string]any{
					"role":       "assistant",
					"content":    m.Content.Text,
					"tool_calls": echoToolCalls(m.Extra.ToolCalls),
				})
			} else {
				messages = append(messages, map[string]any{"role": "assistant", "content": m.Content.Text})
			}
		case chat.ToolResponseMessage:
			messages = append(messages, map[string]any{
				"role":         "tool",
				"tool_call_id": m.ToolCallID,
				"name":         m.ToolName,
				"content":      m.ToolResult,
			})
		default:
			return nil, &adapter.RoleNotSupportedError{Model: model, Role: msg.Role()}
		}
	}

	if len(systems) > 0 {
		leading := map[string]any{"role": "system", "content": strings.Join(systems, "\n")}
		messages = append([]any{leading}, messages...)
	}

	return messages, nil
}

// echoToolCalls re-serializes model-issued tool calls for the history. The
// vendor expects arguments re-stringified; the stored bytes are emitted
// verbatim so the value round-trips its own parse convention.
func echoToolCalls(calls []chat.AssistantToolCall) []any {
	out := make([]any, 0, len(calls))
	for _, call := range calls {
		args := ""
		if call.Function.Arguments != nil {
			args = string(call.Function.Arguments)
		}
		out = append(out, map[string]any{
			"id":   call.ToolCallID,
			"type": call.ToolCallType,
			"function": map[string]any{
				"name":      call.Function.Name,
				"arguments": args,
			},
		})
	}
	return out
}

type wireUsage struct {
	PromptTokens     *int `json:"prompt_tokens"`
	CompletionTokens *int `json:"completion_tokens"`
	TotalTokens      *int `json:"total_tokens"`
}

func (u *wireUsage) toMeta() chat.MetaUsage {
	if u == nil {
		return chat.MetaUsage{}
	}
	return chat.MetaUsage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  u.TotalTokens,
	}
}

type wireResponse struct {
	Choices []struct {
		FinishReason *string `json:"finish_reason"`
		Message      struct {
			Content   *string         `json:"content"`
			ToolCalls json.RawMessage `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage *wireUsage `json:"usage"`
}

// ParseResponse branches on the first choice's finish reason: "stop" takes
// the message content, "tool_calls" decodes the tool-call array, anything
// else is contract drift.
func (a *Adapter) ParseResponse(model adapter.ModelRef, resp *webc.Response) (*chat.ChatResponse, error) {
	if !resp.OK() {
		return nil, &adapter.VendorError{Model: model, Status: resp.Status, Body: resp.Body}
	}

	var body wireResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &adapter.ShapeError{Model: model, Detail: fmt.Sprintf("invalid response body: %v", err)}
	}

	if len(body.Choices) == 0 || body.Choices[0].FinishReason == nil {
		return nil, &adapter.ShapeError{Model: model, Detail: "/choices/0/finish_reason is missing"}
	}

	choice := body.Choices[0]
	usage := body.Usage.toMeta()

	switch *choice.FinishReason {
	case "stop":
		var content *chat.MessageContent
		if choice.Message.Content != nil {
			c := chat.TextContent(*choice.Message.Content)
			content = &c
		}
		return &chat.ChatResponse{
			Payload: chat.ContentPayload{Content: content},
			Usage:   usage,
		}, nil

	case "tool_calls":
		var calls []chat.AssistantToolCall
		if choice.Message.ToolCalls != nil {
			if err := json.Unmarshal(choice.Message.ToolCalls, &calls); err != nil {
				return nil, &adapter.ShapeError{Model: model, Detail: fmt.Sprintf("invalid tool_calls: %v", err)}
			}
		}
		return &chat.ChatResponse{
			Payload: chat.ToolCallPayload{Calls: calls},
			Usage:   usage,
		}, nil

	default:
		return nil, &adapter.ShapeError{
			Model:  model,
			Detail: fmt.Sprintf("finish_reason %q is neither a stop nor a tool-call condition", *choice.FinishReason),
		}
	}
}
