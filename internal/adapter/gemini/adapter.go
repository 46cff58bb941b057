// Package gemini translates the conversation model to and from the Google
// Generative Language API. The API key and model ride in the URL, the
// assistant role is called "model", system content becomes a
// systemInstruction, and streaming selects a different URL verb.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/omnillm/unichat/internal/adapter"
	"github.com/omnillm/unichat/internal/chat"
	"github.com/omnillm/unichat/internal/webc"
)

func init() {
	adapter.Register(New())
}

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/"

var models = []string{
	"gemini-1.5-pro",
	"gemini-1.5-flash",
	"gemini-1.0-pro",
	"gemini-1.5-flash-latest",
}

// Adapter serves the Gemini vendor kind.
type Adapter struct {
	config adapter.Config
}

// New creates the Gemini adapter.
func New() *Adapter {
	return &Adapter{
		config: adapter.Config{AuthEnvName: "GEMINI_API_KEY"},
	}
}

func (a *Adapter) Kind() adapter.Kind { return adapter.KindGemini }

// ModelNames returns the commonly known Gemini models.
func (a *Adapter) ModelNames(_ context.Context) ([]string, error) {
	names := make([]string, len(models))
	copy(names, models)
	return names, nil
}

func (a *Adapter) DefaultConfig() adapter.Config { return a.config }

// ServiceURL returns the endpoint base; the model, verb, and key are
// appended during request building because the credential is part of the
// URL for this vendor.
func (a *Adapter) ServiceURL(_ adapter.ModelRef, cfg adapter.Config, _ adapter.ServiceType) string {
	base := defaultBaseURL
	if cfg.BaseURL != "" {
		base = cfg.BaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func (a *Adapter) BuildRequest(model adapter.ModelRef, cfg adapter.Config, svc adapter.ServiceType, req *chat.ChatRequest, opts *chat.Options) (*webc.Request, error) {
	apiKey, err := cfg.ResolveAPIKey(adapter.KindGemini)
	if err != nil {
		return nil, err
	}

	verb := "generateContent"
	if svc == adapter.ServiceChatStream {
		verb = "streamGenerateContent"
	}
	endpoint := fmt.Sprintf("%smodels/%s:%s?key=%s",
		a.ServiceURL(model, cfg, svc), model.Name, verb, url.QueryEscape(apiKey))

	contents, err := buildContents(model, req)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"contents": contents,
	}

	// The v1beta systemInstruction content takes no role; the API accepts
	// only "user" and "model" and a role here is not needed.
	if system, ok := req.CombineSystems(); ok {
		payload["systemInstruction"] = map[string]any{
			"parts": []any{map[string]any{"text": system}},
		}
	}

	if opts != nil {
		generation := map[string]any{}
		if opts.Temperature != nil {
			generation["temperature"] = *opts.Temperature
		}
		if opts.MaxTokens != nil {
			generation["maxOutputTokens"] = *opts.MaxTokens
		}
		if opts.TopP != nil {
			generation["topP"] = *opts.TopP
		}
		if len(generation) > 0 {
			payload["generationConfig"] = generation
		}
	}

	return &webc.Request{
		URL:     endpoint,
		Payload: payload,
	}, nil
}

func buildContents(model adapter.ModelRef, req *chat.ChatRequest) ([]any, error) {
	var contents []any

	textPart := func(role, text string) map[string]any {
		return map[string]any{
			"role":  role,
			"parts": []any{map[string]any{"text": text}},
		}
	}

	for _, msg := range req.Messages {
		switch m := msg.(type) {
		case chat.SystemMessage:
			// Collected by CombineSystems in BuildRequest.
		case chat.UserMessage:
			contents = append(contents, textPart("user", m.Content.Text))
		case chat.AssistantMessage:
			contents = append(contents, textPart("model", m.Content.Text))
		case chat.ToolResponseMessage:
			return nil, &adapter.RoleNotSupportedError{Model: model, Role: chat.RoleTool}
		default:
			return nil, &adapter.RoleNotSupportedError{Model: model, Role: msg.Role()}
		}
	}

	return contents, nil
}

type wireUsage struct {
	PromptTokenCount     *int `json:"promptTokenCount"`
	CandidatesTokenCount *int `json:"candidatesTokenCount"`
	TotalTokenCount      *int `json:"totalTokenCount"`
}

func (u *wireUsage) toMeta() chat.MetaUsage {
	if u == nil {
		return chat.MetaUsage{}
	}
	return chat.MetaUsage{
		InputTokens:  u.PromptTokenCount,
		OutputTokens: u.CandidatesTokenCount,
		TotalTokens:  u.TotalTokenCount,
	}
}

type wireResponse struct {
	Error      json.RawMessage `json:"error"`
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *wireUsage `json:"usageMetadata"`
}

// parseBody interprets one generateContent body. Bodies carrying a
// top-level error key are vendor errors even under a 200 status, and are
// detected before any candidate is read. Streaming reuses this per array
// element.
func parseBody(model adapter.ModelRef, data []byte) (*chat.ChatResponse, error) {
	var body wireResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, &adapter.ShapeError{Model: model, Detail: fmt.Sprintf("invalid response body: %v", err)}
	}

	if body.Error != nil {
		return nil, &adapter.VendorError{Model: model, Body: body.Error}
	}

	if len(body.Candidates) == 0 || len(body.Candidates[0].Content.Parts) == 0 ||
		body.Candidates[0].Content.Parts[0].Text == nil {
		return nil, &adapter.ShapeError{Model: model, Detail: "/candidates/0/content/parts/0/text is missing"}
	}

	content := chat.TextContent(*body.Candidates[0].Content.Parts[0].Text)
	return &chat.ChatResponse{
		Payload: chat.ContentPayload{Content: &content},
		Usage:   body.UsageMetadata.toMeta(),
	}, nil
}

func (a *Adapter) ParseResponse(model adapter.ModelRef, resp *webc.Response) (*chat.ChatResponse, error) {
	if !resp.OK() {
		return nil, &adapter.VendorError{Model: model, Status: resp.Status, Body: resp.Body}
	}
	return parseBody(model, resp.Body)
}
