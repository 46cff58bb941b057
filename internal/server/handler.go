package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/omnillm/unichat/internal/adapter"
	"github.com/omnillm/unichat/internal/chat"
	"github.com/omnillm/unichat/pkg/unichat"
)

// Router decides which vendor kind serves a model name.
type Router interface {
	KindForModel(model string) (adapter.Kind, error)
}

// Handler exposes an OpenAI-compatible chat completion endpoint backed by
// the unified client. Requests name a bare model; the router picks the
// vendor.
type Handler struct {
	client *unichat.Client
	router Router
}

// NewHandler creates a handler over client and router.
func NewHandler(client *unichat.Client, router Router) *Handler {
	return &Handler{client: client, router: router}
}

type wireMessage struct {
	Role       string                   `json:"role"`
	Content    string                   `json:"content,omitempty"`
	Name       string                   `json:"name,omitempty"`
	ToolCallID string                   `json:"tool_call_id,omitempty"`
	ToolCalls  []chat.AssistantToolCall `json:"tool_calls,omitempty"`
}

type completionRequest struct {
	Model       string            `json:"model"`
	Messages    []wireMessage     `json:"messages"`
	Stream      bool              `json:"stream"`
	Temperature *float64          `json:"temperature,omitempty"`
	TopP        *float64          `json:"top_p,omitempty"`
	MaxTokens   *int              `json:"max_tokens,omitempty"`
	Tools       []json.RawMessage `json:"tools,omitempty"`
}

type completionChoice struct {
	Index        int         `json:"index"`
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type completionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type completionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
	Usage   *completionUsage   `json:"usage,omitempty"`
}

type chunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type completionChunk struct {
	ID      string           `json:"id"`
	Object  string           `json:"object"`
	Created int64            `json:"created"`
	Model   string           `json:"model"`
	Choices []chunkChoice    `json:"choices"`
	Usage   *completionUsage `json:"usage,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{
		Message: msg,
		Type:    http.StatusText(status),
	}})
}

// HandleChatCompletion serves POST /v1/chat/completions.
func (h *Handler) HandleChatCompletion(w http.ResponseWriter, r *http.Request) {
	var wireReq completionRequest
	if err := json.NewDecoder(r.Body).Decode(&wireReq); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if wireReq.Model == "" {
		writeError(w, http.StatusBadRequest, "model is required")
		return
	}
	if len(wireReq.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}

	kind, err := h.router.KindForModel(wireReq.Model)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	model := unichat.ModelRef{Kind: kind, Name: wireReq.Model}

	req, err := buildChatRequest(&wireReq)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := &unichat.ChatOptions{
		Temperature:  wireReq.Temperature,
		TopP:         wireReq.TopP,
		MaxTokens:    wireReq.MaxTokens,
		CaptureUsage: true,
	}

	if wireReq.Stream {
		h.handleStream(w, r, model, req, opts)
		return
	}

	resp, err := h.client.Chat(r.Context(), model, req, opts)
	if err != nil {
		writeError(w, vendorStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toWireResponse(wireReq.Model, resp))
}

// HandleModels serves GET /v1/models for a vendor kind query parameter.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	kindName := r.URL.Query().Get("vendor")
	if kindName == "" {
		kindName = "openai"
	}
	kind, err := unichat.ParseKind(kindName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	names, err := h.client.ModelNames(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type modelEntry struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		OwnedBy string `json:"owned_by"`
	}
	out := struct {
		Object string       `json:"object"`
		Data   []modelEntry `json:"data"`
	}{Object: "list"}
	for _, name := range names {
		out.Data = append(out.Data, modelEntry{ID: name, Object: "model", OwnedBy: kind.String()})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func buildChatRequest(wireReq *completionRequest) (*unichat.ChatRequest, error) {
	req := unichat.NewChatRequest()
	for i, msg := range wireReq.Messages {
		switch msg.Role {
		case "system":
			req.AppendMessage(unichat.System(msg.Content))
		case "user":
			req.AppendMessage(unichat.User(msg.Content))
		case "assistant":
			if len(msg.ToolCalls) > 0 {
				req.AppendMessage(unichat.AssistantToolCalls(msg.ToolCalls))
			} else {
				req.AppendMessage(unichat.Assistant(msg.Content))
			}
		case "tool":
			req.AppendMessage(unichat.ToolResponse(msg.ToolCallID, msg.Name, msg.Content))
		default:
			return nil, fmt.Errorf("messages[%d]: unknown role %q", i, msg.Role)
		}
	}
	for _, tool := range wireReq.Tools {
		req.AppendTool(tool)
	}
	return req, nil
}

func toWireResponse(model string, resp *unichat.ChatResponse) completionResponse {
	out := completionResponse{
		ID:      "chatcmpl-" + uuid.New().String(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
	}

	choice := completionChoice{Message: wireMessage{Role: "assistant"}}
	if calls, ok := resp.ToolCalls(); ok {
		choice.Message.ToolCalls = calls
		choice.FinishReason = "tool_calls"
	} else {
		text, _ := resp.ContentText()
		choice.Message.Content = text
		choice.FinishReason = "stop"
	}
	out.Choices = []completionChoice{choice}

	if resp.Usage.TotalTokens != nil {
		out.Usage = &completionUsage{
			PromptTokens:     derefInt(resp.Usage.InputTokens),
			CompletionTokens: derefInt(resp.Usage.OutputTokens),
			TotalTokens:      *resp.Usage.TotalTokens,
		}
	}
	return out
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request, model unichat.ModelRef, req *unichat.ChatRequest, opts *unichat.ChatOptions) {
	streamResp, err := h.client.ChatStream(r.Context(), model, req, opts)
	if err != nil {
		writeError(w, vendorStatus(err), err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id := "chatcmpl-" + uuid.New().String()
	created := time.Now().Unix()

	emit := func(choice chunkChoice, usage *completionUsage) {
		chunk := completionChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   model.Name,
			Choices: []chunkChoice{choice},
			Usage:   usage,
		}
		data, _ := json.Marshal(chunk)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	for ev := range streamResp.Events {
		if ev.Err != nil {
			// The status line is already sent, so report the failure as a
			// terminal error frame.
			data, _ := json.Marshal(errorResponse{Error: errorBody{
				Message: ev.Err.Error(),
				Type:    "stream_error",
			}})
			fmt.Fprintf(w, "data: %s\n\n", data)
			fmt.Fprintf(w, "data: [DONE]\n\n")
			flusher.Flush()
			return
		}
		switch ev.Kind {
		case chat.StreamStart:
			emit(chunkChoice{Delta: chunkDelta{Role: "assistant"}}, nil)
		case chat.StreamChunk:
			emit(chunkChoice{Delta: chunkDelta{Content: ev.Content}}, nil)
		case chat.StreamEnd:
			stop := "stop"
			var usage *completionUsage
			if ev.Usage != nil && ev.Usage.TotalTokens != nil {
				usage = &completionUsage{
					PromptTokens:     derefInt(ev.Usage.InputTokens),
					CompletionTokens: derefInt(ev.Usage.OutputTokens),
					TotalTokens:      *ev.Usage.TotalTokens,
				}
			}
			emit(chunkChoice{Delta: chunkDelta{}, FinishReason: &stop}, usage)
		}
	}

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func vendorStatus(err error) int {
	var (
		vendorErr *adapter.VendorError
		roleErr   *adapter.RoleNotSupportedError
	)
	switch {
	case errors.As(err, &vendorErr):
		return http.StatusBadGateway
	case errors.As(err, &roleErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
