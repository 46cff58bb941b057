package unichat

import (
	"github.com/omnillm/unichat/internal/adapter"
	"github.com/omnillm/unichat/internal/chat"
)

// The conversation model and adapter contract live in internal packages;
// these aliases are the public surface.

type (
	Kind     = adapter.Kind
	ModelRef = adapter.ModelRef
	Config   = adapter.Config

	ChatRequest        = chat.ChatRequest
	ChatMessage        = chat.ChatMessage
	ChatOptions        = chat.Options
	ChatResponse       = chat.ChatResponse
	ChatStreamResponse = chat.ChatStreamResponse
	StreamEvent        = chat.StreamEvent
	MessageContent     = chat.MessageContent
	MessageExtra       = chat.MessageExtra
	AssistantToolCall  = chat.AssistantToolCall
	MetaUsage          = chat.MetaUsage

	ConfigError           = adapter.ConfigError
	RoleNotSupportedError = adapter.RoleNotSupportedError
	VendorError           = adapter.VendorError
	ShapeError            = adapter.ShapeError
)

const (
	KindOpenAI    = adapter.KindOpenAI
	KindOllama    = adapter.KindOllama
	KindGroq      = adapter.KindGroq
	KindAnthropic = adapter.KindAnthropic
	KindGemini    = adapter.KindGemini
)

const (
	StreamStart = chat.StreamStart
	StreamChunk = chat.StreamChunk
	StreamEnd   = chat.StreamEnd
)

// ParseKind resolves a vendor-kind tag from its name.
func ParseKind(s string) (Kind, error) { return adapter.ParseKind(s) }

// NewChatRequest builds a request from an initial message sequence.
func NewChatRequest(messages ...ChatMessage) *ChatRequest {
	return chat.NewChatRequest(messages...)
}

// FromSystem builds a request seeded with a single system message.
func FromSystem(content string) *ChatRequest { return chat.FromSystem(content) }

// Message constructors, re-exported for callers outside the module.
var (
	System             = chat.System
	User               = chat.User
	Assistant          = chat.Assistant
	AssistantToolCalls = chat.AssistantToolCalls
	ToolResponse       = chat.ToolResponse
)
