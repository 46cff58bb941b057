package chat

import (
	"encoding/json"
	"strings"
)

// ChatRequest is an ordered conversation plus the tool declarations the
// model may call. Message order is conversation order and is preserved
// through every translation. Tool schemas are opaque JSON at this layer.
type ChatRequest struct {
	Messages []ChatMessage
	Tools    []json.RawMessage
}

// NewChatRequest builds a request from an initial message sequence.
func NewChatRequest(messages ...ChatMessage) *ChatRequest {
	return &ChatRequest{Messages: messages}
}

// FromSystem builds a request seeded with a single system message.
func FromSystem(content string) *ChatRequest {
	return NewChatRequest().WithSystem(content)
}

// WithSystem appends a system message and returns the request.
func (r *ChatRequest) WithSystem(content string) *ChatRequest {
	return r.AppendMessage(System(content))
}

// AppendMessage appends a message and returns the request for chaining.
func (r *ChatRequest) AppendMessage(msg ChatMessage) *ChatRequest {
	r.Messages = append(r.Messages, msg)
	return r
}

// AppendTool appends a tool declaration and returns the request.
func (r *ChatRequest) AppendTool(schema json.RawMessage) *ChatRequest {
	r.Tools = append(r.Tools, schema)
	return r
}

// Clone returns a copy sharing no slice headers with the original, so a
// caller can branch a conversation without mutating the source request.
func (r *ChatRequest) Clone() *ChatRequest {
	dup := &ChatRequest{
		Messages: make([]ChatMessage, len(r.Messages)),
		Tools:    make([]json.RawMessage, len(r.Tools)),
	}
	copy(dup.Messages, r.Messages)
	copy(dup.Tools, r.Tools)
	return dup
}

// Systems returns the contents of all system messages in conversation
// order.
func (r *ChatRequest) Systems() []string {
	var systems []string
	for _, msg := range r.Messages {
		if sys, ok := msg.(SystemMessage); ok {
			systems = append(systems, sys.Content)
		}
	}
	return systems
}

// CombineSystems concatenates all system contents, in message order, into
// one string for vendors that accept only a single system slot. A blank
// line separates entries: one newline when the accumulator already ends in
// a newline, two otherwise. Returns ok=false when the request carries no
// system content.
func (r *ChatRequest) CombineSystems() (string, bool) {
	var b strings.Builder
	found := false

	for _, sys := range r.Systems() {
		// Separator depends on the accumulator, not the entry: a trailing
		// newline already provides half of the blank line.
		if strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		} else if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(sys)
		found = true
	}

	return b.String(), found
}
