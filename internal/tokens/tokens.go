// Package tokens estimates input token counts for chat requests.
package tokens

import (
	"strings"

	"github.com/omnillm/unichat/internal/chat"
)

// Count is the result of a token count.
type Count struct {
	InputTokens int
	// Estimated is true when the count came from a heuristic rather
	// than a real tokenizer.
	Estimated bool
}

// Counter counts input tokens for a chat request against a model.
type Counter interface {
	SupportsModel(model string) bool
	CountRequest(model string, req *chat.ChatRequest) (Count, error)
}

// Registry picks the right counter for a model, falling back to an
// estimator when nothing matches.
type Registry struct {
	counters []Counter
	fallback Counter
}

// NewRegistry creates a registry with the chars-per-token estimator as
// fallback.
func NewRegistry() *Registry {
	return &Registry{fallback: NewEstimator()}
}

// Register adds a counter. Counters are consulted in registration order.
func (r *Registry) Register(c Counter) {
	r.counters = append(r.counters, c)
}

// CountRequest counts tokens using the first counter that supports the
// model.
func (r *Registry) CountRequest(model string, req *chat.ChatRequest) (Count, error) {
	for _, c := range r.counters {
		if c.SupportsModel(model) {
			return c.CountRequest(model, req)
		}
	}
	return r.fallback.CountRequest(model, req)
}

// Estimator approximates token counts from character length. It is the
// fallback for vendors without a local tokenizer.
type Estimator struct {
	CharsPerToken float64
}

// NewEstimator returns an estimator using four characters per token.
func NewEstimator() *Estimator {
	return &Estimator{CharsPerToken: 4.0}
}

// SupportsModel always returns true.
func (e *Estimator) SupportsModel(model string) bool { return true }

// CountRequest estimates the input token count for req.
func (e *Estimator) CountRequest(model string, req *chat.ChatRequest) (Count, error) {
	totalChars := 0

	for _, msg := range req.Messages {
		totalChars += len(msg.Role().String())
		totalChars += len(messageText(msg))
		totalChars += 4 // role tokens and separators
	}

	for _, tool := range req.Tools {
		totalChars += len(tool)
	}

	return Count{
		InputTokens: int(float64(totalChars) / e.CharsPerToken),
		Estimated:   true,
	}, nil
}

func messageText(msg chat.ChatMessage) string {
	switch m := msg.(type) {
	case chat.SystemMessage:
		return m.Content
	case chat.UserMessage:
		return m.Content.Text
	case chat.AssistantMessage:
		var b strings.Builder
		b.WriteString(m.Content.Text)
		if m.Extra != nil {
			for _, tc := range m.Extra.ToolCalls {
				b.WriteString(tc.Function.Name)
				b.Write(tc.Function.Arguments)
			}
		}
		return b.String()
	case chat.ToolResponseMessage:
		return m.ToolName + m.ToolResult
	default:
		return ""
	}
}

// ModelMatcher matches model names by prefix or exact name.
type ModelMatcher struct {
	prefixes []string
	exact    []string
}

// NewModelMatcher creates a matcher over the given patterns.
func NewModelMatcher(prefixes, exact []string) *ModelMatcher {
	return &ModelMatcher{prefixes: prefixes, exact: exact}
}

// Matches reports whether model matches any pattern.
func (m *ModelMatcher) Matches(model string) bool {
	for _, e := range m.exact {
		if model == e {
			return true
		}
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
