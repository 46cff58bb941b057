package chat

// ChatResponse is one completed turn from a vendor: either text content or
// a request that the caller execute tools, plus best-effort token usage.
type ChatResponse struct {
	Payload ChatResponsePayload
	Usage   MetaUsage
}

// ChatResponsePayload is the closed set of response variants. Exactly one
// branch is populated per response: the vendors modeled never mix text and
// tool calls in a single completion.
type ChatResponsePayload interface {
	chatResponsePayload()
}

// ContentPayload carries the model's text answer. Content is nil when the
// vendor returned an empty completion.
type ContentPayload struct {
	Content *MessageContent
}

// ToolCallPayload carries the tool calls the model wants executed.
type ToolCallPayload struct {
	Calls []AssistantToolCall
}

func (ContentPayload) chatResponsePayload()  {}
func (ToolCallPayload) chatResponsePayload() {}

// ContentText returns the text of a content payload, or ok=false when the
// response is a tool call or has no content.
func (r *ChatResponse) ContentText() (string, bool) {
	if p, ok := r.Payload.(ContentPayload); ok && p.Content != nil {
		return p.Content.Text, true
	}
	return "", false
}

// ToolCalls returns the tool calls of a tool-call payload, or ok=false
// when the response is plain content.
func (r *ChatResponse) ToolCalls() ([]AssistantToolCall, bool) {
	if p, ok := r.Payload.(ToolCallPayload); ok {
		return p.Calls, true
	}
	return nil, false
}

// MetaUsage is the vendor-reported token accounting. All fields are
// best-effort: not every vendor returns them, and streaming vendors may
// only report on the final chunk.
type MetaUsage struct {
	InputTokens  *int
	OutputTokens *int
	TotalTokens  *int
}

// NewUsage builds a MetaUsage from input/output counts, deriving the total
// when either side is present.
func NewUsage(input, output *int) MetaUsage {
	u := MetaUsage{InputTokens: input, OutputTokens: output}
	if input != nil || output != nil {
		total := deref(input) + deref(output)
		u.TotalTokens = &total
	}
	return u
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Int returns a pointer to v, for optional usage fields.
func Int(v int) *int { return &v }
