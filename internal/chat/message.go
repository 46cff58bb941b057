// Package chat holds the vendor-agnostic conversation model: requests,
// messages, responses, tool calls, and streaming events. Every provider
// adapter translates between these types and its own wire format.
package chat

// ChatRole identifies the speaker of a message.
type ChatRole int

const (
	RoleSystem ChatRole = iota
	RoleUser
	RoleAssistant
	RoleTool
)

func (r ChatRole) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	case RoleTool:
		return "tool"
	default:
		return "unknown"
	}
}

// MessageContent is the body of a user or assistant message. Only plain
// text is modeled; multi-part and multimodal content are out of scope.
type MessageContent struct {
	Text string
}

// TextContent wraps a string as message content.
func TextContent(s string) MessageContent {
	return MessageContent{Text: s}
}

// MessageExtra is a tagged union of message attachments. ToolCalls is the
// only variant today and is valid only on assistant messages.
type MessageExtra struct {
	ToolCalls []AssistantToolCall
}

// ChatMessage is the closed set of conversation message variants. The
// concrete types are SystemMessage, UserMessage, AssistantMessage, and
// ToolResponseMessage; translators switch over them exhaustively.
type ChatMessage interface {
	Role() ChatRole
	chatMessage()
}

// SystemMessage establishes behavior or persona. Vendors place system
// content differently; see CombineSystems.
type SystemMessage struct {
	Content string
}

// UserMessage is a message authored by the caller.
type UserMessage struct {
	Content MessageContent
}

// AssistantMessage is a message authored by the model. Extra carries the
// tool calls the model requested, when echoing a prior tool-call turn back
// to the vendor.
type AssistantMessage struct {
	Content MessageContent
	Extra   *MessageExtra
}

// ToolResponseMessage feeds the result of a tool execution back into the
// conversation. Not every vendor has a role for it.
type ToolResponseMessage struct {
	ToolCallID string
	ToolName   string
	ToolResult string
}

func (SystemMessage) Role() ChatRole       { return RoleSystem }
func (UserMessage) Role() ChatRole         { return RoleUser }
func (AssistantMessage) Role() ChatRole    { return RoleAssistant }
func (ToolResponseMessage) Role() ChatRole { return RoleTool }

func (SystemMessage) chatMessage()       {}
func (UserMessage) chatMessage()         {}
func (AssistantMessage) chatMessage()    {}
func (ToolResponseMessage) chatMessage() {}

// System builds a system message.
func System(content string) SystemMessage {
	return SystemMessage{Content: content}
}

// User builds a user message from plain text.
func User(text string) UserMessage {
	return UserMessage{Content: TextContent(text)}
}

// Assistant builds an assistant message from plain text.
func Assistant(text string) AssistantMessage {
	return AssistantMessage{Content: TextContent(text)}
}

// AssistantToolCalls builds the assistant message that echoes a set of
// model-issued tool calls back into the history.
func AssistantToolCalls(calls []AssistantToolCall) AssistantMessage {
	return AssistantMessage{
		Content: TextContent(""),
		Extra:   &MessageExtra{ToolCalls: calls},
	}
}

// ToolResponse builds the message carrying a tool execution result.
func ToolResponse(toolCallID, toolName, toolResult string) ToolResponseMessage {
	return ToolResponseMessage{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		ToolResult: toolResult,
	}
}
