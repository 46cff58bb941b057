package chat

import (
	"encoding/json"
	"fmt"
)

// AssistantToolCall is one model-issued request to execute a tool.
//
// Vendors transmit the call arguments as a JSON string containing JSON:
//
//	"tool_calls": [{
//	  "id": "call_Vu0c1G8RZMFxebzkQfa7V8VJ",
//	  "type": "function",
//	  "function": {
//	    "name": "get_current_weather",
//	    "arguments": "{\"format\":\"fahrenheit\",\"location\":\"San Jose, CA\"}"
//	  }
//	}]
//
// Unmarshaling strips that extra layer of escaping, so Function.Arguments
// holds the structured value. A malformed inner string is a decode error
// for the whole tool call, never a silent nil.
type AssistantToolCall struct {
	ToolCallID   string           `json:"id"`
	ToolCallType string           `json:"type"`
	Function     ToolCallFunction `json:"function"`
}

// ToolCallFunction names the function to invoke and its decoded arguments.
type ToolCallFunction struct {
	Name      string
	Arguments json.RawMessage
}

func (f *ToolCallFunction) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name      string  `json:"name"`
		Arguments *string `json:"arguments"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	f.Name = wire.Name
	f.Arguments = nil
	if wire.Arguments == nil || *wire.Arguments == "" {
		return nil
	}

	var inner json.RawMessage
	if err := json.Unmarshal([]byte(*wire.Arguments), &inner); err != nil {
		return fmt.Errorf("tool call %q: arguments are not valid JSON: %w", wire.Name, err)
	}
	f.Arguments = inner
	return nil
}

// MarshalJSON re-applies the vendor convention, stringifying the arguments
// value. The stored bytes are emitted verbatim so a decoded call round-trips
// byte for byte.
func (f ToolCallFunction) MarshalJSON() ([]byte, error) {
	args := ""
	if f.Arguments != nil {
		args = string(f.Arguments)
	}
	return json.Marshal(struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	}{
		Name:      f.Name,
		Arguments: args,
	})
}
