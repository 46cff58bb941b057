package tool

import (
	"encoding/json"
	"fmt"

	"github.com/omnillm/unichat/internal/chat"
)

// Tool pairs a function declaration with the closure that executes it.
// Build one with NewTool or NewToolNoArgs.
type Tool struct {
	Name   string
	Schema json.RawMessage

	invoke func(args json.RawMessage) string
}

// NewTool registers a single-parameter function: its schema is generated
// from the field descriptors and calls are decoded into A before fn runs.
func NewTool[A any](name, desc string, fields []Field, fn func(A) (string, error)) (Tool, error) {
	schema, err := SchemaForFunc(name, desc, fields...)
	if err != nil {
		return Tool{}, err
	}
	return Tool{
		Name:   name,
		Schema: schema,
		invoke: func(args json.RawMessage) string {
			return Invoke(name, args, fn)
		},
	}, nil
}

// NewToolNoArgs registers a parameterless function; invocation skips
// argument decoding entirely.
func NewToolNoArgs(name, desc string, fn func() (string, error)) (Tool, error) {
	schema, err := SchemaForFuncNoParams(name, desc)
	if err != nil {
		return Tool{}, err
	}
	return Tool{
		Name:   name,
		Schema: schema,
		invoke: func(json.RawMessage) string {
			return InvokeNoArgs(name, fn)
		},
	}, nil
}

// Registry holds the tools offered to the model and dispatches its calls
// by name. It is filled during setup and read-only afterwards.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	if _, dup := r.tools[t.Name]; dup {
		return fmt.Errorf("tool %q is already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Schemas returns the declarations of all registered tools in
// registration order, ready to append to a ChatRequest.
func (r *Registry) Schemas() []json.RawMessage {
	schemas := make([]json.RawMessage, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, r.tools[name].Schema)
	}
	return schemas
}

// Call dispatches one model-issued tool call and returns the string to
// send back as the tool's result. An unknown tool name yields the same
// error-string shape as any other invocation failure.
func (r *Registry) Call(call chat.AssistantToolCall) string {
	t, ok := r.tools[call.Function.Name]
	if !ok {
		return invokeError(call.Function.Name, "unknown tool")
	}
	return t.invoke(call.Function.Arguments)
}
