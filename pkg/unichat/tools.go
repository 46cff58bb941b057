package unichat

import (
	"github.com/omnillm/unichat/internal/tool"
)

// Public surface of the tool schema and invocation bridge.

type (
	Tool         = tool.Tool
	ToolField    = tool.Field
	ToolRegistry = tool.Registry
)

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry() *ToolRegistry { return tool.NewRegistry() }

// NewTool registers a single-parameter function; see tool.NewTool.
func NewTool[A any](name, desc string, fields []ToolField, fn func(A) (string, error)) (Tool, error) {
	return tool.NewTool(name, desc, fields, fn)
}

// NewToolNoArgs registers a parameterless function; see tool.NewToolNoArgs.
func NewToolNoArgs(name, desc string, fn func() (string, error)) (Tool, error) {
	return tool.NewToolNoArgs(name, desc, fn)
}

// Schema helpers, re-exported.
var (
	SchemaForFunc         = tool.SchemaForFunc
	SchemaForFuncNoParams = tool.SchemaForFuncNoParams
)
