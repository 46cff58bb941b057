// Package tool generates the JSON Schema declarations vendors expect for
// callable functions and bridges model-issued tool calls to native Go
// functions.
package tool

import (
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Field describes one parameter of a tool function. Description is read by
// the model and should say what the field means, not how it is encoded.
// Enum, when set, closes the value set; enum values are always inlined in
// the emitted schema because at least one vendor rejects $ref indirection.
type Field struct {
	Name        string
	Type        jsonschema.DataType
	Description string
	Enum        []string
	Required    bool
}

// SchemaForFunc produces the vendor-agnostic function declaration
//
//	{"type":"function","function":{"name":...,"description":...,
//	 "parameters":{"type":"object","properties":{...},"required":[...]}}}
//
// consumed identically by every translator.
func SchemaForFunc(fnName, fnDesc string, fields ...Field) (json.RawMessage, error) {
	properties := make(map[string]jsonschema.Definition, len(fields))
	required := []string{}

	for _, f := range fields {
		if _, dup := properties[f.Name]; dup {
			return nil, fmt.Errorf("tool %q: duplicate field %q", fnName, f.Name)
		}
		properties[f.Name] = jsonschema.Definition{
			Type:        f.Type,
			Description: f.Description,
			Enum:        f.Enum,
		}
		if f.Required {
			required = append(required, f.Name)
		}
	}

	schema := map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        fnName,
			"description": fnDesc,
			"parameters": map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}

	return json.Marshal(schema)
}

// SchemaForFuncNoParams produces the declaration of a function taking no
// parameters. The parameters key is omitted entirely: some vendors accept
// an explicit null there, others reject it.
func SchemaForFuncNoParams(fnName, fnDesc string) (json.RawMessage, error) {
	schema := map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        fnName,
			"description": fnDesc,
		},
	}

	return json.Marshal(schema)
}
