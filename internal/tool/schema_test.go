package tool

import (
	"encoding/json"
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"
)

func TestSchemaForFunc(t *testing.T) {
	schema, err := SchemaForFunc(
		"get_current_weather",
		"Get the current weather for a location",
		Field{Name: "location", Type: jsonschema.String, Description: "City and country", Required: true},
		Field{Name: "unit", Type: jsonschema.String, Enum: []string{"celsius", "fahrenheit"}},
	)
	if err != nil {
		t.Fatalf("SchemaForFunc: %v", err)
	}

	var decoded struct {
		Type     string `json:"type"`
		Function struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Parameters  struct {
				Type       string                           `json:"type"`
				Properties map[string]jsonschema.Definition `json:"properties"`
				Required   []string                         `json:"required"`
			} `json:"parameters"`
		} `json:"function"`
	}
	if err := json.Unmarshal(schema, &decoded); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}

	if decoded.Type != "function" {
		t.Errorf("type = %q", decoded.Type)
	}
	if decoded.Function.Name != "get_current_weather" {
		t.Errorf("name = %q", decoded.Function.Name)
	}
	if decoded.Function.Parameters.Type != "object" {
		t.Errorf("parameters.type = %q", decoded.Function.Parameters.Type)
	}

	loc, ok := decoded.Function.Parameters.Properties["location"]
	if !ok {
		t.Fatal("location property missing")
	}
	if loc.Type != jsonschema.String || loc.Description != "City and country" {
		t.Errorf("location = %+v", loc)
	}

	unit, ok := decoded.Function.Parameters.Properties["unit"]
	if !ok {
		t.Fatal("unit property missing")
	}
	if len(unit.Enum) != 2 || unit.Enum[0] != "celsius" || unit.Enum[1] != "fahrenheit" {
		t.Errorf("unit enum = %v, want inlined values", unit.Enum)
	}

	if len(decoded.Function.Parameters.Required) != 1 || decoded.Function.Parameters.Required[0] != "location" {
		t.Errorf("required = %v", decoded.Function.Parameters.Required)
	}

	// Enum values must be inlined, never referenced.
	if json.Valid(schema) && containsRef(schema) {
		t.Error("schema contains a $ref")
	}
}

func containsRef(schema json.RawMessage) bool {
	var any map[string]interface{}
	if err := json.Unmarshal(schema, &any); err != nil {
		return false
	}
	return hasKey(any, "$ref")
}

func hasKey(v interface{}, key string) bool {
	switch m := v.(type) {
	case map[string]interface{}:
		for k, vv := range m {
			if k == key || hasKey(vv, key) {
				return true
			}
		}
	case []interface{}:
		for _, vv := range m {
			if hasKey(vv, key) {
				return true
			}
		}
	}
	return false
}

func TestSchemaForFuncDuplicateField(t *testing.T) {
	_, err := SchemaForFunc("f", "d",
		Field{Name: "x", Type: jsonschema.String},
		Field{Name: "x", Type: jsonschema.Number},
	)
	if err == nil {
		t.Fatal("want error for duplicate field")
	}
}

func TestSchemaForFuncNoParams(t *testing.T) {
	schema, err := SchemaForFuncNoParams("ping", "Check liveness")
	if err != nil {
		t.Fatalf("SchemaForFuncNoParams: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(schema, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var fn map[string]json.RawMessage
	if err := json.Unmarshal(decoded["function"], &fn); err != nil {
		t.Fatalf("unmarshal function: %v", err)
	}
	if _, present := fn["parameters"]; present {
		t.Error("parameters key must be omitted for no-arg tools")
	}
}
