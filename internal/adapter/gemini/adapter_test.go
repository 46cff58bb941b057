package gemini

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/omnillm/unichat/internal/adapter"
	"github.com/omnillm/unichat/internal/chat"
	"github.com/omnillm/unichat/internal/webc"
)

var testModel = adapter.ModelRef{Kind: adapter.KindGemini, Name: "gemini-1.5-flash"}

func testConfig() adapter.Config {
	return adapter.Config{APIKey: "AIza-test"}
}

func marshalPayload(t *testing.T, payload any) map[string]json.RawMessage {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return decoded
}

func TestBuildRequestURL(t *testing.T) {
	a := New()

	tests := []struct {
		name string
		svc  adapter.ServiceType
		want string
	}{
		{
			name: "chat",
			svc:  adapter.ServiceChat,
			want: "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent?key=AIza-test",
		},
		{
			name: "stream",
			svc:  adapter.ServiceChatStream,
			want: "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:streamGenerateContent?key=AIza-test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wreq, err := a.BuildRequest(testModel, testConfig(), tt.svc,
				chat.NewChatRequest(chat.User("hi")), nil)
			if err != nil {
				t.Fatalf("BuildRequest: %v", err)
			}
			if wreq.URL != tt.want {
				t.Errorf("url = %q, want %q", wreq.URL, tt.want)
			}
			if len(wreq.Headers) != 0 {
				t.Errorf("headers = %v, credential must ride in the URL", wreq.Headers)
			}
		})
	}
}

func TestBuildRequestEscapesKey(t *testing.T) {
	a := New()

	cfg := adapter.Config{APIKey: "key with&chars"}
	wreq, err := a.BuildRequest(testModel, cfg, adapter.ServiceChat,
		chat.NewChatRequest(chat.User("hi")), nil)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if !strings.HasSuffix(wreq.URL, "key=key+with%26chars") {
		t.Errorf("url = %q", wreq.URL)
	}
}

func TestBuildRequestBody(t *testing.T) {
	a := New()

	req := chat.NewChatRequest(
		chat.System("rules"),
		chat.User("question"),
		chat.Assistant("answer"),
	)
	opts := &chat.Options{Temperature: chat.Float(0.5), MaxTokens: chat.Int(256)}

	wreq, err := a.BuildRequest(testModel, testConfig(), adapter.ServiceChat, req, opts)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	payload := marshalPayload(t, wreq.Payload)

	var instruction struct {
		Role  *string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}
	if err := json.Unmarshal(payload["systemInstruction"], &instruction); err != nil {
		t.Fatalf("unmarshal systemInstruction: %v", err)
	}
	if instruction.Role != nil {
		t.Errorf("systemInstruction carries role %q", *instruction.Role)
	}
	if len(instruction.Parts) != 1 || instruction.Parts[0].Text != "rules" {
		t.Errorf("systemInstruction parts = %v", instruction.Parts)
	}

	var contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}
	if err := json.Unmarshal(payload["contents"], &contents); err != nil {
		t.Fatalf("unmarshal contents: %v", err)
	}
	if len(contents) != 2 {
		t.Fatalf("got %d contents", len(contents))
	}
	if contents[0].Role != "user" {
		t.Errorf("contents[0].role = %q", contents[0].Role)
	}
	if contents[1].Role != "model" {
		t.Errorf("contents[1].role = %q, assistant must map to model", contents[1].Role)
	}

	var generation map[string]json.RawMessage
	if err := json.Unmarshal(payload["generationConfig"], &generation); err != nil {
		t.Fatalf("unmarshal generationConfig: %v", err)
	}
	if string(generation["temperature"]) != "0.5" || string(generation["maxOutputTokens"]) != "256" {
		t.Errorf("generationConfig = %v", generation)
	}
}

func TestBuildRequestRejectsToolResponse(t *testing.T) {
	a := New()

	req := chat.NewChatRequest(
		chat.User("hi"),
		chat.ToolResponse("call_1", "get_weather", "sunny"),
	)
	_, err := a.BuildRequest(testModel, testConfig(), adapter.ServiceChat, req, nil)

	var roleErr *adapter.RoleNotSupportedError
	if !errors.As(err, &roleErr) {
		t.Fatalf("err = %v, want RoleNotSupportedError", err)
	}
}

func TestParseResponse(t *testing.T) {
	a := New()

	body := `{
		"candidates": [{"content": {"parts": [{"text": "Hello"}], "role": "model"}}],
		"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 1, "totalTokenCount": 8}
	}`
	resp, err := a.ParseResponse(testModel, &webc.Response{Status: http.StatusOK, Body: []byte(body)})
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}

	text, ok := resp.ContentText()
	if !ok || text != "Hello" {
		t.Errorf("content = %q, %v", text, ok)
	}
	if resp.Usage.TotalTokens == nil || *resp.Usage.TotalTokens != 8 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestParseResponseBodyErrorWins(t *testing.T) {
	a := New()

	// A body-level error must be detected even when candidates are also
	// present, and even under a 200 status.
	body := `{
		"error": {"code": 429, "message": "quota exceeded"},
		"candidates": [{"content": {"parts": [{"text": "ignored"}]}}]
	}`
	_, err := a.ParseResponse(testModel, &webc.Response{Status: http.StatusOK, Body: []byte(body)})

	var vendorErr *adapter.VendorError
	if !errors.As(err, &vendorErr) {
		t.Fatalf("err = %v, want VendorError", err)
	}
	if !strings.Contains(string(vendorErr.Body), "quota exceeded") {
		t.Errorf("body = %s", vendorErr.Body)
	}
}

func TestParseResponseMissingText(t *testing.T) {
	a := New()

	for _, body := range []string{
		`{}`,
		`{"candidates":[]}`,
		`{"candidates":[{"content":{"parts":[]}}]}`,
		`{"candidates":[{"content":{"parts":[{}]}}]}`,
	} {
		_, err := a.ParseResponse(testModel, &webc.Response{Status: http.StatusOK, Body: []byte(body)})
		var shapeErr *adapter.ShapeError
		if !errors.As(err, &shapeErr) {
			t.Errorf("body %s: err = %v, want ShapeError", body, err)
		}
	}
}
