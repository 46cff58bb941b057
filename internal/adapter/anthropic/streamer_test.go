package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/omnillm/unichat/internal/adapter"
	"github.com/omnillm/unichat/internal/chat"
	"github.com/omnillm/unichat/internal/webc"
)

type sseFrame struct {
	name string
	data string
}

func startStream(t *testing.T, frames []sseFrame) *chat.ChatStreamResponse {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, f := range frames {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.name, f.data)
			flusher.Flush()
		}
	}))
	t.Cleanup(srv.Close)

	a := New()
	cfg := adapter.Config{APIKey: "sk-ant-test", BaseURL: srv.URL}
	wreq, err := a.BuildRequest(testModel, cfg, adapter.ServiceChatStream,
		chat.NewChatRequest(chat.User("hi")), nil)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	stream, err := a.NewStream(context.Background(), webc.New(), testModel, wreq, nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	return stream
}

func TestStreamNormalization(t *testing.T) {
	frames := []sseFrame{
		{"message_start", `{"message":{"usage":{"input_tokens":25}}}`},
		{"content_block_start", `{"content_block":{"type":"text"}}`},
		{"ping", `{}`},
		{"content_block_delta", `{"delta":{"type":"text_delta","text":"Hel"}}`},
		{"content_block_delta", `{"delta":{"type":"text_delta","text":"lo"}}`},
		{"content_block_stop", `{}`},
		{"message_delta", `{"usage":{"output_tokens":2}}`},
		{"message_stop", `{}`},
	}

	var events []chat.StreamEvent
	for ev := range startStream(t, frames).Events {
		events = append(events, ev)
	}

	if events[0].Kind != chat.StreamStart {
		t.Errorf("first event = %v", events[0].Kind)
	}

	var text strings.Builder
	for _, ev := range events {
		if ev.Err != nil {
			t.Fatalf("stream error: %v", ev.Err)
		}
		if ev.Kind == chat.StreamChunk {
			text.WriteString(ev.Content)
		}
	}
	if text.String() != "Hello" {
		t.Errorf("text = %q", text.String())
	}

	last := events[len(events)-1]
	if last.Kind != chat.StreamEnd {
		t.Fatalf("last event = %v", last.Kind)
	}
	if last.Usage == nil {
		t.Fatal("usage missing on end event")
	}
	if *last.Usage.InputTokens != 25 || *last.Usage.OutputTokens != 2 || *last.Usage.TotalTokens != 27 {
		t.Errorf("usage = %+v", last.Usage)
	}
}

func TestStreamErrorEvent(t *testing.T) {
	frames := []sseFrame{
		{"message_start", `{"message":{"usage":{"input_tokens":5}}}`},
		{"error", `{"type":"overloaded_error","message":"Overloaded"}`},
	}

	var events []chat.StreamEvent
	for ev := range startStream(t, frames).Events {
		events = append(events, ev)
	}

	last := events[len(events)-1]
	if last.Err == nil {
		t.Fatalf("want terminal error, got %+v", last)
	}
	vendorErr, ok := last.Err.(*adapter.VendorError)
	if !ok {
		t.Fatalf("err = %v, want VendorError", last.Err)
	}
	if !strings.Contains(string(vendorErr.Body), "Overloaded") {
		t.Errorf("body = %s", vendorErr.Body)
	}
}

func TestStreamEndsWithoutStop(t *testing.T) {
	frames := []sseFrame{
		{"content_block_delta", `{"delta":{"type":"text_delta","text":"partial"}}`},
	}

	var events []chat.StreamEvent
	for ev := range startStream(t, frames).Events {
		events = append(events, ev)
	}

	last := events[len(events)-1]
	if last.Kind != chat.StreamEnd {
		t.Errorf("last event = %v, want end after transport close", last.Kind)
	}
}
