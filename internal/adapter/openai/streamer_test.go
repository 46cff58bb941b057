package openai

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

func sseHandler(t *testing.T, lines []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "data: %s\n\n", line)
			flusher.Flush()
		}
	}
}

func collect(t *testing.T, stream *chat.ChatStreamResponse) []chat.StreamEvent {
	t.Helper()
	var events []chat.StreamEvent
	for ev := range stream.Events {
		events = append(events, ev)
	}
	return events
}

func startStream(t *testing.T, handler http.Handler) *chat.ChatStreamResponse {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := New(adapter.KindOpenAI)
	model := adapter.ModelRef{Kind: adapter.KindOpenAI, Name: "gpt-4o"}
	cfg := adapter.Config{APIKey: "sk-test", BaseURL: srv.URL}

	req := chat.NewChatRequest(chat.User("hi"))
	wreq, err := a.BuildRequest(model, cfg, adapter.ServiceChatStream, req, &chat.Options{CaptureUsage: true})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	stream, err := a.NewStream(context.Background(), webc.New(), model, wreq, nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	return stream
}

func TestStreamNormalization(t *testing.T) {
	lines := []string{
		`{"choices":[{"delta":{"role":"assistant","content":""}}]}`,
		`{"choices":[{"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
		`{"choices":[],"usage":{"prompt_tokens":9,"completion_tokens":2,"total_tokens":11}}`,
		`[DONE]`,
	}

	events := collect(t, startStream(t, sseHandler(t, lines)))

	if len(events) < 4 {
		t.Fatalf("got %d events: %+v", len(events), events)
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
	if last.Usage == nil || last.Usage.TotalTokens == nil || *last.Usage.TotalTokens != 11 {
		t.Errorf("usage = %+v", last.Usage)
	}
}

func TestStreamEndsWithoutDone(t *testing.T) {
	lines := []string{
		`{"choices":[{"delta":{"content":"partial"}}]}`,
	}

	events := collect(t, startStream(t, sseHandler(t, lines)))

	last := events[len(events)-1]
	if last.Kind != chat.StreamEnd {
		t.Errorf("last event = %v, want end after transport close", last.Kind)
	}
}

func TestStreamMalformedChunk(t *testing.T) {
	lines := []string{
		`{"choices":[{"delta":{"content":"ok"}}]}`,
		`{not json`,
	}

	events := collect(t, startStream(t, sseHandler(t, lines)))

	last := events[len(events)-1]
	if last.Err == nil {
		t.Fatalf("want terminal error, got %+v", last)
	}
}

func TestStreamVendorRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	a := New(adapter.KindOpenAI)
	model := adapter.ModelRef{Kind: adapter.KindOpenAI, Name: "gpt-4o"}
	cfg := adapter.Config{APIKey: "sk-bad", BaseURL: srv.URL}

	wreq, err := a.BuildRequest(model, cfg, adapter.ServiceChatStream, chat.NewChatRequest(chat.User("hi")), nil)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	_, err = a.NewStream(context.Background(), webc.New(), model, wreq, nil)
	vendorErr, ok := err.(*adapter.VendorError)
	if !ok {
		t.Fatalf("err = %v, want VendorError", err)
	}
	if vendorErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", vendorErr.Status)
	}
}

func TestStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n")
		flusher.Flush()
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	a := New(adapter.KindOpenAI)
	model := adapter.ModelRef{Kind: adapter.KindOpenAI, Name: "gpt-4o"}
	cfg := adapter.Config{APIKey: "sk-test", BaseURL: srv.URL}

	wreq, err := a.BuildRequest(model, cfg, adapter.ServiceChatStream, chat.NewChatRequest(chat.User("hi")), nil)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := a.NewStream(ctx, webc.New(), model, wreq, nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}

	<-stream.Events // start event
	cancel()

	// The channel must close once the feeder notices cancellation.
	for range stream.Events {
	}
}
