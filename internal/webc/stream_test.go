package webc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStreamSSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: plain\n\n")
		fmt.Fprint(w, "event: named\ndata: {\"a\":1}\n\n")
		fmt.Fprint(w, ": comment line\n")
		fmt.Fprint(w, "data: after\n\n")
		flusher.Flush()
	}))
	t.Cleanup(srv.Close)

	c := New()
	stream, errResp, err := c.StreamSSE(context.Background(), &Request{URL: srv.URL, Payload: map[string]any{}})
	if err != nil || errResp != nil {
		t.Fatalf("StreamSSE: %v, %+v", err, errResp)
	}

	var frames []SSEEvent
	for ev := range stream.Events {
		if ev.Err != nil {
			t.Fatalf("stream error: %v", ev.Err)
		}
		frames = append(frames, ev)
	}

	if len(frames) != 3 {
		t.Fatalf("got %d frames: %+v", len(frames), frames)
	}
	if frames[0].Name != "" || string(frames[0].Data) != "plain" {
		t.Errorf("frames[0] = %+v", frames[0])
	}
	if frames[1].Name != "named" || string(frames[1].Data) != `{"a":1}` {
		t.Errorf("frames[1] = %+v", frames[1])
	}
	if string(frames[2].Data) != "after" {
		t.Errorf("frames[2] = %+v", frames[2])
	}
}

func TestStreamSSELargeLine(t *testing.T) {
	big := strings.Repeat("x", 200*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "data: %s\n\n", big)
	}))
	t.Cleanup(srv.Close)

	c := New()
	stream, _, err := c.StreamSSE(context.Background(), &Request{URL: srv.URL, Payload: map[string]any{}})
	if err != nil {
		t.Fatalf("StreamSSE: %v", err)
	}

	var got string
	for ev := range stream.Events {
		if ev.Err != nil {
			t.Fatalf("stream error: %v", ev.Err)
		}
		got = string(ev.Data)
	}
	if got != big {
		t.Errorf("large line truncated: got %d bytes, want %d", len(got), len(big))
	}
}

func TestStreamJSONArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[\n  {\"n\": 1},\n  {\"n\": 2},\n  {\"n\": 3}\n]\n")
	}))
	t.Cleanup(srv.Close)

	c := New()
	stream, errResp, err := c.StreamJSONArray(context.Background(), &Request{URL: srv.URL, Payload: map[string]any{}})
	if err != nil || errResp != nil {
		t.Fatalf("StreamJSONArray: %v, %+v", err, errResp)
	}

	var elems []string
	for elem := range stream.Elements {
		if elem.Err != nil {
			t.Fatalf("stream error: %v", elem.Err)
		}
		elems = append(elems, string(elem.Data))
	}

	if len(elems) != 3 {
		t.Fatalf("got %d elements: %v", len(elems), elems)
	}
	if elems[0] != `{"n": 1}` {
		t.Errorf("elems[0] = %q", elems[0])
	}
}

func TestStreamJSONArrayRejectsObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not":"array"}`)
	}))
	t.Cleanup(srv.Close)

	c := New()
	stream, _, err := c.StreamJSONArray(context.Background(), &Request{URL: srv.URL, Payload: map[string]any{}})
	if err != nil {
		t.Fatalf("StreamJSONArray: %v", err)
	}

	var sawErr bool
	for elem := range stream.Elements {
		if elem.Err != nil {
			sawErr = true
		}
	}
	if !sawErr {
		t.Error("want error for non-array body")
	}
}

func TestStreamJSONArrayTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"n":1},`)
	}))
	t.Cleanup(srv.Close)

	c := New()
	stream, _, err := c.StreamJSONArray(context.Background(), &Request{URL: srv.URL, Payload: map[string]any{}})
	if err != nil {
		t.Fatalf("StreamJSONArray: %v", err)
	}

	var got []JSONElement
	for elem := range stream.Elements {
		got = append(got, elem)
	}
	if len(got) == 0 || got[len(got)-1].Err == nil {
		t.Errorf("truncated array must end in error, got %+v", got)
	}
}
