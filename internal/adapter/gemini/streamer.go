package gemini

import (
	"context"

	"github.com/omnillm/unichat/internal/adapter"
	"github.com/omnillm/unichat/internal/chat"
	"github.com/omnillm/unichat/internal/webc"
)

// NewStream executes the streaming request. Gemini does not frame with
// SSE: streamGenerateContent delivers a pretty-printed JSON array whose
// elements are ordinary generateContent bodies, so each element goes
// through the non-streaming parser. Usage metadata grows as elements
// arrive; the last element's counts win.
func (a *Adapter) NewStream(ctx context.Context, client *webc.Client, model adapter.ModelRef, req *webc.Request, _ *chat.Options) (*chat.ChatStreamResponse, error) {
	stream, errResp, err := client.StreamJSONArray(ctx, req)
	if err != nil {
		return nil, err
	}
	if errResp != nil {
		return nil, &adapter.VendorError{Model: model, Status: errResp.Status, Body: errResp.Body}
	}

	out := make(chan chat.StreamEvent)
	go a.normalize(ctx, model, stream, out)
	return &chat.ChatStreamResponse{Events: out}, nil
}

func (a *Adapter) normalize(ctx context.Context, model adapter.ModelRef, stream *webc.JSONArrayStream, out chan<- chat.StreamEvent) {
	defer close(out)

	send := func(ev chat.StreamEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !send(chat.StreamEvent{Kind: chat.StreamStart}) {
		return
	}

	var usage *chat.MetaUsage

	for elem := range stream.Elements {
		if elem.Err != nil {
			send(chat.StreamEvent{Err: elem.Err})
			return
		}

		resp, err := parseBody(model, elem.Data)
		if err != nil {
			send(chat.StreamEvent{Err: err})
			return
		}

		if resp.Usage != (chat.MetaUsage{}) {
			u := resp.Usage
			usage = &u
		}

		if text, ok := resp.ContentText(); ok && text != "" {
			if !send(chat.StreamEvent{Kind: chat.StreamChunk, Content: text}) {
				return
			}
		}
	}

	send(chat.StreamEvent{Kind: chat.StreamEnd, Usage: usage})
}
