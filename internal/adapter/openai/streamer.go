package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/omnillm/unichat/internal/adapter"
	"github.com/omnillm/unichat/internal/chat"
	"github.com/omnillm/unichat/internal/webc"
)

type wireChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *wireUsage `json:"usage"`
}

// NewStream executes the streaming request and normalizes the SSE frames.
// The vendor signals completion with a literal "[DONE]" data line; usage,
// when requested via stream_options, arrives on the final data chunk.
func (a *Adapter) NewStream(ctx context.Context, client *webc.Client, model adapter.ModelRef, req *webc.Request, _ *chat.Options) (*chat.ChatStreamResponse, error) {
	sse, errResp, err := client.StreamSSE(ctx, req)
	if err != nil {
		return nil, err
	}
	if errResp != nil {
		return nil, &adapter.VendorError{Model: model, Status: errResp.Status, Body: errResp.Body}
	}

	out := make(chan chat.StreamEvent)
	go a.normalize(ctx, model, sse, out)
	return &chat.ChatStreamResponse{Events: out}, nil
}

func (a *Adapter) normalize(ctx context.Context, model adapter.ModelRef, sse *webc.SSEStream, out chan<- chat.StreamEvent) {
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

	for frame := range sse.Events {
		if frame.Err != nil {
			send(chat.StreamEvent{Err: frame.Err})
			return
		}

		if string(frame.Data) == "[DONE]" {
			send(chat.StreamEvent{Kind: chat.StreamEnd, Usage: usage})
			return
		}

		var chunk wireChunk
		if err := json.Unmarshal(frame.Data, &chunk); err != nil {
			send(chat.StreamEvent{Err: &adapter.ShapeError{
				Model:  model,
				Detail: fmt.Sprintf("invalid stream chunk: %v", err),
			}})
			return
		}

		if chunk.Usage != nil {
			u := chunk.Usage.toMeta()
			usage = &u
		}

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if !send(chat.StreamEvent{Kind: chat.StreamChunk, Content: chunk.Choices[0].Delta.Content}) {
				return
			}
		}
	}

	// The transport ended without the vendor's completion signal; report
	// what was accumulated rather than vanishing silently.
	send(chat.StreamEvent{Kind: chat.StreamEnd, Usage: usage})
}
