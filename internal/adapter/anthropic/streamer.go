package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/omnillm/unichat/internal/adapter"
	"github.com/omnillm/unichat/internal/chat"
	"github.com/omnillm/unichat/internal/webc"
)

// Anthropic streams named SSE events. Text arrives via
// content_block_delta, input tokens on message_start, output tokens on
// message_delta, and message_stop is the completion signal.
type messageStartEvent struct {
	Message struct {
		Usage *wireUsage `json:"usage"`
	} `json:"message"`
}

type contentBlockDeltaEvent struct {
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

type messageDeltaEvent struct {
	Usage *wireUsage `json:"usage"`
}

// NewStream executes the streaming request and normalizes the event
// frames.
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

	shapeErr := func(name string, err error) {
		send(chat.StreamEvent{Err: &adapter.ShapeError{
			Model:  model,
			Detail: fmt.Sprintf("invalid %s event: %v", name, err),
		}})
	}

	if !send(chat.StreamEvent{Kind: chat.StreamStart}) {
		return
	}

	var inputTokens, outputTokens *int

	for frame := range sse.Events {
		if frame.Err != nil {
			send(chat.StreamEvent{Err: frame.Err})
			return
		}

		switch frame.Name {
		case "message_start":
			var ev messageStartEvent
			if err := json.Unmarshal(frame.Data, &ev); err != nil {
				shapeErr(frame.Name, err)
				return
			}
			if ev.Message.Usage != nil {
				inputTokens = ev.Message.Usage.InputTokens
			}

		case "content_block_delta":
			var ev contentBlockDeltaEvent
			if err := json.Unmarshal(frame.Data, &ev); err != nil {
				shapeErr(frame.Name, err)
				return
			}
			if ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				if !send(chat.StreamEvent{Kind: chat.StreamChunk, Content: ev.Delta.Text}) {
					return
				}
			}

		case "message_delta":
			var ev messageDeltaEvent
			if err := json.Unmarshal(frame.Data, &ev); err != nil {
				shapeErr(frame.Name, err)
				return
			}
			if ev.Usage != nil && ev.Usage.OutputTokens != nil {
				outputTokens = ev.Usage.OutputTokens
			}

		case "message_stop":
			var usage *chat.MetaUsage
			if inputTokens != nil || outputTokens != nil {
				u := chat.NewUsage(inputTokens, outputTokens)
				usage = &u
			}
			send(chat.StreamEvent{Kind: chat.StreamEnd, Usage: usage})
			return

		case "error":
			send(chat.StreamEvent{Err: &adapter.VendorError{Model: model, Body: frame.Data}})
			return

		case "ping", "content_block_start", "content_block_stop":
			// Framing noise.
		}
	}

	send(chat.StreamEvent{Kind: chat.StreamEnd})
}
