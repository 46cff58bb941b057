package webc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// SSEEvent is one Server-Sent-Events frame: the optional event name and
// the data line. A non-nil Err is terminal and the channel closes after it.
type SSEEvent struct {
	Name string
	Data []byte
	Err  error
}

// SSEStream delivers raw SSE frames in arrival order. The feeding
// goroutine owns the HTTP body and closes it when the stream ends, errors,
// or the context is canceled.
type SSEStream struct {
	Events <-chan SSEEvent
}

// StreamSSE executes the request and reads the response as Server-Sent
// Events. On a non-2xx status no stream is opened and the drained Response
// is returned instead.
func (c *Client) StreamSSE(ctx context.Context, req *Request) (*SSEStream, *Response, error) {
	body, errResp, err := c.open(ctx, req)
	if err != nil || errResp != nil {
		return nil, errResp, err
	}

	out := make(chan SSEEvent)
	go c.readSSE(ctx, body, out)
	return &SSEStream{Events: out}, nil, nil
}

func (c *Client) readSSE(ctx context.Context, body io.ReadCloser, out chan<- SSEEvent) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	// Chunks can be large; grow the scanner buffer up front.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var currentEvent string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			continue
		}

		if name, ok := strings.CutPrefix(line, "event: "); ok {
			currentEvent = name
			continue
		}

		if data, ok := strings.CutPrefix(line, "data: "); ok {
			select {
			case out <- SSEEvent{Name: currentEvent, Data: []byte(data)}:
			case <-ctx.Done():
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case out <- SSEEvent{Err: fmt.Errorf("stream read error: %w", err)}:
		case <-ctx.Done():
		}
	}
}

// JSONElement is one element of an incrementally delivered JSON array. A
// non-nil Err is terminal and the channel closes after it.
type JSONElement struct {
	Data json.RawMessage
	Err  error
}

// JSONArrayStream delivers the elements of a JSON array as they arrive,
// for vendors that stream a pretty-printed array instead of SSE frames.
type JSONArrayStream struct {
	Elements <-chan JSONElement
}

// StreamJSONArray executes the request and incrementally decodes the
// response body as one top-level JSON array. On a non-2xx status no stream
// is opened and the drained Response is returned instead.
func (c *Client) StreamJSONArray(ctx context.Context, req *Request) (*JSONArrayStream, *Response, error) {
	body, errResp, err := c.open(ctx, req)
	if err != nil || errResp != nil {
		return nil, errResp, err
	}

	out := make(chan JSONElement)
	go c.readJSONArray(ctx, body, out)
	return &JSONArrayStream{Elements: out}, nil, nil
}

func (c *Client) readJSONArray(ctx context.Context, body io.ReadCloser, out chan<- JSONElement) {
	defer close(out)
	defer body.Close()

	send := func(elem JSONElement) bool {
		select {
		case out <- elem:
			return true
		case <-ctx.Done():
			return false
		}
	}

	dec := json.NewDecoder(body)

	tok, err := dec.Token()
	if err != nil {
		send(JSONElement{Err: fmt.Errorf("stream read error: %w", err)})
		return
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		send(JSONElement{Err: fmt.Errorf("expected JSON array, got token %v", tok)})
		return
	}

	for dec.More() {
		var elem json.RawMessage
		if err := dec.Decode(&elem); err != nil {
			send(JSONElement{Err: fmt.Errorf("failed to decode array element: %w", err)})
			return
		}
		if !send(JSONElement{Data: elem}) {
			return
		}
	}

	// Consume the closing bracket; a truncated body surfaces here.
	if _, err := dec.Token(); err != nil && err != io.EOF {
		send(JSONElement{Err: fmt.Errorf("stream read error: %w", err)})
	}
}
