package chat

// StreamEventKind discriminates the items of a chat stream.
type StreamEventKind int

const (
	// StreamStart is emitted once when the vendor opens the response.
	StreamStart StreamEventKind = iota
	// StreamChunk carries one text fragment, in vendor-received order.
	StreamChunk
	// StreamEnd is the terminal item of a successful stream and carries
	// whatever usage the vendor reported, often only on its last frame.
	StreamEnd
)

func (k StreamEventKind) String() string {
	switch k {
	case StreamStart:
		return "start"
	case StreamChunk:
		return "chunk"
	case StreamEnd:
		return "end"
	default:
		return "unknown"
	}
}

// StreamEvent is one item of a normalized chat stream, independent of the
// vendor's framing. A non-nil Err is terminal: the channel closes after it
// and the underlying connection is released.
type StreamEvent struct {
	Kind    StreamEventKind
	Content string
	Usage   *MetaUsage
	Err     error
}

// ChatStreamResponse wraps the normalized event sequence of one streaming
// chat call. Events is forward-only and non-restartable; it closes when
// the vendor signals completion, on a terminal error, or when the caller
// cancels the request context. Each vendor streamer feeds it from its own
// goroutine, which owns and releases the transport resource.
type ChatStreamResponse struct {
	Events <-chan StreamEvent
}
