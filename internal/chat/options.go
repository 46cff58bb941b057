package chat

// Options are the per-call chat parameters surfaced uniformly across
// vendors. Each translator maps only the subset its vendor accepts and
// silently omits the rest. Nil pointer fields mean "vendor default".
type Options struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	// JSONMode asks the vendor to constrain output to a JSON object, where
	// supported (OpenAI-family response_format).
	JSONMode bool

	// CaptureUsage asks streaming vendors that gate usage reporting behind
	// a flag (OpenAI-family stream_options) to include token counts.
	CaptureUsage bool
}

// Float returns a pointer to v, for optional option fields.
func Float(v float64) *float64 { return &v }
