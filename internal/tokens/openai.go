package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/omnillm/unichat/internal/chat"
)

// OpenAICounter counts tokens for OpenAI models using tiktoken.
type OpenAICounter struct {
	matcher *ModelMatcher

	codecCache map[tokenizer.Encoding]tokenizer.Codec
	cacheMu    sync.RWMutex
}

// NewOpenAICounter creates a tiktoken-backed counter for OpenAI models.
func NewOpenAICounter() *OpenAICounter {
	return &OpenAICounter{
		matcher: NewModelMatcher(
			[]string{"gpt-", "o1", "o3", "o4", "chatgpt-"},
			nil,
		),
		codecCache: make(map[tokenizer.Encoding]tokenizer.Codec),
	}
}

// SupportsModel returns true for OpenAI models.
func (c *OpenAICounter) SupportsModel(model string) bool {
	return c.matcher.Matches(model)
}

func (c *OpenAICounter) getCodec(model string) (tokenizer.Codec, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err == nil {
		return codec, nil
	}

	encoding := modelToEncoding(model)

	c.cacheMu.RLock()
	if cached, ok := c.codecCache[encoding]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	codec, err = tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("get tokenizer encoding: %w", err)
	}

	c.cacheMu.Lock()
	c.codecCache[encoding] = codec
	c.cacheMu.Unlock()

	return codec, nil
}

func modelToEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"),
		strings.HasPrefix(model, "o4"),
		strings.HasPrefix(model, "chatgpt-"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"),
		strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}

// CountRequest counts tokens using tiktoken, including the per-message
// framing overhead OpenAI documents for chat models.
func (c *OpenAICounter) CountRequest(model string, req *chat.ChatRequest) (Count, error) {
	codec, err := c.getCodec(model)
	if err != nil {
		return Count{}, err
	}

	const (
		tokensPerMessage = 3
		tokensPerRole    = 1
	)

	total := 0
	for _, msg := range req.Messages {
		total += tokensPerMessage + tokensPerRole
		ids, _, err := codec.Encode(messageText(msg))
		if err != nil {
			return Count{}, fmt.Errorf("encode message: %w", err)
		}
		total += len(ids)
	}

	for _, tool := range req.Tools {
		ids, _, err := codec.Encode(string(tool))
		if err != nil {
			return Count{}, fmt.Errorf("encode tool schema: %w", err)
		}
		total += len(ids) + 7
	}

	total += 3 // assistant priming

	return Count{InputTokens: total}, nil
}
