// Package adapter defines the contract every vendor integration satisfies
// and the registry that dispatches a vendor kind to its implementation.
package adapter

import (
	"context"
	"fmt"
	"os"

	"github.com/omnillm/unichat/internal/chat"
	"github.com/omnillm/unichat/internal/webc"
)

// Kind tags a vendor family. Groq and Ollama speak the OpenAI wire format
// and share its translator with their own endpoints and credentials.
type Kind int

const (
	KindOpenAI Kind = iota
	KindOllama
	KindGroq
	KindAnthropic
	KindGemini
)

func (k Kind) String() string {
	switch k {
	case KindOpenAI:
		return "openai"
	case KindOllama:
		return "ollama"
	case KindGroq:
		return "groq"
	case KindAnthropic:
		return "anthropic"
	case KindGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// ParseKind resolves a vendor-kind tag from its name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "openai":
		return KindOpenAI, nil
	case "ollama":
		return KindOllama, nil
	case "groq":
		return KindGroq, nil
	case "anthropic":
		return KindAnthropic, nil
	case "gemini":
		return KindGemini, nil
	default:
		return 0, fmt.Errorf("unknown adapter kind %q", s)
	}
}

// ServiceType selects between the plain and streaming chat services.
type ServiceType int

const (
	ServiceChat ServiceType = iota
	ServiceChatStream
)

// ModelRef identifies one model at one vendor.
type ModelRef struct {
	Kind Kind
	Name string
}

func (m ModelRef) String() string {
	return m.Kind.String() + "/" + m.Name
}

// Config holds the per-vendor settings a translator needs. Adapters expose
// a default via DefaultConfig; callers override fields per process, never
// per call.
type Config struct {
	// AuthEnvName is the environment variable consulted for the credential
	// when APIKey is empty. An empty name means the vendor needs none.
	AuthEnvName string
	// APIKey, when set, takes precedence over the environment.
	APIKey string
	// BaseURL overrides the vendor's default endpoint base.
	BaseURL string
}

// ResolveAPIKey returns the credential for a vendor: the explicit key if
// set, otherwise the configured environment variable. A vendor with no
// AuthEnvName needs no credential and resolves to the empty string.
func (c Config) ResolveAPIKey(kind Kind) (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	if c.AuthEnvName == "" {
		return "", nil
	}
	if key := os.Getenv(c.AuthEnvName); key != "" {
		return key, nil
	}
	return "", &ConfigError{Kind: kind, EnvName: c.AuthEnvName}
}

// Adapter is the capability set a vendor integration provides: translate
// the conversation model to the vendor's wire format, parse completed
// bodies back, and normalize the vendor's stream framing.
type Adapter interface {
	// Kind returns the vendor kind this adapter serves.
	Kind() Kind

	// ModelNames enumerates known model identifiers for the vendor.
	ModelNames(ctx context.Context) ([]string, error)

	// DefaultConfig returns the vendor's default configuration, at minimum
	// the credential environment variable name.
	DefaultConfig() Config

	// ServiceURL computes the endpoint for a model and service type.
	ServiceURL(model ModelRef, cfg Config, svc ServiceType) string

	// BuildRequest translates a chat request into a transport descriptor.
	// It fails before any network activity when the credential is missing
	// or the conversation holds a role the vendor cannot express.
	BuildRequest(model ModelRef, cfg Config, svc ServiceType, req *chat.ChatRequest, opts *chat.Options) (*webc.Request, error)

	// ParseResponse interprets a completed (non-streaming) response body.
	ParseResponse(model ModelRef, resp *webc.Response) (*chat.ChatResponse, error)

	// NewStream executes a streaming request on client and wraps the raw
	// frames into the normalized event sequence.
	NewStream(ctx context.Context, client *webc.Client, model ModelRef, req *webc.Request, opts *chat.Options) (*chat.ChatStreamResponse, error)
}
