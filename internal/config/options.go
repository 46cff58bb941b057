package config

import (
	"strings"

	"github.com/omnillm/unichat/internal/adapter"
	"github.com/omnillm/unichat/pkg/unichat"
)

// ClientOptions translates loaded configuration into client options,
// emitting one vendor override per vendor with anything set.
func (c *Config) ClientOptions() []unichat.Option {
	vendors := []struct {
		kind adapter.Kind
		cfg  VendorConfig
	}{
		{adapter.KindOpenAI, c.Vendors.OpenAI},
		{adapter.KindOllama, c.Vendors.Ollama},
		{adapter.KindGroq, c.Vendors.Groq},
		{adapter.KindAnthropic, c.Vendors.Anthropic},
		{adapter.KindGemini, c.Vendors.Gemini},
	}

	var opts []unichat.Option
	for _, v := range vendors {
		if v.cfg.APIKey == "" && v.cfg.BaseURL == "" {
			continue
		}
		opts = append(opts, unichat.WithVendorConfig(v.kind, unichat.Config{
			APIKey:  v.cfg.APIKey,
			BaseURL: v.cfg.BaseURL,
		}))
	}
	return opts
}

// KindForModel resolves the vendor kind for a bare model name: explicit
// routing rules first, then well-known prefixes, then the configured
// default.
func (c *Config) KindForModel(model string) (adapter.Kind, error) {
	for _, rule := range c.Routing.Rules {
		if rule.ModelPrefix != "" && strings.HasPrefix(model, rule.ModelPrefix) {
			return adapter.ParseKind(rule.Vendor)
		}
	}

	switch {
	case strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3"):
		return adapter.KindOpenAI, nil
	case strings.HasPrefix(model, "claude-"):
		return adapter.KindAnthropic, nil
	case strings.HasPrefix(model, "gemini-"):
		return adapter.KindGemini, nil
	case strings.HasPrefix(model, "llama-") || strings.HasPrefix(model, "mixtral-") || strings.HasPrefix(model, "gemma2-"):
		return adapter.KindGroq, nil
	}

	return adapter.ParseKind(c.Routing.DefaultVendor)
}
