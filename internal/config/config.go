// Package config loads process configuration from the environment and an
// optional YAML file. Vendor credentials stay in their conventional
// environment variables (OPENAI_API_KEY and friends); everything here is
// overrides and service settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "UNICHAT_"

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Vendors VendorsConfig `koanf:"vendors"`
	Routing RoutingConfig `koanf:"routing"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

// VendorConfig overrides one vendor's defaults.
type VendorConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type VendorsConfig struct {
	OpenAI    VendorConfig `koanf:"openai"`
	Ollama    VendorConfig `koanf:"ollama"`
	Groq      VendorConfig `koanf:"groq"`
	Anthropic VendorConfig `koanf:"anthropic"`
	Gemini    VendorConfig `koanf:"gemini"`
}

// RoutingConfig maps model-name prefixes to vendor kinds for callers that
// select a vendor by model name alone (the gateway does).
type RoutingConfig struct {
	Rules         []RoutingRule `koanf:"rules"`
	DefaultVendor string        `koanf:"default_vendor"`
}

type RoutingRule struct {
	ModelPrefix string `koanf:"model_prefix"`
	Vendor      string `koanf:"vendor"`
}

// Load reads configuration from an optional YAML file and the UNICHAT_
// environment namespace; environment values win. Pass an empty path to
// skip the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("routing.default_vendor") {
		k.Set("routing.default_vendor", "openai")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
