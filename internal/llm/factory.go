package llm

import (
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/config"
	"github.com/nextlevelbuilder/goclaw/internal/providers"
)

// providerBaseURLs holds the handful of OpenAI-compatible providers whose
// default base URL differs from OpenAI's; providers not listed here get
// NewOpenAIProvider's fallback of https://api.openai.com/v1.
var providerBaseURLs = map[string]string{
	"openrouter": "https://openrouter.ai/api/v1",
	"groq":       "https://api.groq.com/openai/v1",
	"deepseek":   "https://api.deepseek.com/v1",
	"mistral":    "https://api.mistral.ai/v1",
	"xai":        "https://api.x.ai/v1",
}

// BuildProvider selects and constructs the Provider named in cfg.LLM.Provider
// from cfg.Providers, or nil if that provider has no API key configured.
func BuildProvider(cfg *config.Config) providers.Provider {
	name := cfg.LLM.Provider
	switch name {
	case "anthropic":
		if cfg.Providers.Anthropic.APIKey == "" {
			return nil
		}
		opts := []providers.AnthropicOption{providers.WithAnthropicModel(cfg.LLM.Model)}
		if cfg.Providers.Anthropic.APIBase != "" {
			opts = append(opts, providers.WithAnthropicBaseURL(cfg.Providers.Anthropic.APIBase))
		}
		return providers.NewAnthropicProvider(cfg.Providers.Anthropic.APIKey, opts...)
	case "openai":
		if cfg.Providers.OpenAI.APIKey == "" {
			return nil
		}
		return providers.NewOpenAIProvider("openai", cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.APIBase, cfg.LLM.Model)
	case "openrouter", "groq", "deepseek", "mistral", "xai":
		pc := providerConfigFor(cfg, name)
		if pc.APIKey == "" {
			return nil
		}
		base := pc.APIBase
		if base == "" {
			base = providerBaseURLs[name]
		}
		return providers.NewOpenAIProvider(name, pc.APIKey, base, cfg.LLM.Model)
	default:
		return nil
	}
}

func providerConfigFor(cfg *config.Config, name string) config.ProviderConfig {
	switch name {
	case "openrouter":
		return cfg.Providers.OpenRouter
	case "groq":
		return cfg.Providers.Groq
	case "deepseek":
		return cfg.Providers.DeepSeek
	case "mistral":
		return cfg.Providers.Mistral
	case "xai":
		return cfg.Providers.XAI
	default:
		return config.ProviderConfig{}
	}
}

// BuildClient wires a Client from cfg, wrapping BuildProvider's result in
// a fresh circuit breaker. Returns a disabled Client (Enabled()==false)
// if the configured provider has no API key, so callers can treat the
// zero case uniformly instead of branching on nil.
func BuildClient(cfg *config.Config) *Client {
	provider := BuildProvider(cfg)
	breaker := NewCircuitBreaker(
		cfg.LLM.CircuitBreakerFailureThresh,
		time.Duration(cfg.LLM.CircuitBreakerTimeoutSecs*float64(time.Second)),
	)
	timeout := time.Duration(cfg.LLM.TimeoutSeconds * float64(time.Second))
	enabled := cfg.LLM.Enabled && provider != nil
	return New(provider, cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature, timeout, breaker, enabled)
}
