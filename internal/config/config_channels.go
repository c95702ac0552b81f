package config

// ProvidersConfig maps LLM provider name to its config. The intent
// classifier and action planner pick one as their active provider;
// the others are kept configured so an operator can switch providers
// without a restart-time code change.
type ProvidersConfig struct {
	Anthropic  ProviderConfig `json:"anthropic"`
	OpenAI     ProviderConfig `json:"openai"`
	OpenRouter ProviderConfig `json:"openrouter"`
	Groq       ProviderConfig `json:"groq"`
	Gemini     ProviderConfig `json:"gemini"`
	DeepSeek   ProviderConfig `json:"deepseek"`
	Mistral    ProviderConfig `json:"mistral"`
	XAI        ProviderConfig `json:"xai"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	APIBase string `json:"api_base,omitempty"`
}

// HasAnyProvider returns true if at least one LLM provider has an API key configured.
func (c *Config) HasAnyProvider() bool {
	p := c.Providers
	return p.Anthropic.APIKey != "" ||
		p.OpenAI.APIKey != "" ||
		p.OpenRouter.APIKey != "" ||
		p.Groq.APIKey != "" ||
		p.Gemini.APIKey != "" ||
		p.DeepSeek.APIKey != "" ||
		p.Mistral.APIKey != "" ||
		p.XAI.APIKey != ""
}

// GatewayConfig controls the HTTP API the channel adapters (web widget,
// WhatsApp Business webhook, voice provider webhooks) call into.
type GatewayConfig struct {
	Host              string   `json:"host"`
	Port              int      `json:"port"`
	Token             string   `json:"token,omitempty"`              // bearer token for the admin API
	AllowedOrigins    []string `json:"allowed_origins,omitempty"`    // CORS whitelist (empty = allow all)
	MaxMessageChars   int      `json:"max_message_chars,omitempty"`  // max inbound message characters (default 4000)
	RateLimitRPM      int      `json:"rate_limit_rpm,omitempty"`     // requests per minute per session (default 30, 0 = disabled)
	InboundDebounceMs int      `json:"inbound_debounce_ms,omitempty"` // merge rapid duplicate sends from the same session (-1 = disabled); Default() leaves it 0 and no code in this module reads it
}

// SessionsConfig controls where conversation session state lives.
type SessionsConfig struct {
	HistoryLimit int `json:"history_limit,omitempty"` // recent turns kept in memory per session (default 20)
	TTLMinutes   int `json:"ttl_minutes,omitempty"`    // idle session eviction (default 720 = 12h)
}
