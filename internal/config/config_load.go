package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host:            "0.0.0.0",
			Port:            18080,
			MaxMessageChars: 4000,
			RateLimitRPM:    30,
		},
		Sessions: SessionsConfig{
			HistoryLimit: 20,
			TTLMinutes:   720,
		},
		LLM: LLMConfig{
			Enabled:                     true,
			Provider:                    "openai",
			Model:                       "gpt-4o-mini",
			TimeoutSeconds:              8.0,
			MaxTokens:                   200,
			Temperature:                 0.0,
			CircuitBreakerFailureThresh: 5,
			CircuitBreakerTimeoutSecs:   60.0,
			IntentClassifierEnabled:     true,
			PlannerEnabled:              true,
			DecisionPolicy:              "planner_first",
			PlannerFeatureEnabled:       true,
			PlannerCanaryPercent:        100,
			PlannerMaxActions:           5,
			PlannerMinConfidence:        0.55,
			PlannerExecutionMode:        "partial",
		},
		Orchestrator: OrchestratorConfig{
			MaxActionsPerRequest: 5,
			MemoryWriteQueueSize: 256,
		},
		Voice: VoiceConfig{
			SchedulerEnabled:           true,
			ScanIntervalSeconds:        30.0,
			AbandonmentMinutes:         30,
			MaxAttemptsPerCart:         3,
			MaxCallsPerUserPerDay:      2,
			MaxCallsPerDay:             300,
			DailyBudgetUSD:             300.0,
			EstimatedCostPerCallUSD:    0.7,
			QuietHoursStart:            21,
			QuietHoursEnd:              8,
			RetryBackoffSecondsCSV:     "60,300,900",
			ScriptVersion:              "v1",
			ScriptTemplate:             "Hi {{.Name}}, you left {{.ItemCount}} item(s) worth ${{.CartTotal}} in your cart. Want help finishing checkout?",
			DefaultTimezone:            "UTC",
			AlertBacklogThreshold:      50,
			AlertFailureRatioThreshold: 0.35,
		},
		SuperU: SuperUConfig{
			APIURL:               "https://api.superu.ai",
			WebhookToleranceSecs: 300,
		},
		RateLimit: RateLimitConfig{
			Enabled:            true,
			WindowSeconds:      60,
			MaxRequests:        30,
			VoiceWindowSeconds: 86400,
			VoiceMaxRequests:   2,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			cfg.applyBounds()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyBounds()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config. Env vars take
// precedence over file values; secrets never round-trip through JSON.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("GOCLAW_ANTHROPIC_API_KEY", &c.Providers.Anthropic.APIKey)
	envStr("GOCLAW_OPENAI_API_KEY", &c.Providers.OpenAI.APIKey)
	envStr("GOCLAW_OPENROUTER_API_KEY", &c.Providers.OpenRouter.APIKey)
	envStr("GOCLAW_GROQ_API_KEY", &c.Providers.Groq.APIKey)
	envStr("GOCLAW_DEEPSEEK_API_KEY", &c.Providers.DeepSeek.APIKey)
	envStr("GOCLAW_GEMINI_API_KEY", &c.Providers.Gemini.APIKey)
	envStr("GOCLAW_MISTRAL_API_KEY", &c.Providers.Mistral.APIKey)
	envStr("GOCLAW_XAI_API_KEY", &c.Providers.XAI.APIKey)
	envStr("GOCLAW_GATEWAY_TOKEN", &c.Gateway.Token)

	envStr("GOCLAW_HOST", &c.Gateway.Host)
	if v := os.Getenv("GOCLAW_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Gateway.Port = port
		}
	}

	envStr("GOCLAW_POSTGRES_DSN", &c.Database.PostgresDSN)
	envStr("GOCLAW_DB_MODE", &c.Database.Mode)

	envStr("GOCLAW_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("GOCLAW_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("GOCLAW_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	if v := os.Getenv("GOCLAW_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("GOCLAW_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = v == "true" || v == "1"
	}

	envStr("GOCLAW_LLM_PROVIDER", &c.LLM.Provider)
	envStr("GOCLAW_LLM_MODEL", &c.LLM.Model)
	if v := os.Getenv("GOCLAW_LLM_ENABLED"); v != "" {
		c.LLM.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("GOCLAW_PLANNER_CANARY_PERCENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LLM.PlannerCanaryPercent = n
		}
	}
	if v := os.Getenv("GOCLAW_DECISION_POLICY"); v != "" {
		c.LLM.DecisionPolicy = v
	}

	envStr("GOCLAW_SUPERU_API_KEY", &c.SuperU.APIKey)
	envStr("GOCLAW_SUPERU_WEBHOOK_SECRET", &c.SuperU.WebhookSecret)
	envStr("GOCLAW_SUPERU_ASSISTANT_ID", &c.SuperU.AssistantID)
	envStr("GOCLAW_SUPERU_FROM_NUMBER", &c.SuperU.FromPhoneNumber)
	if v := os.Getenv("GOCLAW_SUPERU_ENABLED"); v != "" {
		c.SuperU.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("GOCLAW_VOICE_KILL_SWITCH"); v != "" {
		c.Voice.GlobalKillSwitch = v == "true" || v == "1"
	}
	if v := os.Getenv("GOCLAW_VOICE_SCHEDULER_ENABLED"); v != "" {
		c.Voice.SchedulerEnabled = v == "true" || v == "1"
	}
}

// applyBounds clamps fields that downstream arithmetic divides or indexes
// by, so a bad config file or env var cannot produce a panic at runtime.
func (c *Config) applyBounds() {
	c.LLM.PlannerCanaryPercent = clampInt(c.LLM.PlannerCanaryPercent, 0, 100)
	c.LLM.PlannerMaxActions = clampInt(c.LLM.PlannerMaxActions, 1, 10)
	c.Orchestrator.MaxActionsPerRequest = clampInt(c.Orchestrator.MaxActionsPerRequest, 1, 10)
	c.LLM.PlannerMinConfidence = clampFloat(c.LLM.PlannerMinConfidence, 0, 1)
	if c.Voice.QuietHoursStart < 0 || c.Voice.QuietHoursStart > 23 {
		c.Voice.QuietHoursStart = 21
	}
	if c.Voice.QuietHoursEnd < 0 || c.Voice.QuietHoursEnd > 23 {
		c.Voice.QuietHoursEnd = 8
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func parseIntCSV(csv string, fallback []int) []int {
	var out []int
	for _, raw := range strings.Split(csv, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Save writes the config to a JSON file.
func Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Hash returns a SHA-256 hash of the config for optimistic concurrency.
func (c *Config) Hash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, _ := json.Marshal(c)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:8])
}

// ApplyEnvOverrides re-applies environment variable overrides onto the
// config. Call this after modifying config to restore runtime secrets.
func (c *Config) ApplyEnvOverrides() {
	c.applyEnvOverrides()
	c.applyBounds()
}
