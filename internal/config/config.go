// Package config loads and holds the gateway's runtime configuration: a
// JSON5 file layered with environment-variable secret overrides.
package config

import (
	"encoding/json"
	"fmt"
	"sync"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Config is the root configuration for the commerce gateway.
type Config struct {
	Providers    ProvidersConfig    `json:"providers"`
	Gateway      GatewayConfig      `json:"gateway"`
	Sessions     SessionsConfig     `json:"sessions"`
	Database     DatabaseConfig     `json:"database,omitempty"`
	Telemetry    TelemetryConfig    `json:"telemetry,omitempty"`
	LLM          LLMConfig          `json:"llm"`
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Voice        VoiceConfig        `json:"voice"`
	SuperU       SuperUConfig       `json:"superu"`
	RateLimit    RateLimitConfig    `json:"rateLimit"`
	mu           sync.RWMutex
}

// DatabaseConfig configures Postgres for the repository layer.
// PostgresDSN is NEVER read from config.json (secret) — only from env.
type DatabaseConfig struct {
	PostgresDSN string `json:"-"`
	Mode        string `json:"mode,omitempty"` // "memory" (default) or "postgres"
}

// TelemetryConfig configures OpenTelemetry export for traces and spans.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`
	Protocol    string            `json:"protocol,omitempty"` // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`
	ServiceName string            `json:"service_name,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// LLMConfig controls the intent classifier / action planner LLM calls.
type LLMConfig struct {
	Enabled                     bool    `json:"enabled"`
	Provider                    string  `json:"provider"` // key into ProvidersConfig
	Model                       string  `json:"model"`
	TimeoutSeconds              float64 `json:"timeoutSeconds"`
	MaxTokens                   int     `json:"maxTokens"`
	Temperature                 float64 `json:"temperature"`
	CircuitBreakerFailureThresh int     `json:"circuitBreakerFailureThreshold"`
	CircuitBreakerTimeoutSecs   float64 `json:"circuitBreakerTimeoutSeconds"`
	IntentClassifierEnabled     bool    `json:"intentClassifierEnabled"`
	PlannerEnabled              bool    `json:"plannerEnabled"`
	DecisionPolicy              string  `json:"decisionPolicy"` // "planner_first" | "classifier_first"
	PlannerFeatureEnabled       bool    `json:"plannerFeatureEnabled"`
	PlannerCanaryPercent        int     `json:"plannerCanaryPercent"`
	PlannerMaxActions           int     `json:"plannerMaxActions"`
	PlannerMinConfidence        float64 `json:"plannerMinConfidence"`
	PlannerExecutionMode        string  `json:"plannerExecutionMode"` // "partial" | "atomic"
}

// OrchestratorConfig bounds the core loop's per-request behavior.
type OrchestratorConfig struct {
	MaxActionsPerRequest int `json:"maxActionsPerRequest"`
	MemoryWriteQueueSize int `json:"memoryWriteQueueSize"`
}

// VoiceConfig is the singleton voice-recovery control-loop configuration.
type VoiceConfig struct {
	SchedulerEnabled           bool    `json:"schedulerEnabled"`
	GlobalKillSwitch           bool    `json:"globalKillSwitch"`
	ScanIntervalSeconds        float64 `json:"scanIntervalSeconds"`
	AbandonmentMinutes         int     `json:"abandonmentMinutes"`
	MaxAttemptsPerCart         int     `json:"maxAttemptsPerCart"`
	MaxCallsPerUserPerDay      int     `json:"maxCallsPerUserPerDay"`
	MaxCallsPerDay             int     `json:"maxCallsPerDay"`
	DailyBudgetUSD             float64 `json:"dailyBudgetUsd"`
	EstimatedCostPerCallUSD    float64 `json:"estimatedCostPerCallUsd"`
	QuietHoursStart            int     `json:"quietHoursStart"`
	QuietHoursEnd              int     `json:"quietHoursEnd"`
	RetryBackoffSecondsCSV     string  `json:"retryBackoffSecondsCsv"`
	ScriptVersion              string  `json:"scriptVersion"`
	ScriptTemplate             string  `json:"scriptTemplate"`
	DefaultTimezone            string  `json:"defaultTimezone"`
	AlertBacklogThreshold      int     `json:"alertBacklogThreshold"`
	AlertFailureRatioThreshold float64 `json:"alertFailureRatioThreshold"`
}

// SuperUConfig is the outbound voice-call provider configuration.
type SuperUConfig struct {
	Enabled              bool   `json:"enabled"`
	APIURL               string `json:"apiUrl"`
	APIKey               string `json:"-"`
	AssistantID          string `json:"assistantId"`
	FromPhoneNumber      string `json:"fromPhoneNumber"`
	WebhookSecret        string `json:"-"`
	WebhookToleranceSecs int    `json:"webhookToleranceSeconds"`
}

// RateLimitConfig bounds the fixed-window API rate limiter.
type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	WindowSeconds     int  `json:"windowSeconds"`
	MaxRequests       int  `json:"maxRequests"`
	VoiceWindowSeconds int `json:"voiceWindowSeconds"`
	VoiceMaxRequests  int  `json:"voiceMaxRequests"`
}

// HasAnyProvider, ReplaceFrom are defined in config_channels.go / below.

// ReplaceFrom copies all data fields from src into c, preserving c's mutex.
func (c *Config) ReplaceFrom(src *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Providers = src.Providers
	c.Gateway = src.Gateway
	c.Sessions = src.Sessions
	c.Database = src.Database
	c.Telemetry = src.Telemetry
	c.LLM = src.LLM
	c.Orchestrator = src.Orchestrator
	c.Voice = src.Voice
	c.SuperU = src.SuperU
	c.RateLimit = src.RateLimit
}

// RetryBackoffSeconds parses VoiceConfig.RetryBackoffSecondsCSV tolerantly,
// skipping non-numeric entries rather than failing config load.
func (v VoiceConfig) RetryBackoffSeconds() []int {
	return parseIntCSV(v.RetryBackoffSecondsCSV, []int{60, 300, 900})
}
