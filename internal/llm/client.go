// Package llm wraps an LLM provider with the circuit breaker, prompts,
// and JSON-parsing tolerance the intent classifier and action planner
// need, independent of which backend is configured.
package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/providers"
)

const (
	maxMessageChars  = 2000
	maxRecentTurns   = 6
	maxRecentChars   = 200
)

// jsonObjectRe recovers a JSON object embedded in extra prose, mirroring
// the Python client's regex fallback when the model wraps its JSON in
// commentary or markdown fences.
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Client drives intent classification and action planning through a
// Provider, guarded by a circuit breaker so a failing LLM backend falls
// back to the deterministic rule engine instead of blocking requests.
type Client struct {
	provider    providers.Provider
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	breaker     *CircuitBreaker
	enabled     bool
}

// New builds a Client. enabled should reflect both the config flag and
// the presence of a usable API key for the chosen provider; Client does
// not read config itself so it stays agnostic of the config package.
func New(provider providers.Provider, model string, maxTokens int, temperature float64, timeout time.Duration, breaker *CircuitBreaker, enabled bool) *Client {
	return &Client{
		provider:    provider,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		breaker:     breaker,
		enabled:     enabled,
	}
}

// Enabled reports whether this client should be consulted at all.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.provider != nil
}

type intentPrediction struct {
	Intent     string                 `json:"intent"`
	Confidence float64                `json:"confidence"`
	Entities   map[string]interface{} `json:"entities"`
}

// ClassifyIntent satisfies intent.LLMClassifier. It never returns an
// error for a malformed model response — it returns a low-confidence
// general_question instead, so the rule engine's result always wins a
// parse failure rather than the orchestrator erroring out.
func (c *Client) ClassifyIntent(ctx context.Context, message string, recent []commerce.RecentTurn) (*commerce.IntentResult, error) {
	if !c.Enabled() {
		return nil, ErrCircuitOpen
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userPayload := buildClassificationPayload(message, recent)

	raw, err := c.breaker.Call(func() (string, error) {
		resp, err := c.provider.Chat(ctx, providers.ChatRequest{
			Model: c.model,
			Messages: []providers.Message{
				{Role: "system", Content: intentClassificationPrompt},
				{Role: "user", Content: userPayload},
			},
			Options: map[string]interface{}{
				providers.OptMaxTokens:   c.maxTokens,
				providers.OptTemperature: c.temperature,
			},
		})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	})
	if err != nil {
		return nil, err
	}

	var pred intentPrediction
	if !tryParseJSON(raw, &pred) {
		return &commerce.IntentResult{Name: "general_question", Confidence: 0, Entities: map[string]interface{}{}}, nil
	}
	if !supportedLLMIntents[pred.Intent] {
		pred.Intent = "general_question"
		pred.Confidence = 0
	}
	if pred.Entities == nil {
		pred.Entities = map[string]interface{}{}
	}
	return &commerce.IntentResult{
		Name:       pred.Intent,
		Confidence: commerce.ClampConfidence(pred.Confidence),
		Entities:   pred.Entities,
	}, nil
}

type planActionPrediction struct {
	Name        string                 `json:"name"`
	TargetAgent string                 `json:"targetAgent"`
	Params      map[string]interface{} `json:"params"`
}

type actionPlanPrediction struct {
	Actions               []planActionPrediction `json:"actions"`
	Confidence            float64                 `json:"confidence"`
	NeedsClarification    bool                    `json:"needsClarification"`
	ClarificationQuestion string                  `json:"clarificationQuestion"`
}

// PlanActions asks the LLM to turn message into an ordered action plan,
// restricted to allowedActions per target agent. Actions naming an
// unknown agent, or an action name outside that agent's allow-list, are
// dropped rather than failing the whole plan.
func (c *Client) PlanActions(ctx context.Context, message string, recent []commerce.RecentTurn, allowedActions map[string][]string) (*commerce.ActionPlan, error) {
	if !c.Enabled() {
		return nil, ErrCircuitOpen
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := buildPlanningPayload(message, recent, allowedActions)

	raw, err := c.breaker.Call(func() (string, error) {
		resp, err := c.provider.Chat(ctx, providers.ChatRequest{
			Model: c.model,
			Messages: []providers.Message{
				{Role: "system", Content: actionPlanningPrompt},
				{Role: "user", Content: payload},
			},
			Options: map[string]interface{}{
				providers.OptMaxTokens:   c.maxTokens,
				providers.OptTemperature: c.temperature,
			},
		})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	})
	if err != nil {
		return nil, err
	}

	var pred actionPlanPrediction
	if !tryParseJSON(raw, &pred) {
		return &commerce.ActionPlan{NeedsClarification: false, Confidence: 0}, nil
	}

	plan := &commerce.ActionPlan{
		Confidence:            commerce.ClampConfidence(pred.Confidence),
		NeedsClarification:    pred.NeedsClarification,
		ClarificationQuestion: pred.ClarificationQuestion,
	}
	for _, a := range pred.Actions {
		allowed, ok := allowedActions[a.TargetAgent]
		if !ok || !containsStr(allowed, a.Name) {
			continue
		}
		params := a.Params
		if params == nil {
			params = map[string]interface{}{}
		}
		plan.Actions = append(plan.Actions, commerce.PlanAction{
			Name:        a.Name,
			TargetAgent: a.TargetAgent,
			Params:      params,
		})
	}
	return plan, nil
}

// GetState exposes the circuit breaker's state for health/metrics endpoints.
func (c *Client) GetState() string {
	if c == nil || c.breaker == nil {
		return string(StateClosed)
	}
	return c.breaker.GetState()
}

// GetMetrics exposes the circuit breaker's counters for health/metrics endpoints.
func (c *Client) GetMetrics() map[string]interface{} {
	if c == nil || c.breaker == nil {
		return map[string]interface{}{}
	}
	return c.breaker.GetMetrics()
}

func buildClassificationPayload(message string, recent []commerce.RecentTurn) string {
	payload := map[string]interface{}{
		"message": truncate(message, maxMessageChars),
		"recent":  recentTurnsJSON(recent),
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func buildPlanningPayload(message string, recent []commerce.RecentTurn, allowedActions map[string][]string) string {
	payload := map[string]interface{}{
		"message":        truncate(message, maxMessageChars),
		"recent":         recentTurnsJSON(recent),
		"allowedActions": allowedActions,
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func recentTurnsJSON(recent []commerce.RecentTurn) []map[string]string {
	start := 0
	if len(recent) > maxRecentTurns {
		start = len(recent) - maxRecentTurns
	}
	out := make([]map[string]string, 0, len(recent)-start)
	for _, t := range recent[start:] {
		out = append(out, map[string]string{
			"intent":  t.Intent,
			"agent":   t.Agent,
			"message": truncate(t.Message, maxRecentChars),
		})
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// tryParseJSON attempts a direct unmarshal, falling back to extracting
// the first {...} block from surrounding prose before giving up.
func tryParseJSON(raw string, dst interface{}) bool {
	raw = strings.TrimSpace(raw)
	if json.Unmarshal([]byte(raw), dst) == nil {
		return true
	}
	if m := jsonObjectRe.FindString(raw); m != "" {
		if json.Unmarshal([]byte(m), dst) == nil {
			return true
		}
	}
	return false
}
