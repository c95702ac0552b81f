// Package agents implements the five domain agents the orchestrator
// dispatches actions to: cart, product, order, support, and memory.
// Each agent owns one slice of the store and knows nothing about
// intent classification or planning — it only executes named actions.
package agents

import (
	"context"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

// Agent executes one AgentAction against its backing store and returns
// a shopper-facing result. Implementations must be safe for concurrent
// use; the store they wrap already serializes its own state.
type Agent interface {
	Name() string
	Execute(ctx context.Context, action commerce.AgentAction, actx commerce.AgentContext) (commerce.AgentExecutionResult, error)
}

func clampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	if q > 50 {
		return 50
	}
	return q
}

func paramString(params map[string]interface{}, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func paramInt(params map[string]interface{}, key string, fallback int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return fallback
}

func paramFloat(params map[string]interface{}, key string, fallback float64) float64 {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}
