// Package planner adapts the raw LLM action plan (internal/llm.Client.
// PlanActions) into one the orchestrator can execute safely: every
// action name and its parameters are checked against a fixed per-agent
// allow-list, the plan is capped at a configured action count, and a
// low-confidence plan that isn't itself a clarification request is
// discarded rather than acted on.
package planner

import (
	"context"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

// Planner is the subset of *llm.Client the adapter depends on, kept
// narrow so tests can fake it without a real provider.
type Planner interface {
	Enabled() bool
	PlanActions(ctx context.Context, message string, recent []commerce.RecentTurn, allowedActions map[string][]string) (*commerce.ActionPlan, error)
}

// allowedParams lists, per target agent and action name, the parameter
// keys the LLM is permitted to set. Any other key the model invents is
// dropped before the action reaches an agent — mirroring the
// deterministic extractor's own fixed entity shapes so a plan-produced
// action can never carry fields no agent expects.
var allowedParams = map[string]map[string][]string{
	"product": {
		"search_products": {"query", "category", "brand", "color", "minPrice", "maxPrice"},
	},
	"cart": {
		"get_cart":             {},
		"add_item":             {"productId", "variantId", "query", "color", "size", "quantity"},
		"add_multiple_items":   {"items"},
		"update_item":          {"itemId", "productId", "variantId", "query", "quantity"},
		"adjust_item_quantity": {"itemId", "productId", "variantId", "query", "delta", "quantity"},
		"remove_item":          {"itemId", "productId", "variantId", "query", "quantity"},
		"clear_cart":           {},
		"apply_discount":       {"code"},
	},
	"order": {
		"checkout_summary":     {"name", "line1", "city", "state", "postalCode", "country", "idempotencyKey"},
		"get_order_status":     {"orderId"},
		"cancel_order":         {"orderId", "reason"},
		"request_refund":       {"orderId", "reason"},
		"change_order_address": {"orderId", "name", "line1", "city", "state", "postalCode", "country"},
	},
	"memory": {
		"show_memory":        {},
		"save_preference":    {"updates"},
		"forget_preference":  {"key", "value"},
		"clear_memory":       {},
	},
	"support": {
		"create_ticket": {"query"},
		"ticket_status": {},
		"close_ticket":  {"ticketId"},
	},
}

// AllowedActions derives the {agent: [actionName,...]} map the LLM
// prompt and the name/targetAgent validation step are restricted to.
func AllowedActions() map[string][]string {
	out := make(map[string][]string, len(allowedParams))
	for agent, actions := range allowedParams {
		names := make([]string, 0, len(actions))
		for name := range actions {
			names = append(names, name)
		}
		out[agent] = names
	}
	return out
}

// Adapter validates and bounds a raw LLM action plan before the
// orchestrator is allowed to execute it.
type Adapter struct {
	client        Planner
	maxActions    int
	minConfidence float64
}

// New builds an Adapter. maxActions is clamped to [1,10] the way
// orchestrator_core.py's _max_actions_per_request does; minConfidence
// is the floor below which a non-clarification plan is discarded
// (spec default 0.55).
func New(client Planner, maxActions int, minConfidence float64) *Adapter {
	if maxActions < 1 {
		maxActions = 1
	}
	if maxActions > 10 {
		maxActions = 10
	}
	return &Adapter{client: client, maxActions: maxActions, minConfidence: minConfidence}
}

// Plan asks the LLM for an action plan and returns it validated: unknown
// action names are dropped, each action's params are filtered to its
// allow-list, the action list is capped at maxActions (the caller learns
// how many were truncated), and a plan below the confidence floor that
// isn't a clarification is discarded entirely (nil, 0, nil).
func (a *Adapter) Plan(ctx context.Context, message string, recent []commerce.RecentTurn) (plan *commerce.ActionPlan, truncatedCount int, err error) {
	if a == nil || a.client == nil || !a.client.Enabled() {
		return nil, 0, nil
	}

	raw, err := a.client.PlanActions(ctx, message, recent, AllowedActions())
	if err != nil || raw == nil {
		return nil, 0, err
	}

	if raw.NeedsClarification {
		return raw, 0, nil
	}

	if raw.Confidence < a.minConfidence {
		return nil, 0, nil
	}

	filtered := make([]commerce.PlanAction, 0, len(raw.Actions))
	for _, act := range raw.Actions {
		allow, ok := allowedParams[act.TargetAgent][act.Name]
		if !ok {
			continue
		}
		filtered = append(filtered, commerce.PlanAction{
			Name:        act.Name,
			TargetAgent: act.TargetAgent,
			Params:      filterParams(act.Params, allow),
		})
	}

	if len(filtered) > a.maxActions {
		truncatedCount = len(filtered) - a.maxActions
		filtered = filtered[:a.maxActions]
	}

	return &commerce.ActionPlan{
		Actions:    filtered,
		Confidence: raw.Confidence,
	}, truncatedCount, nil
}

func filterParams(params map[string]interface{}, allow []string) map[string]interface{} {
	out := make(map[string]interface{}, len(allow))
	for _, key := range allow {
		if v, ok := params[key]; ok {
			out[key] = v
		}
	}
	return out
}
