// Package actions maps a classified intent onto the concrete agent
// action(s) needed to satisfy it, deterministically (no LLM involved).
package actions

import "github.com/nextlevelbuilder/goclaw/internal/commerce"

// Extract returns the ordered agent actions for intent.
func Extract(intent commerce.IntentResult) []commerce.AgentAction {
	e := intent.Entities
	switch intent.Name {
	case "multi_status":
		return []commerce.AgentAction{
			{Name: "get_cart", Params: map[string]interface{}{}, TargetAgent: "cart"},
			{Name: "get_order_status", Params: e, TargetAgent: "order"},
		}
	case "product_search":
		return []commerce.AgentAction{{Name: "search_products", Params: e}}
	case "search_and_add_to_cart":
		productParams := map[string]interface{}{"query": stringOr(e, "query", "")}
		for _, k := range []string{"size", "color", "brand", "minPrice", "maxPrice"} {
			if v, ok := e[k]; ok {
				productParams[k] = v
			}
		}
		addParams := map[string]interface{}{
			"productId": e["productId"],
			"variantId": e["variantId"],
			"size":      e["size"],
			"color":     e["color"],
			"quantity":  intOr(e, "quantity", 1),
		}
		return []commerce.AgentAction{
			{Name: "search_products", Params: productParams, TargetAgent: "product"},
			{Name: "add_item", Params: addParams, TargetAgent: "cart"},
		}
	case "add_to_cart":
		return []commerce.AgentAction{{Name: "add_item", Params: e}}
	case "add_multiple_to_cart":
		return []commerce.AgentAction{{Name: "add_multiple_items", Params: e}}
	case "apply_discount":
		return []commerce.AgentAction{{Name: "apply_discount", Params: e}}
	case "update_cart":
		return []commerce.AgentAction{{Name: "update_item", Params: e}}
	case "adjust_cart_quantity":
		return []commerce.AgentAction{{Name: "adjust_item_quantity", Params: e}}
	case "remove_from_cart":
		return []commerce.AgentAction{{Name: "remove_item", Params: e}}
	case "clear_cart":
		return []commerce.AgentAction{{Name: "clear_cart", Params: map[string]interface{}{}}}
	case "view_cart":
		return []commerce.AgentAction{{Name: "get_cart", Params: map[string]interface{}{}}}
	case "checkout":
		return []commerce.AgentAction{{Name: "checkout_summary", Params: map[string]interface{}{}}}
	case "order_status":
		return []commerce.AgentAction{{Name: "get_order_status", Params: e}}
	case "cancel_order":
		return []commerce.AgentAction{{Name: "cancel_order", Params: e}}
	case "request_refund":
		return []commerce.AgentAction{{Name: "request_refund", Params: e}}
	case "change_order_address":
		return []commerce.AgentAction{{Name: "change_order_address", Params: e}}
	case "show_memory":
		return []commerce.AgentAction{{Name: "show_memory", Params: map[string]interface{}{}}}
	case "save_preference":
		return []commerce.AgentAction{{Name: "save_preference", Params: e}}
	case "forget_preference":
		return []commerce.AgentAction{{Name: "forget_preference", Params: e}}
	case "clear_memory":
		return []commerce.AgentAction{{Name: "clear_memory", Params: map[string]interface{}{}}}
	case "support_escalation":
		return []commerce.AgentAction{{Name: "create_ticket", Params: e, TargetAgent: "support"}}
	case "support_status":
		return []commerce.AgentAction{{Name: "ticket_status", Params: e, TargetAgent: "support"}}
	case "support_close":
		return []commerce.AgentAction{{Name: "close_ticket", Params: e, TargetAgent: "support"}}
	default:
		return []commerce.AgentAction{{Name: "answer_question", Params: e}}
	}
}

func stringOr(m map[string]interface{}, key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

func intOr(m map[string]interface{}, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
