package commerce

// agentIntents maps intent names onto their owning agent. Intents not
// listed here route to "support" (the catch-all).
var agentIntents = map[string]string{
	"product_search":         "product",
	"search_and_add_to_cart": "product",
	"add_to_cart":            "cart",
	"add_multiple_to_cart":   "cart",
	"update_cart":            "cart",
	"adjust_cart_quantity":   "cart",
	"remove_from_cart":       "cart",
	"clear_cart":             "cart",
	"apply_discount":         "cart",
	"view_cart":              "cart",
	"checkout":               "order",
	"order_status":           "order",
	"change_order_address":   "order",
	"cancel_order":           "order",
	"request_refund":         "order",
	"show_memory":            "memory",
	"save_preference":        "memory",
	"forget_preference":      "memory",
	"clear_memory":           "memory",
	"support_escalation":     "support",
	"support_status":         "support",
	"support_close":          "support",
}

// RouteAgent returns the default agent name for an intent, falling back
// to "support" when the intent is not in the routing table (including
// general_question).
func RouteAgent(intent IntentResult) string {
	if agent, ok := agentIntents[intent.Name]; ok {
		return agent
	}
	return "support"
}
