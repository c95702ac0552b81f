package llm

// intentClassificationPrompt is the fixed system prompt for the intent
// classification LLM call. The model must return strict JSON matching
// intentPrediction.
const intentClassificationPrompt = `You are an intent classifier for an ecommerce assistant.
Classify the user message into exactly one intent from this list:
- product_search
- search_and_add_to_cart
- add_to_cart
- add_multiple_to_cart
- update_cart
- adjust_cart_quantity
- remove_from_cart
- clear_cart
- apply_discount
- view_cart
- checkout
- order_status
- change_order_address
- cancel_order
- request_refund
- multi_status
- show_memory
- save_preference
- forget_preference
- clear_memory
- general_question

Rules:
- Return strict JSON only.
- confidence must be a float between 0 and 1.
- entities must be a JSON object with simple scalar values where possible.
- If uncertain, use general_question.

Output schema:
{
  "intent": "string",
  "confidence": 0.0,
  "entities": {}
}
`

// actionPlanningPrompt is the fixed system prompt for the action planner
// LLM call. The model must return strict JSON matching actionPlanPrediction.
const actionPlanningPrompt = `You are a commerce action planner.
Convert the user's request into an executable action plan for backend functions.

Rules:
- Return strict JSON only.
- Use only action names provided in the user payload's ` + "`allowedActions`" + `.
- Keep actions minimal, safe, and ordered.
- If information is missing or ambiguous for safe execution, set ` + "`needsClarification=true`" + `
  and ask one concrete follow-up question.
- Do not invent product/variant IDs. Use ` + "`query`" + ` when needed.

Output schema:
{
  "actions": [
    {
      "name": "string",
      "targetAgent": "product|cart|order|memory|support|orchestrator",
      "params": {}
    }
  ],
  "confidence": 0.0,
  "needsClarification": false,
  "clarificationQuestion": ""
}
`

// supportedLLMIntents is the closed set of intents the classifier LLM
// call is allowed to return; anything else is discarded so the rule
// engine's result is kept instead.
var supportedLLMIntents = map[string]bool{
	"product_search":        true,
	"search_and_add_to_cart": true,
	"add_to_cart":           true,
	"add_multiple_to_cart":  true,
	"apply_discount":        true,
	"update_cart":           true,
	"adjust_cart_quantity":  true,
	"remove_from_cart":      true,
	"clear_cart":            true,
	"view_cart":             true,
	"checkout":              true,
	"order_status":          true,
	"change_order_address":  true,
	"cancel_order":          true,
	"request_refund":        true,
	"multi_status":          true,
	"show_memory":           true,
	"save_preference":       true,
	"forget_preference":     true,
	"clear_memory":          true,
	"general_question":      true,
}

// allowedPlannerActions mirrors internal/planner's per-agent action
// allow-list. Nothing in this package reads it: PlanActions validates
// against the allowedActions its caller passes in.
var allowedPlannerActions = map[string][]string{
	"product": {"search_products"},
	"cart": {
		"get_cart", "add_item", "add_multiple_items", "update_item",
		"adjust_item_quantity", "remove_item", "clear_cart",
		"apply_discount",
	},
	"order": {"checkout_summary", "get_order_status", "cancel_order", "request_refund", "change_order_address"},
	"memory": {"show_memory", "save_preference", "forget_preference", "clear_memory"},
	"support": {"create_ticket", "ticket_status", "close_ticket"},
}
