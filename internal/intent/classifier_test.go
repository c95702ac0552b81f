package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

func TestClassifyRulesEmptyMessage(t *testing.T) {
	r := classifyRules("", commerce.ClassifyContext{})
	require.Equal(t, "general_question", r.Name)
}

func TestClassifyRulesCheckout(t *testing.T) {
	r := classifyRules("I'd like to checkout now", commerce.ClassifyContext{})
	require.Equal(t, "checkout", r.Name)
	require.GreaterOrEqual(t, r.Confidence, 0.9)
}

func TestClassifyRulesAddToCart(t *testing.T) {
	r := classifyRules("add prod_001 to my cart", commerce.ClassifyContext{})
	require.Equal(t, "add_to_cart", r.Name)
}

func TestClassifyRulesProductSearchFallback(t *testing.T) {
	r := classifyRules("show me some shoes", commerce.ClassifyContext{})
	require.Equal(t, "product_search", r.Name)
}

func TestClassifyRulesViewCart(t *testing.T) {
	r := classifyRules("show my cart", commerce.ClassifyContext{})
	require.Equal(t, "view_cart", r.Name)
}

func TestClassifyRulesOrderStatus(t *testing.T) {
	r := classifyRules("where is my order ord_123", commerce.ClassifyContext{})
	require.Equal(t, "order_status", r.Name)
}

func TestClassifyRulesSupportEscalation(t *testing.T) {
	r := classifyRules("I need to talk to a human agent", commerce.ClassifyContext{})
	require.Equal(t, "support_escalation", r.Name)
}

func TestClassifyRulesFallsBackToGeneralQuestion(t *testing.T) {
	r := classifyRules("what is your return policy", commerce.ClassifyContext{})
	require.Equal(t, "general_question", r.Name)
}

type stubLLM struct {
	result *commerce.IntentResult
	err    error
}

func (s stubLLM) ClassifyIntent(_ context.Context, _ string, _ []commerce.RecentTurn) (*commerce.IntentResult, error) {
	return s.result, s.err
}

func TestClassifyReturnsRuleResultWhenLLMNil(t *testing.T) {
	c := New(nil)
	r := c.Classify(context.Background(), "checkout", commerce.ClassifyContext{})
	require.Equal(t, "checkout", r.Name)
}

func TestClassifyPrefersLLMWhenItClearsConfidenceFloor(t *testing.T) {
	c := New(stubLLM{result: &commerce.IntentResult{Name: "llm_intent", Confidence: 0.95}})
	r := c.Classify(context.Background(), "what is your return policy", commerce.ClassifyContext{})
	require.Equal(t, "llm_intent", r.Name)
}

func TestClassifyFallsBackToRulesWhenLLMBelowFloor(t *testing.T) {
	c := New(stubLLM{result: &commerce.IntentResult{Name: "llm_intent", Confidence: 0.5}})
	r := c.Classify(context.Background(), "checkout", commerce.ClassifyContext{})
	require.Equal(t, "checkout", r.Name)
}

func TestClassifyFallsBackToRulesOnLLMError(t *testing.T) {
	c := New(stubLLM{err: context.DeadlineExceeded})
	r := c.Classify(context.Background(), "checkout", commerce.ClassifyContext{})
	require.Equal(t, "checkout", r.Name)
}
