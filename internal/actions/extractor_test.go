package actions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

func TestExtractMultiStatusReturnsTwoPinnedActions(t *testing.T) {
	actions := Extract(commerce.IntentResult{Name: "multi_status", Entities: map[string]interface{}{}})
	require.Len(t, actions, 2)
	require.Equal(t, "cart", actions[0].TargetAgent)
	require.Equal(t, "order", actions[1].TargetAgent)
}

func TestExtractProductSearchHasNoTargetAgent(t *testing.T) {
	actions := Extract(commerce.IntentResult{Name: "product_search", Entities: map[string]interface{}{"query": "shoes"}})
	require.Len(t, actions, 1)
	require.Equal(t, "search_products", actions[0].Name)
	require.Empty(t, actions[0].TargetAgent)
}

func TestExtractSearchAndAddToCartBuildsTwoSteps(t *testing.T) {
	e := map[string]interface{}{"query": "shoes", "productId": "prod_1", "quantity": 2}
	actions := Extract(commerce.IntentResult{Name: "search_and_add_to_cart", Entities: e})
	require.Len(t, actions, 2)
	require.Equal(t, "search_products", actions[0].Name)
	require.Equal(t, "product", actions[0].TargetAgent)
	require.Equal(t, "add_item", actions[1].Name)
	require.Equal(t, "cart", actions[1].TargetAgent)
	require.Equal(t, 2, actions[1].Params["quantity"])
}

func TestExtractSearchAndAddToCartDefaultsQuantity(t *testing.T) {
	e := map[string]interface{}{"query": "shoes"}
	actions := Extract(commerce.IntentResult{Name: "search_and_add_to_cart", Entities: e})
	require.Equal(t, 1, actions[1].Params["quantity"])
}

func TestExtractUnknownIntentFallsBackToAnswerQuestion(t *testing.T) {
	actions := Extract(commerce.IntentResult{Name: "something_unmapped", Entities: map[string]interface{}{"query": "hi"}})
	require.Len(t, actions, 1)
	require.Equal(t, "answer_question", actions[0].Name)
}
