package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

func newTestCartAgent() (*CartAgent, commerce.AgentContext) {
	s := store.NewMemoryStore()
	return NewCartAgent(s, 0.08, 6.99), commerce.AgentContext{SessionID: "sess_1", UserID: "user_1"}
}

func TestCartAgentAddItemByExplicitVariant(t *testing.T) {
	a, actx := newTestCartAgent()
	products := a.store.ListProducts()
	require.NotEmpty(t, products)
	product := products[0]
	require.NotEmpty(t, product.Variants)
	variant := product.Variants[0]

	result, err := a.Execute(context.Background(), commerce.AgentAction{
		Name: "add_item",
		Params: map[string]interface{}{
			"productId": product.ID, "variantId": variant.ID, "quantity": 2,
		},
	}, actx)

	require.NoError(t, err)
	require.True(t, result.Success)
	cart := result.Data["cart"].(*store.Cart)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartAgentAddItemUnknownActionRejected(t *testing.T) {
	a, actx := newTestCartAgent()
	_, err := a.Execute(context.Background(), commerce.AgentAction{Name: "teleport_item"}, actx)
	require.Error(t, err)
	require.Equal(t, commerce.ErrValidation, commerce.Kind(err))
}

func TestCartAgentAmbiguousVariantRequestsClarification(t *testing.T) {
	a, actx := newTestCartAgent()
	var multiVariant *store.Product
	for _, p := range a.store.ListProducts() {
		if len(matchingInStockVariants(p, "", "")) > 1 {
			multiVariant = p
			break
		}
	}
	require.NotNil(t, multiVariant, "seed catalog must include a product with 2+ in-stock variants")

	_, err := a.Execute(context.Background(), commerce.AgentAction{
		Name:   "add_item",
		Params: map[string]interface{}{"productId": multiVariant.ID},
	}, actx)

	require.Error(t, err)
	require.True(t, commerce.IsClarification(err))
	var ce *commerce.Error
	require.ErrorAs(t, err, &ce)
	require.LessOrEqual(t, len(ce.Options), 3)
}

func TestCartAgentAdjustQuantityByDeltaRemovesAtZero(t *testing.T) {
	a, actx := newTestCartAgent()
	product := a.store.ListProducts()[0]
	variant := product.Variants[0]

	_, err := a.Execute(context.Background(), commerce.AgentAction{
		Name:   "add_item",
		Params: map[string]interface{}{"productId": product.ID, "variantId": variant.ID, "quantity": 1},
	}, actx)
	require.NoError(t, err)

	result, err := a.Execute(context.Background(), commerce.AgentAction{
		Name:   "adjust_item_quantity",
		Params: map[string]interface{}{"productId": product.ID, "delta": -1},
	}, actx)
	require.NoError(t, err)
	cart := result.Data["cart"].(*store.Cart)
	require.Empty(t, cart.Items)
}

func TestCartAgentApplyDiscountRejectsUnknownCode(t *testing.T) {
	a, actx := newTestCartAgent()
	_, err := a.Execute(context.Background(), commerce.AgentAction{
		Name: "apply_discount", Params: map[string]interface{}{"code": "NOTREAL"},
	}, actx)
	require.Error(t, err)
	require.Equal(t, commerce.ErrValidation, commerce.Kind(err))
}

func TestCartAgentApplyDiscountAppliesSave20(t *testing.T) {
	a, actx := newTestCartAgent()
	product := a.store.ListProducts()[0]
	variant := product.Variants[0]
	_, err := a.Execute(context.Background(), commerce.AgentAction{
		Name:   "add_item",
		Params: map[string]interface{}{"productId": product.ID, "variantId": variant.ID, "quantity": 1},
	}, actx)
	require.NoError(t, err)

	result, err := a.Execute(context.Background(), commerce.AgentAction{
		Name: "apply_discount", Params: map[string]interface{}{"code": "save20"},
	}, actx)
	require.NoError(t, err)
	cart := result.Data["cart"].(*store.Cart)
	require.NotNil(t, cart.AppliedDiscount)
	require.InDelta(t, product.Price*0.2, cart.Discount, 0.01)
}

func TestCartAgentClearCartEmptiesItemsAndDiscount(t *testing.T) {
	a, actx := newTestCartAgent()
	product := a.store.ListProducts()[0]
	variant := product.Variants[0]
	_, _ = a.Execute(context.Background(), commerce.AgentAction{
		Name:   "add_item",
		Params: map[string]interface{}{"productId": product.ID, "variantId": variant.ID, "quantity": 1},
	}, actx)

	result, err := a.Execute(context.Background(), commerce.AgentAction{Name: "clear_cart"}, actx)
	require.NoError(t, err)
	cart := result.Data["cart"].(*store.Cart)
	require.Empty(t, cart.Items)
	require.Nil(t, cart.AppliedDiscount)
}
