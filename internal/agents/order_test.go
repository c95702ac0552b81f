package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

func newTestOrderAgent() (*OrderAgent, *CartAgent, commerce.AgentContext) {
	s := store.NewMemoryStore()
	return NewOrderAgent(s, 6.99), NewCartAgent(s, 0.08, 6.99), commerce.AgentContext{SessionID: "sess_1", UserID: "user_1"}
}

func TestOrderAgentCheckoutRejectsEmptyCart(t *testing.T) {
	o, _, actx := newTestOrderAgent()
	_, err := o.Execute(context.Background(), commerce.AgentAction{Name: "checkout_summary", Params: map[string]interface{}{}}, actx)
	require.Error(t, err)
	require.Equal(t, commerce.ErrValidation, commerce.Kind(err))
}

func TestOrderAgentCheckoutIsIdempotentPerCart(t *testing.T) {
	o, cartAgent, actx := newTestOrderAgent()
	product := cartAgent.store.ListProducts()[0]
	variant := product.Variants[0]
	_, err := cartAgent.Execute(context.Background(), commerce.AgentAction{
		Name:   "add_item",
		Params: map[string]interface{}{"productId": product.ID, "variantId": variant.ID, "quantity": 1},
	}, actx)
	require.NoError(t, err)

	first, err := o.Execute(context.Background(), commerce.AgentAction{Name: "checkout_summary", Params: map[string]interface{}{}}, actx)
	require.NoError(t, err)
	firstOrder := first.Data["order"].(*store.Order)

	second, err := o.Execute(context.Background(), commerce.AgentAction{Name: "checkout_summary", Params: map[string]interface{}{}}, actx)
	require.NoError(t, err)
	secondOrder := second.Data["order"].(*store.Order)

	require.Equal(t, firstOrder.ID, secondOrder.ID, "retried checkout on the same cart must not create a second order")
}

func TestOrderAgentCancelBlockedOnTerminalStatus(t *testing.T) {
	o, cartAgent, actx := newTestOrderAgent()
	product := cartAgent.store.ListProducts()[0]
	variant := product.Variants[0]
	_, _ = cartAgent.Execute(context.Background(), commerce.AgentAction{
		Name:   "add_item",
		Params: map[string]interface{}{"productId": product.ID, "variantId": variant.ID, "quantity": 1},
	}, actx)
	result, err := o.Execute(context.Background(), commerce.AgentAction{Name: "checkout_summary", Params: map[string]interface{}{}}, actx)
	require.NoError(t, err)
	order := result.Data["order"].(*store.Order)
	order.Status = "delivered"
	o.store.SaveOrder(order)

	_, err = o.Execute(context.Background(), commerce.AgentAction{
		Name: "cancel_order", Params: map[string]interface{}{"orderId": order.ID},
	}, actx)
	require.Error(t, err)
	require.Equal(t, commerce.ErrConflict, commerce.Kind(err))
}

func TestOrderAgentUnsupportedAction(t *testing.T) {
	o, _, actx := newTestOrderAgent()
	_, err := o.Execute(context.Background(), commerce.AgentAction{Name: "order_status"}, actx)
	require.Error(t, err)
	require.Equal(t, commerce.ErrValidation, commerce.Kind(err))
}
