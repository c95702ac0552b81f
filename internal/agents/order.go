package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// OrderAgent places and manages orders. Its implementation has no
// upstream Python file in the distillation pack — container.py wires an
// OrderAgent and agent_router.py routes checkout/order_status/
// cancel_order/request_refund/change_order_address to it, but
// order_agent.py itself never shipped with the pack. This file
// reconstructs it in the sibling agents' style, grounded directly on
// order_service.py's business rules (idempotency gating, status
// transitions, timeline entries).
type OrderAgent struct {
	store       *store.MemoryStore
	shippingFee float64
}

func NewOrderAgent(s *store.MemoryStore, shippingFee float64) *OrderAgent {
	return &OrderAgent{store: s, shippingFee: shippingFee}
}

func (a *OrderAgent) Name() string { return "order" }

func (a *OrderAgent) Execute(ctx context.Context, action commerce.AgentAction, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	switch action.Name {
	case "checkout_summary":
		return a.checkout(action.Params, actx)
	case "get_order_status":
		return a.orderStatus(action.Params, actx)
	case "cancel_order":
		return a.cancelOrder(action.Params, actx)
	case "request_refund":
		return a.requestRefund(action.Params, actx)
	case "change_order_address":
		return a.changeAddress(action.Params, actx)
	default:
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "unsupported order action: "+action.Name)
	}
}

// checkout is gated on an idempotency key, just as order_service.py's
// create_order rejects a missing key outright: retried requests with
// the same key return the already-placed order instead of duplicating it.
// The extractor never asks the shopper for a key directly, so one is
// derived from the cart being converted: a given cart can confirm into
// at most one order, which is exactly the guarantee the key exists for.
func (a *OrderAgent) checkout(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	cart := a.store.GetOrCreateCart(actx.UserID, actx.SessionID)
	idemKey := paramString(params, "idempotencyKey")
	if idemKey == "" {
		idemKey = "cart:" + cart.ID
	}
	if orderID, ok := a.store.CheckIdempotency(idemKey); ok {
		if existing, ok := a.store.GetOrder(orderID); ok {
			return commerce.AgentExecutionResult{
				Success: true, Message: "Your order " + existing.ID + " is already confirmed.",
				Data: map[string]interface{}{"order": existing},
			}, nil
		}
	}

	if len(cart.Items) == 0 {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "your cart is empty")
	}
	for _, item := range cart.Items {
		product, ok := a.store.GetProduct(item.ProductID)
		if !ok {
			return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrConflict, "a product in your cart is no longer available")
		}
		inStock := false
		for _, v := range product.Variants {
			if v.ID == item.VariantID && v.InStock {
				inStock = true
			}
		}
		if !inStock {
			return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrConflict, product.Name+" is no longer in stock")
		}
	}

	addr := store.ShippingAddress{
		Name: paramString(params, "name"), Line1: paramString(params, "line1"),
		City: paramString(params, "city"), State: paramString(params, "state"),
		PostalCode: paramString(params, "postalCode"), Country: paramString(params, "country"),
	}

	now := time.Now()
	order := &store.Order{
		ID:     a.store.ReserveOrderID(),
		UserID: actx.UserID,
		Status: "confirmed",
		Items:  append([]store.CartItem{}, cart.Items...),
		Subtotal: cart.Subtotal, Tax: cart.Tax, Shipping: cart.Shipping, Discount: cart.Discount, Total: cart.Total,
		ShippingAddress: addr,
		Payment:         store.OrderPayment{Method: "card", TransactionID: fmt.Sprintf("txn_%s", now.Format("150405")), Status: "captured"},
		Timeline: []store.TimelineEvent{
			{Status: "order_placed", Timestamp: now},
			{Status: "confirmed", Timestamp: now},
		},
		EstimatedDelivery: now.Add(5 * 24 * time.Hour),
		CreatedAt:         now, UpdatedAt: now,
	}
	a.store.CommitOrder(order)
	a.store.CommitIdempotency(idemKey, order.ID)
	a.store.MarkCartConverted(cart)

	return commerce.AgentExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Order %s confirmed. Total $%.2f, estimated delivery %s.", order.ID, order.Total, order.EstimatedDelivery.Format("Jan 2")),
		Data:    map[string]interface{}{"order": order},
	}, nil
}

func (a *OrderAgent) orderStatus(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	if id := paramString(params, "orderId"); id != "" {
		order, ok := a.store.GetOrder(id)
		if !ok || order.UserID != actx.UserID {
			return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrNotFound, "order not found")
		}
		return commerce.AgentExecutionResult{
			Success: true, Message: "Order " + order.ID + " is " + order.Status + ".",
			Data: map[string]interface{}{"order": order},
		}, nil
	}
	orders := a.store.ListOrdersForUser(actx.UserID)
	if len(orders) == 0 {
		return commerce.AgentExecutionResult{Success: true, Message: "You don't have any orders yet."}, nil
	}
	latest := orders[0]
	return commerce.AgentExecutionResult{
		Success: true, Message: "Your latest order " + latest.ID + " is " + latest.Status + ".",
		Data: map[string]interface{}{"order": latest, "orders": orders},
	}, nil
}

// terminalStatuses are the order statuses cancelOrder refuses to cancel.
// requestRefund does not use them: it rejects only cancelled or refunded
// orders.
var terminalStatuses = map[string]bool{"shipped": true, "delivered": true, "cancelled": true, "refunded": true}

func (a *OrderAgent) cancelOrder(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	order, err := a.loadOwnedOrder(params, actx)
	if err != nil {
		return commerce.AgentExecutionResult{}, err
	}
	if terminalStatuses[order.Status] {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrConflict, "order "+order.ID+" can no longer be cancelled")
	}
	note := paramString(params, "reason")
	if note == "" {
		note = "Cancelled by customer"
	}
	order.Status = "cancelled"
	order.Timeline = append(order.Timeline, store.TimelineEvent{Status: "cancelled", Timestamp: time.Now(), Note: note})
	a.store.SaveOrder(order)
	return commerce.AgentExecutionResult{
		Success: true, Message: "Order " + order.ID + " has been cancelled.",
		Data: map[string]interface{}{"order": order},
	}, nil
}

func (a *OrderAgent) requestRefund(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	order, err := a.loadOwnedOrder(params, actx)
	if err != nil {
		return commerce.AgentExecutionResult{}, err
	}
	if order.Status == "cancelled" || order.Status == "refunded" {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrConflict, "order "+order.ID+" is already "+order.Status)
	}
	order.Status = "refunded"
	order.Payment.Status = "refunded"
	order.Timeline = append(order.Timeline, store.TimelineEvent{Status: "refunded", Timestamp: time.Now()})
	a.store.SaveOrder(order)
	return commerce.AgentExecutionResult{
		Success: true, Message: "Order " + order.ID + " has been refunded.",
		Data: map[string]interface{}{"order": order},
	}, nil
}

func (a *OrderAgent) changeAddress(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	order, err := a.loadOwnedOrder(params, actx)
	if err != nil {
		return commerce.AgentExecutionResult{}, err
	}
	if order.Status != "confirmed" && order.Status != "processing" {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrConflict, "order "+order.ID+" can no longer have its address changed")
	}
	order.ShippingAddress = store.ShippingAddress{
		Name: paramString(params, "name"), Line1: paramString(params, "line1"),
		City: paramString(params, "city"), State: paramString(params, "state"),
		PostalCode: paramString(params, "postalCode"), Country: paramString(params, "country"),
	}
	order.Timeline = append(order.Timeline, store.TimelineEvent{Status: "address_updated", Timestamp: time.Now()})
	a.store.SaveOrder(order)
	return commerce.AgentExecutionResult{
		Success: true, Message: "Updated the shipping address for order " + order.ID + ".",
		Data: map[string]interface{}{"order": order},
	}, nil
}

func (a *OrderAgent) loadOwnedOrder(params map[string]interface{}, actx commerce.AgentContext) (*store.Order, error) {
	id := paramString(params, "orderId")
	if id == "" {
		orders := a.store.ListOrdersForUser(actx.UserID)
		if len(orders) == 0 {
			return nil, commerce.NewError(commerce.ErrNotFound, "you don't have any orders")
		}
		return orders[0], nil
	}
	order, ok := a.store.GetOrder(id)
	if !ok || order.UserID != actx.UserID {
		return nil, commerce.NewError(commerce.ErrNotFound, "order not found")
	}
	return order, nil
}
