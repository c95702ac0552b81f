package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// CartAgent owns add/update/remove/clear/discount operations on
// a shopper's cart. Variant resolution follows cart_agent.py's cascade:
// explicit productId+variantId, then productId with in-stock
// disambiguation, then free-text query search, then inference from the
// most recent product search result.
type CartAgent struct {
	store       *store.MemoryStore
	taxRate     float64
	shippingFee float64
}

// NewCartAgent builds a CartAgent. taxRate is a fraction (0.08 = 8%);
// shippingFee is flat and waived on an empty cart.
func NewCartAgent(s *store.MemoryStore, taxRate, shippingFee float64) *CartAgent {
	return &CartAgent{store: s, taxRate: taxRate, shippingFee: shippingFee}
}

func (a *CartAgent) Name() string { return "cart" }

func (a *CartAgent) Execute(ctx context.Context, action commerce.AgentAction, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	switch action.Name {
	case "get_cart":
		return a.viewCart(actx)
	case "add_item":
		return a.addItem(action.Params, actx)
	case "add_multiple_items":
		return a.addMultiple(action.Params, actx)
	case "update_item", "adjust_item_quantity":
		return a.adjustQuantity(action.Params, actx)
	case "remove_item":
		return a.removeItem(action.Params, actx)
	case "clear_cart":
		return a.clearCart(actx)
	case "apply_discount":
		return a.applyDiscount(action.Params, actx)
	default:
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "unsupported cart action: "+action.Name)
	}
}

func (a *CartAgent) cart(actx commerce.AgentContext) *store.Cart {
	return a.store.GetOrCreateCart(actx.UserID, actx.SessionID)
}

func (a *CartAgent) viewCart(actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	c := a.cart(actx)
	a.recalculate(c)
	return commerce.AgentExecutionResult{
		Success:     true,
		Message:     cartSummaryMessage(c),
		Data:        map[string]interface{}{"cart": c},
		NextActions: cartNextActions(c),
	}, nil
}

func (a *CartAgent) addItem(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	product, variant, err := a.resolveVariant(params, actx)
	if err != nil {
		return commerce.AgentExecutionResult{}, err
	}
	qty := clampQuantity(paramInt(params, "quantity", 1))

	c := a.cart(actx)
	if err := addLine(c, product, variant, qty); err != nil {
		return commerce.AgentExecutionResult{}, err
	}
	a.recalculate(c)
	a.store.SaveCart(c)

	return commerce.AgentExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Added %d x %s (%s, %s) to your cart.", qty, product.Name, variant.Size, variant.Color),
		Data:    map[string]interface{}{"cart": c},
		NextActions: cartNextActions(c),
	}, nil
}

func (a *CartAgent) addMultiple(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	rawItems, _ := params["items"].([]interface{})
	c := a.cart(actx)

	var added []string
	var unresolved []string
	for _, raw := range rawItems {
		itemParams, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		product, variant, err := a.resolveVariant(itemParams, actx)
		if err != nil {
			q := paramString(itemParams, "query")
			if q == "" {
				q = paramString(itemParams, "productId")
			}
			unresolved = append(unresolved, q)
			continue
		}
		qty := clampQuantity(paramInt(itemParams, "quantity", 1))
		if err := addLine(c, product, variant, qty); err != nil {
			unresolved = append(unresolved, product.Name)
			continue
		}
		added = append(added, fmt.Sprintf("%d x %s", qty, product.Name))
	}
	a.recalculate(c)
	a.store.SaveCart(c)

	msg := "Added to your cart: " + strings.Join(added, ", ") + "."
	if len(added) == 0 {
		msg = "I couldn't find matches for those items."
	}
	if len(unresolved) > 0 {
		msg += " Couldn't resolve: " + strings.Join(unresolved, ", ") + "."
	}
	return commerce.AgentExecutionResult{
		Success:     len(added) > 0,
		Message:     msg,
		Data:        map[string]interface{}{"cart": c, "added": added, "unresolved": unresolved},
		NextActions: cartNextActions(c),
	}, nil
}

func addLine(c *store.Cart, product *store.Product, variant *store.Variant, qty int) error {
	if !variant.InStock {
		return commerce.NewError(commerce.ErrConflict, "that variant is currently out of stock")
	}
	for i := range c.Items {
		if c.Items[i].ProductID == product.ID && c.Items[i].VariantID == variant.ID {
			c.Items[i].Quantity += qty
			return nil
		}
	}
	image := ""
	if len(product.Images) > 0 {
		image = product.Images[0]
	}
	c.Items = append(c.Items, store.CartItem{
		ProductID: product.ID, VariantID: variant.ID, Name: product.Name,
		Price: product.Price, Quantity: qty, Image: image,
	})
	return nil
}

func (a *CartAgent) adjustQuantity(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	c := a.cart(actx)
	idx := findCartItem(c, params)
	if idx < 0 {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrNotFound, "I couldn't find that item in your cart")
	}

	if delta, ok := params["delta"]; ok {
		d := int(toFloat(delta))
		newQty := c.Items[idx].Quantity + d
		if newQty <= 0 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		} else {
			c.Items[idx].Quantity = clampQuantity(newQty)
		}
	} else if qty, ok := params["quantity"]; ok {
		newQty := clampQuantity(int(toFloat(qty)))
		c.Items[idx].Quantity = newQty
	} else {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "specify a quantity or delta")
	}

	a.recalculate(c)
	a.store.SaveCart(c)
	return commerce.AgentExecutionResult{
		Success:     true,
		Message:     "Updated your cart.",
		Data:        map[string]interface{}{"cart": c},
		NextActions: cartNextActions(c),
	}, nil
}

func (a *CartAgent) removeItem(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	c := a.cart(actx)
	idx := findCartItem(c, params)
	if idx < 0 {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrNotFound, "I couldn't find that item in your cart")
	}
	name := c.Items[idx].Name

	if qty, ok := params["quantity"]; ok {
		remove := int(toFloat(qty))
		if remove < c.Items[idx].Quantity {
			c.Items[idx].Quantity -= remove
			a.recalculate(c)
			a.store.SaveCart(c)
			return commerce.AgentExecutionResult{
				Success: true, Message: fmt.Sprintf("Removed %d x %s from your cart.", remove, name),
				Data: map[string]interface{}{"cart": c}, NextActions: cartNextActions(c),
			}, nil
		}
	}

	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	a.recalculate(c)
	a.store.SaveCart(c)
	return commerce.AgentExecutionResult{
		Success: true, Message: fmt.Sprintf("Removed %s from your cart.", name),
		Data: map[string]interface{}{"cart": c}, NextActions: cartNextActions(c),
	}, nil
}

func (a *CartAgent) clearCart(actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	c := a.cart(actx)
	c.Items = []store.CartItem{}
	c.AppliedDiscount = nil
	a.recalculate(c)
	a.store.SaveCart(c)
	return commerce.AgentExecutionResult{
		Success: true, Message: "Your cart is now empty.",
		Data: map[string]interface{}{"cart": c},
	}, nil
}

// applyDiscount only recognizes the single promo code SAVE20, mirroring
// cart_service.py's hardcoded discount catalog.
func (a *CartAgent) applyDiscount(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	code := strings.ToUpper(strings.TrimSpace(paramString(params, "code")))
	if code != "SAVE20" {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "that discount code isn't valid")
	}
	c := a.cart(actx)
	c.AppliedDiscount = &store.AppliedDiscount{Code: code, Type: "percentage", Value: 20}
	a.recalculate(c)
	a.store.SaveCart(c)
	return commerce.AgentExecutionResult{
		Success: true, Message: "Applied SAVE20: 20% off your order.",
		Data: map[string]interface{}{"cart": c},
	}, nil
}

// recalculate mirrors cart_service.py's _recalculate_cart: subtotal from
// line items, a percentage discount on the taxable base, flat tax, flat
// shipping waived on an empty cart, all rounded to cents.
func (a *CartAgent) recalculate(c *store.Cart) {
	var subtotal float64
	itemCount := 0
	for _, it := range c.Items {
		subtotal += it.Price * float64(it.Quantity)
		itemCount += it.Quantity
	}
	discount := 0.0
	if c.AppliedDiscount != nil && c.AppliedDiscount.Type == "percentage" {
		discount = subtotal * (c.AppliedDiscount.Value / 100)
	}
	taxableBase := subtotal - discount
	tax := round2(taxableBase * a.taxRate)
	shipping := 0.0
	if itemCount > 0 {
		shipping = a.shippingFee
	}
	c.Subtotal = round2(subtotal)
	c.Discount = round2(discount)
	c.Tax = tax
	c.Shipping = shipping
	c.Total = round2(taxableBase + tax + shipping)
	c.ItemCount = itemCount
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// findCartItem resolves a target line item by itemId, then productId
// (narrowed to the given variantId when one is passed), then a fuzzy
// token-overlap match against a free-text query, falling back to the
// first item if nothing else matches and the cart holds exactly one line.
func findCartItem(c *store.Cart, params map[string]interface{}) int {
	if id := paramString(params, "itemId"); id != "" {
		for i, it := range c.Items {
			if it.ItemID == id {
				return i
			}
		}
	}
	if pid := paramString(params, "productId"); pid != "" {
		vid := paramString(params, "variantId")
		for i, it := range c.Items {
			if it.ProductID == pid && (vid == "" || it.VariantID == vid) {
				return i
			}
		}
	}
	if q := strings.ToLower(paramString(params, "query")); q != "" {
		best, bestScore := -1, 0
		for i, it := range c.Items {
			score := tokenOverlap(q, strings.ToLower(it.Name))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best >= 0 {
			return best
		}
	}
	if len(c.Items) == 1 {
		return 0
	}
	return -1
}

func tokenOverlap(a, b string) int {
	aw := strings.Fields(a)
	bSet := map[string]bool{}
	for _, w := range strings.Fields(b) {
		bSet[w] = true
	}
	n := 0
	for _, w := range aw {
		if bSet[w] {
			n++
		}
	}
	return n
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func cartSummaryMessage(c *store.Cart) string {
	if len(c.Items) == 0 {
		return "Your cart is empty."
	}
	return fmt.Sprintf("Your cart has %d item(s), total $%.2f.", c.ItemCount, c.Total)
}

func cartNextActions(c *store.Cart) []commerce.NextAction {
	actions := []commerce.NextAction{{Label: "Continue shopping", Action: "product_search"}}
	if c.ItemCount > 0 {
		actions = append(actions, commerce.NextAction{Label: "Checkout", Action: "checkout"})
	}
	return actions
}
