package agents

import (
	"fmt"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// resolveVariant implements cart_agent.py's _resolve_variant_for_add
// cascade: explicit productId+variantId, then productId narrowed by
// color/size among in-stock variants, then a free-text query search,
// then inference from the shopper's most recent product search.
// Ambiguous resolution comes back as an ErrClarification error with up
// to 3 options, not a hard failure.
func (a *CartAgent) resolveVariant(params map[string]interface{}, actx commerce.AgentContext) (*store.Product, *store.Variant, error) {
	productID := paramString(params, "productId")
	variantID := paramString(params, "variantId")
	color := paramString(params, "color")
	size := paramString(params, "size")
	query := paramString(params, "query")

	if productID != "" && variantID != "" {
		product, ok := a.store.GetProduct(productID)
		if !ok {
			return nil, nil, commerce.NewError(commerce.ErrNotFound, "I couldn't find that product")
		}
		for i := range product.Variants {
			if product.Variants[i].ID == variantID {
				return product, &product.Variants[i], nil
			}
		}
		return nil, nil, commerce.NewError(commerce.ErrNotFound, "that variant doesn't exist for this product")
	}

	if productID != "" {
		product, ok := a.store.GetProduct(productID)
		if !ok {
			return nil, nil, commerce.NewError(commerce.ErrNotFound, "I couldn't find that product")
		}
		matches := matchingInStockVariants(product, color, size)
		switch len(matches) {
		case 0:
			return nil, nil, commerce.NewError(commerce.ErrConflict, product.Name+" is out of stock in that size/color")
		case 1:
			return product, &matches[0], nil
		default:
			return nil, nil, clarifyVariantOptions(product, matches)
		}
	}

	if query != "" {
		candidates := searchCatalog(a.store.ListProducts(), query, "", "")
		switch len(candidates) {
		case 0:
			return nil, nil, commerce.NewError(commerce.ErrNotFound, "I couldn't find a product matching \""+query+"\"")
		case 1:
			product := candidates[0]
			matches := matchingInStockVariants(product, color, size)
			switch len(matches) {
			case 0:
				return nil, nil, commerce.NewError(commerce.ErrConflict, product.Name+" is out of stock in that size/color")
			case 1:
				return product, &matches[0], nil
			default:
				return nil, nil, clarifyVariantOptions(product, matches)
			}
		default:
			return nil, nil, clarifyProductOptions(candidates)
		}
	}

	if product, variant := a.inferFromRecent(actx); product != nil && variant != nil {
		return product, variant, nil
	}

	return nil, nil, commerce.NewError(commerce.ErrValidation, "tell me which product you'd like to add")
}

// inferFromRecent looks back through the session's recent turns for the
// last product_search (or search_and_add_to_cart) result and proposes
// its first in-stock variant, mirroring cart_agent.py's _infer_from_recent.
func (a *CartAgent) inferFromRecent(actx commerce.AgentContext) (*store.Product, *store.Variant) {
	for i := len(actx.RecentMessages) - 1; i >= 0; i-- {
		rec := actx.RecentMessages[i]
		if rec.Intent != "product_search" && rec.Intent != "search_and_add_to_cart" {
			continue
		}
		raw, ok := rec.Response.Data["products"]
		if !ok {
			continue
		}
		products, ok := raw.([]*store.Product)
		if !ok || len(products) == 0 {
			continue
		}
		product := products[0]
		if len(product.Variants) == 0 {
			return nil, nil
		}
		for j := range product.Variants {
			if product.Variants[j].InStock {
				return product, &product.Variants[j]
			}
		}
		return nil, nil
	}
	return nil, nil
}

func clarifyVariantOptions(p *store.Product, variants []store.Variant) *commerce.Error {
	opts := make([]string, 0, len(variants))
	for _, v := range variants {
		opts = append(opts, fmt.Sprintf("%s/%s", v.Size, v.Color))
	}
	return commerce.NewClarification(fmt.Sprintf("Which option for %s would you like?", p.Name), opts)
}

func clarifyProductOptions(products []*store.Product) *commerce.Error {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return commerce.NewClarification("Which of these did you mean?", names)
}
