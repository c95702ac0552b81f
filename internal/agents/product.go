package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// ProductAgent answers product_search. Saved category/brand preferences
// fill in a missing category/brand only when the search query is empty;
// a category still missing after that falls back to the top implicit
// category affinity, and a saved color preference applies whenever no
// color is given. Results are ranked by how strongly they match those
// signals — mirroring product_agent.py.
type ProductAgent struct {
	store *store.MemoryStore
}

func NewProductAgent(s *store.MemoryStore) *ProductAgent {
	return &ProductAgent{store: s}
}

func (a *ProductAgent) Name() string { return "product" }

var fillerPhrases = []string{
	"show me", "find", "looking for", "search for", "i want", "i need", "can you show me",
}
var genericWords = map[string]bool{"something": true, "products": true, "items": true, "stuff": true}

var categoryKeywords = map[string]string{
	"shoe": "shoes", "shoes": "shoes", "runner": "shoes", "sneaker": "shoes",
	"hoodie": "clothing", "jogger": "clothing", "joggers": "clothing", "sweatshirt": "clothing",
	"sock": "accessories", "socks": "accessories", "backpack": "accessories", "bag": "accessories",
}

var brandKeywords = map[string]string{
	"strideforge": "StrideForge", "peakroute": "PeakRoute", "aerothread": "AeroThread", "carryworks": "CarryWorks",
}

func (a *ProductAgent) Execute(ctx context.Context, action commerce.AgentAction, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	if action.Name != "search_products" {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "unsupported product action: "+action.Name)
	}
	return a.search(action.Params, actx)
}

func (a *ProductAgent) search(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	query := normalizeQuery(paramString(params, "query"))
	category := paramString(params, "category")
	brand := paramString(params, "brand")
	color := paramString(params, "color")

	reason := ""
	if category == "" {
		if c := inferCategory(query); c != "" {
			category = c
		}
	}
	if brand == "" {
		if b := inferBrand(query); b != "" {
			brand = b
		}
	}
	if category == "" && query == "" {
		if prefCats := stringSliceFrom(actx.Preferences, "categories"); len(prefCats) > 0 {
			category = prefCats[0]
			reason = "Based on your saved preference for category " + category + "."
		}
	}
	if category == "" {
		if top := topAffinityKey(actx.Memory, "categories"); top != "" {
			category = top
			reason = "Based on your recent interest in " + category + "."
		}
	}
	if brand == "" && query == "" {
		if prefBrands := stringSliceFrom(actx.Preferences, "brandPreferences"); len(prefBrands) > 0 {
			brand = prefBrands[0]
			if reason == "" {
				reason = "Based on your saved preference for brand " + brand + "."
			}
		}
	}
	if color == "" {
		if prefColors := stringSliceFrom(actx.Preferences, "colorPreferences"); len(prefColors) > 0 {
			color = prefColors[0]
		}
	}

	candidates := searchCatalog(a.store.ListProducts(), query, category, brand)
	if color != "" {
		candidates = filterByColor(candidates, color)
	}

	rankProductsByAffinity(candidates, actx)

	if len(candidates) == 0 {
		return commerce.AgentExecutionResult{
			Success: true,
			Message: "I couldn't find anything matching that. Want to try a different category or brand?",
			Data:    map[string]interface{}{"products": candidates},
		}, nil
	}

	msg := fmt.Sprintf("Found %d product(s).", len(candidates))
	if reason != "" {
		msg += " " + reason
	}

	top := candidates[0]
	nextActions := []commerce.NextAction{}
	if len(top.Variants) > 0 {
		nextActions = append(nextActions, commerce.NextAction{Label: "Add " + top.Name, Action: "add_to_cart"})
	}
	nextActions = append(nextActions, commerce.NextAction{Label: "Show my cart", Action: "view_cart"})

	return commerce.AgentExecutionResult{
		Success:     true,
		Message:     msg,
		Data:        map[string]interface{}{"products": candidates},
		NextActions: nextActions,
	}, nil
}

func normalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	for _, phrase := range fillerPhrases {
		q = strings.ReplaceAll(q, phrase, "")
	}
	words := strings.Fields(q)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if genericWords[w] {
			continue
		}
		out = append(out, w)
	}
	return strings.TrimSpace(strings.Join(out, " "))
}

func inferCategory(query string) string {
	for kw, cat := range categoryKeywords {
		if strings.Contains(query, kw) {
			return cat
		}
	}
	return ""
}

func inferBrand(query string) string {
	for kw, brand := range brandKeywords {
		if strings.Contains(query, kw) {
			return brand
		}
	}
	return ""
}

func filterByColor(products []*store.Product, color string) []*store.Product {
	color = strings.ToLower(color)
	out := make([]*store.Product, 0, len(products))
	for _, p := range products {
		for _, v := range p.Variants {
			if strings.ToLower(v.Color) == color {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// rankProductsByAffinity sorts by direct product score, then category
// score, then brand score, then rating, all descending — mirroring
// product_agent.py's result ordering.
func rankProductsByAffinity(products []*store.Product, actx commerce.AgentContext) {
	productScores := intMapFrom(actx.Memory, "productAffinities", "products")
	categoryScores := intMapFrom(actx.Memory, "productAffinities", "categories")
	brandScores := intMapFrom(actx.Memory, "productAffinities", "brands")

	sort.SliceStable(products, func(i, j int) bool {
		pi, pj := products[i], products[j]
		if a, b := productScores[pi.ID], productScores[pj.ID]; a != b {
			return a > b
		}
		if a, b := categoryScores[pi.Category], categoryScores[pj.Category]; a != b {
			return a > b
		}
		if a, b := brandScores[pi.Brand], brandScores[pj.Brand]; a != b {
			return a > b
		}
		return pi.Rating > pj.Rating
	})
}

func stringSliceFrom(m map[string]interface{}, key string) []string {
	raw, ok := m[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func topAffinityKey(memory map[string]interface{}, field string) string {
	scores := intMapFrom(memory, "productAffinities", field)
	best, bestScore := "", 0
	for k, v := range scores {
		if v > bestScore {
			best, bestScore = k, v
		}
	}
	return best
}

func intMapFrom(m map[string]interface{}, outerKey, innerKey string) map[string]int {
	outer, ok := m[outerKey]
	if !ok {
		return map[string]int{}
	}
	outerMap, ok := outer.(map[string]interface{})
	if !ok {
		return map[string]int{}
	}
	inner, ok := outerMap[innerKey]
	if !ok {
		if im, ok := outer.(map[string]map[string]int); ok {
			return im[innerKey]
		}
		return map[string]int{}
	}
	switch v := inner.(type) {
	case map[string]int:
		return v
	case map[string]interface{}:
		out := make(map[string]int, len(v))
		for k, val := range v {
			switch n := val.(type) {
			case int:
				out[k] = n
			case float64:
				out[k] = int(n)
			}
		}
		return out
	}
	return map[string]int{}
}
