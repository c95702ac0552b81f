package agents

import (
	"strings"

	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// searchCatalog does a case-insensitive substring match across name,
// description, brand, tags and features, mirroring product_service.py's
// list_products query filter. category/brand, when non-empty, must
// match exactly (case-insensitive).
func searchCatalog(products []*store.Product, query, category, brand string) []*store.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	cat := strings.ToLower(strings.TrimSpace(category))
	br := strings.ToLower(strings.TrimSpace(brand))

	out := make([]*store.Product, 0)
	for _, p := range products {
		if p.Status != "active" {
			continue
		}
		if cat != "" && strings.ToLower(p.Category) != cat {
			continue
		}
		if br != "" && strings.ToLower(p.Brand) != br {
			continue
		}
		if q != "" && !productMatches(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func productMatches(p *store.Product, q string) bool {
	haystack := strings.ToLower(strings.Join(append([]string{p.Name, p.Description, p.Brand}, append(p.Tags, p.Features...)...), " "))
	return strings.Contains(haystack, q)
}

// matchingInStockVariants filters a product's variants by optional
// color/size, keeping only those currently in stock.
func matchingInStockVariants(p *store.Product, color, size string) []store.Variant {
	color = strings.ToLower(strings.TrimSpace(color))
	size = strings.ToLower(strings.TrimSpace(size))
	out := make([]store.Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		if !v.InStock {
			continue
		}
		if color != "" && strings.ToLower(v.Color) != color {
			continue
		}
		if size != "" && strings.ToLower(v.Size) != size {
			continue
		}
		out = append(out, v)
	}
	return out
}
