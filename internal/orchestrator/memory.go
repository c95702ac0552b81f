package orchestrator

import (
	"strings"
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

const memorySummaryMaxChars = 180

// recordMemoryWriteback is the body of the fire-and-forget memory write
// dispatched after every turn, mirroring memory_service.py's
// record_interaction: it appends a bounded interaction summary and
// folds any products/order line items the response surfaced into the
// shopper's running product/category/brand affinity scores.
func recordMemoryWriteback(repo commerce.MemoryRepository, userID, intentName, message string, response commerce.AgentResponse) {
	if userID == "" {
		return
	}
	m := repo.GetMemory(userID)

	m.InteractionHistory = append(m.InteractionHistory, store.InteractionSummary{
		Type:      intentName,
		Timestamp: time.Now(),
		Query:     truncateRunes(message, memorySummaryMaxChars),
		Action:    intentName,
		Response:  truncateRunes(response.Message, memorySummaryMaxChars),
	})
	const maxHistory = 200
	if len(m.InteractionHistory) > maxHistory {
		m.InteractionHistory = m.InteractionHistory[len(m.InteractionHistory)-maxHistory:]
	}

	if m.ProductAffinities.Brands == nil {
		m.ProductAffinities.Brands = map[string]int{}
	}
	if m.ProductAffinities.Categories == nil {
		m.ProductAffinities.Categories = map[string]int{}
	}
	if m.ProductAffinities.Products == nil {
		m.ProductAffinities.Products = map[string]int{}
	}

	if products, ok := response.Data["products"].([]interface{}); ok {
		for _, raw := range products {
			p, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if id := stringField(p, "id"); id != "" {
				m.ProductAffinities.Products[id]++
			}
			if cat := strings.ToLower(strings.TrimSpace(stringField(p, "category"))); cat != "" {
				m.ProductAffinities.Categories[cat]++
			}
			if brand := strings.ToLower(strings.TrimSpace(stringField(p, "brand"))); brand != "" {
				m.ProductAffinities.Brands[brand]++
			}
		}
	}
	if order, ok := response.Data["order"].(map[string]interface{}); ok {
		if items, ok := order["items"].([]interface{}); ok {
			for _, raw := range items {
				item, ok := raw.(map[string]interface{})
				if !ok {
					continue
				}
				productID := stringField(item, "productId")
				if productID == "" {
					continue
				}
				qty := 1
				if q, ok := item["quantity"].(float64); ok {
					qty = int(q)
				}
				m.ProductAffinities.Products[productID] += qty
			}
		}
	}

	repo.SaveMemory(userID, m)
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
