package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// MemoryAgent manages a shopper's saved preferences and lets them
// inspect or clear their history. Like OrderAgent, it has no upstream
// Python file in the distillation pack: agent_router.py routes
// show_memory/save_preference/forget_preference/clear_memory to a
// "memory" agent that container.py never registers. This file
// reconstructs it, grounded directly on memory_service.py's preference
// document shape and mutation rules.
type MemoryAgent struct {
	store *store.MemoryStore
}

func NewMemoryAgent(s *store.MemoryStore) *MemoryAgent {
	return &MemoryAgent{store: s}
}

func (a *MemoryAgent) Name() string { return "memory" }

func (a *MemoryAgent) Execute(ctx context.Context, action commerce.AgentAction, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	switch action.Name {
	case "show_memory":
		return a.show(actx)
	case "save_preference":
		return a.save(action.Params, actx)
	case "forget_preference":
		return a.forget(action.Params, actx)
	case "clear_memory":
		return a.clear(actx)
	default:
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "unsupported memory action: "+action.Name)
	}
}

func (a *MemoryAgent) show(actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	if actx.UserID == "" {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "sign in to view saved preferences")
	}
	m := a.store.GetMemory(actx.UserID)
	return commerce.AgentExecutionResult{
		Success: true,
		Message: summarizeMemory(m),
		Data:    map[string]interface{}{"memory": m},
	}, nil
}

// save merges a size string, a price range, and dedupe-preserving
// list-field tokens onto the shopper's saved preferences, mirroring
// memory_service.py's save_preference_updates.
func (a *MemoryAgent) save(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	if actx.UserID == "" {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "sign in to save preferences")
	}
	updates, _ := params["updates"].(map[string]interface{})
	if updates == nil {
		updates = params
	}
	m := a.store.GetMemory(actx.UserID)

	if size := paramString(updates, "size"); size != "" {
		m.Preferences.Size = size
	}
	if pr, ok := updates["priceRange"].(map[string]interface{}); ok {
		if min, ok := pr["min"]; ok {
			m.Preferences.PriceRange.Min = toFloat(min)
		}
		if max, ok := pr["max"]; ok {
			m.Preferences.PriceRange.Max = toFloat(max)
		}
	}

	m.Preferences.BrandPreferences = appendTokens(m.Preferences.BrandPreferences, updates, "brandPreferences")
	m.Preferences.Categories = appendTokens(m.Preferences.Categories, updates, "categories")
	m.Preferences.StylePreferences = appendTokens(m.Preferences.StylePreferences, updates, "stylePreferences")
	m.Preferences.ColorPreferences = appendTokens(m.Preferences.ColorPreferences, updates, "colorPreferences")

	a.store.SaveMemory(actx.UserID, m)
	return commerce.AgentExecutionResult{
		Success: true, Message: "Got it, I've saved that preference.",
		Data: map[string]interface{}{"memory": m},
	}, nil
}

func appendTokens(existing []string, params map[string]interface{}, key string) []string {
	raw, ok := params[key]
	if !ok {
		return existing
	}
	var tokens []string
	switch v := raw.(type) {
	case string:
		tokens = []string{v}
	case []interface{}:
		for _, e := range v {
			if s, ok := e.(string); ok {
				tokens = append(tokens, s)
			}
		}
	case []string:
		tokens = v
	}
	seen := map[string]bool{}
	for _, e := range existing {
		seen[e] = true
	}
	out := append([]string{}, existing...)
	for _, t := range tokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// forget clears a named preference field, or removes a specific value
// from whichever list field contains it, mirroring
// memory_service.py's forget_preference.
func (a *MemoryAgent) forget(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	if actx.UserID == "" {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "sign in to manage saved preferences")
	}
	m := a.store.GetMemory(actx.UserID)

	if field := paramString(params, "key"); field != "" {
		switch field {
		case "all":
			return a.clear(actx)
		case "size":
			m.Preferences.Size = ""
		case "priceRange":
			m.Preferences.PriceRange = store.PriceRange{}
		case "brandPreferences":
			m.Preferences.BrandPreferences = []string{}
		case "categories":
			m.Preferences.Categories = []string{}
		case "stylePreferences":
			m.Preferences.StylePreferences = []string{}
		case "colorPreferences":
			m.Preferences.ColorPreferences = []string{}
		default:
			return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "unknown preference field: "+field)
		}
		a.store.SaveMemory(actx.UserID, m)
		return commerce.AgentExecutionResult{Success: true, Message: "Forgot your " + field + " preference."}, nil
	}

	if value := strings.ToLower(paramString(params, "value")); value != "" {
		m.Preferences.BrandPreferences = removeValue(m.Preferences.BrandPreferences, value)
		m.Preferences.Categories = removeValue(m.Preferences.Categories, value)
		m.Preferences.StylePreferences = removeValue(m.Preferences.StylePreferences, value)
		m.Preferences.ColorPreferences = removeValue(m.Preferences.ColorPreferences, value)
		a.store.SaveMemory(actx.UserID, m)
		return commerce.AgentExecutionResult{Success: true, Message: "Forgot \"" + value + "\"."}, nil
	}

	return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "tell me which preference to forget")
}

func removeValue(list []string, value string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

// clear resets the entire memory document, history and affinities
// included, mirroring memory_service.py's clear_memory.
func (a *MemoryAgent) clear(actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	if actx.UserID == "" {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "sign in to manage saved preferences")
	}
	fresh := &store.Memory{
		Preferences: store.Preferences{
			BrandPreferences: []string{}, Categories: []string{}, StylePreferences: []string{}, ColorPreferences: []string{},
		},
		InteractionHistory: []store.InteractionSummary{},
		ProductAffinities: store.ProductAffinities{
			Brands: map[string]int{}, Categories: map[string]int{}, Products: map[string]int{},
		},
	}
	a.store.SaveMemory(actx.UserID, fresh)
	return commerce.AgentExecutionResult{Success: true, Message: "Cleared your saved preferences and history."}, nil
}

func summarizeMemory(m *store.Memory) string {
	var parts []string
	if m.Preferences.Size != "" {
		parts = append(parts, "size "+m.Preferences.Size)
	}
	if len(m.Preferences.Categories) > 0 {
		parts = append(parts, "categories: "+strings.Join(m.Preferences.Categories, ", "))
	}
	if len(m.Preferences.BrandPreferences) > 0 {
		parts = append(parts, "brands: "+strings.Join(m.Preferences.BrandPreferences, ", "))
	}
	if len(parts) == 0 {
		return "I don't have any saved preferences for you yet."
	}
	return fmt.Sprintf("Here's what I remember: %s.", strings.Join(parts, "; "))
}
