package orchestrator

import (
	"encoding/json"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/session"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// ContextBuilder assembles the per-request commerce.AgentContext every
// agent executes against. No standalone context_builder.py shipped in
// the source pack — this is reconstructed from orchestrator_core.py's
// call site (intent/session_id/user_id/channel/recent_messages in,
// AgentContext out) plus session_service.py and memory_service.py's
// document shapes for the Preferences/Memory maps agents read.
type ContextBuilder struct {
	sessions *session.Manager
	memory   commerce.MemoryRepository
}

// NewContextBuilder builds a ContextBuilder.
func NewContextBuilder(sessions *session.Manager, memory commerce.MemoryRepository) *ContextBuilder {
	return &ContextBuilder{sessions: sessions, memory: memory}
}

// Build assembles context for one request, attaching userID to the
// session if present and folding the shopper's saved preferences and
// behavioral affinities into the generic maps agents read
// (actx.Preferences / actx.Memory).
func (b *ContextBuilder) Build(sessionID, userID, channel string, recentMessages []commerce.InteractionRecord) commerce.AgentContext {
	s := b.sessions.GetOrCreateSession(sessionID)
	if userID != "" && s.UserID == "" {
		s = b.sessions.AttachUser(sessionID, userID)
	}
	if s.UserID != "" {
		userID = s.UserID
	}

	actx := commerce.AgentContext{
		SessionID:      sessionID,
		UserID:         userID,
		Channel:        channel,
		Session:        sessionStateMap(s),
		RecentMessages: recentMessages,
		Preferences:    map[string]interface{}{},
		Memory:         map[string]interface{}{},
	}

	if userID != "" {
		m := b.memory.GetMemory(userID)
		actx.Preferences = toMap(m.Preferences)
		actx.Memory = map[string]interface{}{
			"productAffinities":  toMap(m.ProductAffinities),
			"interactionHistory": m.InteractionHistory,
		}
	}

	return actx
}

func sessionStateMap(s *commerce.SessionState) map[string]interface{} {
	return map[string]interface{}{
		"lastIntent":  s.Conversation.LastIntent,
		"lastAgent":   s.Conversation.LastAgent,
		"cartId":      s.Shopping.CartID,
		"viewedCount": len(s.Shopping.ViewedProducts),
	}
}

// toMap round-trips v through JSON into a generic map, so the agents'
// field lookups (which key on the struct's json tags, e.g.
// "brandPreferences", "productAffinities") see exactly the shape the
// store's typed documents already define, with no duplicated schema.
func toMap(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

// recentTurnsFromInteractions adapts persisted InteractionRecords into
// the RecentTurn shape the classifier and planner consume.
func recentTurnsFromInteractions(records []commerce.InteractionRecord) []commerce.RecentTurn {
	out := make([]commerce.RecentTurn, 0, len(records))
	for _, r := range records {
		out = append(out, commerce.RecentTurn{Intent: r.Intent, Agent: r.Agent, Message: r.Message})
	}
	return out
}

// recentTurnsFromMemory reconstructs a best-effort recent-turn history
// from a user's saved interaction summaries when the session itself has
// none yet (a returning shopper on a fresh session) — mirroring
// orchestrator_core.py's _recent_from_memory fallback.
func recentTurnsFromMemory(m *store.Memory, limit int) []commerce.RecentTurn {
	history := m.InteractionHistory
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]commerce.RecentTurn, 0, len(history))
	for _, row := range history {
		if row.Query == "" && row.Response == "" {
			continue
		}
		out = append(out, commerce.RecentTurn{Intent: row.Type, Agent: "memory", Message: row.Query})
	}
	return out
}
