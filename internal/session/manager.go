// Package session tracks per-shopper conversation state (last intent,
// last agent, entities carried across turns) and the bounded
// interaction history the orchestrator reads back when assembling
// context for the next turn.
//
// Grounded on backend/app/services/session_service.py for the
// conversation/shopping state shape and its touch-then-refresh locking
// discipline. session_service.py's companion interaction log
// (self.interaction_service.recent/record, called throughout
// orchestrator_core.py) was never shipped as its own file in the
// source pack — the log here is reconstructed from that call-site
// contract plus session_service.py's own bounded-history precedent
// (Memory.InteractionHistory is capped the same way by the orchestrator's
// memory write-back in internal/orchestrator).
package session

import (
	"sync"
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

const (
	defaultTTL        = 30 * time.Minute
	maxInteractionLog = 200
)

// Manager is a thread-safe, in-process session store. A Postgres- or
// Redis-backed implementation can satisfy commerce.SessionRepository
// the same way without touching the orchestrator.
type Manager struct {
	mu  sync.Mutex
	ttl time.Duration

	sessions     map[string]*commerce.SessionState
	interactions map[string][]commerce.InteractionRecord
}

// New builds a Manager. ttl <= 0 falls back to 30 minutes, matching the
// Python service's session expiry.
func New(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{
		ttl:          ttl,
		sessions:     map[string]*commerce.SessionState{},
		interactions: map[string][]commerce.InteractionRecord{},
	}
}

// GetOrCreateSession returns the session, creating a fresh one when it is
// missing or expired and refreshing LastActivity on every call — mirroring session_service.py's
// create_session/touch pairing at the top of every request.
func (m *Manager) GetOrCreateSession(sessionID string) *commerce.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	s, ok := m.sessions[sessionID]
	if !ok || s.Expired(m.ttl, now) {
		s = &commerce.SessionState{
			ID:        sessionID,
			CreatedAt: now,
			Conversation: commerce.ConversationState{
				Entities: map[string]interface{}{},
			},
			Shopping: commerce.ShoppingState{
				ViewedProducts: []string{},
				SearchHistory:  []string{},
			},
		}
		m.sessions[sessionID] = s
	}
	s.LastActivity = now
	return s
}

// SaveSession persists s and refreshes LastActivity.
func (m *Manager) SaveSession(s *commerce.SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.LastActivity = time.Now()
	m.sessions[s.ID] = s
}

// AttachUser binds an authenticated user to a previously anonymous
// session, mirroring session_service.py's attach_user.
func (m *Manager) AttachUser(sessionID, userID string) *commerce.SessionState {
	s := m.GetOrCreateSession(sessionID)
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UserID = userID
	s.LastActivity = time.Now()
	return s
}

// UpdateConversation records the latest turn's intent/agent/message/
// entities, mirroring session_service.py's update_conversation.
func (m *Manager) UpdateConversation(sessionID, intent, agent, message string, entities map[string]interface{}) {
	s := m.GetOrCreateSession(sessionID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if entities == nil {
		entities = map[string]interface{}{}
	}
	s.Conversation = commerce.ConversationState{
		LastIntent:  intent,
		LastAgent:   agent,
		LastMessage: message,
		Entities:    entities,
	}
	s.LastActivity = time.Now()
}

// UpdateShopping records the shopper's current cart/browsing context.
func (m *Manager) UpdateShopping(sessionID, cartID string, viewedProduct, searchQuery string) {
	s := m.GetOrCreateSession(sessionID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if cartID != "" {
		s.Shopping.CartID = cartID
	}
	if viewedProduct != "" {
		s.Shopping.ViewedProducts = appendBounded(s.Shopping.ViewedProducts, viewedProduct, 20)
	}
	if searchQuery != "" {
		s.Shopping.SearchHistory = appendBounded(s.Shopping.SearchHistory, searchQuery, 20)
	}
	s.LastActivity = time.Now()
}

func appendBounded(list []string, v string, max int) []string {
	list = append(list, v)
	if len(list) > max {
		list = list[len(list)-max:]
	}
	return list
}

// RecordInteraction appends one completed orchestrator turn to the
// session's interaction history, ring-buffered at maxInteractionLog —
// the Go equivalent of interaction_service.record(...).
func (m *Manager) RecordInteraction(sessionID string, rec commerce.InteractionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := append(m.interactions[sessionID], rec)
	if len(log) > maxInteractionLog {
		log = log[len(log)-maxInteractionLog:]
	}
	m.interactions[sessionID] = log
}

// RecentInteractions returns up to limit of the session's most recent
// interactions, oldest-first — the Go equivalent of
// interaction_service.recent(session_id, limit).
func (m *Manager) RecentInteractions(sessionID string, limit int) []commerce.InteractionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := m.interactions[sessionID]
	if limit <= 0 || limit >= len(log) {
		out := make([]commerce.InteractionRecord, len(log))
		copy(out, log)
		return out
	}
	start := len(log) - limit
	out := make([]commerce.InteractionRecord, limit)
	copy(out, log[start:])
	return out
}
