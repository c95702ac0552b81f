package commerce

import (
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// RateLimitDecision is the fixed-window limiter's verdict for one
// check, mirroring the wire shape the gateway surfaces to callers that
// get throttled (429 Retry-After math derives from ResetEpoch).
type RateLimitDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetEpoch int64
}

// CartRepository is the persistence surface the cart/product/order
// agents depend on. *store.MemoryStore satisfies it today; a
// Postgres-backed implementation can replace it without touching any
// agent.
type CartRepository interface {
	ListProducts() []*store.Product
	GetProduct(id string) (*store.Product, bool)
	GetOrCreateCart(userID, sessionID string) *store.Cart
	SaveCart(c *store.Cart)
	AttachCartToUser(sessionID, userID string) *store.Cart
	NextItemID() string
	ListAbandonedCarts(cutoff time.Time) []*store.Cart
}

// OrderRepository is the persistence surface the order agent depends on.
type OrderRepository interface {
	ReserveOrderID() string
	CommitOrder(o *store.Order)
	GetOrder(id string) (*store.Order, bool)
	ListOrdersForUser(userID string) []*store.Order
	SaveOrder(o *store.Order)
	CheckIdempotency(key string) (string, bool)
	CommitIdempotency(key, orderID string)
	MarkCartConverted(c *store.Cart)
}

// SupportRepository is the persistence surface the support agent
// depends on.
type SupportRepository interface {
	CreateTicket(t *store.SupportTicket)
	GetTicket(id string) (*store.SupportTicket, bool)
	SaveTicket(t *store.SupportTicket)
	ListTicketsForSession(userID, sessionID string) []*store.SupportTicket
	LatestOpenTicket(userID, sessionID string) *store.SupportTicket
}

// MemoryRepository is the persistence surface the memory agent and the
// orchestrator's context builder depend on.
type MemoryRepository interface {
	GetMemory(userID string) *store.Memory
	SaveMemory(userID string, m *store.Memory)
}

// ProductRepository is the read-only catalog surface. CartRepository
// declares the same two methods, so any CartRepository also satisfies
// it; no component in this module takes a ProductRepository.
type ProductRepository interface {
	ListProducts() []*store.Product
	GetProduct(id string) (*store.Product, bool)
}

// UserRepository resolves shopper identity for the voice-recovery
// control loop (phone number, timezone) and for cart/order attribution.
type UserRepository interface {
	GetUser(id string) (*store.User, bool)
	SaveUser(u *store.User)
}

// VoiceJobRepository persists the abandoned-cart recovery job queue the
// voice scheduler drains.
type VoiceJobRepository interface {
	EnqueueVoiceJob(j *VoiceJob)
	GetVoiceJobByRecoveryKey(recoveryKey string) (*VoiceJob, bool)
	DueVoiceJobs(now time.Time) []*VoiceJob
	SaveVoiceJob(j *VoiceJob)
	CountVoiceJobsAwaitingWork() int
}

// VoiceCallRepository persists one call record per recovery key, plus
// the calls currently awaiting a provider status update. SPEC_FULL's
// audit requirements make this (along with AdminActivityRepository) the
// one collection a production deployment would back with Postgres
// instead of the in-memory store; see internal/voice's
// PostgresCallRepository (postgres.go), whose context-taking,
// error-returning methods do not implement this interface.
type VoiceCallRepository interface {
	GetVoiceCall(recoveryKey string) (*VoiceCall, bool)
	GetVoiceCallByProviderID(providerCallID string) (*VoiceCall, bool)
	SaveVoiceCall(c *VoiceCall)
	InFlightVoiceCalls() []*VoiceCall
	RecentVoiceCalls(since time.Time) []*VoiceCall
}

// VoiceSuppressionRepository tracks permanent voice opt-outs.
type VoiceSuppressionRepository interface {
	IsSuppressed(userID string) bool
	Suppress(userID, reason string)
}

// VoiceAlertRepository persists operational alerts raised by the
// scheduler's backlog/failure-ratio checks.
type VoiceAlertRepository interface {
	RecordAlert(a *VoiceAlert)
	RecentAlerts(limit int) []*VoiceAlert
}

// VoiceSettingsRepository holds the singleton voice-recovery tenant
// configuration.
type VoiceSettingsRepository interface {
	GetVoiceSettings() *VoiceSettings
	SaveVoiceSettings(s *VoiceSettings)
}

// AdminActivityRepository persists the hash-chained admin audit log.
// The in-memory implementation (admin.Chain in internal/admin) is a
// development stand-in; internal/admin's PostgresRepository is what a real
// deployment audits against, since this collection (along with voice
// call records) is the one SPEC_FULL §6 singles out as
// compliance-sensitive.
type AdminActivityRepository interface {
	AppendActivity(e *AdminActivityLog)
	LatestActivity() (*AdminActivityLog, bool)
	ListActivity(limit int) []*AdminActivityLog
}

// SessionRepository is the persistence surface internal/session depends
// on for conversation state and interaction history.
type SessionRepository interface {
	GetOrCreateSession(sessionID string) *SessionState
	SaveSession(s *SessionState)
	RecordInteraction(sessionID string, rec InteractionRecord)
	RecentInteractions(sessionID string, limit int) []InteractionRecord
}
