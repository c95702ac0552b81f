// Package commerce holds the shared data model for the conversational
// orchestrator and the voice-recovery control loop: intents, actions,
// agent contracts, and the voice domain's job/call/alert records.
package commerce

import "time"

// SupportedIntents is the closed set of intent names the classifier and
// planner may ever produce.
var SupportedIntents = map[string]bool{
	"product_search":        true,
	"search_and_add_to_cart": true,
	"add_to_cart":           true,
	"add_multiple_to_cart":  true,
	"update_cart":           true,
	"adjust_cart_quantity":  true,
	"remove_from_cart":      true,
	"clear_cart":            true,
	"apply_discount":        true,
	"view_cart":             true,
	"checkout":              true,
	"order_status":          true,
	"change_order_address":  true,
	"cancel_order":          true,
	"request_refund":        true,
	"multi_status":          true,
	"show_memory":           true,
	"save_preference":       true,
	"forget_preference":     true,
	"clear_memory":          true,
	"support_escalation":    true,
	"support_status":        true,
	"support_close":         true,
	"general_question":      true,
}

// Utterance is a raw shopper message plus routing metadata.
type Utterance struct {
	Text      string
	Channel   string
	SessionID string
	UserID    string // empty for anonymous/guest
	Timestamp time.Time
}

// IntentResult is the classifier's output.
type IntentResult struct {
	Name       string
	Confidence float64
	Entities   map[string]interface{}
}

// ClampConfidence clamps a confidence value to [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// RecentTurn is one prior classified turn, most-recent-last, used by the
// classifier's price-refinement continuation rule and by agents' recent-
// interaction inference.
type RecentTurn struct {
	Intent  string
	Agent   string
	Message string
}

// ClassifyContext is optional context passed to the classifier.
type ClassifyContext struct {
	Recent []RecentTurn
}

// AgentAction is a named operation with parameters, optionally pinned to
// a target agent.
type AgentAction struct {
	Name         string
	Params       map[string]interface{}
	TargetAgent  string // empty: resolved by the agent router
}

// AgentContext is assembled per-request and is immutable within it.
type AgentContext struct {
	SessionID      string
	UserID         string // empty for anonymous
	Channel        string
	Session        map[string]interface{}
	Cart           map[string]interface{}
	Preferences    map[string]interface{}
	Memory         map[string]interface{}
	RecentMessages []InteractionRecord
}

// AgentExecutionResult is what an agent returns for one action.
type AgentExecutionResult struct {
	Success     bool
	Message     string
	Data        map[string]interface{}
	NextActions []NextAction
}

// NextAction is a suggested follow-up shown to the shopper.
type NextAction struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// AgentResponse is the orchestrator's wire-level result.
type AgentResponse struct {
	Message          string                 `json:"message"`
	Agent            string                 `json:"agent"`
	Success          bool                   `json:"success"`
	Data             map[string]interface{} `json:"data,omitempty"`
	SuggestedActions []NextAction           `json:"suggestedActions,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// InteractionRecord is persisted after every orchestrator call.
type InteractionRecord struct {
	SessionID string
	UserID    string
	Message   string
	Intent    string
	Agent     string
	Response  AgentResponse
	Timestamp time.Time
}

// ConversationState is the orchestrator-facing slice of a session: what
// the shopper was last doing, so the next turn's ambiguous references
// ("the blue one", "cancel it") can be resolved.
type ConversationState struct {
	LastIntent  string
	LastAgent   string
	LastMessage string
	Entities    map[string]interface{}
}

// ShoppingState is the session's cart/browsing context, kept separate
// from ConversationState because it survives intent switches (a
// shopper can ask a support question mid-checkout without losing their
// cart reference).
type ShoppingState struct {
	CartID         string
	ViewedProducts []string
	SearchHistory  []string
}

// SessionState is one shopper's conversation session: identity binding,
// conversation/shopping context, and idle-expiry bookkeeping.
type SessionState struct {
	ID           string
	UserID       string
	Channel      string
	Conversation ConversationState
	Shopping     ShoppingState
	CreatedAt    time.Time
	LastActivity time.Time
}

// Expired reports whether the session has been idle longer than ttl.
func (s *SessionState) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.LastActivity) > ttl
}

// PlanAction is one step of an LLM-produced action plan, already
// validated against the per-action allow-list.
type PlanAction struct {
	Name        string
	TargetAgent string
	Params      map[string]interface{}
}

// ActionPlan is the LLM planner's validated output.
type ActionPlan struct {
	Actions               []PlanAction
	Confidence            float64
	NeedsClarification    bool
	ClarificationQuestion string
}

// VoiceSettings is the singleton tenant configuration for the voice
// recovery control loop.
type VoiceSettings struct {
	Enabled                    bool
	KillSwitch                 bool
	AbandonmentMinutes         int
	MaxAttemptsPerCart         int
	MaxCallsPerUserPerDay      int
	MaxCallsPerDay             int
	DailyBudgetUSD             float64
	EstimatedCostPerCallUSD    float64
	QuietHoursStart            int
	QuietHoursEnd              int
	RetryBackoffSeconds        []int
	ScriptVersion              string
	ScriptTemplate             string
	AssistantID                string
	FromPhoneNumber            string
	DefaultTimezone            string
	AlertBacklogThreshold      int
	AlertFailureRatioThreshold float64
}

// VoiceJobStatus enumerates VoiceJob lifecycle states.
type VoiceJobStatus string

const (
	VoiceJobQueued     VoiceJobStatus = "queued"
	VoiceJobRetrying   VoiceJobStatus = "retrying"
	VoiceJobProcessing VoiceJobStatus = "processing"
	VoiceJobCompleted  VoiceJobStatus = "completed"
	VoiceJobCancelled  VoiceJobStatus = "cancelled"
	VoiceJobDeadLetter VoiceJobStatus = "dead_letter"
)

// VoiceJob tracks one abandoned-cart recovery attempt chain.
type VoiceJob struct {
	ID          string
	Status      VoiceJobStatus
	UserID      string
	SessionID   string
	CartID      string
	RecoveryKey string
	Attempt     int
	NextRunAt   time.Time
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VoiceCallStatus enumerates VoiceCall lifecycle states.
type VoiceCallStatus string

const (
	VoiceCallQueued     VoiceCallStatus = "queued"
	VoiceCallInitiated  VoiceCallStatus = "initiated"
	VoiceCallRinging    VoiceCallStatus = "ringing"
	VoiceCallInProgress VoiceCallStatus = "in_progress"
	VoiceCallCompleted  VoiceCallStatus = "completed"
	VoiceCallFailed     VoiceCallStatus = "failed"
	VoiceCallSuppressed VoiceCallStatus = "suppressed"
	VoiceCallSkipped    VoiceCallStatus = "skipped"
)

// VoiceCallAttempt records one dispatch attempt's request/response.
type VoiceCallAttempt struct {
	Attempt   int
	Timestamp time.Time
	Status    string
	Error     string
	Request   map[string]interface{}
	Response  map[string]interface{}
}

// VoiceProviderEvent is one normalized webhook/poll event applied to a call.
type VoiceProviderEvent struct {
	Key        string
	Status     string
	Outcome    string
	ReceivedAt time.Time
}

const (
	maxProviderEventKeys = 200
	maxCallAttempts      = 200
)

// VoiceCall is the per-recoveryKey call record.
type VoiceCall struct {
	ID                string
	RecoveryKey       string
	UserID            string
	SessionID         string
	CartID            string
	Status            VoiceCallStatus
	Attempts          []VoiceCallAttempt
	ProviderCallID    string
	ProviderEventKeys []string
	ProviderEvents    []VoiceProviderEvent
	Outcome           string
	ScriptVersion     string
	Campaign          string
	EstimatedCostUSD  float64
	FollowupApplied   bool
	NextRetryAt       *time.Time
	LastError         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasEventKey reports whether eventKey has already been applied.
func (c *VoiceCall) HasEventKey(eventKey string) bool {
	for _, k := range c.ProviderEventKeys {
		if k == eventKey {
			return true
		}
	}
	return false
}

// AppendEvent records a new provider event, ring-buffering both the
// dedupe-key list and the event list at their respective caps.
func (c *VoiceCall) AppendEvent(eventKey string, ev VoiceProviderEvent) {
	c.ProviderEventKeys = append(c.ProviderEventKeys, eventKey)
	if len(c.ProviderEventKeys) > maxProviderEventKeys {
		c.ProviderEventKeys = c.ProviderEventKeys[len(c.ProviderEventKeys)-maxProviderEventKeys:]
	}
	c.ProviderEvents = append(c.ProviderEvents, ev)
	if len(c.ProviderEvents) > maxProviderEventKeys {
		c.ProviderEvents = c.ProviderEvents[len(c.ProviderEvents)-maxProviderEventKeys:]
	}
}

// AppendAttempt records a dispatch attempt, ring-buffered at maxCallAttempts.
func (c *VoiceCall) AppendAttempt(a VoiceCallAttempt) {
	c.Attempts = append(c.Attempts, a)
	if len(c.Attempts) > maxCallAttempts {
		c.Attempts = c.Attempts[len(c.Attempts)-maxCallAttempts:]
	}
}

// VoiceSuppression is a persistent voice opt-out for one user.
type VoiceSuppression struct {
	UserID    string
	Reason    string
	CreatedAt time.Time
}

// AlertSeverity enumerates VoiceAlert severities.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// VoiceAlert is one operational alert emitted by the scheduler or executor.
type VoiceAlert struct {
	ID        string
	Code      string
	Message   string
	Severity  AlertSeverity
	Details   map[string]interface{}
	CreatedAt time.Time
}

// AdminActivityLog is one hash-chained audit entry.
type AdminActivityLog struct {
	ID         string
	AdminID    string
	AdminEmail string
	Action     string
	Resource   string
	ResourceID string
	Before     map[string]interface{}
	After      map[string]interface{}
	IPAddress  string
	UserAgent  string
	Timestamp  time.Time
	PrevHash   string
	HashVersion string
	EntryHash  string
}
