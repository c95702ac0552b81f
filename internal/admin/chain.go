// Package admin implements the hash-chained administrative activity
// log: every privileged action (refund override, suppression lift,
// config change) is appended as a tamper-evident entry whose hash
// commits to the previous entry's hash, so a later audit can detect any
// entry that was altered or removed after the fact.
//
// Grounded on backend/app/services/admin_activity_service.py's record/
// list_recent/verify_integrity/_compute_entry_hash. The companion
// admin_activity_repository.py write-through in the source pack targets
// MongoDB; this module follows SPEC_FULL's Postgres direction instead
// (see postgres.go), keeping only the hashing/verification logic here
// storage-agnostic so either backing store can reuse it.
package admin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

const hashVersionV1 = "v1"

// Chain is a thread-safe, hash-chained activity log. The in-memory
// implementation here satisfies commerce.AdminActivityRepository
// directly; Postgres-backed persistence (postgres.go) durably appends
// the same entries so the chain survives a restart.
type Chain struct {
	mu      sync.Mutex
	secret  []byte
	entries []*commerce.AdminActivityLog
}

// New builds a Chain. secret is the HMAC key; an empty secret still
// produces a valid (if operator-misconfigured) chain rather than
// panicking, since a missing secret should fail loudly at startup
// validation, not deep inside a request handler.
func New(secret string) *Chain {
	return &Chain{secret: []byte(secret)}
}

// Append records a new activity entry, chaining it to the previous
// entry's hash, and returns the fully populated entry (ID, timestamp,
// PrevHash, EntryHash all filled in).
func (c *Chain) Append(e *commerce.AdminActivityLog) *commerce.AdminActivityLog {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.ID = uuid.NewString()
	e.Timestamp = time.Now().UTC()
	e.HashVersion = hashVersionV1
	if n := len(c.entries); n > 0 {
		e.PrevHash = c.entries[n-1].EntryHash
	}
	e.EntryHash = c.computeEntryHash(e)
	c.entries = append(c.entries, e)
	return e
}

// AppendActivity satisfies commerce.AdminActivityRepository, discarding
// the populated-entry return value Append provides for callers that
// want it directly.
func (c *Chain) AppendActivity(e *commerce.AdminActivityLog) {
	c.Append(e)
}

// LatestActivity returns the most recently appended entry.
func (c *Chain) LatestActivity() (*commerce.AdminActivityLog, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return nil, false
	}
	return c.entries[len(c.entries)-1], true
}

// ListActivity returns up to limit of the most recent entries,
// newest-first, mirroring list_recent's ordering.
func (c *Chain) ListActivity(limit int) []*commerce.AdminActivityLog {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*commerce.AdminActivityLog, limit)
	for i := 0; i < limit; i++ {
		out[i] = c.entries[n-1-i]
	}
	return out
}

// IntegrityIssue names one specific problem verify_integrity found.
type IntegrityIssue struct {
	Index    int
	EntryID  string
	Problem  string // "missing_entry_hash" | "entry_hash_mismatch" | "prev_hash_mismatch"
}

// IntegrityReport is the result of walking the whole chain.
type IntegrityReport struct {
	Checked int
	Issues  []IntegrityIssue
}

// Valid reports whether the chain has no detected issues.
func (r IntegrityReport) Valid() bool { return len(r.Issues) == 0 }

// VerifyIntegrity walks the entire chain checking PrevHash continuity
// and recomputing each entry's EntryHash, collecting every deviation
// rather than stopping at the first one — an operator investigating a
// breach needs the full extent of tampering, not just its earliest
// point.
func (c *Chain) VerifyIntegrity() IntegrityReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := IntegrityReport{Checked: len(c.entries)}
	prevHash := ""
	for i, e := range c.entries {
		if e.EntryHash == "" {
			report.Issues = append(report.Issues, IntegrityIssue{Index: i, EntryID: e.ID, Problem: "missing_entry_hash"})
			prevHash = e.EntryHash
			continue
		}
		if i > 0 && e.PrevHash != prevHash {
			report.Issues = append(report.Issues, IntegrityIssue{Index: i, EntryID: e.ID, Problem: "prev_hash_mismatch"})
		}
		if c.computeEntryHash(e) != e.EntryHash {
			report.Issues = append(report.Issues, IntegrityIssue{Index: i, EntryID: e.ID, Problem: "entry_hash_mismatch"})
		}
		prevHash = e.EntryHash
	}
	return report
}

// canonicalEntry is the fixed, EntryHash-excluding projection of an
// entry that gets hashed. encoding/json serializes struct fields in
// declaration order and map keys in sorted order, which gives the
// deterministic byte sequence Python's json.dumps(sort_keys=True)
// produces without any custom canonicalization step.
type canonicalEntry struct {
	ID          string                 `json:"id"`
	AdminID     string                 `json:"adminId"`
	AdminEmail  string                 `json:"adminEmail"`
	Action      string                 `json:"action"`
	Resource    string                 `json:"resource"`
	ResourceID  string                 `json:"resourceId"`
	Before      map[string]interface{} `json:"before"`
	After       map[string]interface{} `json:"after"`
	IPAddress   string                 `json:"ipAddress"`
	UserAgent   string                 `json:"userAgent"`
	TimestampNS int64                  `json:"timestamp"`
	PrevHash    string                 `json:"prevHash"`
	HashVersion string                 `json:"hashVersion"`
}

func (c *Chain) computeEntryHash(e *commerce.AdminActivityLog) string {
	payload := canonicalEntry{
		ID:          e.ID,
		AdminID:     e.AdminID,
		AdminEmail:  e.AdminEmail,
		Action:      e.Action,
		Resource:    e.Resource,
		ResourceID:  e.ResourceID,
		Before:      e.Before,
		After:       e.After,
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
		TimestampNS: e.Timestamp.UnixNano(),
		PrevHash:    e.PrevHash,
		HashVersion: e.HashVersion,
	}
	data, _ := json.Marshal(payload)
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}
