// Package ratelimit implements the fixed-window request limiter the
// gateway applies per session/channel, and a second instance the voice
// control loop applies per phone number to bound daily outbound calls.
//
// Grounded on backend/app/infrastructure/rate_limiter.py's
// SlidingWindowRateLimiter: fixed-width buckets keyed by
// "<key>:<windowStart>", opportunistic cleanup of buckets more than
// three windows old, and a hard deny once a bucket's count reaches the
// configured limit. golang.org/x/time/rate's token-bucket model doesn't
// express this fixed-window-with-reset-epoch contract (the wire
// protocol needs a concrete ResetEpoch to hand back as Retry-After), so
// this stays a plain mutex+map port rather than a token bucket; x/time/rate
// is wired instead into the voice package's outbound call pacing, which
// is a genuine token-bucket fit.
package ratelimit

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

// Limiter is a thread-safe fixed-window rate limiter.
type Limiter struct {
	mu            sync.Mutex
	windowSeconds int64
	limit         int
	buckets       map[string]int
}

// New builds a Limiter. windowSeconds and limit are taken directly from
// config.RateLimitConfig (or its Voice* counterpart for the voice
// control loop's per-user daily cap).
func New(windowSeconds, limit int) *Limiter {
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	if limit <= 0 {
		limit = 30
	}
	return &Limiter{
		windowSeconds: int64(windowSeconds),
		limit:         limit,
		buckets:       map[string]int{},
	}
}

func (l *Limiter) windowStart(now int64) int64 {
	return now - (now % l.windowSeconds)
}

func (l *Limiter) bucketKey(key string, windowStart int64) string {
	return key + ":" + strconv.FormatInt(windowStart, 10)
}

// Check increments key's current-window count and reports whether the
// request is allowed. Must be called once per request considered
// against the limit (checking without consuming is not supported, to
// match the Python service's single check()-does-both contract).
func (l *Limiter) Check(key string) commerce.RateLimitDecision {
	now := time.Now().Unix()
	windowStart := l.windowStart(now)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanup(windowStart)

	bucket := l.bucketKey(key, windowStart)
	count := l.buckets[bucket]
	resetEpoch := windowStart + l.windowSeconds

	if count >= l.limit {
		return commerce.RateLimitDecision{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			ResetEpoch: resetEpoch,
		}
	}

	l.buckets[bucket] = count + 1
	remaining := l.limit - (count + 1)
	if remaining < 0 {
		remaining = 0
	}
	return commerce.RateLimitDecision{
		Allowed:    true,
		Limit:      l.limit,
		Remaining:  remaining,
		ResetEpoch: resetEpoch,
	}
}

// cleanup drops buckets more than three windows stale, bounding the
// map's size the same way the Python implementation does rather than
// running a separate GC goroutine.
func (l *Limiter) cleanup(windowStart int64) {
	cutoff := windowStart - l.windowSeconds*3
	for k := range l.buckets {
		ws := parseWindowFromKey(k)
		if ws < cutoff {
			delete(l.buckets, k)
		}
	}
}

func parseWindowFromKey(key string) int64 {
	idx := strings.LastIndexByte(key, ':')
	if idx < 0 {
		return 0
	}
	n, err := strconv.ParseInt(key[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
