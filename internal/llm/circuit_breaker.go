package llm

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by CircuitBreaker.Call when the breaker is
// open and not yet due for a recovery probe.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState is one of closed, open, half-open.
type CircuitState string

const (
	StateClosed   CircuitState = "closed"
	StateOpen     CircuitState = "open"
	StateHalfOpen CircuitState = "half-open"
)

// CircuitBreaker is a simple failure-count breaker protecting outbound
// LLM calls: it opens after FailureThreshold consecutive failures and
// probes again after RecoveryTimeout, closing on the first success.
type CircuitBreaker struct {
	failureThreshold int
	recoveryTimeout  time.Duration

	mu           sync.Mutex
	state        CircuitState
	failures     int
	openedAt     time.Time
	totalCalls   int
	totalFailure int
}

// NewCircuitBreaker builds a closed breaker.
func NewCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
	}
}

// Call runs fn if the breaker allows it, recording the outcome.
func (cb *CircuitBreaker) Call(fn func() (string, error)) (string, error) {
	if !cb.allow() {
		return "", ErrCircuitOpen
	}
	result, err := fn()
	cb.record(err == nil)
	return result, err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.recoveryTimeout {
			cb.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++
	if success {
		cb.failures = 0
		cb.state = StateClosed
		return
	}

	cb.totalFailure++
	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
		cb.openedAt = time.Now()
	}
}

// GetState returns the breaker's current state.
func (cb *CircuitBreaker) GetState() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return string(cb.state)
}

// GetMetrics returns introspection counters, gomind-style.
func (cb *CircuitBreaker) GetMetrics() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return map[string]interface{}{
		"state":              string(cb.state),
		"consecutive_failures": cb.failures,
		"total_calls":        cb.totalCalls,
		"total_failures":     cb.totalFailure,
	}
}
