// Package circuitbreaker implements a state-machine circuit breaker that
// wraps a transport.Sink and fails fast while the underlying sink is
// unhealthy, instead of piling up blocked sends against it.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State is one of the three circuit breaker states.
type State uint8

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Allow when the breaker is refusing calls.
var ErrCircuitOpen = errors.New("circuitbreaker: circuit is open")

// Config tunes a Breaker's thresholds and timing.
type Config struct {
	FailureThreshold  int
	RecoveryTimeout   time.Duration
	SuccessThreshold  int
	HalfOpenMaxCalls  int
	MeasurementWindow time.Duration
	MinimumCalls      int
}

// Default matches the teacher preset used when no domain-specific tuning is
// needed.
func Default() Config {
	return Config{
		FailureThreshold:  5,
		RecoveryTimeout:   30 * time.Second,
		SuccessThreshold:  2,
		HalfOpenMaxCalls:  5,
		MeasurementWindow: 60 * time.Second,
		MinimumCalls:      10,
	}
}

// FastRecovery favors a low-latency path recovering quickly over one that
// waits out a long cooldown.
func FastRecovery() Config {
	return Config{
		FailureThreshold:  3,
		RecoveryTimeout:   5 * time.Second,
		SuccessThreshold:  2,
		HalfOpenMaxCalls:  3,
		MeasurementWindow: 30 * time.Second,
		MinimumCalls:      5,
	}
}

// Conservative trades recovery speed for confidence, suited to critical
// execution-path sinks.
func Conservative() Config {
	return Config{
		FailureThreshold:  10,
		RecoveryTimeout:   60 * time.Second,
		SuccessThreshold:  5,
		HalfOpenMaxCalls:  10,
		MeasurementWindow: 120 * time.Second,
		MinimumCalls:      20,
	}
}

// Stats is a point-in-time snapshot of a Breaker's counters, safe to read
// without holding the breaker's lock afterward.
type Stats struct {
	State               State
	ConsecutiveFailures int
	ConsecutiveSuccesses int
	TotalCalls          uint64
	TotalFailures        uint64
	TotalSuccesses       uint64
	CallsRejected        uint64
	TimeInCurrentState   time.Duration
}

// FailureRate returns TotalFailures/TotalCalls, or 0 if no calls were made.
func (s Stats) FailureRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.TotalFailures) / float64(s.TotalCalls)
}

// Breaker wraps calls to an unreliable resource with the classic
// closed/open/half-open state machine. Every state transition and every
// admission decision happens under a single write lock -- the original
// Rust implementation's whole design point was that a read-then-act
// sequence here would race, so Go mirrors that by never taking a read
// lock for a decision that can mutate state.
type Breaker struct {
	cfg Config

	mu               sync.Mutex
	state            State
	consecutiveFails int
	consecutiveOK    int
	halfOpenCalls    int
	lastFailure      time.Time
	stateChangedAt   time.Time

	totalCalls    uint64
	totalFailures uint64
	totalSuccess  uint64
	callsRejected uint64

	recentCalls []recentCall // pruned to cfg.MeasurementWindow on every record
}

type recentCall struct {
	at      time.Time
	success bool
}

// New creates a Breaker in the Closed state.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg, state: Closed, stateChangedAt: time.Now()}
}

// transitionLocked moves the breaker to newState, resetting the counters
// that only make sense within the state being entered. Caller must hold mu.
func (b *Breaker) transitionLocked(newState State) {
	if b.state == newState {
		return
	}
	b.state = newState
	b.stateChangedAt = time.Now()
	switch newState {
	case Closed:
		b.consecutiveFails = 0
		b.halfOpenCalls = 0
	case Open:
		b.consecutiveOK = 0
		b.halfOpenCalls = 0
	case HalfOpen:
		b.halfOpenCalls = 0
	}
}

// Allow reports whether a call should proceed, performing any Open->HalfOpen
// recovery-timeout transition it discovers along the way.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if !b.lastFailure.IsZero() && time.Since(b.lastFailure) >= b.cfg.RecoveryTimeout {
			b.transitionLocked(HalfOpen)
			b.halfOpenCalls++
			return true
		}
		b.callsRejected++
		return false
	case HalfOpen:
		if b.halfOpenCalls < b.cfg.HalfOpenMaxCalls {
			b.halfOpenCalls++
			return true
		}
		b.callsRejected++
		return false
	default:
		return false
	}
}

// State reports the breaker's current state without performing the
// Open->HalfOpen recovery-timeout transition that Allow applies as a side
// effect. Batch operations use this peek instead of Allow: the original
// implementation's send_batch/send_batch_prioritized read the state
// directly rather than calling through should_allow_call, rejecting a
// whole batch on Open without individually attempting the recovery
// transition a single send would trigger.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RecordResult reports the outcome of a call that Allow previously admitted.
func (b *Breaker) RecordResult(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalCalls++
	if success {
		b.totalSuccess++
	} else {
		b.totalFailures++
	}

	now := time.Now()
	b.recentCalls = append(b.recentCalls, recentCall{at: now, success: success})
	cutoff := now.Add(-b.cfg.MeasurementWindow)
	pruned := b.recentCalls[:0]
	for _, c := range b.recentCalls {
		if c.at.After(cutoff) {
			pruned = append(pruned, c)
		}
	}
	b.recentCalls = pruned

	if success {
		b.consecutiveFails = 0
		b.consecutiveOK++
		if b.state == HalfOpen && b.consecutiveOK >= b.cfg.SuccessThreshold {
			b.transitionLocked(Closed)
		}
	} else {
		b.consecutiveOK = 0
		b.consecutiveFails++
		b.lastFailure = time.Now()
		switch b.state {
		case Closed:
			if b.consecutiveFails >= b.cfg.FailureThreshold {
				b.transitionLocked(Open)
			}
		case HalfOpen:
			b.transitionLocked(Open)
		case Open:
			// stays open; recovery timer already reset above
		}
	}

	if b.state == HalfOpen && b.halfOpenCalls > 0 {
		b.halfOpenCalls--
	}
}

// Do runs fn if the breaker currently admits calls, recording its outcome.
// It returns ErrCircuitOpen without calling fn when the breaker is closed
// to traffic.
func (b *Breaker) Do(fn func() error) error {
	if !b.Allow() {
		return ErrCircuitOpen
	}
	err := fn()
	b.RecordResult(err == nil)
	return err
}

// Stats returns a snapshot of the breaker's current counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:                b.state,
		ConsecutiveFailures:  b.consecutiveFails,
		ConsecutiveSuccesses: b.consecutiveOK,
		TotalCalls:           b.totalCalls,
		TotalFailures:        b.totalFailures,
		TotalSuccesses:       b.totalSuccess,
		CallsRejected:        b.callsRejected,
		TimeInCurrentState:   time.Since(b.stateChangedAt),
	}
}

// Reset returns the breaker to Closed with every counter zeroed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionLocked(Closed)
	b.consecutiveFails = 0
	b.consecutiveOK = 0
	b.halfOpenCalls = 0
	b.lastFailure = time.Time{}
	b.totalCalls = 0
	b.totalFailures = 0
	b.totalSuccess = 0
	b.callsRejected = 0
	b.recentCalls = nil
}

// WindowedFailureRate reports the failure rate over the configured
// MeasurementWindow, and whether enough calls have landed in that window to
// make the rate meaningful (MinimumCalls). Reporting a rate computed from a
// handful of samples would misrepresent a sink that is actually healthy, so
// callers should treat ok == false as "no verdict yet" rather than "0%
// failures".
func (b *Breaker) WindowedFailureRate() (rate float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.recentCalls) < b.cfg.MinimumCalls {
		return 0, false
	}
	var failures int
	for _, c := range b.recentCalls {
		if !c.success {
			failures++
		}
	}
	return float64(failures) / float64(len(b.recentCalls)), true
}

// ForceState overrides the current state directly; intended for tests that
// need to exercise a specific transition without waiting out real timers.
func (b *Breaker) ForceState(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionLocked(s)
}
