package proxy

import (
	"sync"
	"time"
)

// State captures circuit breaker states.
type State int

const (
	// StateClosed indicates normal operation.
	StateClosed State = iota
	// StateOpen indicates the breaker is rejecting calls.
	StateOpen
	// StateHalfOpen indicates a single trial call is permitted.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// BreakerConfig controls thresholds for state transitions.
type BreakerConfig struct {
	// Timeout bounds each outbound call.
	Timeout time.Duration
	// Threshold is the failure percentage over the rolling window that
	// trips the breaker.
	Threshold float64
	// Window is how long an outcome counts toward the failure percentage.
	Window time.Duration
	// ResetDelay is how long the breaker stays open before permitting a
	// trial call.
	ResetDelay time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}
	if c.Threshold <= 0 {
		c.Threshold = 50
	}
	if c.Window <= 0 {
		c.Window = 10 * time.Second
	}
	if c.ResetDelay <= 0 {
		c.ResetDelay = 10 * time.Second
	}
	return c
}

type outcome struct {
	at      time.Time
	failure bool
}

// Breaker tracks the health of one backend. All state lives behind the
// mutex: every transition happens at a single mutation point, so concurrent
// callers can never race a read-then-write on the mode.
type Breaker struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	state    State
	outcomes []outcome
	openedAt time.Time
	trialing bool

	now func() time.Time
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg.withDefaults(), now: time.Now}
}

// Allow reports whether a call may proceed. While open, the first caller
// after the reset delay becomes the half-open trial; everyone else is
// rejected until that trial resolves through RecordSuccess or RecordFailure.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.cfg.ResetDelay {
			b.state = StateHalfOpen
			b.trialing = true
			return true
		}
		return false
	default: // StateHalfOpen
		if b.trialing {
			return false
		}
		b.trialing = true
		return true
	}
}

// RecordSuccess records a successful call outcome.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.trialing = false
		b.outcomes = nil
		return
	}
	b.record(false)
}

// RecordFailure records a failed call outcome and trips the breaker when the
// failure percentage over the rolling window reaches the threshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.openedAt = b.now()
		b.trialing = false
		return
	}
	if b.state != StateClosed {
		return
	}

	b.record(true)

	var failures int
	for _, o := range b.outcomes {
		if o.failure {
			failures++
		}
	}
	pct := float64(failures) / float64(len(b.outcomes)) * 100
	if pct >= b.cfg.Threshold {
		b.state = StateOpen
		b.openedAt = b.now()
		b.outcomes = nil
	}
}

// record appends an outcome and prunes everything older than the window.
// Caller holds the mutex.
func (b *Breaker) record(failure bool) {
	ts := b.now()
	cutoff := ts.Add(-b.cfg.Window)
	kept := b.outcomes[:0]
	for _, o := range b.outcomes {
		if o.at.After(cutoff) {
			kept = append(kept, o)
		}
	}
	b.outcomes = append(kept, outcome{at: ts, failure: failure})
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
