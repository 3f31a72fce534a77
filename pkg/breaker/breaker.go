// Package breaker implements a three-state circuit breaker guarding the
// cloud AI service. When the service fails repeatedly the circuit opens and
// calls fail fast until a recovery trial succeeds.
package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/zen-systems/relay/pkg/config"
	"github.com/zen-systems/relay/pkg/taskerr"
)

// State is the circuit state.
type State int

const (
	// StateClosed is the normal operating state; calls pass through.
	StateClosed State = iota
	// StateOpen rejects calls immediately.
	StateOpen
	// StateHalfOpen allows trial calls to probe recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config tunes the breaker. Legal transitions are closed->open,
// open->half-open, half-open->closed and half-open->open only.
type Config struct {
	FailureThreshold int           // consecutive failures before opening
	RecoveryTimeout  time.Duration // open -> half-open wait
	SuccessThreshold int           // consecutive half-open successes before closing
}

// FromConfig converts the YAML breaker block.
func FromConfig(cfg config.BreakerConfig) Config {
	return Config{
		FailureThreshold: cfg.FailureThreshold,
		RecoveryTimeout:  cfg.RecoveryTimeout(),
		SuccessThreshold: cfg.SuccessThreshold,
	}
}

// Stats is a snapshot of breaker state.
type Stats struct {
	State        string    `json:"state"`
	FailureCount int       `json:"failure_count"`
	SuccessCount int       `json:"success_count"`
	LastFailure  time.Time `json:"last_failure,omitempty"`
}

// Breaker wraps a single unreliable dependency.
type Breaker struct {
	mu           sync.Mutex
	cfg          Config
	state        State
	failureCount int
	successCount int // meaningful only in half-open
	lastFailure  time.Time
	now          func() time.Time
}

// New creates a closed breaker.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	return &Breaker{cfg: cfg, state: StateClosed, now: time.Now}
}

// Execute runs op through the breaker. While open (and before the recovery
// timeout elapses) it returns a circuit-open error without invoking op.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) (any, error)) (any, error) {
	if !b.allow() {
		return nil, taskerr.New(taskerr.CodeCircuitOpen, "").
			WithDetail("state", b.State().String())
	}

	value, err := op(ctx)
	if err != nil {
		b.recordFailure()
		return nil, err
	}
	b.recordSuccess()
	return value, nil
}

// allow reports whether a call may proceed, transitioning open -> half-open
// when the recovery timeout has elapsed.
func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.now().Sub(b.lastFailure) > b.cfg.RecoveryTimeout {
			b.transitionTo(StateHalfOpen)
			return true
		}
		return false
	default:
		return false
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failureCount = 0
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.now()
	switch b.state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		b.successCount = 0
		b.transitionTo(StateOpen)
	}
}

// transitionTo changes state. Caller must hold the lock.
func (b *Breaker) transitionTo(next State) {
	if b.state == next {
		return
	}
	b.state = next
	if next == StateClosed {
		b.failureCount = 0
		b.successCount = 0
	}
	if next == StateHalfOpen {
		b.successCount = 0
	}
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot for health reporting.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		State:        b.state.String(),
		FailureCount: b.failureCount,
		SuccessCount: b.successCount,
		LastFailure:  b.lastFailure,
	}
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionTo(StateClosed)
}
