// Package retry executes operations with bounded retries and exponential
// backoff, gated by the error taxonomy's retryability. Each in-flight
// operation is tracked by id and can be cancelled between attempts.
package retry

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zen-systems/relay/pkg/config"
	"github.com/zen-systems/relay/pkg/taskerr"
)

// Config tunes a retry sequence.
type Config struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterMin      float64
	JitterMax      float64
	RetryableCodes []taskerr.Code
}

// FromConfig converts the YAML retry block into a retry Config.
func FromConfig(cfg config.RetryConfig) Config {
	codes := make([]taskerr.Code, 0, len(cfg.RetryableCodes))
	for _, c := range cfg.RetryableCodes {
		codes = append(codes, taskerr.Code(c))
	}
	return Config{
		MaxAttempts:    cfg.MaxAttempts,
		BaseDelay:      time.Duration(cfg.BaseBackoffMs) * time.Millisecond,
		MaxDelay:       time.Duration(cfg.MaxBackoffMs) * time.Millisecond,
		Multiplier:     cfg.BackoffMultiplier,
		JitterMin:      cfg.JitterMin,
		JitterMax:      cfg.JitterMax,
		RetryableCodes: codes,
	}
}

// Status tags a retry outcome.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailure   Status = "failure"
	StatusCancelled Status = "cancelled"
)

// Outcome is the result of a retry sequence. Attempts never exceeds
// MaxAttempts.
type Outcome struct {
	Status   Status
	Value    any
	Err      error
	Attempts int
}

// State describes an in-flight retry sequence.
type State struct {
	ID             string    `json:"id"`
	CurrentAttempt int       `json:"current_attempt"`
	NextRetryAt    time.Time `json:"next_retry_at,omitempty"`
}

type opState struct {
	attempt     int
	nextRetryAt time.Time
	cancelled   bool
}

// Manager runs retry sequences and tracks their state for observability
// and cancellation.
type Manager struct {
	mu       sync.Mutex
	inflight map[string]*opState
	sleep    func(ctx context.Context, d time.Duration) error
	jitter   func(min, max float64) float64
}

// NewManager creates a retry manager.
func NewManager() *Manager {
	return &Manager{
		inflight: make(map[string]*opState),
		sleep:    sleepWithContext,
		jitter: func(min, max float64) float64 {
			if max <= min {
				return min
			}
			return min + rand.Float64()*(max-min)
		},
	}
}

// NewID returns a fresh operation id.
func NewID() string {
	return uuid.NewString()
}

// Execute runs op until it succeeds, exhausts cfg.MaxAttempts, hits a
// non-retryable error, or is cancelled. Cancellation is checked before
// each attempt, never mid-call.
func (m *Manager) Execute(ctx context.Context, id string, cfg Config, op func(context.Context) (any, error)) Outcome {
	if id == "" {
		id = NewID()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	state := &opState{}
	m.mu.Lock()
	m.inflight[id] = state
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.inflight, id)
		m.mu.Unlock()
	}()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		m.mu.Lock()
		cancelled := state.cancelled
		state.attempt = attempt
		m.mu.Unlock()
		if cancelled || ctx.Err() != nil {
			return Outcome{Status: StatusCancelled, Err: lastErr, Attempts: attempt - 1}
		}

		value, err := op(ctx)
		if err == nil {
			return Outcome{Status: StatusSuccess, Value: value, Attempts: attempt}
		}
		lastErr = err

		if !retryable(err, cfg.RetryableCodes) {
			return Outcome{Status: StatusFailure, Err: err, Attempts: attempt}
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := backoffDelay(cfg, attempt, m.jitter)
		m.mu.Lock()
		state.nextRetryAt = time.Now().Add(delay)
		m.mu.Unlock()

		if err := m.sleep(ctx, delay); err != nil {
			return Outcome{Status: StatusCancelled, Err: lastErr, Attempts: attempt}
		}
	}

	return Outcome{Status: StatusFailure, Err: lastErr, Attempts: cfg.MaxAttempts}
}

// CancelRetry marks an in-flight sequence as cancelled. The sequence stops
// before its next attempt. Returns false if the id is not in flight.
func (m *Manager) CancelRetry(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.inflight[id]
	if !ok {
		return false
	}
	state.cancelled = true
	return true
}

// States returns a snapshot of all in-flight retry sequences.
func (m *Manager) States() []State {
	m.mu.Lock()
	defer m.mu.Unlock()

	states := make([]State, 0, len(m.inflight))
	for id, s := range m.inflight {
		states = append(states, State{ID: id, CurrentAttempt: s.attempt, NextRetryAt: s.nextRetryAt})
	}
	return states
}

// retryable gates on the configured code set; an empty set falls back to
// the taxonomy's default retryability. Circuit-open errors are never
// retryable: retrying into an open breaker is pointless.
func retryable(err error, codes []taskerr.Code) bool {
	if taskerr.IsCode(err, taskerr.CodeCircuitOpen) {
		return false
	}
	if len(codes) == 0 {
		return taskerr.IsRetryable(err)
	}
	code, ok := taskerr.CodeOf(err)
	if !ok {
		return false
	}
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func backoffDelay(cfg Config, attempt int, jitter func(min, max float64) float64) time.Duration {
	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	delay := float64(cfg.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= multiplier
		if delay >= float64(cfg.MaxDelay) {
			break
		}
	}
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.JitterMin > 0 || cfg.JitterMax > 0 {
		delay *= jitter(cfg.JitterMin, cfg.JitterMax)
	}
	return time.Duration(delay)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
