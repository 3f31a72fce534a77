// Package ratelimit provides sliding-window admission control for the
// cloud path. One window per process tracks both request and token counts;
// the window resets lazily on the first check after it elapses.
package ratelimit

import (
	"sync"
	"time"

	"github.com/zen-systems/relay/pkg/taskerr"
)

// Config tunes the window.
type Config struct {
	MaxRequests int
	MaxTokens   int
	Window      time.Duration
}

// Status is a point-in-time snapshot of window usage.
type Status struct {
	RequestsUsed int           `json:"requests_used"`
	MaxRequests  int           `json:"max_requests"`
	TokensUsed   int           `json:"tokens_used"`
	MaxTokens    int           `json:"max_tokens"`
	Window       time.Duration `json:"window"`
	NextReset    time.Time     `json:"next_reset"`
}

// Limiter admits or rejects cloud calls. Check-and-increment is atomic so
// concurrent routers cannot over-admit.
type Limiter struct {
	mu           sync.Mutex
	cfg          Config
	requestsUsed int
	tokensUsed   int
	windowStart  time.Time
	now          func() time.Time
}

// New creates a limiter with a fresh window starting now.
func New(cfg Config) *Limiter {
	l := &Limiter{cfg: cfg, now: time.Now}
	l.windowStart = l.now()
	return l
}

// Check admits one request carrying estimatedTokens, or rejects it with a
// rate-limit error carrying the wait until the window resets. Admission
// increments both counters.
func (l *Limiter) Check(estimatedTokens int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.resetIfElapsed(now)

	if l.requestsUsed+1 > l.cfg.MaxRequests || l.tokensUsed+estimatedTokens > l.cfg.MaxTokens {
		wait := l.windowStart.Add(l.cfg.Window).Sub(now)
		if wait < 0 {
			wait = 0
		}
		return taskerr.New(taskerr.CodeCloudRateLimit, "").
			WithDetail("retry_after", wait)
	}

	l.requestsUsed++
	l.tokensUsed += estimatedTokens
	return nil
}

// Status returns the current window snapshot.
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetIfElapsed(l.now())

	return Status{
		RequestsUsed: l.requestsUsed,
		MaxRequests:  l.cfg.MaxRequests,
		TokensUsed:   l.tokensUsed,
		MaxTokens:    l.cfg.MaxTokens,
		Window:       l.cfg.Window,
		NextReset:    l.windowStart.Add(l.cfg.Window),
	}
}

// resetIfElapsed starts a new window when the current one has passed.
// Caller must hold the lock.
func (l *Limiter) resetIfElapsed(now time.Time) {
	if now.Sub(l.windowStart) >= l.cfg.Window {
		l.windowStart = now
		l.requestsUsed = 0
		l.tokensUsed = 0
	}
}
