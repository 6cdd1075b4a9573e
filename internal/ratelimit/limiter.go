// ABOUTME: Fixed-window request counter keyed by caller identity
// ABOUTME: Entries are swept periodically once their window has passed

package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// defaultSweepInterval is how often expired entries are evicted.
const defaultSweepInterval = 60 * time.Second

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Config describes one fixed-window limit.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// Result reports the outcome of a limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // zero unless denied
}

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key over fixed windows. The entry map is
// process-local and mutex-guarded; call Start to begin the background sweep
// and Stop to terminate it.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	clock         Clock
	sweepInterval time.Duration
	logger        *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the system clock, for tests.
func WithClock(c Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithSweepInterval overrides the sweep cadence.
func WithSweepInterval(d time.Duration) Option {
	return func(l *Limiter) { l.sweepInterval = d }
}

// NewLimiter creates a Limiter. Pass nil logger for default.
func NewLimiter(logger *slog.Logger, opts ...Option) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Limiter{
		entries:       make(map[string]*entry),
		clock:         systemClock{},
		sweepInterval: defaultSweepInterval,
		logger:        logger.With("component", "ratelimit"),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check records one request against key and reports whether it is allowed.
// A fresh window starts when no entry exists or the previous window has
// elapsed; within a window the count is capped at cfg.MaxRequests.
func (l *Limiter) Check(key string, cfg Config) Result {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(cfg.Window)}
		l.entries[key] = e
		return Result{Allowed: true, Remaining: cfg.MaxRequests - 1, ResetAt: e.resetAt}
	}

	if e.count >= cfg.MaxRequests {
		return Result{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    e.resetAt,
			RetryAfter: e.resetAt.Sub(now),
		}
	}

	e.count++
	return Result{Allowed: true, Remaining: cfg.MaxRequests - e.count, ResetAt: e.resetAt}
}

// Start launches the background sweep goroutine. Safe to call once.
func (l *Limiter) Start() {
	go func() {
		ticker := time.NewTicker(l.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-l.done:
				return
			}
		}
	}()
}

// Stop terminates the sweep goroutine. Idempotent.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// sweep removes entries whose window has passed, bounding memory.
func (l *Limiter) sweep() {
	now := l.clock.Now()

	l.mu.Lock()
	removed := 0
	for key, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	remaining := len(l.entries)
	l.mu.Unlock()

	if removed > 0 {
		l.logger.Debug("swept expired limit entries",
			"removed", removed,
			"remaining", remaining)
	}
}

// size reports the number of tracked entries. Used by tests.
func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
