package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/homemanager/auth-service/internal/domain"
)

// Throttle defaults.
const (
	DefaultLoginMaxAttempts = 5
	DefaultLoginWindow      = 15 * time.Minute
)

// ErrRateLimited is returned when an identifier exhausted its attempts.
var ErrRateLimited = errors.New("too many login attempts")

// LoginThrottle limits login attempts per submitted identifier. Every attempt
// counts, whether or not the identifier belongs to an existing account.
type LoginThrottle interface {
	CheckAndRecord(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}

func attemptKey(identifier string) string {
	return "login_" + domain.NormalizeEmail(identifier)
}

type attemptCounter struct {
	count       int
	lastAttempt time.Time
}

// MemoryThrottle keeps counters in process memory. Counters idle for longer
// than the window are pruned by a background sweep.
type MemoryThrottle struct {
	mu       sync.Mutex
	attempts map[string]*attemptCounter
	limit    int
	window   time.Duration
	now      func() time.Time
	interval time.Duration
	done     chan struct{}
	closed   bool
}

// NewMemoryThrottle creates a throttle. A positive sweepEvery starts the
// pruning goroutine; call Close to stop it.
func NewMemoryThrottle(limit int, window, sweepEvery time.Duration) *MemoryThrottle {
	if limit <= 0 {
		limit = DefaultLoginMaxAttempts
	}
	if window <= 0 {
		window = DefaultLoginWindow
	}
	t := &MemoryThrottle{
		attempts: make(map[string]*attemptCounter),
		limit:    limit,
		window:   window,
		now:      time.Now,
		interval: sweepEvery,
		done:     make(chan struct{}),
	}
	if sweepEvery > 0 {
		go t.sweepLoop(sweepEvery)
	}
	return t
}

// WithClock replaces the time source. Intended for tests.
func (t *MemoryThrottle) WithClock(now func() time.Time) *MemoryThrottle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
	return t
}

// CheckAndRecord rejects the attempt when the limit is reached inside the
// window, otherwise counts it.
func (t *MemoryThrottle) CheckAndRecord(_ context.Context, identifier string) error {
	key := attemptKey(identifier)

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	counter, ok := t.attempts[key]
	if !ok {
		counter = &attemptCounter{}
		t.attempts[key] = counter
	}
	if now.Sub(counter.lastAttempt) > t.window {
		counter.count = 0
	}
	if counter.count >= t.limit {
		return ErrRateLimited
	}
	counter.count++
	counter.lastAttempt = now
	return nil
}

// Reset forgets all attempts for identifier.
func (t *MemoryThrottle) Reset(_ context.Context, identifier string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, attemptKey(identifier))
	return nil
}

// Len returns the number of tracked identifiers.
func (t *MemoryThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.attempts)
}

// SweepInterval returns how often idle counters are pruned; zero means never.
func (t *MemoryThrottle) SweepInterval() time.Duration {
	if t.interval < 0 {
		return 0
	}
	return t.interval
}

func (t *MemoryThrottle) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.sweep()
		case <-t.done:
			return
		}
	}
}

// sweep drops counters that would be reset on their next attempt anyway.
func (t *MemoryThrottle) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, counter := range t.attempts {
		if now.Sub(counter.lastAttempt) > t.window {
			delete(t.attempts, key)
		}
	}
}

// Close stops the sweep goroutine. It is safe to call multiple times.
func (t *MemoryThrottle) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed {
		close(t.done)
		t.closed = true
	}
}
