// Package ratelimit provides a sliding-window admission controller.
//
// A Limiter admits at most Limit calls within any rolling Window. It keeps
// the timestamps of admitted calls and prunes expired ones lazily on each
// call; there is no background timer.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultLimit  = 10
	DefaultWindow = 60 * time.Second
)

// Limiter is safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	stamps []time.Time // oldest first
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Limiter. Non-positive limit or window fall back to
// DefaultLimit and DefaultWindow.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		stamps: make([]time.Time, 0, limit),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TryAcquire records one call and returns true if the window has room.
// A denied call is not recorded.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.stamps) >= l.limit {
		return false
	}
	l.stamps = append(l.stamps, now)
	return true
}

// Remaining returns how many calls would be admitted right now.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.limit - l.live(l.now())
}

// RetryAfter returns how long until the next call can be admitted, or 0
// if there is capacity now.
func (l *Limiter) RetryAfter() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	live := l.live(now)
	if live < l.limit {
		return 0
	}
	oldest := l.stamps[len(l.stamps)-live]
	return oldest.Add(l.window).Sub(now)
}

// Limit returns the configured admission count.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

// expired counts leading entries that fall outside the window. An entry
// exactly one window old is expired.
func (l *Limiter) expired(now time.Time) int {
	n := 0
	for n < len(l.stamps) && now.Sub(l.stamps[n]) >= l.window {
		n++
	}
	return n
}

func (l *Limiter) live(now time.Time) int {
	return len(l.stamps) - l.expired(now)
}

func (l *Limiter) prune(now time.Time) {
	n := l.expired(now)
	if n == 0 {
		return
	}
	// Shift in place so the backing array does not grow without bound.
	copy(l.stamps, l.stamps[n:])
	l.stamps = l.stamps[:len(l.stamps)-n]
}
