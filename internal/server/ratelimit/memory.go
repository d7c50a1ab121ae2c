package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// InMemoryLimiter is a process-local Limiter for single-instance deployments.
type InMemoryLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
	Window    time.Duration
	now       func() time.Time
}

// NewInMemory returns an empty limiter. A non-positive w defaults to one
// minute.
func NewInMemory(w time.Duration) *InMemoryLimiter {
	if w <= 0 {
		w = time.Minute
	}
	return &InMemoryLimiter{windows: make(map[string]*window), Window: w, now: time.Now}
}

func (l *InMemoryLimiter) Allow(_ context.Context, key string, limit int) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.Window {
		l.sweep(now)
	}

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.Window {
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++

	if w.count <= limit {
		return true, 0, nil
	}
	return false, w.start.Add(l.Window).Sub(now), nil
}

// sweep drops expired windows. Callers hold l.mu.
func (l *InMemoryLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.Window {
			delete(l.windows, k)
		}
	}
	l.lastSweep = now
}

func (l *InMemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.windows, key)
	l.mu.Unlock()
	return nil
}
