package inmem

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is the in-process counterpart of the Redis fixed window limiter.
type RateLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]window
}

type window struct {
	start time.Time
	count int
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{now: time.Now, windows: make(map[string]window)}
}

func (r *RateLimiter) Allow(_ context.Context, key string, limit int, per time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w := r.windows[key]
	if w.start.IsZero() || now.Sub(w.start) >= per {
		w = window{start: now}
	}
	w.count++
	r.windows[key] = w

	if len(r.windows) > 10000 {
		r.evict(now, per)
	}
	return w.count <= limit, nil
}

func (r *RateLimiter) evict(now time.Time, per time.Duration) {
	for k, w := range r.windows {
		if now.Sub(w.start) >= per {
			delete(r.windows, k)
		}
	}
}
