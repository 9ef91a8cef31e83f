package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Local is an in-process sliding window limiter. It keeps an ordered
// timestamp list per key under one mutex; memory per key is bounded by
// the admitted count within the window.
type Local struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	now    func() time.Time
}

// NewLocal creates a local limiter with the given quota.
func NewLocal(cfg Config) *Local {
	return &Local{
		hits:   make(map[string][]time.Time),
		max:    cfg.Requests,
		window: cfg.Window,
		now:    time.Now,
	}
}

// Allow records the request and admits it unless the key already carries
// max admissions inside the window. It never returns an error.
func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	hits := l.hits[key]
	idx := 0
	for idx < len(hits) && hits[idx].Before(cutoff) {
		idx++
	}
	hits = hits[idx:]

	if len(hits) >= l.max {
		l.hits[key] = hits
		return false, nil
	}

	l.hits[key] = append(hits, now)
	return true, nil
}
