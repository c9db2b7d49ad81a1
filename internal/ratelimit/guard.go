// Package ratelimit implements the contact-form abuse guard: a sliding
// window over recent submission timestamps, keyed by submitter email and
// client IP. The guard depends on the Store interface so the default
// in-process store can be swapped for a shared Redis store without touching
// call sites.
package ratelimit

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Store tracks submission hits per key. Implementations prune entries older
// than the requested window lazily on each Count call.
type Store interface {
	// Count returns the number of hits recorded for key after since,
	// discarding older entries.
	Count(ctx context.Context, key string, since time.Time) (int, error)
	// Record appends a hit for key at the given time.
	Record(ctx context.Context, key string, at time.Time) error
}

// Guard rejects bursts of submissions from the same key.
type Guard struct {
	store  Store
	window time.Duration
	limit  int
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// NewGuard creates a Guard allowing at most limit hits per key within the
// trailing window.
func NewGuard(store Store, window time.Duration, limit int, logger *zap.Logger, opts ...Option) *Guard {
	g := &Guard{
		store:  store,
		window: window,
		limit:  limit,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsLimited reports whether key has reached the submission limit. When the
// key is below the limit a new hit is recorded, so the counter advances
// regardless of what happens downstream. Store failures fail open: a broken
// store must not take the contact form down.
func (g *Guard) IsLimited(ctx context.Context, key string) bool {
	now := g.now()
	count, err := g.store.Count(ctx, key, now.Add(-g.window))
	if err != nil {
		g.logger.Error("Rate limit store lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}

	if count >= g.limit {
		g.logger.Warn("Submission rate limited",
			zap.String("key", key),
			zap.Int("count", count),
			zap.Duration("window", g.window))
		return true
	}

	if err := g.store.Record(ctx, key, now); err != nil {
		g.logger.Error("Rate limit store record failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

// RetryAfter returns how long a limited client should wait before retrying.
func (g *Guard) RetryAfter() time.Duration {
	return g.window
}

// EmailKey builds the rate-limit key for a submitter address.
func EmailKey(email string) string {
	return "email:" + strings.ToLower(strings.TrimSpace(email))
}

// IPKey builds the rate-limit key for a client IP, falling back to a
// sentinel when no address could be derived from the request.
func IPKey(ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
