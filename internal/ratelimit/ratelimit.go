// Package ratelimit implements the fixed-window login limiter with an
// escalating block period.
//
// For a key, the first attempt opens a window and is accepted. Attempts are
// counted until the window elapses. Once the count has reached Max, the next
// attempt inside the window starts a block period and is rejected; every
// attempt during the block is rejected with the time left. When both the
// window and the block have elapsed the key starts over.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Policy configures one limiter.
type Policy struct {
	Max    int
	Window time.Duration
	Block  time.Duration
}

// Record is the state tracked per key.
type Record struct {
	Count        int
	ResetAt      time.Time
	BlockedUntil time.Time
}

// Stale reports whether both the window and any block have elapsed.
func (r Record) Stale(now time.Time) bool {
	return !now.Before(r.ResetAt) && !now.Before(r.BlockedUntil)
}

// Result is the outcome of one attempt.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (r Result) RetryAfterSeconds() int {
	if r.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(r.RetryAfter.Seconds()))
}

// Store holds per-key records. Hit must apply the algorithm atomically for
// the key so concurrent attempts are counted exactly.
type Store interface {
	Hit(ctx context.Context, key string, policy Policy, now time.Time) (Result, error)
	Reset(ctx context.Context, key string) error
}

// apply runs one attempt against rec and returns the updated record. A nil
// rec means the key has no state yet.
func apply(rec *Record, p Policy, now time.Time) (Record, Result) {
	if rec != nil && now.Before(rec.BlockedUntil) {
		return *rec, Result{Allowed: false, RetryAfter: rec.BlockedUntil.Sub(now)}
	}
	if rec == nil || !now.Before(rec.ResetAt) {
		next := Record{Count: 1, ResetAt: now.Add(p.Window)}
		return next, Result{Allowed: true, Remaining: maxInt(p.Max-1, 0)}
	}
	if rec.Count >= p.Max {
		next := *rec
		next.BlockedUntil = now.Add(p.Block)
		return next, Result{Allowed: false, RetryAfter: p.Block}
	}
	next := *rec
	next.Count++
	return next, Result{Allowed: true, Remaining: maxInt(p.Max-next.Count, 0)}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Limiter applies one Policy to keys in a shared Store under its own prefix.
type Limiter struct {
	name   string
	policy Policy
	store  Store
	now    func() time.Time
}

// New builds a limiter. name namespaces keys so the IP and email limiters can
// share a store.
func New(name string, policy Policy, store Store) *Limiter {
	return &Limiter{name: name, policy: policy, store: store, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Name returns the limiter's key prefix.
func (l *Limiter) Name() string { return l.name }

// Policy returns the limiter configuration.
func (l *Limiter) Policy() Policy { return l.policy }

// Check records one attempt for key.
func (l *Limiter) Check(ctx context.Context, key string) (Result, error) {
	return l.store.Hit(ctx, l.key(key), l.policy, l.now())
}

// Reset clears all state for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, l.key(key))
}

func (l *Limiter) key(key string) string {
	return l.name + ":" + key
}
