// Package ratelimit provides per-key sliding one-second admission control
// for the log stream. It is a best-effort spam guard, not backpressure:
// rejected entries are dropped, never queued.
package ratelimit

import "time"

const DefaultMaxPerSecond = 50

// Stale buckets are swept once the key map grows past this bound.
const sweepAbove = 1024

type bucket struct {
	window int64
	count  int
}

// Limiter counts admissions per source:type:level key within one-second
// epoch buckets. Callers serialize access; see the engine's concurrency
// contract.
type Limiter struct {
	max     int
	now     func() time.Time
	buckets map[string]bucket
}

func New(maxPerSecond int) *Limiter {
	return NewWithClock(maxPerSecond, time.Now)
}

// NewWithClock injects the clock; tests pin it to a fixed window.
func NewWithClock(maxPerSecond int, now func() time.Time) *Limiter {
	if maxPerSecond <= 0 {
		maxPerSecond = DefaultMaxPerSecond
	}
	return &Limiter{max: maxPerSecond, now: now, buckets: make(map[string]bucket)}
}

// Admit reports whether one more entry for the key may pass during the
// current window. Rejection does not increment the counter.
func (l *Limiter) Admit(source, typ, level string) bool {
	key := source + ":" + typ + ":" + level
	w := l.now().Unix()
	b, ok := l.buckets[key]
	if !ok || b.window != w {
		b = bucket{window: w}
	}
	if b.count >= l.max {
		l.buckets[key] = b
		return false
	}
	b.count++
	l.buckets[key] = b
	if len(l.buckets) > sweepAbove {
		l.sweep(w)
	}
	return true
}

// Keys reports how many keys are currently tracked.
func (l *Limiter) Keys() int { return len(l.buckets) }

func (l *Limiter) sweep(window int64) {
	for k, b := range l.buckets {
		if b.window != window {
			delete(l.buckets, k)
		}
	}
}
