// Package ratelimit provides the token-bucket rate limiter shared by all
// source adapters, replacing per-site ad hoc sleeps with one injectable
// policy.
package ratelimit

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Bucket is a single token bucket.
type Bucket struct {
	mu           sync.Mutex
	capacity     float64
	tokens       float64
	refillPerSec float64
	last         time.Time
}

// NewBucket creates a bucket refilling at rps tokens per second with the
// given burst capacity. rps <= 0 returns nil, which never limits.
func NewBucket(rps, burst float64) *Bucket {
	if rps <= 0 {
		return nil
	}
	capacity := math.Max(1, burst)
	return &Bucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPerSec: rps,
		last:         time.Now(),
	}
}

// Take blocks until a token is available or ctx is done.
func (b *Bucket) Take(ctx context.Context) error {
	if b == nil {
		return nil
	}
	for {
		b.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(b.last).Seconds()
		if elapsed > 0 {
			b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.refillPerSec)
			b.last = now
		}
		ok := false
		if b.tokens >= 1.0 {
			b.tokens -= 1.0
			ok = true
		}
		b.mu.Unlock()

		if ok {
			return nil
		}

		wait := time.Duration((1.0/b.refillPerSec)*float64(time.Second)) + jitter()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func jitter() time.Duration {
	return time.Duration(rand.Int63n(int64(30 * time.Millisecond)))
}

// Limiter hands out one bucket per site so adapters crawling different
// sites do not contend, while two overlapping runs against the same site do.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*Bucket
	rps     float64
	burst   float64
}

// NewLimiter creates a per-site limiter with a shared rate policy.
func NewLimiter(rps, burst float64) *Limiter {
	return &Limiter{
		buckets: make(map[string]*Bucket),
		rps:     rps,
		burst:   burst,
	}
}

// Wait blocks until the site's bucket grants a token or ctx is done.
func (l *Limiter) Wait(ctx context.Context, site string) error {
	l.mu.Lock()
	b, ok := l.buckets[site]
	if !ok {
		b = NewBucket(l.rps, l.burst)
		l.buckets[site] = b
	}
	l.mu.Unlock()
	return b.Take(ctx)
}
