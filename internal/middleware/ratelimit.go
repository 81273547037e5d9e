package middleware

import (
	"sync"
	"time"
)

// tokenBucket is a refilling counter for one client IP
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenBucket(maxTokens, refillRate float64) *tokenBucket {
	return &tokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// allow consumes one token when available
func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = minFloat(tb.maxTokens, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// retryAfter returns seconds to wait before the next token is available
func (tb *tokenBucket) retryAfter() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.tokens < 1 {
		return int((1-tb.tokens)/tb.refillRate) + 1
	}
	return 0
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// memoryLimiter keeps a token bucket per client IP. It is the single-instance
// fallback used when Redis is not configured; counts are not shared across
// processes.
type memoryLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*tokenBucket
	maxRequests int
	window      time.Duration
	lastSweep   time.Time
}

func newMemoryLimiter(maxRequests int, window time.Duration) *memoryLimiter {
	return &memoryLimiter{
		buckets:     make(map[string]*tokenBucket),
		maxRequests: maxRequests,
		window:      window,
		lastSweep:   time.Now(),
	}
}

func (ml *memoryLimiter) allow(ip string) (bool, int) {
	ml.mu.Lock()
	// Drop all buckets periodically so idle IPs do not accumulate
	if time.Since(ml.lastSweep) > 10*ml.window {
		ml.buckets = make(map[string]*tokenBucket)
		ml.lastSweep = time.Now()
	}
	bucket, ok := ml.buckets[ip]
	if !ok {
		refillRate := float64(ml.maxRequests) / ml.window.Seconds()
		bucket = newTokenBucket(float64(ml.maxRequests), refillRate)
		ml.buckets[ip] = bucket
	}
	ml.mu.Unlock()

	if bucket.allow() {
		return true, 0
	}
	return false, bucket.retryAfter()
}
