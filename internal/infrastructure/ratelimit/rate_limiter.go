package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket represents a token bucket for rate limiting
type TokenBucket struct {
	tokens     int           // Current tokens
	maxTokens  int           // Maximum tokens in bucket
	refillRate int           // Tokens to add per refill interval
	refillTime time.Duration // Refill interval
	lastRefill time.Time     // Last refill time
	mutex      sync.Mutex
}

// RateLimiter manages rate limiting per merchant and action
type RateLimiter struct {
	buckets map[string]*TokenBucket
	mutex   sync.RWMutex
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*TokenBucket),
	}
}

func NewTokenBucket(maxTokens, refillRate int, refillTime time.Duration) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: time.Now(),
	}
}

// Allow checks if an action is allowed and consumes a token if so
func (tb *TokenBucket) Allow() (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()

	elapsed := now.Sub(tb.lastRefill)
	tokensToAdd := int(elapsed/tb.refillTime) * tb.refillRate

	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	nextRefill := tb.lastRefill.Add(tb.refillTime)
	return false, nextRefill.Sub(now)
}

// Allow checks if a merchant action is allowed. Buckets are created lazily
// with per-action limits.
func (rl *RateLimiter) Allow(uid, action string) (bool, time.Duration) {
	key := uid + ":" + action

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		if bucket, exists = rl.buckets[key]; !exists {
			bucket = bucketForAction(action)
			rl.buckets[key] = bucket
		}
		rl.mutex.Unlock()
	}

	return bucket.Allow()
}

func bucketForAction(action string) *TokenBucket {
	switch action {
	case "send_reply":
		return NewTokenBucket(30, 30, time.Minute)
	case "suggest_reply":
		return NewTokenBucket(10, 10, time.Minute)
	default:
		return NewTokenBucket(60, 60, time.Minute)
	}
}

// StartCleanupRoutine drops idle buckets so the map does not grow without
// bound across many merchant sessions.
func (rl *RateLimiter) StartCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			rl.mutex.Lock()
			for key, bucket := range rl.buckets {
				bucket.mutex.Lock()
				idle := time.Since(bucket.lastRefill) > 30*time.Minute
				bucket.mutex.Unlock()
				if idle {
					delete(rl.buckets, key)
				}
			}
			rl.mutex.Unlock()
		}
	}()
}
