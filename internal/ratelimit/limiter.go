// Package ratelimit provides client-side rate limiting for API calls
// using a token bucket algorithm.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Default limits for the printstash server API.
// The server throttles clients at roughly 5 req/sec per token; we target
// 80% of that to leave headroom for concurrent commands.
const (
	APIRatePerSec    = 4.0
	APIBurstCapacity = 20.0
)

// Limiter implements a token bucket rate limiter.
// It allows bursts up to the bucket capacity, then refills at a fixed rate.
type Limiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewLimiter creates a rate limiter that refills at tokensPerSecond and
// allows bursts up to burstSize. The bucket starts full.
func NewLimiter(tokensPerSecond, burstSize float64) *Limiter {
	return &Limiter{
		tokens:     burstSize,
		maxTokens:  burstSize,
		refillRate: tokensPerSecond,
		lastRefill: time.Now(),
	}
}

// NewAPILimiter creates the shared limiter used for all printstash API calls.
func NewAPILimiter() *Limiter {
	return NewLimiter(APIRatePerSec, APIBurstCapacity)
}

// Wait blocks until a token is available or the context is cancelled.
// Each API call consumes one token.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		// Time until one token is available
		wait := time.Duration((1 - l.tokens) / l.refillRate * float64(time.Second))
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Allow reports whether a token is immediately available, consuming one if so.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// refill adds tokens based on elapsed time. Caller must hold l.mu.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.tokens += elapsed * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now
}
