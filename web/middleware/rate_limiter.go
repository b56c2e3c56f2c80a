package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// ClientRateLimiter keeps one bucket per client IP for the ask endpoint.
// Entries idle past the retention age are dropped by the janitor.
type ClientRateLimiter struct {
	buckets     map[string]*TokenBucket
	lastSeen    map[string]time.Time
	perMinute   int
	burst       int
	mu          sync.Mutex
	logger      *zap.Logger
	stopJanitor chan struct{}
}

func NewClientRateLimiter(perMinute, burst int, logger *zap.Logger) *ClientRateLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	if burst <= 0 {
		burst = 5
	}
	rl := &ClientRateLimiter{
		buckets:     make(map[string]*TokenBucket),
		lastSeen:    make(map[string]time.Time),
		perMinute:   perMinute,
		burst:       burst,
		logger:      logger,
		stopJanitor: make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

func (rl *ClientRateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	bucket, ok := rl.buckets[clientIP]
	if !ok {
		bucket = NewTokenBucket(float64(rl.burst), float64(rl.perMinute)/60.0)
		rl.buckets[clientIP] = bucket
	}
	rl.lastSeen[clientIP] = time.Now()
	rl.mu.Unlock()

	return bucket.Allow()
}

// Middleware rejects clients that exhausted their bucket with 429.
func (rl *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			rl.logger.Warn("Rate limit exceeded", zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Troppe richieste, riprova tra poco.",
			})
			return
		}
		c.Next()
	}
}

func (rl *ClientRateLimiter) janitor() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopJanitor:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-1 * time.Hour)
			rl.mu.Lock()
			for ip, seen := range rl.lastSeen {
				if seen.Before(cutoff) {
					delete(rl.lastSeen, ip)
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop terminates the cleanup goroutine.
func (rl *ClientRateLimiter) Stop() {
	close(rl.stopJanitor)
}
