package service

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Harshitk-cp/opsconsole/internal/config"
)

// Errors returned by the rate limiter
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// clientRateLimiter holds the rate limiter of a single client
type clientRateLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits mutating requests per client
type RateLimiter struct {
	enabled         bool
	requestsPerMin  int
	burstSize       int
	expirationTime  time.Duration
	clientLimiters  map[string]*clientRateLimiter
	mu              sync.Mutex
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewRateLimiter creates a new rate limiter service
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	cleanupInterval := cfg.ExpirationTime
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}

	rl := &RateLimiter{
		enabled:         cfg.Enabled,
		requestsPerMin:  cfg.RequestsPerMin,
		burstSize:       cfg.BurstSize,
		expirationTime:  cfg.ExpirationTime,
		clientLimiters:  make(map[string]*clientRateLimiter),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	if rl.enabled {
		go rl.cleanup()
	}

	return rl
}

// Enabled reports whether requests are limited
func (rl *RateLimiter) Enabled() bool {
	return rl.enabled
}

// Allow checks if a request of the client is allowed
func (rl *RateLimiter) Allow(clientID string) error {
	if !rl.enabled {
		return nil
	}

	if !rl.limiterFor(clientID).Allow() {
		return ErrRateLimitExceeded
	}

	return nil
}

func (rl *RateLimiter) limiterFor(clientID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, exists := rl.clientLimiters[clientID]
	if !exists {
		// Convert requests per minute to requests per second
		rps := float64(rl.requestsPerMin) / 60.0
		cl = &clientRateLimiter{
			limiter: rate.NewLimiter(rate.Limit(rps), rl.burstSize),
		}
		rl.clientLimiters[clientID] = cl
	}
	cl.lastSeen = time.Now()

	return cl.limiter
}

// Headers returns the rate limit headers for a client
func (rl *RateLimiter) Headers(clientID string) map[string]string {
	if !rl.enabled {
		return nil
	}

	rl.mu.Lock()
	cl, exists := rl.clientLimiters[clientID]
	rl.mu.Unlock()

	remaining := rl.burstSize
	if exists {
		remaining = int(cl.limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}
	}

	return map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(rl.requestsPerMin),
		"X-RateLimit-Remaining": strconv.Itoa(remaining),
		"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10),
	}
}

// Reset forgets the limiter of a client
func (rl *RateLimiter) Reset(clientID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.clientLimiters, clientID)
}

// cleanup periodically removes expired limiters
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.removeExpiredLimiters(time.Now())
		case <-rl.stopCleanup:
			return
		}
	}
}

// removeExpiredLimiters removes limiters that haven't been used for a while
func (rl *RateLimiter) removeExpiredLimiters(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for clientID, cl := range rl.clientLimiters {
		if now.Sub(cl.lastSeen) > rl.expirationTime {
			delete(rl.clientLimiters, clientID)
		}
	}
}

// Stop stops the rate limiter and its cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
	})
}
