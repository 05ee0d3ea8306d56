package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Harshitk-cp/opsconsole/internal/config"
)

func TestRateLimiterAllowsBurstThenLimits(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstSize: 2, ExpirationTime: time.Minute})
	defer rl.Stop()

	assert.NoError(t, rl.Allow("op-1"))
	assert.NoError(t, rl.Allow("op-1"))
	assert.ErrorIs(t, rl.Allow("op-1"), ErrRateLimitExceeded)

	// other clients have their own bucket
	assert.NoError(t, rl.Allow("op-2"))

	rl.Reset("op-1")
	assert.NoError(t, rl.Allow("op-1"))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: false, RequestsPerMin: 1, BurstSize: 1})
	defer rl.Stop()

	for i := 0; i < 10; i++ {
		assert.NoError(t, rl.Allow("op-1"))
	}
	assert.Nil(t, rl.Headers("op-1"))
}

func TestRateLimiterHeaders(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMin: 30, BurstSize: 5, ExpirationTime: time.Minute})
	defer rl.Stop()

	assert.NoError(t, rl.Allow("op-1"))
	headers := rl.Headers("op-1")
	assert.Equal(t, "30", headers["X-RateLimit-Limit"])
	assert.Equal(t, "4", headers["X-RateLimit-Remaining"])
}

func TestRemoveExpiredLimiters(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstSize: 1, ExpirationTime: time.Minute})
	defer rl.Stop()

	assert.NoError(t, rl.Allow("op-1"))
	assert.Error(t, rl.Allow("op-1"))

	rl.removeExpiredLimiters(time.Now().Add(2 * time.Minute))
	assert.NoError(t, rl.Allow("op-1"))
}
