package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v9"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRateLimiter struct {
	allowed  int
	err      error
	lastKey  string
	lastRate redis_rate.Limit
}

func (f *fakeRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	f.lastKey = key
	f.lastRate = limit
	if f.err != nil {
		return nil, f.err
	}
	return &redis_rate.Result{Allowed: f.allowed}, nil
}

func TestLoginThrottle_Attempt(t *testing.T) {
	limiter := &fakeRateLimiter{allowed: 1}
	throttle := NewLoginThrottle(limiter, 5, 15*time.Minute)

	allowed, err := throttle.Attempt(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, "login-attempts::10.0.0.1", limiter.lastKey)
	assert.Equal(t, 5, limiter.lastRate.Rate)
	assert.Equal(t, 5, limiter.lastRate.Burst)
	assert.Equal(t, 15*time.Minute, limiter.lastRate.Period)
}

func TestLoginThrottle_Attempt_Exhausted(t *testing.T) {
	limiter := &fakeRateLimiter{allowed: 0}
	throttle := NewLoginThrottle(limiter, 5, 15*time.Minute)

	allowed, err := throttle.Attempt(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLoginThrottle_RedisUnavailable(t *testing.T) {
	// a mock client with no expectations rejects every command, which
	// is how an unreachable redis looks to the limiter
	db, _ := redismock.NewClientMock()
	throttle := NewLoginThrottle(redis_rate.NewLimiter(db), 5, 15*time.Minute)

	allowed, err := throttle.Attempt(context.Background(), "10.0.0.1")
	require.Error(t, err)
	assert.False(t, allowed)
}

func TestLoginThrottle_Attempt_Error(t *testing.T) {
	limiter := &fakeRateLimiter{err: errors.New("redis gone")}
	throttle := NewLoginThrottle(limiter, 5, 15*time.Minute)

	allowed, err := throttle.Attempt(context.Background(), "10.0.0.1")
	require.Error(t, err)
	assert.False(t, allowed)
}
