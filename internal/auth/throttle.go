package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v9"
)

var _ RateLimiter = (*redis_rate.Limiter)(nil)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// LoginThrottle bounds login attempts per client key. Counters live in
// redis, keyed per client, so simultaneous attempts from different
// clients never block each other.
type LoginThrottle struct {
	limiter     RateLimiter
	maxAttempts int
	window      time.Duration
}

func NewLoginThrottle(limiter RateLimiter, maxAttempts int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{
		limiter:     limiter,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Attempt reports whether another login attempt from this client key is
// allowed within the current window
func (lt *LoginThrottle) Attempt(ctx context.Context, clientKey string) (bool, error) {
	res, err := lt.limiter.Allow(
		ctx,
		fmt.Sprintf("login-attempts::%s", clientKey),
		redis_rate.Limit{
			Rate:   lt.maxAttempts,
			Burst:  lt.maxAttempts,
			Period: lt.window,
		},
	)
	if err != nil {
		return false, fmt.Errorf("login throttle allow: %w", err)
	}

	return res.Allowed > 0, nil
}
