// Package ratelimit provides the duplicate-tap guard and the shared
// redis token bucket.
package ratelimit

import (
	"github.com/billfold/billfold/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("ratelimit",
	fx.Provide(NewRedisClient),
	fx.Provide(NewTokenBucket),
	fx.Provide(func() *Tap { return NewTap(DefaultTapInterval) }),
)

// NewRedisClient returns nil when no address is configured; the token
// bucket degrades to disabled and the tap guard still applies.
func NewRedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
