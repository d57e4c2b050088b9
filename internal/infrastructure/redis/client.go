package redisinfra

import (
	"github.com/hostly-api/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client from config. go-redis dials lazily, so
// construction never fails; the first command surfaces connectivity errors.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
