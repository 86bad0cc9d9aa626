package config

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewRedis builds and pings a Redis client. Accepts either a redis:// URL or
// a bare host:port. Redis is optional here (webhook dedup only), so callers
// decide whether a failure is fatal.
func NewRedis(ctx context.Context, addr string) (*redis.Client, error) {
	var client *redis.Client

	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
