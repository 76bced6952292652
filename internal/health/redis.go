package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker pings the Redis server backing the session store
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a checker for client
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string { return "redis" }

// HealthCheck verifies Redis connectivity
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
