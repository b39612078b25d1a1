// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"caredesk/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient backs the slot cache and the booking locks.
	CacheClient *redis.Client
)

// InitCache initializes the Redis cache client (using REDIS_CACHE_DB).
func InitCache() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis (Cache): %w", err)
	}
	CacheClient = client
	return nil
}

// GetCacheClient returns the cache client, or nil when Redis was not reachable at startup.
func GetCacheClient() *redis.Client {
	return CacheClient
}

// QueueRedisOpt returns the connection settings of the async task queue database.
func QueueRedisOpt() (addr, password string, db int) {
	return config.AppConfig.RedisAddr, config.AppConfig.RedisPassword, config.AppConfig.RedisQueueDB
}
