package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"debtpayoff/internal/log"
)

const keyPrefix = "debtpayoff:"

// RedisCache is a Cache[[]byte] shared by the API and the worker. Redis
// failures degrade to cache misses and are only logged.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewRedisCache connects to the Redis server at url (redis://host:port/db).
func NewRedisCache(url string, ttl time.Duration, logger *log.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &RedisCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		logger: logger.WithComponent(log.ComponentCache),
	}, nil
}

// Ping checks that the server answers
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "Redis get failed", log.FieldCacheKey, key, log.FieldError, err.Error())
		}
		return nil, false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, data []byte) {
	if err := r.client.Set(ctx, keyPrefix+key, data, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "Redis set failed", log.FieldCacheKey, key, log.FieldError, err.Error())
	}
}

func (r *RedisCache) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		r.logger.WarnContext(ctx, "Redis delete failed", log.FieldCacheKey, key, log.FieldError, err.Error())
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
