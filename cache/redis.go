package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces keys written by Redis caches.
const DefaultRedisPrefix = "rxocr:text:"

// Redis shares cached text between processes of one hosting session.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedis wraps a go-redis client. A zero ttl keeps entries until they
// are evicted by the server.
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis parses a redis:// URL, connects and pings the server.
func DialRedis(ctx context.Context, url, prefix string, ttl time.Duration) (*Redis, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client, prefix, ttl), client, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	text, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return text, true, nil
}

func (r *Redis) Set(ctx context.Context, key, text string) error {
	if err := r.client.Set(ctx, r.prefix+key, text, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
