package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisCache keeps revoked session markers and touch throttles.
// Key format: session:revoked:<id> and session:touch:<id>
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) MarkRevoked(ctx context.Context, id uuid.UUID, ttl time.Duration) error {
	if err := c.client.Set(ctx, revokedKey(id), "1", ttl).Err(); err != nil {
		return fmt.Errorf("mark session revoked: %w", err)
	}
	return nil
}

func (c *RedisCache) IsRevoked(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := c.client.Exists(ctx, revokedKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("session revoked check: %w", err)
	}
	return n > 0, nil
}

// ShouldTouch claims the touch slot with SET NX so only one request per
// interval writes last_seen_at.
func (c *RedisCache) ShouldTouch(ctx context.Context, id uuid.UUID, interval time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, touchKey(id), "1", interval).Result()
	if err != nil {
		return false, fmt.Errorf("session touch: %w", err)
	}
	return ok, nil
}

func revokedKey(id uuid.UUID) string {
	return "session:revoked:" + id.String()
}

func touchKey(id uuid.UUID) string {
	return "session:touch:" + id.String()
}
