package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cooldown rate-limits repeated actions per key.
type Cooldown interface {
	// Acquire starts a window of length d for key. When a window is already running it
	// returns false and the time left.
	Acquire(ctx context.Context, key string, d time.Duration) (bool, time.Duration, error)
	// Release ends the window of key early.
	Release(ctx context.Context, key string) error
}

// MemoryCooldown keeps windows in process memory.
type MemoryCooldown struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

// NewMemoryCooldown returns an empty cooldown. A nil now uses time.Now.
func NewMemoryCooldown(now func() time.Time) *MemoryCooldown {
	if now == nil {
		now = time.Now
	}
	return &MemoryCooldown{until: make(map[string]time.Time), now: now}
}

func (c *MemoryCooldown) Acquire(_ context.Context, key string, d time.Duration) (bool, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if until, ok := c.until[key]; ok && now.Before(until) {
		return false, until.Sub(now), nil
	}
	c.until[key] = now.Add(d)
	for k, until := range c.until {
		if !now.Before(until) {
			delete(c.until, k)
		}
	}
	return true, 0, nil
}

func (c *MemoryCooldown) Release(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.until, key)
	return nil
}

// RedisCooldown shares windows across instances through Redis keys with a TTL.
type RedisCooldown struct {
	client *redis.Client
	prefix string
}

// NewRedisCooldown stores windows under prefix.
func NewRedisCooldown(client *redis.Client, prefix string) *RedisCooldown {
	return &RedisCooldown{client: client, prefix: prefix}
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (c *RedisCooldown) Acquire(ctx context.Context, key string, d time.Duration) (bool, time.Duration, error) {
	k := c.prefix + key
	ok, err := c.client.SetNX(ctx, k, "1", d).Result()
	if err != nil {
		return false, 0, fmt.Errorf("cooldown %s: %w", k, err)
	}
	if ok {
		return true, 0, nil
	}
	ttl, err := c.client.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("cooldown ttl %s: %w", k, err)
	}
	if ttl <= 0 {
		// Expired between the two calls.
		ttl = time.Second
	}
	return false, ttl, nil
}

func (c *RedisCooldown) Release(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("cooldown release %s%s: %w", c.prefix, key, err)
	}
	return nil
}

var (
	_ Cooldown = (*MemoryCooldown)(nil)
	_ Cooldown = (*RedisCooldown)(nil)
)
