package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the Redis connection.
type Options struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Client wraps go-redis. A disabled client misses every read and drops
// every write.
type Client struct {
	rdb     *redis.Client
	enabled bool
	prefix  string
}

// New connects when opts.Enabled and pings the server once.
func New(ctx context.Context, opts Options) (*Client, error) {
	if !opts.Enabled {
		return &Client{enabled: false}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{rdb: rdb, enabled: true, prefix: opts.Prefix}, nil
}

// Enabled returns whether Redis is in use.
func (c *Client) Enabled() bool { return c.enabled }

func (c *Client) key(k string) string { return c.prefix + k }

// GetJSON decodes the value at key into dst. A missing key is (false, nil).
func (c *Client) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !c.enabled {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v as JSON with the given expiry.
func (c *Client) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}
