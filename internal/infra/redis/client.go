package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrLeaseHeld is returned when another process owns the run lease.
	ErrLeaseHeld = errors.New("run lease is held by another process")

	// ErrInvalidLeaseTTL is returned for a non-positive lease TTL.
	ErrInvalidLeaseTTL = errors.New("lease ttl must be positive")
)

// DefaultKey is the key prefix used when Config.Key is empty.
const DefaultKey = "digest"

// Client wraps Redis operations for checkpoint storage and run leases.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Key      string `yaml:"key"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newClient(rdb, cfg.Key), nil
}

func newClient(rdb *redis.Client, prefix string) *Client {
	if prefix == "" {
		prefix = DefaultKey
	}
	return &Client{rdb: rdb, prefix: prefix}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks if Redis is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Key helpers
func (c *Client) checkpointKey() string {
	return fmt.Sprintf("%s:checkpoint", c.prefix)
}

func (c *Client) stagingKey(seq uint64) string {
	return fmt.Sprintf("%s:checkpoint:staging:%d", c.prefix, seq)
}

func (c *Client) leaseKey() string {
	return fmt.Sprintf("%s:lease", c.prefix)
}

// releaseLeaseScript deletes the lease only if owner still holds it.
var releaseLeaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// refreshLeaseScript extends the lease only if owner still holds it.
var refreshLeaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// AcquireLease claims the run lease for owner so two schedulers never write
// the same checkpoint key.
func (c *Client) AcquireLease(ctx context.Context, owner string, ttl time.Duration) error {
	ok, err := c.rdb.SetNX(ctx, c.leaseKey(), owner, ttl).Result()
	if err != nil {
		return fmt.Errorf("setnx failed: %w", err)
	}
	if !ok {
		holder, _ := c.rdb.Get(ctx, c.leaseKey()).Result()
		return fmt.Errorf("%w: %s", ErrLeaseHeld, holder)
	}
	return nil
}

// RefreshLease extends the lease TTL. It fails if owner lost the lease.
func (c *Client) RefreshLease(ctx context.Context, owner string, ttl time.Duration) error {
	n, err := refreshLeaseScript.Run(ctx, c.rdb, []string{c.leaseKey()}, owner, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("refresh lease failed: %w", err)
	}
	if n == 0 {
		return ErrLeaseHeld
	}
	return nil
}

// ReleaseLease drops the lease if owner still holds it.
func (c *Client) ReleaseLease(ctx context.Context, owner string) error {
	if err := releaseLeaseScript.Run(ctx, c.rdb, []string{c.leaseKey()}, owner).Err(); err != nil {
		return fmt.Errorf("release lease failed: %w", err)
	}
	return nil
}

// KeepLease refreshes the lease every ttl/3 until ctx is done.
func (c *Client) KeepLease(ctx context.Context, owner string, ttl time.Duration) error {
	if ttl/3 <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidLeaseTTL, ttl)
	}
	ticker := time.NewTicker(ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.RefreshLease(ctx, owner, ttl); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
