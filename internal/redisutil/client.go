// Package redisutil wraps the go-redis client the same way the rest
// of the hub wraps optional external dependencies: the process must
// keep running correctly if Redis is absent, slow, or unreachable, so
// every method degrades to a logged no-op instead of a fatal error.
package redisutil

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Client is a thin wrapper around *redis.Client that never panics or
// exits the process on connection failure. A nil *Client is valid and
// behaves as if every operation failed silently.
type Client struct {
	rdb *redis.Client
	log zerolog.Logger
}

// Connect dials addr and pings it once so callers know at startup
// whether the mirror will be usable, but a failed ping is logged as a
// warning rather than returned as an error — the caller is expected
// to keep running without Redis.
func Connect(addr, password string, db int, log zerolog.Logger) *Client {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	c := &Client{rdb: rdb, log: log.With().Str("module", "redis").Logger()}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		c.log.Warn().Err(err).Str("addr", addr).Msg("redis ping failed; membership mirror disabled")
		_ = rdb.Close()
		c.rdb = nil
	}
	return c
}

// Close releases the underlying connection pool, if any.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Raw returns the underlying client for callers that need direct
// access (the membership mirror). Returns nil if no connection was
// established.
func (c *Client) Raw() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}
