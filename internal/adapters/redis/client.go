package redis

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Client wraps the go-redis client with a key prefix.
type Client struct {
	rdb    *redis.Client
	prefix string
	log    zerolog.Logger
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int, prefix string, baseLogger *zerolog.Logger) (*Client, error) {
	log := baseLogger.With().Str("component", "redis").Logger()

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("Failed to connect to Redis")
		return nil, err
	}

	log.Info().Str("addr", addr).Msg("Redis connection established")
	return &Client{rdb: rdb, prefix: prefix, log: log}, nil
}

func (c *Client) key(parts ...string) string {
	return c.prefix + ":" + strings.Join(parts, ":")
}

// Close shuts down the connection pool.
func (c *Client) Close() error {
	c.log.Info().Msg("Closing Redis connection")
	return c.rdb.Close()
}
