package redis

import (
	"context"
	"time"

	"coursebot/internal/core/ports"
)

// locker is a SETNX+TTL lock. It is best-effort: the TTL bounds how
// long a crashed holder can block others, the unique index in Postgres
// is the hard backstop.
type locker struct {
	client *Client
}

var _ ports.Locker = (*locker)(nil) // Ensure compliance

// NewLocker creates the Redis-backed lock.
func NewLocker(client *Client) ports.Locker {
	return &locker{client: client}
}

func (l *locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return l.client.rdb.SetNX(ctx, l.client.key("lock", key), 1, ttl).Result()
}

func (l *locker) Release(ctx context.Context, key string) error {
	return l.client.rdb.Del(ctx, l.client.key("lock", key)).Err()
}
