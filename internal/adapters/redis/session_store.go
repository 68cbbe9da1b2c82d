package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"coursebot/internal/core/ports"
)

// sessionStore keeps per-chat conversation steps with a TTL, so an
// abandoned chat quietly resets itself.
type sessionStore struct {
	client *Client
	ttl    time.Duration
}

var _ ports.SessionStore = (*sessionStore)(nil) // Ensure compliance

// NewSessionStore creates the Redis-backed chat session store.
func NewSessionStore(client *Client, ttlHours int) ports.SessionStore {
	ttl := time.Duration(ttlHours) * time.Hour
	if ttlHours <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionStore{client: client, ttl: ttl}
}

func (s *sessionStore) Step(ctx context.Context, telegramID int64) (string, error) {
	key := s.client.key("session", strconv.FormatInt(telegramID, 10))
	step, err := s.client.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return step, nil
}

func (s *sessionStore) SetStep(ctx context.Context, telegramID int64, step string) error {
	key := s.client.key("session", strconv.FormatInt(telegramID, 10))
	return s.client.rdb.Set(ctx, key, step, s.ttl).Err()
}

func (s *sessionStore) Clear(ctx context.Context, telegramID int64) error {
	key := s.client.key("session", strconv.FormatInt(telegramID, 10))
	return s.client.rdb.Del(ctx, key).Err()
}
