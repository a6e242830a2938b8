package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisTokenStore implements TokenStore on a single Redis key. SET and GET
// on one key are atomic, which is all the single-document contract needs.
type RedisTokenStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisTokenStore creates a Redis-backed token store. The prefix
// namespaces the key so several environments can share one Redis.
func NewRedisTokenStore(client redis.UniversalClient, prefix string) *RedisTokenStore {
	return &RedisTokenStore{
		client: client,
		key:    fmt.Sprintf("%s:oauth:tokenset", prefix),
	}
}

// Get returns the stored token set, or nil when nothing has been persisted.
func (s *RedisTokenStore) Get(ctx context.Context) (*TokenSet, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token set: %w", err)
	}

	var ts TokenSet
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token set: %w", err)
	}
	return &ts, nil
}

// Upsert overwrites the stored token set. No TTL: the document outlives the
// access token it carries because the refresh token inside stays usable.
func (s *RedisTokenStore) Upsert(ctx context.Context, ts *TokenSet) error {
	data, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("failed to marshal token set: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save token set: %w", err)
	}
	return nil
}
