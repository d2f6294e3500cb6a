package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ntuclms/lms-client/internal/core/domain"
)

const keyPrefix = "lms:session:"

// TokenStore keeps the session token in Redis so several client processes
// (for example a kiosk pool) can share one login.
// Key format: lms:session:<key>
type TokenStore struct {
	client *redis.Client
	key    string
}

// NewTokenStore creates a TokenStore wrapping the given Redis client.
func NewTokenStore(client *redis.Client, key string) *TokenStore {
	return &TokenStore{client: client, key: keyPrefix + key}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// Save stores the token without expiry; the backend decides when it stops
// being accepted.
func (s *TokenStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *TokenStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
