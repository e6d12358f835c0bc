package authn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore keeps the identity provider's credential per account (keyed by
// lowercased email) so the session can be re-synchronized (reload,
// verification resend) without prompting for the password again.
type TokenStore interface {
	Set(ctx context.Context, email, idToken string) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

type redisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTokenStore(client *redis.Client, ttl time.Duration) TokenStore {
	return &redisTokenStore{client: client, ttl: ttl}
}

func (s *redisTokenStore) Set(ctx context.Context, email, idToken string) error {
	if err := s.client.Set(ctx, tokenKey(email), idToken, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *redisTokenStore) Get(ctx context.Context, email string) (string, error) {
	val, err := s.client.Get(ctx, tokenKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

func (s *redisTokenStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, tokenKey(email)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func tokenKey(email string) string {
	return fmt.Sprintf("authn:token:%s", email)
}
