package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BITS4/babyshop/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// Store is the durable per-session key/value home of the cart. It survives
// reloads and is scoped to one session, nothing else.
type Store interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{
		client: client,
		ttl:    90 * 24 * time.Hour,
	}
}

func (r *redisStore) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}
	return &cart, nil
}

func (r *redisStore) Save(ctx context.Context, cart *domain.Cart) error {
	cart.UpdatedAt = time.Now()
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := r.client.Set(ctx, cartKey(cart.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
