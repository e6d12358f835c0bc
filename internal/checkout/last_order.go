package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BITS4/babyshop/internal/domain"
)

// LastOrderStore keeps the just-completed order for the confirmation screen.
type LastOrderStore interface {
	Save(ctx context.Context, sessionID string, order *domain.Order) error
	Get(ctx context.Context, sessionID string) (*domain.Order, error)
}

type redisLastOrderStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLastOrderStore(client *redis.Client) LastOrderStore {
	return &redisLastOrderStore{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (r *redisLastOrderStore) Save(ctx context.Context, sessionID string, order *domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal last order: %w", err)
	}
	if err := r.client.Set(ctx, lastOrderKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *redisLastOrderStore) Get(ctx context.Context, sessionID string) (*domain.Order, error) {
	data, err := r.client.Get(ctx, lastOrderKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoLastOrder
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var order domain.Order
	if err2 := json.Unmarshal(data, &order); err2 != nil {
		return nil, fmt.Errorf("unmarshal last order: %w", err2)
	}
	return &order, nil
}

func lastOrderKey(sessionID string) string {
	return fmt.Sprintf("order:last:%s", sessionID)
}
