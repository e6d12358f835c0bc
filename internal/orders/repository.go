package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/BITS4/babyshop/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the order persistence operations.
// Consumers define this interface, not the postgres implementation.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
}
