package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/BITS4/babyshop/internal/domain"
)

type Service struct {
	store Store
	sfg   singleflight.Group // collapses concurrent loads of the same cart
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the session's cart; a session that never added anything has an
// empty cart, not an error. Callers get their own copy: the singleflight
// result is shared between collapsed loads and must never be mutated.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		cart, errGet := s.store.Get(ctx, sessionID)
		if errors.Is(errGet, ErrCartNotFound) {
			return &domain.Cart{
				SessionID: sessionID,
				Items:     []domain.CartItem{},
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneCart(v.(*domain.Cart)), nil
}

func cloneCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = make([]domain.CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}

// Add puts one unit of the product in the cart: an existing line for the
// same product id gains quantity one, otherwise a new line is appended.
// There is no remove or decrement operation.
func (s *Service) Add(ctx context.Context, sessionID string, p domain.Product) (*domain.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == p.LocalID {
			cart.Items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID:   p.LocalID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
			Quantity:    1,
		})
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// Clear empties the cart. Clearing an absent cart is a no-op.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
