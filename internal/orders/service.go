package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/BITS4/babyshop/internal/domain"
)

type Service struct {
	repo OrderRepository
}

func NewService(repo OrderRepository) *Service {
	return &Service{repo: repo}
}

// ListForSession applies the visibility rules: the admin sees every order; a
// regular session sees orders tagged with its user id, falling back to an
// email match for orders written before the user-id field existed.
func (s *Service) ListForSession(ctx context.Context, session *domain.Session) ([]*domain.Order, error) {
	if session == nil {
		return nil, fmt.Errorf("no session")
	}

	if session.IsAdmin {
		all, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list all orders: %w", err)
		}
		sortNewestFirst(all)
		return all, nil
	}

	orders, err := s.repo.ListByUserID(ctx, session.UID)
	if err != nil {
		return nil, fmt.Errorf("list orders by user: %w", err)
	}
	if len(orders) == 0 {
		orders, err = s.repo.ListByEmail(ctx, session.Email)
		if err != nil {
			return nil, fmt.Errorf("list orders by email: %w", err)
		}
	}
	sortNewestFirst(orders)
	return orders, nil
}

// GetForSession fetches one order. A record the session does not own is
// reported as not found rather than forbidden.
func (s *Service) GetForSession(ctx context.Context, session *domain.Session, id uuid.UUID) (*domain.Order, error) {
	if session == nil {
		return nil, fmt.Errorf("no session")
	}

	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Owns(order.UserID, order.Email) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// sortNewestFirst orders by the server-assigned creation time, falling back
// to the client-recorded timestamp string for historical rows without one.
func sortNewestFirst(orders []*domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return effectiveTime(orders[i]).After(effectiveTime(orders[j]))
	})
}

func effectiveTime(o *domain.Order) time.Time {
	if !o.CreatedAt.IsZero() {
		return o.CreatedAt
	}
	if t, err := time.Parse(time.RFC3339, o.ClientTime); err == nil {
		return t
	}
	return time.Time{}
}
