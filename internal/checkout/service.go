package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BITS4/babyshop/internal/cart"
	"github.com/BITS4/babyshop/internal/domain"
	"github.com/BITS4/babyshop/internal/orders"
)

type Form struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type Service struct {
	carts      *cart.Service
	repo       orders.OrderRepository
	lastOrders LastOrderStore
	publisher  OrderPublisher
	log        zerolog.Logger
}

func NewService(carts *cart.Service, repo orders.OrderRepository, lastOrders LastOrderStore, publisher OrderPublisher, log zerolog.Logger) *Service {
	return &Service{
		carts:      carts,
		repo:       repo,
		lastOrders: lastOrders,
		publisher:  publisher,
		log:        log.With().Str("component", "checkout").Logger(),
	}
}

// Submit turns the session's cart into an order. Everything that can be
// rejected is rejected before the insert; after the insert the confirmation
// snapshot, the cart clear, and the event publish are independent follow-ups
// with no atomicity between them.
func (s *Service) Submit(ctx context.Context, session *domain.Session, cartID string, form Form) (*domain.Order, error) {
	if session == nil {
		return nil, ErrNoSession
	}

	current, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if current.IsEmpty() {
		return nil, ErrEmptyCart
	}

	name := strings.TrimSpace(form.Name)
	address := strings.TrimSpace(form.Address)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if address == "" {
		return nil, &ValidationError{Field: "address", Reason: "required"}
	}
	phone, err := normalizePhone(form.Phone)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, len(current.Items))
	copy(items, current.Items)

	order := &domain.Order{
		ID:         uuid.New(),
		UserID:     session.UID,
		Email:      session.Email,
		Name:       name,
		Address:    address,
		Phone:      phone,
		Items:      items,
		Total:      current.Total(),
		ClientTime: time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.lastOrders.Save(ctx, cartID, order); err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("confirmation snapshot not saved")
	}

	if err := s.carts.Clear(ctx, cartID); err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("cart not cleared after checkout")
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, order); err != nil {
			s.log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("order event not published")
		}
	}

	return order, nil
}

// LastOrder returns the confirmation snapshot of the session's most recent
// checkout, if one exists.
func (s *Service) LastOrder(ctx context.Context, cartID string) (*domain.Order, error) {
	return s.lastOrders.Get(ctx, cartID)
}

// normalizePhone strips every non-digit, then checks the 8 to 15 digit
// length window.
func normalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	phone := digits.String()
	if len(phone) < 8 || len(phone) > 15 {
		return "", &ValidationError{Field: "phone", Reason: "must contain 8 to 15 digits"}
	}
	return phone, nil
}
