package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order is immutable after creation. Items are the cart snapshot taken at
// checkout time.
type Order struct {
	ID         uuid.UUID  `json:"id"`
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Address    string     `json:"address"`
	Phone      string     `json:"phone,omitempty"`
	Items      []CartItem `json:"items"`
	Total      float64    `json:"total"`
	ClientTime string     `json:"client_time"`
	CreatedAt  time.Time  `json:"created_at"`
}
