package domain

import "time"

// CartItem snapshots the product at add time. Later catalog edits must not
// change what is already in a cart or in a historical order.
type CartItem struct {
	ProductID   int64   `json:"product_id" bson:"product_id"`
	Name        string  `json:"name" bson:"name"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64 `json:"price" bson:"price"`
	ImageURL    string  `json:"image_url" bson:"image_url"`
	Quantity    int     `json:"quantity" bson:"quantity"`
}

type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Total is the sum of price times quantity over all items.
func (c *Cart) Total() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
