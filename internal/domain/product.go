package domain

import "time"

// Product is a catalog entry. LocalID is assigned by the creating client at
// creation time and stays stable across edits; the document store's own id
// never leaves the catalog package.
type Product struct {
	LocalID     int64     `json:"id" bson:"local_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Price       float64   `json:"price" bson:"price"`
	ImageURL    string    `json:"image_url" bson:"image_url"`
	Category    string    `json:"category,omitempty" bson:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
