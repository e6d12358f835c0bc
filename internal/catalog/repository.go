package catalog

import (
	"context"
	"errors"

	"github.com/BITS4/babyshop/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Record pairs a product with the document store's own id. The remote id is
// catalog-internal; everything outside this package addresses products by
// their local id.
type Record struct {
	RemoteID string
	Product  domain.Product
}

// ProductRepository defines the document-store operations the catalog needs.
// Consumers define this interface, not the MongoDB implementation.
type ProductRepository interface {
	List(ctx context.Context) ([]Record, error)
	Insert(ctx context.Context, p domain.Product) (string, error)
	Update(ctx context.Context, remoteID string, p domain.Product) error
	Delete(ctx context.Context, remoteID string) error
	FindByLocalID(ctx context.Context, localID int64) (*Record, error)
	// Watch delivers one signal per remote change until ctx is done or the
	// stream breaks; the caller re-reads the full list on every signal.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
