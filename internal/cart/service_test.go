package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BITS4/babyshop/internal/domain"
)

type mockStore struct {
	m     sync.RWMutex
	carts map[string]*domain.Cart
	err   error
}

func newMockStore() *mockStore {
	return &mockStore{carts: map[string]*domain.Cart{}}
}

func (m *mockStore) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

func (m *mockStore) Save(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.carts[cart.SessionID] = cart
	return nil
}

func (m *mockStore) Delete(_ context.Context, sessionID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.carts, sessionID)
	return nil
}

func product(id int64, name string, price float64) domain.Product {
	return domain.Product{LocalID: id, Name: name, Price: price}
}

func TestGet_MissingCartIsEmpty(t *testing.T) {
	sut := NewService(newMockStore())

	cart, err := sut.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", cart.SessionID)
	assert.Empty(t, cart.Items)
}

func TestAdd_NewProductGetsQuantityOne(t *testing.T) {
	sut := NewService(newMockStore())

	cart, err := sut.Add(context.Background(), "s1", product(1, "Fluffy Onesie", 29.99))
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, "Fluffy Onesie", cart.Items[0].Name)
}

func TestAdd_RepeatAddIncrementsQuantity(t *testing.T) {
	sut := NewService(newMockStore())
	ctx := context.Background()

	_, err := sut.Add(ctx, "s1", product(1, "Fluffy Onesie", 29.99))
	require.NoError(t, err)
	_, err = sut.Add(ctx, "s1", product(1, "Fluffy Onesie", 29.99))
	require.NoError(t, err)
	cart, err := sut.Add(ctx, "s1", product(1, "Fluffy Onesie", 29.99))
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAdd_OneLinePerDistinctProduct(t *testing.T) {
	sut := NewService(newMockStore())
	ctx := context.Background()

	adds := []int64{1, 2, 1, 3, 2, 1}
	var cart *domain.Cart
	var err error
	for _, id := range adds {
		cart, err = sut.Add(ctx, "s1", product(id, fmt.Sprintf("p%d", id), 1.0))
		require.NoError(t, err)
	}

	require.Len(t, cart.Items, 3)
	byID := map[int64]int{}
	for _, it := range cart.Items {
		byID[it.ProductID] = it.Quantity
	}
	assert.Equal(t, map[int64]int{1: 3, 2: 2, 3: 1}, byID)
}

func TestAdd_SnapshotsProductData(t *testing.T) {
	sut := NewService(newMockStore())
	ctx := context.Background()

	p := product(1, "Fluffy Onesie", 29.99)
	cart, err := sut.Add(ctx, "s1", p)
	require.NoError(t, err)

	// A later catalog edit must not change what is in the cart.
	p.Price = 99.99
	assert.Equal(t, 29.99, cart.Items[0].Price)
}

func TestTotal(t *testing.T) {
	sut := NewService(newMockStore())
	ctx := context.Background()

	_, err := sut.Add(ctx, "s1", product(1, "A", 10.00))
	require.NoError(t, err)
	_, err = sut.Add(ctx, "s1", product(1, "A", 10.00))
	require.NoError(t, err)
	cart, err := sut.Add(ctx, "s1", product(2, "B", 5.00))
	require.NoError(t, err)

	assert.InDelta(t, 25.00, cart.Total(), 1e-9)
}

func TestClear_AlwaysYieldsEmptyCart(t *testing.T) {
	store := newMockStore()
	sut := NewService(store)
	ctx := context.Background()

	_, err := sut.Add(ctx, "s1", product(1, "A", 10.00))
	require.NoError(t, err)
	_, err = sut.Add(ctx, "s1", product(2, "B", 5.00))
	require.NoError(t, err)

	require.NoError(t, sut.Clear(ctx, "s1"))
	cart, err := sut.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// Clearing an already-empty cart is fine.
	require.NoError(t, sut.Clear(ctx, "s1"))
}

func TestGet_StoreErrorSurfaced(t *testing.T) {
	store := newMockStore()
	store.err = fmt.Errorf("redis down")
	sut := NewService(store)

	_, err := sut.Get(context.Background(), "s1")
	require.ErrorContains(t, err, "redis down")
}

func TestCartsAreSessionScoped(t *testing.T) {
	sut := NewService(newMockStore())
	ctx := context.Background()

	_, err := sut.Add(ctx, "s1", product(1, "A", 10.00))
	require.NoError(t, err)

	other, err := sut.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

// codecStore round-trips carts through JSON the way the redis store does,
// so any sharing between callers can only come from the service itself.
type codecStore struct {
	m    sync.RWMutex
	data map[string][]byte
}

func newCodecStore() *codecStore {
	return &codecStore{data: map[string][]byte{}}
}

func (c *codecStore) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	raw, ok := c.data[sessionID]
	if !ok {
		return nil, ErrCartNotFound
	}
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *codecStore) Save(_ context.Context, cart *domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	c.m.Lock()
	defer c.m.Unlock()
	c.data[cart.SessionID] = raw
	return nil
}

func (c *codecStore) Delete(_ context.Context, sessionID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.data, sessionID)
	return nil
}

func TestGet_CallersReceiveIndependentCarts(t *testing.T) {
	store := newMockStore()
	sut := NewService(store)

	_, err := sut.Add(context.Background(), "s1", product(1, "Fluffy Onesie", 29.99))
	require.NoError(t, err)

	first, err := sut.Get(context.Background(), "s1")
	require.NoError(t, err)
	second, err := sut.Get(context.Background(), "s1")
	require.NoError(t, err)

	first.Items[0].Quantity = 99

	assert.Equal(t, 1, second.Items[0].Quantity, "mutating one caller's cart must not leak into another's")
}

func TestAdd_ConcurrentSameSession(t *testing.T) {
	sut := NewService(newCodecStore())

	const adds = 20
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sut.Add(context.Background(), "s1", product(1, "Fluffy Onesie", 29.99))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := sut.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(1), cart.Items[0].ProductID)
	assert.GreaterOrEqual(t, cart.Items[0].Quantity, 1)
	assert.LessOrEqual(t, cart.Items[0].Quantity, adds)
}
