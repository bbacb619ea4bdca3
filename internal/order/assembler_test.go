package order

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ecosopis/storefront/internal/domain"
	"github.com/ecosopis/storefront/internal/metrics"
	"github.com/ecosopis/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducts struct {
	m        sync.Mutex
	products map[int64]domain.Product
	lookups  []int64
	err      error
}

func newFakeProducts(products ...domain.Product) *fakeProducts {
	f := &fakeProducts{products: map[int64]domain.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.lookups = append(f.lookups, id)
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeProducts) setPrice(id, price int64) {
	f.m.Lock()
	defer f.m.Unlock()
	p := f.products[id]
	p.Price = price
	f.products[id] = p
}

// fakeOrders stores deep copies so later mutations by callers cannot leak in,
// and writes nothing when createErr is set.
type fakeOrders struct {
	m         sync.Mutex
	orders    map[int64]domain.Order
	nextID    int64
	creates   int
	createErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[int64]domain.Order{}}
}

func (f *fakeOrders) CreateOrder(_ context.Context, o *domain.Order) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = time.Now()
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		o.Items[i].ID = int64(i + 1)
	}
	stored := *o
	stored.Items = append([]domain.OrderItem(nil), o.Items...)
	f.orders[o.ID] = stored
	return nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	f.m.Lock()
	defer f.m.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &o, nil
}

func (f *fakeOrders) ListOrders(_ context.Context, userID int64) ([]domain.Order, error) {
	f.m.Lock()
	defer f.m.Unlock()
	out := make([]domain.Order, 0)
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) count() int {
	f.m.Lock()
	defer f.m.Unlock()
	return len(f.orders)
}

func catalogFixture() *fakeProducts {
	return newFakeProducts(
		domain.Product{ID: 1, Name: "Green Clay Soap", Price: 2990},
		domain.Product{ID: 2, Name: "Vitamin C Serum", Price: 8990},
		domain.Product{ID: 3, Name: "Sample", Price: 0},
	)
}

func TestPlaceOrder_SingleLine(t *testing.T) {
	orders := newFakeOrders()
	svc := NewService(catalogFixture(), orders, metrics.New(), nil)

	order, err := svc.PlaceOrder(context.Background(), 10, []domain.CartLine{{ProductID: 1, Quantity: 2}})
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.Equal(t, int64(10), order.UserID)
	assert.Equal(t, int64(5980), order.Total)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(2), order.Items[0].Quantity)
	assert.Equal(t, int64(2990), order.Items[0].Price)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
}

func TestPlaceOrder_TotalIsSumOfLineTotals(t *testing.T) {
	products := catalogFixture()
	svc := NewService(products, newFakeOrders(), nil, nil)

	lines := []domain.CartLine{
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 3},
		{ProductID: 3, Quantity: 5},
		{ProductID: 1, Quantity: 1},
	}
	order, err := svc.PlaceOrder(context.Background(), 10, lines)
	require.NoError(t, err)

	var sum int64
	for i, item := range order.Items {
		assert.Equal(t, lines[i].ProductID, item.ProductID, "items keep cart order")
		assert.Equal(t, products.products[item.ProductID].Price, item.Price)
		sum += item.LineTotal()
	}
	assert.Equal(t, sum, order.Total)
	assert.Equal(t, int64(8990+3*2990+0+2990), order.Total)
	assert.Equal(t, []int64{2, 1, 3, 1}, products.lookups)
}

func TestPlaceOrder_UnknownProductWritesNothing(t *testing.T) {
	orders := newFakeOrders()
	svc := NewService(catalogFixture(), orders, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), 10, []domain.CartLine{
		{ProductID: 1, Quantity: 1},
		{ProductID: 999, Quantity: 1},
	})
	require.Error(t, err)

	var notFound *domain.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(999), notFound.ProductID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "999")

	assert.Equal(t, 0, orders.creates)
	assert.Equal(t, 0, orders.count())
}

func TestPlaceOrder_StopsAtFirstMissingProduct(t *testing.T) {
	products := catalogFixture()
	svc := NewService(products, newFakeOrders(), nil, nil)

	_, err := svc.PlaceOrder(context.Background(), 10, []domain.CartLine{
		{ProductID: 404, Quantity: 1},
		{ProductID: 1, Quantity: 1},
	})
	var notFound *domain.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(404), notFound.ProductID)
	assert.Equal(t, []int64{404}, products.lookups)
}

func TestPlaceOrder_ValidationBeforeLookup(t *testing.T) {
	tests := []struct {
		name  string
		lines []domain.CartLine
		field string
	}{
		{"empty cart", nil, "items"},
		{"zero quantity", []domain.CartLine{{ProductID: 1, Quantity: 0}}, "items[0].quantity"},
		{"negative quantity", []domain.CartLine{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: -3}}, "items[1].quantity"},
		{"zero product id", []domain.CartLine{{ProductID: 0, Quantity: 1}}, "items[0].productId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := catalogFixture()
			orders := newFakeOrders()
			svc := NewService(products, orders, nil, nil)

			_, err := svc.PlaceOrder(context.Background(), 10, tt.lines)
			require.ErrorIs(t, err, domain.ErrValidation)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, products.lookups)
			assert.Equal(t, 0, orders.creates)
		})
	}
}

func TestPlaceOrder_RequiresUser(t *testing.T) {
	svc := NewService(catalogFixture(), newFakeOrders(), nil, nil)

	_, err := svc.PlaceOrder(context.Background(), 0, []domain.CartLine{{ProductID: 1, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPlaceOrder_Overflow(t *testing.T) {
	products := newFakeProducts(domain.Product{ID: 1, Price: math.MaxInt64 / 2})
	orders := newFakeOrders()
	svc := NewService(products, orders, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), 10, []domain.CartLine{{ProductID: 1, Quantity: 3}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.PlaceOrder(context.Background(), 10, []domain.CartLine{{ProductID: 1, Quantity: 2}, {ProductID: 1, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, orders.creates)
}

func TestPlaceOrder_PersistenceFailure(t *testing.T) {
	orders := newFakeOrders()
	orders.createErr = errors.New("connection reset")
	svc := NewService(catalogFixture(), orders, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), 10, []domain.CartLine{{ProductID: 1, Quantity: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, 0, orders.count())
}

func TestPlaceOrder_LookupFailure(t *testing.T) {
	products := catalogFixture()
	products.err = errors.New("db unavailable")
	orders := newFakeOrders()
	svc := NewService(products, orders, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), 10, []domain.CartLine{{ProductID: 1, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, orders.creates)
}

func TestPlaceOrder_PriceSnapshot(t *testing.T) {
	products := catalogFixture()
	orders := newFakeOrders()
	svc := NewService(products, orders, nil, nil)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, 10, []domain.CartLine{{ProductID: 1, Quantity: 2}})
	require.NoError(t, err)

	products.setPrice(1, 4990)

	stored, err := svc.GetOrder(ctx, 10, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5980), stored.Total)
	assert.Equal(t, int64(2990), stored.Items[0].Price)

	next, err := svc.PlaceOrder(ctx, 10, []domain.CartLine{{ProductID: 1, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(9980), next.Total)
}

func TestPlaceOrder_Concurrent(t *testing.T) {
	orders := newFakeOrders()
	svc := NewService(catalogFixture(), orders, metrics.New(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := svc.PlaceOrder(context.Background(), 10, []domain.CartLine{{ProductID: 2, Quantity: 1}})
			assert.NoError(t, err)
			assert.Equal(t, int64(8990), o.Total)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, orders.count())
}

func TestGetOrder_OtherUsersOrderIsNotFound(t *testing.T) {
	svc := NewService(catalogFixture(), newFakeOrders(), nil, nil)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, 10, []domain.CartLine{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, 11, placed.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	own, err := svc.GetOrder(ctx, 10, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, own.ID)
}

func TestListOrders(t *testing.T) {
	svc := NewService(catalogFixture(), newFakeOrders(), nil, nil)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, 10, []domain.CartLine{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, 11, []domain.CartLine{{ProductID: 2, Quantity: 1}})
	require.NoError(t, err)

	mine, err := svc.ListOrders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(2990), mine[0].Total)
}
