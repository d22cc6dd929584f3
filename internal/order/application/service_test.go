package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/order-fulfillment/internal/order/application"
	"github.com/dmehra2102/order-fulfillment/internal/order/domain"
	"github.com/dmehra2102/order-fulfillment/internal/order/infrastructure/memory"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
)

type call struct {
	op  string
	id  int64
	qty int
}

type fakeProducts struct {
	mu         sync.Mutex
	products   map[int64]application.Product
	stale      map[int64]int
	reserveErr map[int64]error
	calls      []call
}

func newFakeProducts(ps ...application.Product) *fakeProducts {
	f := &fakeProducts{products: map[int64]application.Product{}, stale: map[int64]int{}, reserveErr: map[int64]error{}}
	for _, p := range ps {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) GetProduct(_ context.Context, id int64) (application.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "get", id: id})
	p, ok := f.products[id]
	if !ok {
		return application.Product{}, apperr.NotFound("product %d not found", id)
	}
	if n, ok := f.stale[id]; ok {
		p.StockQuantity = n
	}
	return p, nil
}

func (f *fakeProducts) ReserveStock(_ context.Context, id int64, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "reserve", id: id, qty: qty})
	if err := f.reserveErr[id]; err != nil {
		return err
	}
	p := f.products[id]
	if p.StockQuantity < qty {
		return apperr.Reservation("insufficient stock for product %d: requested %d, available %d", id, qty, p.StockQuantity)
	}
	p.StockQuantity -= qty
	f.products[id] = p
	return nil
}

func (f *fakeProducts) ReleaseStock(_ context.Context, id int64, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "release", id: id, qty: qty})
	p := f.products[id]
	p.StockQuantity += qty
	f.products[id] = p
	return nil
}

func (f *fakeProducts) releases() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.op == "release" {
			out = append(out, c)
		}
	}
	return out
}

type failingRepo struct {
	*memory.Repository
}

func (failingRepo) Create(context.Context, domain.Order) (domain.Order, error) {
	return domain.Order{}, errors.New("connection reset")
}

type recordingNotifier struct {
	msgs []string
}

func (n *recordingNotifier) Notify(_ context.Context, msg string) { n.msgs = append(n.msgs, msg) }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func catalog() *fakeProducts {
	return newFakeProducts(
		application.Product{ID: 1, Name: "Pen", Price: money.MustParse("9.99"), StockQuantity: 10},
		application.Product{ID: 2, Name: "Pad", Price: money.MustParse("5.00"), StockQuantity: 1},
	)
}

func request(items ...domain.ItemRequest) domain.CreateOrder {
	return domain.CreateOrder{
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		ShippingAddress: "12 Analytical St",
		Items:           items,
	}
}

func TestCreateOrderComputesTotalAndSnapshots(t *testing.T) {
	products := catalog()
	n := &recordingNotifier{}
	svc := application.NewService(quiet(), memory.NewRepository(), products, n)

	o, err := svc.CreateOrder(context.Background(), request(
		domain.ItemRequest{ProductID: 1, Quantity: 2},
		domain.ItemRequest{ProductID: 2, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, "24.98", o.TotalAmount.String())
	assert.Equal(t, domain.StatusPending, o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Pen", o.Items[0].ProductName)
	assert.Equal(t, "9.99", o.Items[0].UnitPrice.String())
	assert.Equal(t, 8, products.products[1].StockQuantity)
	assert.Equal(t, 0, products.products[2].StockQuantity)
	assert.Equal(t, []string{"Order created: 1"}, n.msgs)
	assert.Empty(t, products.releases())
}

func TestCreateOrderInsufficientStockReleasesEarlierItems(t *testing.T) {
	products := catalog()
	repo := memory.NewRepository()
	svc := application.NewService(quiet(), repo, products, &recordingNotifier{})

	_, err := svc.CreateOrder(context.Background(), request(
		domain.ItemRequest{ProductID: 1, Quantity: 3},
		domain.ItemRequest{ProductID: 2, Quantity: 5},
	))
	assert.ErrorIs(t, err, apperr.ErrReservationFailure)

	assert.Equal(t, []call{{op: "release", id: 1, qty: 3}}, products.releases())
	assert.Equal(t, 10, products.products[1].StockQuantity)

	all, err := repo.List(context.Background(), domain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all, "no order is persisted on failure")
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	products := catalog()
	svc := application.NewService(quiet(), memory.NewRepository(), products, &recordingNotifier{})

	_, err := svc.CreateOrder(context.Background(), request(
		domain.ItemRequest{ProductID: 1, Quantity: 1},
		domain.ItemRequest{ProductID: 2, Quantity: 1},
		domain.ItemRequest{ProductID: 99, Quantity: 1},
	))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, []call{
		{op: "release", id: 2, qty: 1},
		{op: "release", id: 1, qty: 1},
	}, products.releases(), "released in reverse order")
}

func TestCreateOrderAmbiguousReservationIsNotReleased(t *testing.T) {
	products := catalog()
	products.reserveErr[2] = apperr.Upstream(context.DeadlineExceeded, "product-service POST")
	svc := application.NewService(quiet(), memory.NewRepository(), products, &recordingNotifier{})

	_, err := svc.CreateOrder(context.Background(), request(
		domain.ItemRequest{ProductID: 1, Quantity: 1},
		domain.ItemRequest{ProductID: 2, Quantity: 1},
	))
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	assert.True(t, apperr.Retryable(err))
	assert.Equal(t, []call{{op: "release", id: 1, qty: 1}}, products.releases())
}

func TestCreateOrderPersistFailureReleasesAll(t *testing.T) {
	products := catalog()
	svc := application.NewService(quiet(), failingRepo{memory.NewRepository()}, products, &recordingNotifier{})

	_, err := svc.CreateOrder(context.Background(), request(
		domain.ItemRequest{ProductID: 1, Quantity: 2},
		domain.ItemRequest{ProductID: 2, Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Len(t, products.releases(), 2)
	assert.Equal(t, 10, products.products[1].StockQuantity)
	assert.Equal(t, 1, products.products[2].StockQuantity)
}

func TestCreateOrderRejectsInvalidRequest(t *testing.T) {
	products := catalog()
	svc := application.NewService(quiet(), memory.NewRepository(), products, &recordingNotifier{})

	_, err := svc.CreateOrder(context.Background(), request())
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, products.calls)
}

func TestUpdateStatusAndQueries(t *testing.T) {
	svc := application.NewService(quiet(), memory.NewRepository(), catalog(), &recordingNotifier{})
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, request(domain.ItemRequest{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, o.ID, "TELEPORTED")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.UpdateStatus(ctx, 404, "SHIPPED")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// transitions are not checked: DELIVERED back to PENDING is accepted
	_, err = svc.UpdateStatus(ctx, o.ID, "DELIVERED")
	require.NoError(t, err)
	updated, err := svc.UpdateStatus(ctx, o.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, updated.Status)
	assert.Len(t, updated.Items, 1)

	byEmail, err := svc.ByCustomerEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Len(t, byEmail, 1)

	byName, err := svc.SearchByCustomerName(ctx, "LOVELACE")
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	byStatus, err := svc.ByStatus(ctx, "SHIPPED")
	require.NoError(t, err)
	assert.Empty(t, byStatus)
}

func TestDeleteOrder(t *testing.T) {
	n := &recordingNotifier{}
	svc := application.NewService(quiet(), memory.NewRepository(), catalog(), n)
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, request(domain.ItemRequest{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, o.ID))
	assert.Contains(t, n.msgs, "Order deleted: 1")

	_, err = svc.Get(ctx, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, o.ID), apperr.ErrNotFound)
}

func TestCreateOrderIgnoresStaleStockInProductRead(t *testing.T) {
	products := catalog()
	products.stale[2] = 0
	svc := application.NewService(quiet(), memory.NewRepository(), products, &recordingNotifier{})

	o, err := svc.CreateOrder(context.Background(), request(domain.ItemRequest{ProductID: 2, Quantity: 1}))
	require.NoError(t, err)
	assert.Len(t, o.Items, 1)
	assert.Equal(t, 0, products.products[2].StockQuantity)
}
