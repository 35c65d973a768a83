package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"orderdesk/internal/model"
	"orderdesk/internal/repository"
	"orderdesk/internal/service"
	"orderdesk/test"
)

type pgOrderFixture struct {
	products *repository.ProductStore
	svc      *service.OrderService
	buyer    *model.User
	clientID int64
}

func newPgOrderFixture(t *testing.T) *pgOrderFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	pg := test.SetupPostgres(ctx, t)
	t.Cleanup(pg.Cleanup)

	pool, err := pgxpool.New(ctx, pg.ConnStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := repository.NewStore(pool)
	users := repository.NewUserStore(store)
	clients := repository.NewClientStore(store)
	products := repository.NewProductStore(store)
	orders := repository.NewOrderStore(store)

	buyer := &model.User{Username: "buyer", PasswordHash: "hash", Active: true}
	require.NoError(t, users.Create(ctx, buyer))
	client := &model.Client{Name: "Acme", Email: "acme@example.com", Active: true}
	require.NoError(t, clients.Create(ctx, client))

	return &pgOrderFixture{
		products: products,
		svc:      service.NewOrderService(clients, products, orders, store, nil),
		buyer:    buyer,
		clientID: client.ID,
	}
}

func (f *pgOrderFixture) addProduct(t *testing.T, stock int) *model.Product {
	t.Helper()
	p := &model.Product{Name: "coffee", Barcode: "coffee", Price: 10, Stock: stock, Active: true}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *pgOrderFixture) stockOf(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

// Two concurrent cancels of the same pending order must release the
// reserved stock exactly once: the loser has to see the committed
// cancelled status, not the one it read before the winner committed.
func TestConcurrentCancelReleasesStockOnce(t *testing.T) {
	f := newPgOrderFixture(t)
	ctx := context.Background()
	coffee := f.addProduct(t, 10)

	order, err := f.svc.CreateOrder(ctx, f.clientID, []service.LineInput{{ProductID: coffee.ID, Quantity: 4}}, f.buyer)
	require.NoError(t, err)
	require.Equal(t, 6, f.stockOf(t, coffee.ID))

	var g errgroup.Group
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled, f.buyer)
			results <- err
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	var cancelled, rejected int
	for err := range results {
		switch {
		case err == nil:
			cancelled++
		case errors.Is(err, service.ErrInvalidTransition):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, cancelled)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 10, f.stockOf(t, coffee.ID))
}

// A cancel racing a delete of the same order must also restore the
// stock exactly once, whichever commits first.
func TestConcurrentCancelAndDeleteReleaseStockOnce(t *testing.T) {
	f := newPgOrderFixture(t)
	ctx := context.Background()
	coffee := f.addProduct(t, 10)

	order, err := f.svc.CreateOrder(ctx, f.clientID, []service.LineInput{{ProductID: coffee.ID, Quantity: 4}}, f.buyer)
	require.NoError(t, err)
	require.Equal(t, 6, f.stockOf(t, coffee.ID))

	var g errgroup.Group
	g.Go(func() error {
		_, err := f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled, f.buyer)
		if err != nil && !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, service.ErrInvalidTransition) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := f.svc.Delete(ctx, order.ID, f.buyer)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return nil
	})
	require.NoError(t, g.Wait())

	assert.Equal(t, 10, f.stockOf(t, coffee.ID))
}
