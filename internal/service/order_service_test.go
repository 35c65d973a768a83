package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"orderdesk/internal/model"
	"orderdesk/internal/repository"
)

type orderFixture struct {
	products *repository.MemoryProducts
	orders   *repository.MemoryOrders
	svc      *OrderService

	admin  *model.User
	buyer  *model.User
	client *model.Client
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	ctx := context.Background()

	store := repository.NewMemoryStore()
	users := repository.NewMemoryUsers(store)
	clients := repository.NewMemoryClients(store)
	products := repository.NewMemoryProducts(store)
	orders := repository.NewMemoryOrders(store)

	f := &orderFixture{
		products: products,
		orders:   orders,
		svc:      NewOrderService(clients, products, orders, repository.NewMemoryTx(store), nil),
		admin:    &model.User{Username: "admin", PasswordHash: "x", Admin: true, Active: true},
		buyer:    &model.User{Username: "buyer", PasswordHash: "x", Active: true},
		client:   &model.Client{Name: "Acme", Email: "acme@example.com", Active: true},
	}

	require.NoError(t, users.Create(ctx, f.admin))
	require.NoError(t, users.Create(ctx, f.buyer))
	require.NoError(t, clients.Create(ctx, f.client))
	return f
}

func (f *orderFixture) addProduct(t *testing.T, name string, price float64, stock int) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Barcode: name, Price: price, Stock: stock, Active: true}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *orderFixture) stockOf(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCreateOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	coffee := f.addProduct(t, "coffee", 12.50, 10)
	tea := f.addProduct(t, "tea", 8.00, 5)

	order, err := f.svc.CreateOrder(ctx, f.client.ID, []LineInput{
		{ProductID: coffee.ID, Quantity: 2},
		{ProductID: tea.ID, Quantity: 3},
	}, f.buyer)
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.NotEmpty(t, order.Reference)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, f.buyer.ID, order.UserID)
	assert.InDelta(t, 2*12.50+3*8.00, order.Total, 1e-9)

	require.Len(t, order.Items, 2)
	assert.Equal(t, 12.50, order.Items[0].UnitPrice)
	assert.InDelta(t, 25.0, order.Items[0].Subtotal, 1e-9)

	assert.Equal(t, 8, f.stockOf(t, coffee.ID))
	assert.Equal(t, 2, f.stockOf(t, tea.ID))
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	f := newOrderFixture(t)
	coffee := f.addProduct(t, "coffee", 10, 10)

	order, err := f.svc.CreateOrder(context.Background(), f.client.ID, []LineInput{
		{ProductID: coffee.ID, Quantity: 2},
		{ProductID: coffee.ID, Quantity: 3},
	}, f.buyer)
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 5, order.Items[0].Quantity)
	assert.Equal(t, 5, f.stockOf(t, coffee.ID))
}

func TestCreateOrderPriceSnapshot(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	coffee := f.addProduct(t, "coffee", 10, 10)

	order, err := f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: coffee.ID, Quantity: 1}}, f.buyer)
	require.NoError(t, err)

	// A later price change does not touch the recorded order.
	coffee.Price = 99
	require.NoError(t, f.products.Update(ctx, coffee))

	got, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Items[0].UnitPrice)
	assert.Equal(t, 10.0, got.Total)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	coffee := f.addProduct(t, "coffee", 10, 10)
	tea := f.addProduct(t, "tea", 5, 1)

	_, err := f.svc.CreateOrder(ctx, f.client.ID, []LineInput{
		{ProductID: coffee.ID, Quantity: 2},
		{ProductID: tea.ID, Quantity: 5},
	}, f.buyer)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The failing order left no trace: no stock moved, nothing stored.
	assert.Equal(t, 10, f.stockOf(t, coffee.ID))
	assert.Equal(t, 1, f.stockOf(t, tea.ID))
	_, total, err := f.orders.List(ctx, repository.OrderFilter{}, repository.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	coffee := f.addProduct(t, "coffee", 10, 10)

	_, err := f.svc.CreateOrder(ctx, f.client.ID, nil, f.buyer)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: coffee.ID, Quantity: 0}}, f.buyer)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateOrder(ctx, 9999, []LineInput{{ProductID: coffee.ID, Quantity: 1}}, f.buyer)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: 9999, Quantity: 1}}, f.buyer)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	p := f.addProduct(t, "retired", 10, 10)
	p.Active = false
	require.NoError(t, f.products.Update(ctx, p))

	_, err := f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: p.ID, Quantity: 1}}, f.buyer)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 10, f.stockOf(t, p.ID))
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	coffee := f.addProduct(t, "coffee", 10, 10)

	order, err := f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: coffee.ID, Quantity: 2}}, f.buyer)
	require.NoError(t, err)

	// pending -> completed skips processing and is rejected.
	_, err = f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusCompleted, f.buyer)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	updated, err := f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusProcessing, f.buyer)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, updated.Status)

	updated, err = f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusCompleted, f.buyer)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, updated.Status)

	// Completed is terminal.
	_, err = f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusPending, f.buyer)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled, f.buyer)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Completing never returns stock.
	assert.Equal(t, 8, f.stockOf(t, coffee.ID))

	_, err = f.svc.UpdateStatus(ctx, order.ID, model.OrderStatus("shipped"), f.buyer)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCancelRestoresStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	coffee := f.addProduct(t, "coffee", 10, 10)

	order, err := f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: coffee.ID, Quantity: 4}}, f.buyer)
	require.NoError(t, err)
	require.Equal(t, 6, f.stockOf(t, coffee.ID))

	updated, err := f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled, f.buyer)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 10, f.stockOf(t, coffee.ID))

	// A second cancel finds the terminal status and must not release the
	// stock again.
	_, err = f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled, f.buyer)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 10, f.stockOf(t, coffee.ID))
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	coffee := f.addProduct(t, "coffee", 10, 10)

	order, err := f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: coffee.ID, Quantity: 3}}, f.buyer)
	require.NoError(t, err)
	require.Equal(t, 7, f.stockOf(t, coffee.ID))

	require.NoError(t, f.svc.Delete(ctx, order.ID, f.buyer))
	assert.Equal(t, 10, f.stockOf(t, coffee.ID))

	_, err = f.svc.Get(ctx, order.ID, f.buyer)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteCancelledOrderKeepsStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	coffee := f.addProduct(t, "coffee", 10, 10)

	order, err := f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: coffee.ID, Quantity: 3}}, f.buyer)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled, f.buyer)
	require.NoError(t, err)
	require.Equal(t, 10, f.stockOf(t, coffee.ID))

	// Cancelling already returned the stock; deleting must not double it.
	require.NoError(t, f.svc.Delete(ctx, order.ID, f.buyer))
	assert.Equal(t, 10, f.stockOf(t, coffee.ID))
}

func TestOrderAccessPolicy(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	coffee := f.addProduct(t, "coffee", 10, 10)

	order, err := f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: coffee.ID, Quantity: 1}}, f.buyer)
	require.NoError(t, err)

	stranger := &model.User{ID: 999, Username: "stranger", Active: true}

	_, err = f.svc.Get(ctx, order.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusProcessing, stranger)
	assert.ErrorIs(t, err, ErrForbidden)
	err = f.svc.Delete(ctx, order.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	// Owner and admin both pass.
	_, err = f.svc.Get(ctx, order.ID, f.buyer)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, order.ID, f.admin)
	assert.NoError(t, err)
}

func TestListOrdersScopedToOwner(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	coffee := f.addProduct(t, "coffee", 10, 100)

	_, err := f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: coffee.ID, Quantity: 1}}, f.buyer)
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: coffee.ID, Quantity: 1}}, f.admin)
	require.NoError(t, err)

	page := repository.Page{Number: 1, Size: 10}

	// Non-admins only see their own orders, even when they ask for more.
	got, total, err := f.svc.List(ctx, repository.OrderFilter{}, page, f.buyer)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, f.buyer.ID, got[0].UserID)

	got, total, err = f.svc.List(ctx, repository.OrderFilter{UserID: f.admin.ID}, page, f.buyer)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, f.buyer.ID, got[0].UserID)

	_, total, err = f.svc.List(ctx, repository.OrderFilter{}, page, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, _, err = f.svc.List(ctx, repository.OrderFilter{Status: "bogus"}, page, f.admin)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	const stock = 20
	const buyers = 50
	coffee := f.addProduct(t, "coffee", 10, stock)

	var g errgroup.Group
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		g.Go(func() error {
			_, err := f.svc.CreateOrder(ctx, f.client.ID, []LineInput{{ProductID: coffee.ID, Quantity: 1}}, f.buyer)
			results <- err
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	var succeeded, insufficient int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, buyers-stock, insufficient)
	assert.Equal(t, 0, f.stockOf(t, coffee.ID))

	_, total, err := f.orders.List(ctx, repository.OrderFilter{}, repository.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, stock, total)
}
