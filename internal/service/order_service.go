package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"orderdesk/internal/auth"
	"orderdesk/internal/model"
	"orderdesk/internal/repository"
)

// OrderNotifier receives order lifecycle events after they commit.
// Implementations must not fail the request; delivery is best effort.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, o *model.Order)
	OrderStatusChanged(ctx context.Context, o *model.Order, previous model.OrderStatus)
}

// OrderService implements the order engine: atomic creation with stock
// reservation, the status machine, and owner/admin access enforcement.
type OrderService struct {
	clients  repository.ClientRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	tx       repository.TxManager
	notifier OrderNotifier // optional
}

func NewOrderService(
	clients repository.ClientRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	tx repository.TxManager,
	notifier OrderNotifier,
) *OrderService {
	return &OrderService{
		clients:  clients,
		products: products,
		orders:   orders,
		tx:       tx,
		notifier: notifier,
	}
}

type LineInput struct {
	ProductID int64
	Quantity  int
}

// CreateOrder validates the client and every line item, snapshots unit
// prices, decrements stock and inserts the order as one transaction.
// On any failure no stock is touched and no order exists.
func (s *OrderService) CreateOrder(ctx context.Context, clientID int64, lines []LineInput, acting *model.User) (*model.Order, error) {
	if clientID <= 0 || len(lines) == 0 {
		return nil, ErrInvalidInput
	}
	for _, l := range lines {
		if l.ProductID <= 0 || l.Quantity <= 0 {
			return nil, ErrInvalidInput
		}
	}
	lines = mergeLines(lines)

	order := &model.Order{
		ClientID: clientID,
		UserID:   acting.ID,
		Status:   model.OrderStatusPending,
	}

	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.clients.GetByID(ctx, clientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("client %d: %w", clientID, repository.ErrNotFound)
			}
			return err
		}

		// Lock and validate every line before touching any stock, so a
		// failure on a later line never leaves an earlier one decremented.
		for _, line := range lines {
			product, err := s.products.GetForUpdate(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("product %d: %w", line.ProductID, repository.ErrNotFound)
				}
				return err
			}
			if !product.Active {
				return fmt.Errorf("product %q is inactive: %w", product.Name, ErrInvalidInput)
			}
			if product.Stock < line.Quantity {
				return fmt.Errorf("product %q has %d in stock, %d requested: %w",
					product.Name, product.Stock, line.Quantity, ErrInsufficientStock)
			}

			item := model.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				Subtotal:  float64(line.Quantity) * product.Price,
			}
			order.Items = append(order.Items, item)
			order.Total += item.Subtotal
		}

		for _, item := range order.Items {
			if err := s.products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
				return err
			}
		}

		return s.orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.OrderCreated(context.WithoutCancel(ctx), order)
	}
	return order, nil
}

// mergeLines collapses duplicate products and orders lines by product id
// so multi-line orders always take row locks in the same order.
func mergeLines(lines []LineInput) []LineInput {
	byProduct := make(map[int64]int, len(lines))
	for _, l := range lines {
		byProduct[l.ProductID] += l.Quantity
	}
	merged := make([]LineInput, 0, len(byProduct))
	for id, qty := range byProduct {
		merged = append(merged, LineInput{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged
}

// Get returns the order to its owner or an admin.
func (s *OrderService) Get(ctx context.Context, id int64, acting *model.User) (*model.Order, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessOrder(acting, order) {
		return nil, ErrForbidden
	}
	return order, nil
}

// List returns orders matching the filter. Non-admins only ever see
// their own orders regardless of the filter they pass.
func (s *OrderService) List(ctx context.Context, f repository.OrderFilter, p repository.Page, acting *model.User) ([]model.Order, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, ErrInvalidInput
	}
	if !auth.IsAdmin(acting) {
		f.UserID = acting.ID
	}
	return s.orders.List(ctx, f, normalizePage(p))
}

// UpdateStatus moves the order along the status machine. Cancelling a
// pending or processing order releases its reserved stock.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, next model.OrderStatus, acting *model.User) (*model.Order, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	if !next.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", next, ErrInvalidInput)
	}

	var updated *model.Order
	var previous model.OrderStatus

	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		// Lock the order row so concurrent transitions on the same order
		// serialize and the second one sees the committed status.
		order, err := s.orders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !auth.CanAccessOrder(acting, order) {
			return ErrForbidden
		}
		if !order.Status.CanTransitionTo(next) {
			return fmt.Errorf("%s -> %s: %w", order.Status, next, ErrInvalidTransition)
		}

		if next == model.OrderStatusCancelled {
			if err := s.releaseStock(ctx, order); err != nil {
				return err
			}
		}

		if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
			return err
		}

		previous = order.Status
		order.Status = next
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.OrderStatusChanged(context.WithoutCancel(ctx), updated, previous)
	}
	return updated, nil
}

// Delete removes the order. Pending and processing orders still hold a
// stock reservation, which is returned to the products; cancelled orders
// released theirs already and completed orders have shipped.
func (s *OrderService) Delete(ctx context.Context, id int64, acting *model.User) error {
	if id <= 0 {
		return ErrInvalidInput
	}

	return s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		// HoldsStock must be judged on the committed status, so take the
		// same row lock as UpdateStatus.
		order, err := s.orders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !auth.CanAccessOrder(acting, order) {
			return ErrForbidden
		}

		if order.Status.HoldsStock() {
			if err := s.releaseStock(ctx, order); err != nil {
				return err
			}
		}

		return s.orders.Delete(ctx, id)
	})
}

func (s *OrderService) releaseStock(ctx context.Context, order *model.Order) error {
	for _, item := range order.Items {
		if _, err := s.products.GetForUpdate(ctx, item.ProductID); err != nil {
			// The product may have been deleted since the order was
			// placed; nothing to restore then.
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return err
		}
		if err := s.products.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
