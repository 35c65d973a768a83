package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"orderdesk/internal/model"
)

type OrderStore struct {
	*Store
}

func NewOrderStore(s *Store) *OrderStore {
	return &OrderStore{Store: s}
}

var _ OrderRepository = (*OrderStore)(nil)

// Create inserts the order and its line items. Callers that need the
// insert to be atomic with stock adjustments wrap it in RunAtomic.
func (r *OrderStore) Create(ctx context.Context, o *model.Order) error {
	o.Reference = uuid.New().String()

	err := r.exec(ctx).QueryRow(ctx, `
		INSERT INTO orders (reference, client_id, user_id, status, total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, o.Reference, o.ClientID, o.UserID, o.Status, o.Total).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", translateError(err))
	}

	for _, item := range o.Items {
		_, err := r.exec(ctx).Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
		`, o.ID, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", translateError(err))
		}
	}

	return nil
}

func (r *OrderStore) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	return r.getOrder(ctx, `
		SELECT id, reference, client_id, user_id, status, total, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id)
}

// GetForUpdate locks the order row for the remainder of the enclosing
// transaction. Concurrent status changes on the same order then read
// the committed status instead of a stale one.
func (r *OrderStore) GetForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	return r.getOrder(ctx, `
		SELECT id, reference, client_id, user_id, status, total, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, id)
}

func (r *OrderStore) getOrder(ctx context.Context, query string, id int64) (*model.Order, error) {
	o := &model.Order{}
	err := r.exec(ctx).QueryRow(ctx, query, id).
		Scan(&o.ID, &o.Reference, &o.ClientID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", translateError(err))
	}

	items, err := r.loadItems(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []model.OrderItem{}
	}

	return o, nil
}

func (r *OrderStore) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	tag, err := r.exec(ctx).Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OrderStore) Delete(ctx context.Context, id int64) error {
	// order_items rows go with the order via ON DELETE CASCADE.
	tag, err := r.exec(ctx).Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OrderStore) List(ctx context.Context, f OrderFilter, p Page) ([]model.Order, int, error) {
	where := `
		($1 = 0 OR user_id = $1)
		AND ($2 = 0 OR client_id = $2)
		AND ($3 = '' OR status = $3)`
	args := []any{f.UserID, f.ClientID, string(f.Status)}

	var total int
	if err := r.exec(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE `+where, args...).
		Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := r.exec(ctx).Query(ctx, `
		SELECT id, reference, client_id, user_id, status, total, created_at, updated_at
		FROM orders
		WHERE `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5
	`, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	ids := []int64{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.Reference, &o.ClientID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Items = []model.OrderItem{}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) == 0 {
		return orders, total, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		if its, ok := items[orders[i].ID]; ok {
			orders[i].Items = its
		}
	}

	return orders, total, nil
}

// loadItems fetches the line items for a batch of orders in one query.
func (r *OrderStore) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	rows, err := r.exec(ctx).Query(ctx, `
		SELECT order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]model.OrderItem)
	for rows.Next() {
		var orderID int64
		var item model.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.Subtotal = float64(item.Quantity) * item.UnitPrice
		items[orderID] = append(items[orderID], item)
	}

	return items, rows.Err()
}
