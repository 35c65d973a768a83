package repository

import (
	"context"
	"errors"

	"orderdesk/internal/model"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint (username, email,
// barcode) is violated.
var ErrDuplicate = errors.New("already exists")

// ErrInsufficientStock is returned when a stock adjustment would take
// an existing product below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrReferenced is returned when deleting a row that other rows still
// point at (a product with order lines, a client with orders).
var ErrReferenced = errors.New("still referenced")

// Page describes offset pagination. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

type ClientFilter struct {
	// Search matches name or email, case-insensitive substring.
	Search string
}

type ProductFilter struct {
	// Search matches name or description, case-insensitive substring.
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

type OrderFilter struct {
	// Zero values mean "any".
	UserID   int64
	ClientID int64
	Status   model.OrderStatus
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	GetByID(ctx context.Context, id int64) (*model.Client, error)
	Update(ctx context.Context, c *model.Client) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ClientFilter, p Page) ([]model.Client, int, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	// GetForUpdate loads a product and, inside a transaction, takes a
	// row lock on it so the stock check-and-adjust pair is atomic.
	GetForUpdate(ctx context.Context, id int64) (*model.Product, error)
	// AdjustStock adds delta (which may be negative) to the product's
	// stock. Implementations must never let stock go below zero.
	AdjustStock(ctx context.Context, id int64, delta int) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ProductFilter, p Page) ([]model.Product, int, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	// GetForUpdate loads an order and, inside a transaction, takes a row
	// lock on it so status reads and the writes that depend on them
	// (transition checks, stock release) are serialized per order.
	GetForUpdate(ctx context.Context, id int64) (*model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f OrderFilter, p Page) ([]model.Order, int, error)
}

// TxManager runs fn inside a single all-or-nothing unit of work.
// Repository calls made with the context passed to fn join that unit.
type TxManager interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}
