package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"orderdesk/internal/model"
)

type ProductStore struct {
	*Store
}

func NewProductStore(s *Store) *ProductStore {
	return &ProductStore{Store: s}
}

var _ ProductRepository = (*ProductStore)(nil)

const productColumns = `id, name, description, barcode, price, cost_price, stock, min_stock, category, brand, expires_at, active, created_at, updated_at`

func (r *ProductStore) Create(ctx context.Context, p *model.Product) error {
	err := r.exec(ctx).QueryRow(ctx, `
		INSERT INTO products (name, description, barcode, price, cost_price, stock, min_stock, category, brand, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, p.Name, p.Description, p.Barcode, p.Price, p.CostPrice, p.Stock, p.MinStock,
		p.Category, p.Brand, p.ExpiresAt, p.Active).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", translateError(err))
	}
	return nil
}

func (r *ProductStore) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	return r.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate locks the product row for the remainder of the enclosing
// transaction, serializing concurrent stock adjustments per product.
func (r *ProductStore) GetForUpdate(ctx context.Context, id int64) (*model.Product, error) {
	return r.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductStore) getProduct(ctx context.Context, query string, id int64) (*model.Product, error) {
	p := &model.Product{}
	err := r.exec(ctx).QueryRow(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Barcode, &p.Price, &p.CostPrice,
			&p.Stock, &p.MinStock, &p.Category, &p.Brand, &p.ExpiresAt,
			&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", translateError(err))
	}
	return p, nil
}

// AdjustStock applies delta to the product's stock. The WHERE guard keeps
// stock non-negative even if callers race outside a row lock.
func (r *ProductStore) AdjustStock(ctx context.Context, id int64, delta int) error {
	tag, err := r.exec(ctx).Exec(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
	`, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing product from one the guard protected.
		var exists bool
		if err := r.exec(ctx).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to adjust stock: %w", err)
		}
		if exists {
			return ErrInsufficientStock
		}
		return ErrNotFound
	}
	return nil
}

func (r *ProductStore) Update(ctx context.Context, p *model.Product) error {
	tag, err := r.exec(ctx).Exec(ctx, `
		UPDATE products
		SET name = $1, description = $2, barcode = $3, price = $4, cost_price = $5,
		    stock = $6, min_stock = $7, category = $8, brand = $9, expires_at = $10,
		    active = $11, updated_at = NOW()
		WHERE id = $12
	`, p.Name, p.Description, p.Barcode, p.Price, p.CostPrice, p.Stock, p.MinStock,
		p.Category, p.Brand, p.ExpiresAt, p.Active, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductStore) Delete(ctx context.Context, id int64) error {
	tag, err := r.exec(ctx).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductStore) List(ctx context.Context, f ProductFilter, p Page) ([]model.Product, int, error) {
	where := `
		($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
		AND ($2 = '' OR category ILIKE $2)
		AND ($3::float8 IS NULL OR price >= $3)
		AND ($4::float8 IS NULL OR price <= $4)`
	args := []any{f.Search, f.Category, f.MinPrice, f.MaxPrice}

	var total int
	if err := r.exec(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+where, args...).
		Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	rows, err := r.exec(ctx).Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE `+where+`
		ORDER BY id
		LIMIT $5 OFFSET $6
	`, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func scanProducts(rows pgx.Rows) ([]model.Product, error) {
	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Barcode, &p.Price, &p.CostPrice,
			&p.Stock, &p.MinStock, &p.Category, &p.Brand, &p.ExpiresAt,
			&p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
