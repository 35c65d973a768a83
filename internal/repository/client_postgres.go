package repository

import (
	"context"
	"fmt"

	"orderdesk/internal/model"
)

type ClientStore struct {
	*Store
}

func NewClientStore(s *Store) *ClientStore {
	return &ClientStore{Store: s}
}

var _ ClientRepository = (*ClientStore)(nil)

const clientColumns = `id, name, email, phone, tax_id, street, city, state, postal_code, active, created_at, updated_at`

func (r *ClientStore) Create(ctx context.Context, c *model.Client) error {
	err := r.exec(ctx).QueryRow(ctx, `
		INSERT INTO clients (name, email, phone, tax_id, street, city, state, postal_code, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, c.Name, c.Email, c.Phone, c.TaxID,
		c.Address.Street, c.Address.City, c.Address.State, c.Address.PostalCode, c.Active).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", translateError(err))
	}
	return nil
}

func (r *ClientStore) GetByID(ctx context.Context, id int64) (*model.Client, error) {
	c := &model.Client{}
	err := r.exec(ctx).QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.TaxID,
			&c.Address.Street, &c.Address.City, &c.Address.State, &c.Address.PostalCode,
			&c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", translateError(err))
	}
	return c, nil
}

func (r *ClientStore) Update(ctx context.Context, c *model.Client) error {
	tag, err := r.exec(ctx).Exec(ctx, `
		UPDATE clients
		SET name = $1, email = $2, phone = $3, tax_id = $4,
		    street = $5, city = $6, state = $7, postal_code = $8,
		    active = $9, updated_at = NOW()
		WHERE id = $10
	`, c.Name, c.Email, c.Phone, c.TaxID,
		c.Address.Street, c.Address.City, c.Address.State, c.Address.PostalCode,
		c.Active, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ClientStore) Delete(ctx context.Context, id int64) error {
	tag, err := r.exec(ctx).Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ClientStore) List(ctx context.Context, f ClientFilter, p Page) ([]model.Client, int, error) {
	where := `($1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')`

	var total int
	if err := r.exec(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE `+where, f.Search).
		Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	rows, err := r.exec(ctx).Query(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE `+where+`
		ORDER BY id
		LIMIT $2 OFFSET $3
	`, f.Search, p.Size, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.TaxID,
			&c.Address.Street, &c.Address.City, &c.Address.State, &c.Address.PostalCode,
			&c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}
