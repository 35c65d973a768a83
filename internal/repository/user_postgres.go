package repository

import (
	"context"
	"fmt"

	"orderdesk/internal/model"
)

type UserStore struct {
	*Store
}

func NewUserStore(s *Store) *UserStore {
	return &UserStore{Store: s}
}

var _ UserRepository = (*UserStore)(nil)

func (r *UserStore) Create(ctx context.Context, u *model.User) error {
	err := r.exec(ctx).QueryRow(ctx, `
		INSERT INTO users (username, email, full_name, password_hash, is_admin, active)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.FullName, u.PasswordHash, u.Admin, u.Active).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}
	return nil
}

func (r *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, "id = $1", id)
}

func (r *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getUser(ctx, "username = $1", username)
}

func (r *UserStore) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	u := &model.User{}
	var email *string
	err := r.exec(ctx).QueryRow(ctx, `
		SELECT id, username, email, full_name, password_hash, is_admin, active, created_at, updated_at
		FROM users
		WHERE `+where, arg).
		Scan(&u.ID, &u.Username, &email, &u.FullName, &u.PasswordHash, &u.Admin, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", translateError(err))
	}
	if email != nil {
		u.Email = *email
	}
	return u, nil
}
