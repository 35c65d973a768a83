package service

import (
	"context"

	"orderdesk/internal/auth"
	"orderdesk/internal/model"
	"orderdesk/internal/repository"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Admin    bool
}

// Register creates a user account. Registration is open, but the admin
// flag is only honored when the acting user is itself an admin.
func (s *UserService) Register(ctx context.Context, in RegisterInput, acting *model.User) (*model.User, error) {
	if in.Username == "" || len(in.Password) < 8 {
		return nil, ErrInvalidInput
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Admin:        in.Admin && auth.IsAdmin(acting),
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get returns a user record; callers may read themselves, admins anyone.
func (s *UserService) Get(ctx context.Context, id int64, acting *model.User) (*model.User, error) {
	if !auth.CanViewUser(acting, id) {
		return nil, ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}
