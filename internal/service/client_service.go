package service

import (
	"context"
	"strings"

	"orderdesk/internal/auth"
	"orderdesk/internal/model"
	"orderdesk/internal/repository"
)

type ClientService struct {
	clients repository.ClientRepository
}

func NewClientService(clients repository.ClientRepository) *ClientService {
	return &ClientService{clients: clients}
}

func validClient(c model.Client) bool {
	return c.Name != "" && strings.Contains(c.Email, "@")
}

func (s *ClientService) Create(ctx context.Context, c model.Client, acting *model.User) (*model.Client, error) {
	if !auth.IsAdmin(acting) {
		return nil, ErrForbidden
	}
	if !validClient(c) {
		return nil, ErrInvalidInput
	}
	c.Active = true
	if err := s.clients.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ClientService) Get(ctx context.Context, id int64) (*model.Client, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.clients.GetByID(ctx, id)
}

func (s *ClientService) Update(ctx context.Context, c model.Client, acting *model.User) (*model.Client, error) {
	if !auth.IsAdmin(acting) {
		return nil, ErrForbidden
	}
	if c.ID <= 0 || !validClient(c) {
		return nil, ErrInvalidInput
	}
	if err := s.clients.Update(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ClientService) Delete(ctx context.Context, id int64, acting *model.User) error {
	if !auth.IsAdmin(acting) {
		return ErrForbidden
	}
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.clients.Delete(ctx, id)
}

func (s *ClientService) List(ctx context.Context, f repository.ClientFilter, p repository.Page) ([]model.Client, int, error) {
	return s.clients.List(ctx, f, normalizePage(p))
}

func normalizePage(p repository.Page) repository.Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 10
	}
	if p.Size > 100 {
		p.Size = 100
	}
	return p
}
