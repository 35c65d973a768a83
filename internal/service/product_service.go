package service

import (
	"context"

	"orderdesk/internal/auth"
	"orderdesk/internal/model"
	"orderdesk/internal/repository"
)

type ProductService struct {
	products repository.ProductRepository
}

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

func validProduct(p model.Product) bool {
	return p.Name != "" && p.Barcode != "" &&
		p.Price > 0 && p.CostPrice >= 0 &&
		p.Stock >= 0 && p.MinStock >= 0
}

func (s *ProductService) Create(ctx context.Context, p model.Product, acting *model.User) (*model.Product, error) {
	if !auth.IsAdmin(acting) {
		return nil, ErrForbidden
	}
	if !validProduct(p) {
		return nil, ErrInvalidInput
	}
	p.Active = true
	if err := s.products.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) Update(ctx context.Context, p model.Product, acting *model.User) (*model.Product, error) {
	if !auth.IsAdmin(acting) {
		return nil, ErrForbidden
	}
	if p.ID <= 0 || !validProduct(p) {
		return nil, ErrInvalidInput
	}
	if err := s.products.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64, acting *model.User) error {
	if !auth.IsAdmin(acting) {
		return ErrForbidden
	}
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.products.Delete(ctx, id)
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter, p repository.Page) ([]model.Product, int, error) {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return nil, 0, ErrInvalidInput
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.products.List(ctx, f, normalizePage(p))
}
