package product

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, category string) ([]domain.Product, error) {
	return s.repo.List(ctx, category)
}

// Get returns the product with its prices and attribute sets, or a PRODUCT_NOT_FOUND error.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewProductNotFound(id)
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// CheckAvailability fails on the first id, in argument order, that is unknown or out of stock.
func (s *Service) CheckAvailability(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	status, err := s.repo.StockStatus(ctx, ids)
	if err != nil {
		return fmt.Errorf("check availability: %w", err)
	}
	for _, id := range ids {
		inStock, ok := status[id]
		if !ok {
			return domain.NewProductNotFound(id)
		}
		if !inStock {
			return domain.NewProductUnavailable(id)
		}
	}
	return nil
}
