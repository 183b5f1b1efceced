package product

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// List returns products with their full detail tree. An empty category lists all.
	List(ctx context.Context, category string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// StockStatus maps each existing id to its in-stock flag. Unknown ids are absent.
	StockStatus(ctx context.Context, ids []string) (map[string]bool, error)
}

// Writer stores catalog products together with their prices, gallery and attribute sets.
type Writer interface {
	Upsert(ctx context.Context, p domain.Product) error
}
