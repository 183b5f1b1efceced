package order

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// Create writes the order header and every line in one transaction.
	// On success the order's and lines' CreatedAt are set.
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// UpdateStatus moves the order from one status to another and reports
	// false when the order is no longer in the from status.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
}
