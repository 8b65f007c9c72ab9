package order

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// Create stores the order and its items atomically, assigning ids.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	// TransitionStatus moves a pending order to status. It reports false when
	// the order had already left pending.
	TransitionStatus(ctx context.Context, id string, status domain.FinancialStatus) (bool, error)
}
