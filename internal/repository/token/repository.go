package token

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, token domain.Token) error
	Get(ctx context.Context, token string) (*domain.Token, error)
	Delete(ctx context.Context, token string) error
}
