package cart

import (
	"context"

	"storefront/internal/domain"
)

// VariantStock is a variant row read under lock together with the product
// fields a new cart line snapshots.
type VariantStock struct {
	VariantID    string
	ProductID    string
	ProductTitle string
	Option1      string
	Option2      string
	Price        int64
	Inventory    int
	Reserved     int
}

type NewLine struct {
	Owner        domain.CartOwner
	ProductID    string
	VariantID    string
	Option1      string
	Option2      string
	ProductTitle string
	Quantity     int
	Price        int64
}

// Tx is the set of cart operations available inside one transaction.
type Tx interface {
	// LockVariant reads the variant with a row lock held until the
	// transaction ends. Returns domain.ErrNotFound for unknown ids.
	LockVariant(ctx context.Context, variantID string) (VariantStock, error)
	// LineVariant returns the variant of an owner's unexpired line without
	// locking it, so callers can lock the variant before the line.
	LineVariant(ctx context.Context, owner domain.CartOwner, lineID string) (string, error)
	FindByVariant(ctx context.Context, owner domain.CartOwner, variantID string) (*domain.CartLine, error)
	FindByID(ctx context.Context, owner domain.CartOwner, lineID string) (*domain.CartLine, error)
	ListByOwner(ctx context.Context, owner domain.CartOwner) ([]domain.CartLine, error)
	Insert(ctx context.Context, in NewLine) (*domain.CartLine, error)
	SetQuantity(ctx context.Context, lineID string, quantity int) (*domain.CartLine, error)
	Delete(ctx context.Context, lineID string) error
	Reassign(ctx context.Context, lineID, userID string) error
}

type Repository interface {
	// Within runs fn in a single transaction; any error rolls everything back.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	List(ctx context.Context, owner domain.CartOwner) ([]domain.CartLine, error)
	DeleteLines(ctx context.Context, owner domain.CartOwner, lineIDs []string) (int, error)
	CleanExpired(ctx context.Context) (int, error)
}
