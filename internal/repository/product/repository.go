package product

import (
	"context"

	"storefront/internal/domain"
)

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
	SortNameAsc   Sort = "name-asc"
	SortNameDesc  Sort = "name-desc"
)

// Filter narrows a catalog listing. Empty fields do not filter.
type Filter struct {
	ProductTypes []string
	Vendors      []string
	// Colors and Sizes match products offering every listed value.
	Colors     []string
	Sizes      []string
	Search     string
	Tag        string
	Collection string
	Hot        bool
	InStock    bool
	Sort       Sort
	Limit      int
	Offset     int
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]domain.ProductSummary, int, error)
	FilterOptions(ctx context.Context, f Filter) (domain.FilterOptions, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	VariantByOptions(ctx context.Context, productID, option1, option2 string) (*domain.Variant, error)
	// Upsert writes a product and its variants. reserved_quantity of existing
	// variants is left untouched.
	Upsert(ctx context.Context, p domain.Product) error
	UpsertLookups(ctx context.Context, vendors, productTypes []string) error
}
