package catalog

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

const (
	defaultLimit = 24
	maxLimit     = 250
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

type Page struct {
	Products []domain.ProductSummary `json:"products"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
}

// List returns one page of products matching f.
func (s *Service) List(ctx context.Context, f productrepo.Filter) (Page, error) {
	f, err := normalize(f)
	if err != nil {
		return Page{}, err
	}
	products, total, err := s.repo.List(ctx, f)
	if err != nil {
		return Page{}, domain.Upstream("list products", err)
	}
	return Page{Products: products, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *Service) FilterOptions(ctx context.Context, f productrepo.Filter) (domain.FilterOptions, error) {
	opts, err := s.repo.FilterOptions(ctx, f)
	if err != nil {
		return domain.FilterOptions{}, domain.Upstream("filter options", err)
	}
	return opts, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, domain.Upstream("get product", err)
	}
	return p, nil
}

// Variant resolves the variant of a product for a color/size pick.
func (s *Service) Variant(ctx context.Context, productID, option1, option2 string) (*domain.Variant, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.ErrVariantNotFound
	}
	v, err := s.repo.VariantByOptions(ctx, productID, option1, option2)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, domain.Upstream("get variant", err)
	}
	return v, nil
}

func normalize(f productrepo.Filter) (productrepo.Filter, error) {
	switch f.Sort {
	case "", productrepo.SortNewest, productrepo.SortPriceAsc, productrepo.SortPriceDesc,
		productrepo.SortNameAsc, productrepo.SortNameDesc:
	default:
		return f, domain.Invalid("sort", "unsupported value "+string(f.Sort))
	}
	if f.Limit < 0 || f.Offset < 0 {
		return f, domain.Invalid("limit", "limit and offset must not be negative")
	}
	if f.Limit == 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	f.Search = strings.TrimSpace(f.Search)
	return f, nil
}
