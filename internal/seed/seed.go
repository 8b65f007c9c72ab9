// Package seed loads a small demo catalog for local development.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type collectionSeed struct {
	Handle   string
	Title    string
	Tag      string
	Products []string
}

var collections = []collectionSeed{
	{Handle: "ao-nam", Title: "Áo nam", Tag: "hot", Products: []string{"Áo thun"}},
	{Handle: "phu-kien", Title: "Phụ kiện", Tag: "sale", Products: []string{"Mũ"}},
}

func demoProducts(now time.Time) []domain.Product {
	return []domain.Product{
		{
			ID: "1000001", Title: "Áo thun basic", Vendor: "Demo Brand", ProductType: "Áo thun",
			Handle: "ao-thun-basic", Tags: []string{"hot"}, PublishedAt: &now,
			Images: []string{"https://placehold.co/600x800?text=ao-thun"},
			Colors: []string{"Đen", "Trắng"}, Sizes: []string{"M", "L"},
			Variants: []domain.Variant{
				{ID: "2000001", Option1: "Đen", Option2: "M", Price: 150000, InventoryQuantity: 10, SKU: "AT-DEN-M"},
				{ID: "2000002", Option1: "Đen", Option2: "L", Price: 150000, InventoryQuantity: 5, SKU: "AT-DEN-L"},
				{ID: "2000003", Option1: "Trắng", Option2: "M", Price: 150000, InventoryQuantity: 0, SKU: "AT-TRANG-M"},
			},
		},
		{
			ID: "1000002", Title: "Mũ lưỡi trai", Vendor: "Demo Brand", ProductType: "Mũ",
			Handle: "mu-luoi-trai", Tags: []string{"sale"}, PublishedAt: &now,
			Colors: []string{"Be"}, Sizes: []string{},
			Images: []string{}, Variants: []domain.Variant{
				{ID: "2000004", Option1: "Be", Price: 90000, InventoryQuantity: 20, SKU: "MU-BE"},
			},
		},
	}
}

// Apply writes the demo catalog through the product repository. It is
// idempotent and never touches reserved quantities.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	products := productrepo.NewPostgres(pool, logger)

	var vendors, types []string
	for _, p := range demoProducts(time.Now().UTC()) {
		for i := range p.Variants {
			p.Variants[i].ProductID = p.ID
		}
		if err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
		vendors = append(vendors, p.Vendor)
		types = append(types, p.ProductType)
	}
	if err := products.UpsertLookups(ctx, vendors, types); err != nil {
		return err
	}

	for _, c := range collections {
		if err := upsertCollection(ctx, pool, c); err != nil {
			return fmt.Errorf("upsert collection %s: %w", c.Handle, err)
		}
	}
	return nil
}

func upsertCollection(ctx context.Context, pool *pgxpool.Pool, c collectionSeed) error {
	const q = `
INSERT INTO smart_collection (handle, title, body_html)
VALUES ($1, $2, $3)
ON CONFLICT (handle) DO UPDATE
SET title = EXCLUDED.title,
    body_html = EXCLUDED.body_html
`
	if _, err := pool.Exec(ctx, q, c.Handle, c.Title, c.Tag); err != nil {
		return err
	}
	for _, prefix := range c.Products {
		if _, err := pool.Exec(ctx, `
UPDATE product_types SET smart_collection_handle = $1
WHERE name LIKE $2 || '%'`, c.Handle, prefix); err != nil {
			return err
		}
	}
	return nil
}
