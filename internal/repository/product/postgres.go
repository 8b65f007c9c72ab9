package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const summaryColumns = `p.id, p.title, p.vendor, p.product_type, p.handle, p.images, p.colors, p.sizes, p.tags,
       p.created_at, p.updated_at, p.published_at,
       COALESCE(s.available_stock, 0), COALESCE(s.min_price, 0)`

const stockJoin = `
LEFT JOIN (
    SELECT product_id,
           SUM(inventory_quantity - reserved_quantity)::int AS available_stock,
           MIN(price) AS min_price
    FROM product_variants
    GROUP BY product_id
) s ON s.product_id = p.id`

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]domain.ProductSummary, int, error) {
	where, args := buildWhere(f)

	var total int
	countQ := `SELECT count(*) FROM products p` + stockJoin + where
	if err := r.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		r.logger.Error("product repo: count", "error", err)
		return nil, 0, err
	}

	q := `SELECT ` + summaryColumns + ` FROM products p` + stockJoin + where + orderBy(f.Sort)
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("product repo: list", "error", err)
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.ProductSummary{}
	for rows.Next() {
		var p domain.ProductSummary
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Vendor, &p.ProductType, &p.Handle, &p.Images, &p.Colors, &p.Sizes, &p.Tags,
			&p.CreatedAt, &p.UpdatedAt, &p.PublishedAt, &p.AvailableStock, &p.MinPrice,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	r.logger.Debug("product repo: list", "count", len(result), "total", total)
	return result, total, nil
}

// collectionTypes restricts product_type to the types of a smart collection,
// chosen by handle or, failing that, by the tag stored in body_html.
func collectionTypes(f Filter, arg func(any) string) string {
	switch {
	case f.Collection != "":
		return `p.product_type IN (SELECT name FROM product_types WHERE smart_collection_handle = ` + arg(f.Collection) + `)`
	case f.Tag != "":
		return `p.product_type IN (
    SELECT pt.name FROM product_types pt
    JOIN smart_collection sc ON sc.handle = pt.smart_collection_handle
    WHERE sc.body_html = ` + arg(f.Tag) + `)`
	}
	return ""
}

func buildWhere(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if c := collectionTypes(f, arg); c != "" {
		conds = append(conds, c)
	}
	if len(f.ProductTypes) > 0 {
		conds = append(conds, `p.product_type = ANY(`+arg(f.ProductTypes)+`)`)
	}
	if len(f.Vendors) > 0 {
		conds = append(conds, `p.vendor = ANY(`+arg(f.Vendors)+`)`)
	}
	if len(f.Colors) > 0 {
		conds = append(conds, `p.colors @> `+arg(f.Colors)+`::text[]`)
	}
	if len(f.Sizes) > 0 {
		conds = append(conds, `p.sizes @> `+arg(f.Sizes)+`::text[]`)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, `p.title ILIKE `+arg("%"+escapeLike(s)+"%"))
	}
	if f.Hot {
		conds = append(conds, `EXISTS (SELECT 1 FROM unnest(p.tags) t WHERE t ILIKE '%hot%')`)
	}
	if f.InStock {
		conds = append(conds, `COALESCE(s.available_stock, 0) > 0`)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "\nWHERE " + strings.Join(conds, "\n  AND "), args
}

func orderBy(s Sort) string {
	switch s {
	case SortPriceAsc:
		return "\nORDER BY COALESCE(s.min_price, 0) ASC, p.id"
	case SortPriceDesc:
		return "\nORDER BY COALESCE(s.min_price, 0) DESC, p.id"
	case SortNameAsc:
		return "\nORDER BY p.title ASC, p.id"
	case SortNameDesc:
		return "\nORDER BY p.title DESC, p.id"
	default:
		return "\nORDER BY p.created_at DESC, p.id"
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postgresRepo) FilterOptions(ctx context.Context, f Filter) (domain.FilterOptions, error) {
	out := domain.FilterOptions{
		ProductTypes:     []string{},
		Vendors:          []string{},
		Colors:           []string{},
		Sizes:            []string{},
		SmartCollections: []domain.SmartCollection{},
	}

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	typesQ := `SELECT DISTINCT p.product_type FROM products p WHERE p.product_type <> ''`
	if c := collectionTypes(f, arg); c != "" {
		typesQ += ` AND ` + c
	}
	typesQ += ` ORDER BY 1`

	var err error
	if out.ProductTypes, err = collectStrings(ctx, r.pool, typesQ, args...); err != nil {
		return out, fmt.Errorf("product types: %w", err)
	}
	if out.Vendors, err = collectStrings(ctx, r.pool, `SELECT name FROM brands ORDER BY name`); err != nil {
		return out, fmt.Errorf("vendors: %w", err)
	}
	if out.Colors, err = collectStrings(ctx, r.pool, `SELECT DISTINCT unnest(colors) FROM products ORDER BY 1`); err != nil {
		return out, fmt.Errorf("colors: %w", err)
	}
	if out.Sizes, err = collectStrings(ctx, r.pool, `SELECT DISTINCT unnest(sizes) FROM products ORDER BY 1`); err != nil {
		return out, fmt.Errorf("sizes: %w", err)
	}

	scQ := `SELECT handle, title, body_html FROM smart_collection`
	var scArgs []any
	if f.Tag != "" {
		scQ += ` WHERE body_html = $1`
		scArgs = append(scArgs, f.Tag)
	}
	rows, err := r.pool.Query(ctx, scQ+` ORDER BY title`, scArgs...)
	if err != nil {
		return out, fmt.Errorf("smart collections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sc domain.SmartCollection
		if err := rows.Scan(&sc.Handle, &sc.Title, &sc.BodyHTML); err != nil {
			return out, err
		}
		out.SmartCollections = append(out.SmartCollections, sc)
	}
	return out, rows.Err()
}

func collectStrings(ctx context.Context, pool *pgxpool.Pool, q string, args ...any) ([]string, error) {
	rows, err := pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
SELECT id, title, body_html, vendor, product_type, handle, images, colors, sizes, tags, options,
       created_at, updated_at, published_at
FROM products
WHERE id = $1
`
	var p domain.Product
	var options []byte
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Title, &p.BodyHTML, &p.Vendor, &p.ProductType, &p.Handle, &p.Images, &p.Colors, &p.Sizes, &p.Tags,
		&options, &p.CreatedAt, &p.UpdatedAt, &p.PublishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", "id", id, "error", err)
		return nil, err
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &p.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", id, err)
		}
	}

	rows, err := r.pool.Query(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE product_id = $1 ORDER BY option1, option2, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

const variantColumns = `id, product_id, option1, option2, price, inventory_quantity, reserved_quantity, sku, image_id, created_at, updated_at`

func scanVariant(row pgx.Row) (*domain.Variant, error) {
	var v domain.Variant
	if err := row.Scan(&v.ID, &v.ProductID, &v.Option1, &v.Option2, &v.Price, &v.InventoryQuantity,
		&v.ReservedQuantity, &v.SKU, &v.ImageID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *postgresRepo) VariantByOptions(ctx context.Context, productID, option1, option2 string) (*domain.Variant, error) {
	q := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = $1 AND option1 = $2 AND option2 = $3`
	return scanVariant(r.pool.QueryRow(ctx, q, productID, option1, option2))
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) error {
	options, err := json.Marshal(p.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	if p.Options == nil {
		options = []byte("[]")
	}

	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		const productQ = `
INSERT INTO products (id, title, body_html, vendor, product_type, handle, images, colors, sizes, tags, options,
                      created_at, updated_at, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, now()), COALESCE($13, now()), $14)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    body_html = EXCLUDED.body_html,
    vendor = EXCLUDED.vendor,
    product_type = EXCLUDED.product_type,
    handle = EXCLUDED.handle,
    images = EXCLUDED.images,
    colors = EXCLUDED.colors,
    sizes = EXCLUDED.sizes,
    tags = EXCLUDED.tags,
    options = EXCLUDED.options,
    updated_at = EXCLUDED.updated_at,
    published_at = EXCLUDED.published_at
`
		if _, err := tx.Exec(ctx, productQ, p.ID, p.Title, p.BodyHTML, p.Vendor, p.ProductType, p.Handle,
			nonNil(p.Images), nonNil(p.Colors), nonNil(p.Sizes), nonNil(p.Tags), options,
			p.CreatedAt, p.UpdatedAt, p.PublishedAt); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}

		const variantQ = `
INSERT INTO product_variants (id, product_id, option1, option2, price, inventory_quantity, sku, image_id,
                              created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()), COALESCE($10, now()))
ON CONFLICT (id) DO UPDATE SET
    option1 = EXCLUDED.option1,
    option2 = EXCLUDED.option2,
    price = EXCLUDED.price,
    inventory_quantity = EXCLUDED.inventory_quantity,
    sku = EXCLUDED.sku,
    image_id = EXCLUDED.image_id,
    updated_at = EXCLUDED.updated_at
`
		batch := &pgx.Batch{}
		for _, v := range p.Variants {
			batch.Queue(variantQ, v.ID, p.ID, v.Option1, v.Option2, v.Price, v.InventoryQuantity, v.SKU, v.ImageID,
				v.CreatedAt, v.UpdatedAt)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert variants of %s: %w", p.ID, err)
		}
		return nil
	})
}

func (r *postgresRepo) UpsertLookups(ctx context.Context, vendors, productTypes []string) error {
	if _, err := r.pool.Exec(ctx, `
INSERT INTO brands (name)
SELECT DISTINCT unnest($1::text[])
ON CONFLICT (name) DO NOTHING`, nonNil(vendors)); err != nil {
		return fmt.Errorf("upsert brands: %w", err)
	}
	if _, err := r.pool.Exec(ctx, `
INSERT INTO product_types (name)
SELECT DISTINCT unnest($1::text[])
ON CONFLICT (name) DO NOTHING`, nonNil(productTypes)); err != nil {
		return fmt.Errorf("upsert product types: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
