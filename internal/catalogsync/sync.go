// Package catalogsync copies the ERP catalog into the storefront database.
package catalogsync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/erp/haravan"
)

const untitledProduct = "Unnamed Product"

type Source interface {
	Products(ctx context.Context) ([]haravan.Product, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) error
	UpsertLookups(ctx context.Context, vendors, productTypes []string) error
}

type Result struct {
	Products int           `json:"products"`
	Variants int           `json:"variants"`
	Duration time.Duration `json:"-"`
}

func (r Result) Message() string {
	return fmt.Sprintf("Successfully synced %d products and %d variants", r.Products, r.Variants)
}

// Syncer pulls every ERP product and upserts it with its variants.
type Syncer struct {
	source Source
	writer ProductWriter
	logger *slog.Logger
}

func New(source Source, writer ProductWriter, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{source: source, writer: writer, logger: logger}
}

// Run fetches the full catalog and writes it. It stops at the first failed
// write; products written before that stay written.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	products, err := s.source.Products(ctx)
	if err != nil {
		return Result{}, domain.Upstream("fetch erp products", err)
	}

	var (
		res     Result
		vendors = map[string]struct{}{}
		types   = map[string]struct{}{}
	)
	for _, hp := range products {
		p := mapProduct(hp)
		if err := s.writer.Upsert(ctx, p); err != nil {
			return res, fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
		res.Products++
		res.Variants += len(p.Variants)
		if p.Vendor != "" {
			vendors[p.Vendor] = struct{}{}
		}
		if p.ProductType != "" {
			types[p.ProductType] = struct{}{}
		}
	}

	if err := s.writer.UpsertLookups(ctx, sortedKeys(vendors), sortedKeys(types)); err != nil {
		return res, fmt.Errorf("upsert lookups: %w", err)
	}

	res.Duration = time.Since(start)
	s.logger.Info("catalogsync: done",
		"products", res.Products, "variants", res.Variants, "vendors", len(vendors),
		"product_types", len(types), "took", res.Duration.Truncate(time.Millisecond))
	return res, nil
}

func mapProduct(hp haravan.Product) domain.Product {
	id := strconv.FormatInt(hp.ID, 10)
	title := strings.TrimSpace(hp.Title)
	if title == "" {
		title = untitledProduct
	}

	p := domain.Product{
		ID:          id,
		Title:       title,
		BodyHTML:    hp.BodyHTML,
		Vendor:      strings.TrimSpace(hp.Vendor),
		ProductType: strings.TrimSpace(hp.ProductType),
		Handle:      hp.Handle,
		Images:      make([]string, 0, len(hp.Images)),
		Tags:        splitTags(hp.Tags),
		CreatedAt:   hp.CreatedAt,
		UpdatedAt:   hp.UpdatedAt,
		PublishedAt: hp.PublishedAt,
		Variants:    make([]domain.Variant, 0, len(hp.Variants)),
	}
	for _, img := range hp.Images {
		if img.Src != "" {
			p.Images = append(p.Images, img.Src)
		}
	}
	for _, o := range hp.Options {
		p.Options = append(p.Options, domain.ProductOption{ID: o.ID, Name: o.Name, Position: o.Position, ProductID: o.ProductID})
	}

	var colors, sizes distinct
	for _, hv := range hp.Variants {
		colors.add(hv.Option1)
		sizes.add(hv.Option2)

		v := domain.Variant{
			ID:                strconv.FormatInt(hv.ID, 10),
			ProductID:         id,
			Option1:           hv.Option1,
			Option2:           hv.Option2,
			Price:             hv.Price.IntPart(),
			InventoryQuantity: max(hv.InventoryQuantity, 0),
			SKU:               hv.SKU,
			CreatedAt:         hv.CreatedAt,
			UpdatedAt:         hv.UpdatedAt,
		}
		if hv.ImageID != nil {
			v.ImageID = strconv.FormatInt(*hv.ImageID, 10)
		}
		p.Variants = append(p.Variants, v)
	}
	p.Colors = colors.values()
	p.Sizes = sizes.values()
	return p
}

// distinct keeps first-seen order of non-empty values.
type distinct struct {
	seen  map[string]struct{}
	order []string
}

func (d *distinct) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if d.seen == nil {
		d.seen = map[string]struct{}{}
	}
	if _, ok := d.seen[v]; ok {
		return
	}
	d.seen[v] = struct{}{}
	d.order = append(d.order, v)
}

func (d *distinct) values() []string {
	if d.order == nil {
		return []string{}
	}
	return d.order
}

func splitTags(raw string) []string {
	var tags distinct
	for _, t := range strings.Split(raw, ",") {
		tags.add(t)
	}
	return tags.values()
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
