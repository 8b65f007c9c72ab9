package domain

import "time"

// Product is a catalog entry. The storefront never writes products; the ERP
// sync owns them.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	BodyHTML    string          `json:"body_html,omitempty"`
	Vendor      string          `json:"vendor,omitempty"`
	ProductType string          `json:"product_type,omitempty"`
	Handle      string          `json:"handle,omitempty"`
	Images      []string        `json:"images"`
	Colors      []string        `json:"colors"`
	Sizes       []string        `json:"sizes"`
	Tags        []string        `json:"tags"`
	Options     []ProductOption `json:"options,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
	Variants    []Variant       `json:"variants,omitempty"`
}

type ProductOption struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	ProductID int64  `json:"product_id"`
}

// ProductSummary is a listing row with stock and price aggregated over variants.
type ProductSummary struct {
	Product
	AvailableStock int   `json:"available_stock"`
	MinPrice       int64 `json:"min_price"`
}

// Variant is a purchasable color/size combination of a product.
type Variant struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"product_id"`
	Option1           string     `json:"option1,omitempty"`
	Option2           string     `json:"option2,omitempty"`
	Price             int64      `json:"price"`
	InventoryQuantity int        `json:"inventory_quantity"`
	ReservedQuantity  int        `json:"reserved_quantity"`
	SKU               string     `json:"sku,omitempty"`
	ImageID           string     `json:"image_id,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// Available is the sellable stock not held by cart lines.
func (v Variant) Available() int {
	return v.InventoryQuantity - v.ReservedQuantity
}
