package haravan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	BodyHTML    string     `json:"body_html"`
	Vendor      string     `json:"vendor"`
	ProductType string     `json:"product_type"`
	Handle      string     `json:"handle"`
	Tags        string     `json:"tags"`
	Images      []Image    `json:"images"`
	Options     []Option   `json:"options"`
	Variants    []Variant  `json:"variants"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
}

type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

type Option struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	ProductID int64  `json:"product_id"`
}

type Variant struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	Option1           string          `json:"option1"`
	Option2           string          `json:"option2"`
	Price             decimal.Decimal `json:"price"`
	InventoryQuantity int             `json:"inventory_quantity"`
	SKU               string          `json:"sku"`
	ImageID           *int64          `json:"image_id"`
	CreatedAt         *time.Time      `json:"created_at"`
	UpdatedAt         *time.Time      `json:"updated_at"`
}

type productsPage struct {
	Products []Product `json:"products"`
}

// Order is the subset of the Haravan order payload the storefront sends.
type Order struct {
	Email           string      `json:"email,omitempty"`
	Phone           string      `json:"phone,omitempty"`
	Note            string      `json:"note,omitempty"`
	Gateway         string      `json:"gateway"`
	FinancialStatus string      `json:"financial_status"`
	TotalPrice      string      `json:"total_price"`
	Reference       string      `json:"reference"`
	BillingAddress  Address     `json:"billing_address"`
	ShippingAddress Address     `json:"shipping_address"`
	LineItems       []LineItem  `json:"line_items"`
	Customer        OrderPerson `json:"customer"`
}

type OrderPerson struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	Province  string `json:"province,omitempty"`
	District  string `json:"district,omitempty"`
	Ward      string `json:"ward,omitempty"`
	Country   string `json:"country,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type LineItem struct {
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Title     string `json:"title,omitempty"`
}

type orderEnvelope struct {
	Order Order `json:"order"`
}

type createdOrder struct {
	Order struct {
		ID int64 `json:"id"`
	} `json:"order"`
}
