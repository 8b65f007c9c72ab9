package domain

import "time"

type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "cod"
	PaymentVNPay PaymentMethod = "vnpay"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentVNPay
}

type FinancialStatus string

const (
	FinancialPending   FinancialStatus = "pending"
	FinancialPaid      FinancialStatus = "paid"
	FinancialCancelled FinancialStatus = "cancelled"
)

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

type OrderCustomer struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Order is created at checkout with frozen copies of the cart lines.
type Order struct {
	ID              string          `json:"id"`
	UserID          *string         `json:"user_id,omitempty"`
	SessionID       *string         `json:"session_id,omitempty"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	TotalPrice      int64           `json:"total_price"`
	FinancialStatus FinancialStatus `json:"financial_status"`
	Gateway         PaymentMethod   `json:"gateway"`
	Customer        OrderCustomer   `json:"customer"`
	BillingAddress  Address         `json:"billing_address"`
	ShippingAddress Address         `json:"shipping_address"`
	Note            string          `json:"note,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID           string `json:"id"`
	OrderID      string `json:"order_id"`
	CartLineID   string `json:"cart_line_id,omitempty"`
	VariantID    string `json:"variant_id"`
	ProductID    string `json:"product_id"`
	Title        string `json:"title"`
	ProductTitle string `json:"product_title"`
	Option1      string `json:"option1,omitempty"`
	Option2      string `json:"option2,omitempty"`
	Quantity     int    `json:"quantity"`
	Price        int64  `json:"price"`
}

// CartLineIDs returns the ids of the cart lines the order was built from.
func (o Order) CartLineIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if it.CartLineID != "" {
			ids = append(ids, it.CartLineID)
		}
	}
	return ids
}

// Owner reconstructs the cart owner the order was placed by.
func (o Order) Owner() CartOwner {
	if o.UserID != nil {
		return UserOwner(*o.UserID)
	}
	if o.SessionID != nil {
		return SessionOwner(*o.SessionID)
	}
	return CartOwner{}
}
