package domain

import "time"

const EventOrderPlaced = "order.placed"

// OrderPlacedEvent is published once an order is ready to be pushed to the ERP:
// right after checkout for cash on delivery, after a successful payment
// return for VNPay.
type OrderPlacedEvent struct {
	OrderID    string          `json:"order_id"`
	Gateway    PaymentMethod   `json:"gateway"`
	Status     FinancialStatus `json:"financial_status"`
	TotalPrice int64           `json:"total_price"`
	OccurredAt time.Time       `json:"occurred_at"`
}
