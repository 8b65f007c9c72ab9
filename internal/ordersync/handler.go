// Package ordersync pushes placed orders to the ERP.
package ordersync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"storefront/internal/domain"
	"storefront/internal/erp/haravan"
)

type OrderReader interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
}

type ERP interface {
	CreateOrder(ctx context.Context, o haravan.Order) (int64, error)
}

type Handler struct {
	orders OrderReader
	erp    ERP
	logger *slog.Logger
}

func NewHandler(orders OrderReader, erp ERP, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{orders: orders, erp: erp, logger: logger}
}

// Handle processes one order.placed payload. Payloads that can never succeed
// (undecodable, unknown order, cancelled order) are logged and acknowledged;
// other failures are returned so the message is not committed.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("ordersync: drop undecodable event", "err", err)
		return nil
	}
	if event.OrderID == "" {
		h.logger.Error("ordersync: drop event without order id")
		return nil
	}

	o, err := h.orders.Get(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("ordersync: order not found", "order_id", event.OrderID)
			return nil
		}
		return fmt.Errorf("load order %s: %w", event.OrderID, err)
	}
	if o.FinancialStatus == domain.FinancialCancelled {
		h.logger.Info("ordersync: skip cancelled order", "order_id", o.ID)
		return nil
	}

	payloadOrder, err := toERPOrder(o)
	if err != nil {
		h.logger.Error("ordersync: drop unmappable order", "order_id", o.ID, "err", err)
		return nil
	}

	erpID, err := h.erp.CreateOrder(ctx, payloadOrder)
	if err != nil {
		return fmt.Errorf("push order %s: %w", o.ID, err)
	}
	h.logger.Info("ordersync: order pushed", "order_id", o.ID, "erp_order_id", erpID, "items", len(o.Items))
	return nil
}

func toERPOrder(o *domain.Order) (haravan.Order, error) {
	out := haravan.Order{
		Email:           o.Email,
		Phone:           o.Phone,
		Note:            o.Note,
		Gateway:         string(o.Gateway),
		FinancialStatus: string(o.FinancialStatus),
		TotalPrice:      strconv.FormatInt(o.TotalPrice, 10),
		Reference:       o.ID,
		BillingAddress:  haravan.Address(o.BillingAddress),
		ShippingAddress: haravan.Address(o.ShippingAddress),
		Customer:        haravan.OrderPerson(o.Customer),
		LineItems:       make([]haravan.LineItem, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		variantID, err := strconv.ParseInt(it.VariantID, 10, 64)
		if err != nil {
			return haravan.Order{}, fmt.Errorf("variant id %q: %w", it.VariantID, err)
		}
		out.LineItems = append(out.LineItems, haravan.LineItem{
			VariantID: variantID,
			Quantity:  it.Quantity,
			Price:     strconv.FormatInt(it.Price, 10),
			Title:     it.ProductTitle,
		})
	}
	return out, nil
}
