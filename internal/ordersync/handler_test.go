package ordersync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/erp/haravan"
)

type stubOrders struct {
	orders map[string]*domain.Order
	err    error
}

func (s stubOrders) Get(_ context.Context, id string) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

type stubERP struct {
	pushed []haravan.Order
	err    error
}

func (s *stubERP) CreateOrder(_ context.Context, o haravan.Order) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.pushed = append(s.pushed, o)
	return 900, nil
}

func event(t *testing.T, id string) []byte {
	t.Helper()
	b, err := json.Marshal(domain.OrderPlacedEvent{OrderID: id, Gateway: domain.PaymentCOD})
	require.NoError(t, err)
	return b
}

func paidOrder() *domain.Order {
	return &domain.Order{
		ID:              "o1",
		Email:           "an@example.com",
		TotalPrice:      300000,
		FinancialStatus: domain.FinancialPaid,
		Gateway:         domain.PaymentVNPay,
		Customer:        domain.OrderCustomer{FirstName: "An"},
		ShippingAddress: domain.Address{Address1: "1 Lê Lợi"},
		Items: []domain.OrderItem{
			{VariantID: "11", ProductTitle: "Áo", Quantity: 2, Price: 150000},
		},
	}
}

func TestHandlePushesOrder(t *testing.T) {
	erp := &stubERP{}
	h := NewHandler(stubOrders{orders: map[string]*domain.Order{"o1": paidOrder()}}, erp, nil)

	require.NoError(t, h.Handle(context.Background(), event(t, "o1")))
	require.Len(t, erp.pushed, 1)
	got := erp.pushed[0]
	assert.Equal(t, "o1", got.Reference)
	assert.Equal(t, "vnpay", got.Gateway)
	assert.Equal(t, "paid", got.FinancialStatus)
	assert.Equal(t, "300000", got.TotalPrice)
	assert.Equal(t, "1 Lê Lợi", got.ShippingAddress.Address1)
	assert.Equal(t, "An", got.Customer.FirstName)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, int64(11), got.LineItems[0].VariantID)
	assert.Equal(t, "150000", got.LineItems[0].Price)
}

func TestHandleAcknowledgesPoisonMessages(t *testing.T) {
	cancelled := paidOrder()
	cancelled.FinancialStatus = domain.FinancialCancelled
	badVariant := paidOrder()
	badVariant.ID = "o3"
	badVariant.Items[0].VariantID = "abc"

	erp := &stubERP{}
	h := NewHandler(stubOrders{orders: map[string]*domain.Order{"o2": cancelled, "o3": badVariant}}, erp, nil)

	for name, payload := range map[string][]byte{
		"garbage":     []byte("{"),
		"no id":       event(t, ""),
		"unknown":     event(t, "missing"),
		"cancelled":   event(t, "o2"),
		"bad variant": event(t, "o3"),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, h.Handle(context.Background(), payload))
		})
	}
	assert.Empty(t, erp.pushed)
}

func TestHandleReturnsTransientErrors(t *testing.T) {
	h := NewHandler(stubOrders{err: errors.New("db down")}, &stubERP{}, nil)
	require.Error(t, h.Handle(context.Background(), event(t, "o1")))

	erp := &stubERP{err: domain.ErrUpstream}
	h = NewHandler(stubOrders{orders: map[string]*domain.Order{"o1": paidOrder()}}, erp, nil)
	err := h.Handle(context.Background(), event(t, "o1"))
	require.ErrorIs(t, err, domain.ErrUpstream)
}
