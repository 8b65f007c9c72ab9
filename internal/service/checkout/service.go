// Package checkout turns a cart into an order and settles VNPay returns.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/messaging"
	"storefront/internal/payment/vnpay"
	orderrepo "storefront/internal/repository/order"
)

const (
	thankYouPath      = "/thank-you"
	paymentFailedPath = "/checkout?error=payment_failed"
)

type Carts interface {
	List(ctx context.Context, owner domain.CartOwner) (domain.Cart, error)
	ClearLines(ctx context.Context, owner domain.CartOwner, lineIDs []string) error
}

type Payments interface {
	BuildPaymentURL(req vnpay.PaymentRequest) (string, error)
	Verify(query url.Values) (vnpay.Result, error)
}

type Service struct {
	carts         Carts
	orders        orderrepo.Repository
	payments      Payments
	events        messaging.Publisher
	logger        *slog.Logger
	storefrontURL string
	now           func() time.Time
}

// New wires the checkout flow. payments may be nil when VNPay is not
// configured; vnpay checkouts are then rejected.
func New(carts Carts, orders orderrepo.Repository, payments Payments, events messaging.Publisher, storefrontURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		carts:         carts,
		orders:        orders,
		payments:      payments,
		events:        events,
		logger:        logger,
		storefrontURL: strings.TrimRight(storefrontURL, "/"),
		now:           time.Now,
	}
}

type Input struct {
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
	ReturnURL       string               `json:"returnUrl,omitempty"`
	Customer        domain.OrderCustomer `json:"customer"`
	BillingAddress  *domain.Address      `json:"billingAddress"`
	ShippingAddress *domain.Address      `json:"shippingAddress"`
	Note            string               `json:"note,omitempty"`
	ClientIP        string               `json:"-"`
}

type Result struct {
	OrderID     string `json:"orderId"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	PaymentURL  string `json:"paymentUrl,omitempty"`
}

func (in Input) validate() error {
	if !in.PaymentMethod.Valid() {
		return domain.Invalid("paymentMethod", "must be cod or vnpay")
	}
	if in.PaymentMethod == domain.PaymentVNPay && strings.TrimSpace(in.ReturnURL) == "" {
		return domain.Invalid("returnUrl", "required for vnpay")
	}
	if strings.TrimSpace(in.Customer.Email) == "" && strings.TrimSpace(in.Customer.Phone) == "" {
		return domain.Invalid("customer", "phone or email required")
	}
	if in.BillingAddress == nil || strings.TrimSpace(in.BillingAddress.Address1) == "" {
		return domain.Invalid("billingAddress", "required")
	}
	if in.ShippingAddress == nil || strings.TrimSpace(in.ShippingAddress.Address1) == "" {
		return domain.Invalid("shippingAddress", "required")
	}
	return nil
}

// Checkout creates a pending order from the owner's current cart. Cash on
// delivery orders are published and their cart lines cleared right away;
// VNPay orders get a payment URL and keep the cart until the return.
func (s *Service) Checkout(ctx context.Context, owner domain.CartOwner, in Input) (Result, error) {
	if err := owner.Validate(); err != nil {
		return Result{}, err
	}
	if err := in.validate(); err != nil {
		return Result{}, err
	}
	if in.PaymentMethod == domain.PaymentVNPay && s.payments == nil {
		return Result{}, domain.Invalid("paymentMethod", "vnpay is not available")
	}

	cart, err := s.carts.List(ctx, owner)
	if err != nil {
		return Result{}, err
	}
	if len(cart.Lines) == 0 {
		return Result{}, domain.Invalid("cart", "empty")
	}

	created, err := s.orders.Create(ctx, newOrder(owner, in, cart))
	if err != nil {
		return Result{}, domain.Upstream("create order", err)
	}
	s.logger.Info("checkout: order created",
		"order_id", created.ID, "owner", owner.String(), "gateway", created.Gateway,
		"total", domain.FormatVND(created.TotalPrice), "items", len(created.Items))

	if in.PaymentMethod == domain.PaymentCOD {
		s.settle(ctx, created)
		return Result{OrderID: created.ID, RedirectURL: thankYouPath}, nil
	}

	payURL, err := s.payments.BuildPaymentURL(vnpay.PaymentRequest{
		OrderID:   created.ID,
		Amount:    created.TotalPrice,
		ReturnURL: in.ReturnURL,
		ClientIP:  in.ClientIP,
	})
	if err != nil {
		return Result{}, fmt.Errorf("build payment url: %w", err)
	}
	return Result{OrderID: created.ID, PaymentURL: payURL}, nil
}

// PaymentReturn verifies a VNPay callback and settles the order. It returns
// the storefront URL the buyer should be redirected to.
func (s *Service) PaymentReturn(ctx context.Context, query url.Values) (string, error) {
	if s.payments == nil {
		return "", domain.Invalid("gateway", "vnpay is not available")
	}
	res, err := s.payments.Verify(query)
	if err != nil {
		return "", err
	}

	o, err := s.orders.Get(ctx, res.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", domain.Upstream("load order", err)
	}

	success := res.Success
	if success && res.Amount != o.TotalPrice {
		s.logger.Warn("checkout: paid amount differs from order total",
			"order_id", o.ID, "paid", res.Amount, "total", o.TotalPrice)
		success = false
	}

	status := domain.FinancialCancelled
	if success {
		status = domain.FinancialPaid
	}
	changed, err := s.orders.TransitionStatus(ctx, o.ID, status)
	if err != nil {
		return "", domain.Upstream("update order status", err)
	}
	s.logger.Info("checkout: payment return",
		"order_id", o.ID, "response_code", res.ResponseCode, "status", status, "changed", changed)

	if !changed {
		// Already settled by an earlier return; the stored status decides.
		current, err := s.orders.Get(ctx, o.ID)
		if err != nil {
			return "", domain.Upstream("reload order", err)
		}
		if current.FinancialStatus == domain.FinancialPaid {
			return s.storefrontURL + thankYouPath, nil
		}
		return s.storefrontURL + paymentFailedPath, nil
	}
	if !success {
		return s.storefrontURL + paymentFailedPath, nil
	}
	o.FinancialStatus = domain.FinancialPaid
	s.settle(ctx, o)
	return s.storefrontURL + thankYouPath, nil
}

// settle clears the ordered cart lines and announces the order. Failures are
// logged; the order itself is already stored.
func (s *Service) settle(ctx context.Context, o *domain.Order) {
	if err := s.carts.ClearLines(ctx, o.Owner(), o.CartLineIDs()); err != nil {
		s.logger.Error("checkout: clear cart lines", "order_id", o.ID, "err", err)
	}
	if s.events == nil {
		return
	}
	event := domain.OrderPlacedEvent{
		OrderID:    o.ID,
		Gateway:    o.Gateway,
		Status:     o.FinancialStatus,
		TotalPrice: o.TotalPrice,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, o.ID, event); err != nil {
		s.logger.Error("checkout: publish order placed", "order_id", o.ID, "err", err)
	}
}

func newOrder(owner domain.CartOwner, in Input, cart domain.Cart) domain.Order {
	o := domain.Order{
		Email:           strings.TrimSpace(in.Customer.Email),
		Phone:           strings.TrimSpace(in.Customer.Phone),
		TotalPrice:      cart.Total,
		FinancialStatus: domain.FinancialPending,
		Gateway:         in.PaymentMethod,
		Customer:        in.Customer,
		BillingAddress:  *in.BillingAddress,
		ShippingAddress: *in.ShippingAddress,
		Note:            strings.TrimSpace(in.Note),
		Items:           make([]domain.OrderItem, 0, len(cart.Lines)),
	}
	if owner.IsUser() {
		o.UserID = &owner.UserID
	} else {
		o.SessionID = &owner.SessionID
	}
	for _, l := range cart.Lines {
		o.Items = append(o.Items, domain.OrderItem{
			CartLineID:   l.ID,
			VariantID:    l.VariantID,
			ProductID:    l.ProductID,
			Title:        variantTitle(l),
			ProductTitle: l.ProductTitle,
			Option1:      l.Option1,
			Option2:      l.Option2,
			Quantity:     l.Quantity,
			Price:        l.Price,
		})
	}
	return o
}

func variantTitle(l domain.CartLine) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{l.Option1, l.Option2} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return l.ProductTitle
	}
	return strings.Join(parts, " / ")
}
