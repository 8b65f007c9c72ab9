package httpserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"storefront/internal/catalogsync"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	checkoutsvc "storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
)

const (
	testSession = "3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	testToken   = "good-token"
	testSecret  = "s3cret"
)

type stubCatalog struct {
	filter productrepo.Filter
	err    error
}

func (s *stubCatalog) List(_ context.Context, f productrepo.Filter) (catalogsvc.Page, error) {
	s.filter = f
	return catalogsvc.Page{Products: []domain.ProductSummary{}, Limit: 24}, s.err
}

func (s *stubCatalog) FilterOptions(_ context.Context, f productrepo.Filter) (domain.FilterOptions, error) {
	s.filter = f
	return domain.FilterOptions{Colors: []string{"Đen"}}, s.err
}

func (s *stubCatalog) Get(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: id, Title: "Áo"}, nil
}

func (s *stubCatalog) Variant(_ context.Context, productID, option1, option2 string) (*domain.Variant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Variant{ID: "v1", ProductID: productID, Option1: option1, Option2: option2}, nil
}

type stubCart struct {
	owner    domain.CartOwner
	added    cartsvc.AddInput
	quantity int
	removed  bool
	merged   [2]string
	mergeErr error
	err      error
}

func (s *stubCart) List(_ context.Context, owner domain.CartOwner) (domain.Cart, error) {
	s.owner = owner
	return domain.NewCart(nil), s.err
}

func (s *stubCart) AddToCart(_ context.Context, owner domain.CartOwner, in cartsvc.AddInput) (*domain.CartLine, error) {
	s.owner, s.added = owner, in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CartLine{ID: "line-1", VariantID: in.VariantID, Quantity: in.Quantity}, nil
}

func (s *stubCart) UpdateQuantity(_ context.Context, owner domain.CartOwner, lineID string, q int) (*domain.CartLine, bool, error) {
	s.owner, s.quantity = owner, q
	if s.err != nil {
		return nil, false, s.err
	}
	if q <= 0 {
		return nil, true, nil
	}
	return &domain.CartLine{ID: lineID, Quantity: q}, false, nil
}

func (s *stubCart) Remove(_ context.Context, owner domain.CartOwner, _ string) error {
	s.owner, s.removed = owner, true
	return s.err
}

func (s *stubCart) MergeOnLogin(_ context.Context, sessionID, userID string) (domain.MergeResult, error) {
	s.merged = [2]string{sessionID, userID}
	return domain.MergeResult{Reassigned: []string{"line-1"}}, s.mergeErr
}

func (s *stubCart) CleanExpired(context.Context) (int, error) { return 3, s.err }

type stubCustomers struct {
	loginErr  error
	signupErr error
}

func (s *stubCustomers) Signup(_ context.Context, in customersvc.SignupInput) (*domain.Customer, error) {
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	return &domain.Customer{ID: "cust-1", Email: in.Email}, nil
}

func (s *stubCustomers) Login(context.Context, string, string) (*domain.Customer, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return &domain.Customer{ID: "cust-1", Email: "an@example.com"}, testToken, nil
}

func (s *stubCustomers) LookupByToken(_ context.Context, token string) (*domain.Customer, error) {
	if token != testToken {
		return nil, customersvc.ErrInvalidToken
	}
	return &domain.Customer{ID: "cust-1", Email: "an@example.com"}, nil
}

func (s *stubCustomers) AccessTTLSeconds() int { return 3600 }

type stubSessions struct{}

func (stubSessions) Issue(context.Context) (string, error) { return "fresh-session", nil }

func (stubSessions) Validate(_ context.Context, id string) (string, error) {
	if id != testSession {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}

type stubCheckout struct {
	owner    domain.CartOwner
	input    checkoutsvc.Input
	redirect string
	err      error
}

func (s *stubCheckout) Checkout(_ context.Context, owner domain.CartOwner, in checkoutsvc.Input) (checkoutsvc.Result, error) {
	s.owner, s.input = owner, in
	return checkoutsvc.Result{OrderID: "o1", RedirectURL: "/thank-you"}, s.err
}

func (s *stubCheckout) PaymentReturn(context.Context, url.Values) (string, error) {
	return s.redirect, s.err
}

type stubSync struct{ err error }

func (s stubSync) Run(context.Context) (catalogsync.Result, error) {
	return catalogsync.Result{Products: 2, Variants: 5}, s.err
}

type fixture struct {
	catalog   *stubCatalog
	cart      *stubCart
	customers *stubCustomers
	checkout  *stubCheckout
	router    *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{
		catalog:   &stubCatalog{},
		cart:      &stubCart{},
		customers: &stubCustomers{},
		checkout:  &stubCheckout{redirect: "https://shop.example/thank-you"},
	}
	router, err := buildRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), Deps{
		Catalog:    f.catalog,
		Cart:       f.cart,
		Customers:  f.customers,
		Sessions:   stubSessions{},
		Checkout:   f.checkout,
		Sync:       stubSync{},
		Metrics:    http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "# metrics") }),
		SyncSecret: testSecret,
	})
	require.NoError(t, err)
	f.router = router
	return f
}

func (f *fixture) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func asGuest() map[string]string { return map[string]string{sessionHeader: testSession} }

func asUser() map[string]string { return map[string]string{"Authorization": "Bearer " + testToken} }
