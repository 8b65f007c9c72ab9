package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront/internal/catalogsync"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	checkoutsvc "storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
)

type CatalogService interface {
	List(ctx context.Context, f productrepo.Filter) (catalogsvc.Page, error)
	FilterOptions(ctx context.Context, f productrepo.Filter) (domain.FilterOptions, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Variant(ctx context.Context, productID, option1, option2 string) (*domain.Variant, error)
}

type CartService interface {
	List(ctx context.Context, owner domain.CartOwner) (domain.Cart, error)
	AddToCart(ctx context.Context, owner domain.CartOwner, in cartsvc.AddInput) (*domain.CartLine, error)
	UpdateQuantity(ctx context.Context, owner domain.CartOwner, lineID string, quantity int) (*domain.CartLine, bool, error)
	Remove(ctx context.Context, owner domain.CartOwner, lineID string) error
	MergeOnLogin(ctx context.Context, sessionID, userID string) (domain.MergeResult, error)
	CleanExpired(ctx context.Context) (int, error)
}

type CustomerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	AccessTTLSeconds() int
}

type SessionService interface {
	Issue(ctx context.Context) (string, error)
	Validate(ctx context.Context, sessionID string) (string, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, owner domain.CartOwner, in checkoutsvc.Input) (checkoutsvc.Result, error)
	PaymentReturn(ctx context.Context, query url.Values) (string, error)
}

type CatalogSyncer interface {
	Run(ctx context.Context) (catalogsync.Result, error)
}

// Deps are the collaborators the router dispatches to. Metrics and DB may be nil.
type Deps struct {
	Catalog     CatalogService
	Cart        CartService
	Customers   CustomerService
	Sessions    SessionService
	Checkout    CheckoutService
	Sync        CatalogSyncer
	DB          Pinger
	Metrics     http.Handler
	SyncSecret  string
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.Catalog == nil:
		return errors.New("httpserver: catalog service required")
	case d.Cart == nil:
		return errors.New("httpserver: cart service required")
	case d.Customers == nil:
		return errors.New("httpserver: customer service required")
	case d.Sessions == nil:
		return errors.New("httpserver: session service required")
	case d.Checkout == nil:
		return errors.New("httpserver: checkout service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *slog.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", sessionHeader},
			ExposeHeaders:    []string{sessionHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h := &handlers{deps: deps, logger: logger}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	router.POST("/session", h.issueSession)

	products := router.Group("/products")
	products.GET("", h.listProducts)
	products.GET("/filters", h.filterOptions)
	products.GET("/:id", h.getProduct)
	products.GET("/:id/variant", h.getVariant)

	auth := router.Group("/auth")
	auth.POST("/signup", h.signup)
	auth.POST("/login", h.login)
	auth.GET("/me", requireCustomer(deps.Customers), h.me)

	cart := router.Group("/cart")
	cart.POST("/clean", requireSyncSecret(deps.SyncSecret), h.cleanCart)
	owned := cart.Group("", resolveOwner(deps.Customers, deps.Sessions))
	owned.GET("", h.getCart)
	owned.POST("/items", h.addCartItem)
	owned.PATCH("/items/:id", h.updateCartItem)
	owned.DELETE("/items/:id", h.removeCartItem)

	router.POST("/checkout", resolveOwner(deps.Customers, deps.Sessions), h.checkout)
	router.GET("/payment/vnpay-return", h.vnpayReturn)

	router.POST("/sync/haravan", requireSyncSecret(deps.SyncSecret), h.syncHaravan)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *slog.Logger
}
