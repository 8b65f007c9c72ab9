package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func TestCartRequiresOwner(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/cart", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/cart", "", map[string]string{sessionHeader: "nope"}).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/cart", "", map[string]string{"Authorization": "Bearer bad"}).Code)
}

func TestCartOwnerResolution(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/cart", "", asGuest()).Code)
	assert.Equal(t, domain.SessionOwner(testSession), f.cart.owner)

	headers := asUser()
	headers[sessionHeader] = testSession
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/cart", "", headers).Code)
	assert.Equal(t, domain.UserOwner("cust-1"), f.cart.owner)
}

func TestAddCartItem(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/cart/items", `{"variantId":"v9","productId":"p1","quantity":2}`, asGuest())
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "v9", f.cart.added.VariantID)
	assert.Equal(t, "p1", f.cart.added.ProductID)
	assert.Equal(t, 2, f.cart.added.Quantity)

	rec = f.do(http.MethodPost, "/cart/items", `{`, asGuest())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddCartItemOutOfStock(t *testing.T) {
	f := newFixture(t)
	f.cart.err = domain.ErrInsufficientStock

	rec := f.do(http.MethodPost, "/cart/items", `{"variantId":"v9","quantity":5}`, asGuest())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateCartItem(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPatch, "/cart/items/line-1", `{"quantity":4}`, asGuest())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, f.cart.quantity)

	rec = f.do(http.MethodPatch, "/cart/items/line-1", `{"quantity":0}`, asGuest())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":true}`, rec.Body.String())

	rec = f.do(http.MethodPatch, "/cart/items/line-1", `{}`, asGuest())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMissingLine(t *testing.T) {
	f := newFixture(t)
	f.cart.err = domain.ErrLineNotFound

	rec := f.do(http.MethodPatch, "/cart/items/zzz", `{"quantity":1}`, asUser())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveCartItem(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodDelete, "/cart/items/line-1", "", asUser())
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.cart.removed)
}
