//go:build integration

package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/testdb"
)

func TestPostgres_CreateGetTransition(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Start(ctx, t)
	testdb.Reset(ctx, t, pool)

	session := "3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	repo := NewPostgres(pool)
	created, err := repo.Create(ctx, domain.Order{
		SessionID:       &session,
		Phone:           "0900000000",
		TotalPrice:      390000,
		FinancialStatus: domain.FinancialPending,
		Gateway:         domain.PaymentVNPay,
		Customer:        domain.OrderCustomer{FirstName: "An", Phone: "0900000000"},
		BillingAddress:  domain.Address{Address1: "1 Lê Lợi"},
		ShippingAddress: domain.Address{Address1: "2 Lê Lợi", City: "HCM"},
		Items: []domain.OrderItem{
			{CartLineID: "9b2f8a40-0000-4000-8000-000000000001", VariantID: "v1", ProductID: "p1", Title: "Đen / M", ProductTitle: "Áo", Quantity: 2, Price: 150000},
			{VariantID: "v2", ProductID: "p2", Title: "Mũ", ProductTitle: "Mũ", Quantity: 1, Price: 90000},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FinancialPending, got.FinancialStatus)
	assert.Equal(t, domain.PaymentVNPay, got.Gateway)
	assert.Equal(t, "HCM", got.ShippingAddress.City)
	assert.Equal(t, "An", got.Customer.FirstName)
	require.NotNil(t, got.SessionID)
	assert.Nil(t, got.UserID)
	require.Len(t, got.Items, 2)
	assert.Equal(t, []string{"9b2f8a40-0000-4000-8000-000000000001"}, got.CartLineIDs())
	assert.Equal(t, domain.SessionOwner(session), got.Owner())

	changed, err := repo.TransitionStatus(ctx, created.ID, domain.FinancialPaid)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.TransitionStatus(ctx, created.ID, domain.FinancialCancelled)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err = repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FinancialPaid, got.FinancialStatus)
}

func TestPostgres_MissingOrder(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Start(ctx, t)
	repo := NewPostgres(pool)

	_, err := repo.Get(ctx, "not-a-uuid")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.TransitionStatus(ctx, "5d2b0c1e-1111-4222-8333-444455556666", domain.FinancialPaid)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
