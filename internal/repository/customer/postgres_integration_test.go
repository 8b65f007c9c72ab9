//go:build integration

package customer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
	"storefront/internal/testdb"
)

func TestPostgres_CustomerAndTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Start(ctx, t)
	testdb.Reset(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	created, err := repo.Create(ctx, domain.Customer{Email: "Ann@Example.com", PasswordHash: "hash", FirstName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", created.Email)

	_, err = repo.Create(ctx, domain.Customer{Email: "ann@example.com", PasswordHash: "hash"})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	byEmail, err := repo.GetByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	require.ErrorIs(t, err, domain.ErrNotFound)

	tokens := tokenrepo.NewPostgres(pool)
	require.NoError(t, tokens.Create(ctx, domain.Token{
		Token: "tok", CustomerID: created.ID, Kind: "access", ExpiresAt: time.Now().Add(time.Hour),
	}))
	got, err := tokens.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.CustomerID)
	require.NoError(t, tokens.Delete(ctx, "tok"))
	require.ErrorIs(t, tokens.Delete(ctx, "tok"), domain.ErrNotFound)
}
