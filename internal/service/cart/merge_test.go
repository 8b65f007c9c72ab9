package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func TestMergeOnLogin_ReassignsAndCombines(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant("a", 10, 0, 1000)
	repo.addVariant("b", 10, 0, 2000)
	guest, user := domain.SessionOwner("s1"), domain.UserOwner("u1")
	ga := repo.addLine(guest, "a", 2)
	gb := repo.addLine(guest, "b", 1)
	ua := repo.addLine(user, "a", 3)
	svc := newTestService(repo)

	res, err := svc.MergeOnLogin(context.Background(), "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{ga.ID}, res.Combined)
	assert.Equal(t, []string{gb.ID}, res.Reassigned)
	assert.Empty(t, res.Skipped)

	assert.Empty(t, repo.linesOf(guest))
	lines := repo.linesOf(user)
	require.Len(t, lines, 2)
	byVariant := map[string]domain.CartLine{}
	for _, l := range lines {
		byVariant[l.VariantID] = l
	}
	assert.Equal(t, ua.ID, byVariant["a"].ID)
	assert.Equal(t, 5, byVariant["a"].Quantity)
	assert.Equal(t, gb.ID, byVariant["b"].ID)
	assert.Equal(t, int64(2000), byVariant["b"].Price)

	assert.Equal(t, 5, repo.reserved("a"))
	assert.Equal(t, 1, repo.reserved("b"))
}

func TestMergeOnLogin_SkipsWhenStockCannotCoverBoth(t *testing.T) {
	repo := newMemoryRepo()
	// Both units are held by the two lines; nothing is free beyond them.
	repo.addVariant("a", 2, 0, 1000)
	guest, user := domain.SessionOwner("s1"), domain.UserOwner("u1")
	g := repo.addLine(guest, "a", 1)
	u := repo.addLine(user, "a", 1)
	svc := newTestService(repo)

	res, err := svc.MergeOnLogin(context.Background(), "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID}, res.Skipped)
	assert.Empty(t, res.Combined)

	guestLines := repo.linesOf(guest)
	require.Len(t, guestLines, 1)
	assert.Equal(t, 1, guestLines[0].Quantity)
	userLines := repo.linesOf(user)
	require.Len(t, userLines, 1)
	assert.Equal(t, u.ID, userLines[0].ID)
	assert.Equal(t, 1, userLines[0].Quantity)
	assert.Equal(t, 2, repo.reserved("a"))
}

func TestMergeOnLogin_EmptyGuestCartIsNoop(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant("a", 10, 0, 1000)
	user := domain.UserOwner("u1")
	repo.addLine(user, "a", 4)
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := svc.MergeOnLogin(ctx, "s1", "u1")
		require.NoError(t, err)
		assert.Empty(t, res.Combined)
		assert.Empty(t, res.Reassigned)
		assert.Empty(t, res.Skipped)
		lines := repo.linesOf(user)
		require.Len(t, lines, 1)
		assert.Equal(t, 4, lines[0].Quantity)
	}
}

func TestMergeOnLogin_RollsBackOnFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariant("a", 10, 0, 1000)
	repo.addVariant("b", 10, 0, 1000)
	guest, user := domain.SessionOwner("s1"), domain.UserOwner("u1")
	repo.addLine(guest, "a", 2)
	repo.addLine(guest, "b", 1)
	repo.addLine(user, "a", 1)
	repo.failOn["Reassign"] = errors.New("connection lost")
	svc := newTestService(repo)

	_, err := svc.MergeOnLogin(context.Background(), "s1", "u1")
	require.ErrorIs(t, err, domain.ErrUpstream)

	assert.Len(t, repo.linesOf(guest), 2)
	userLines := repo.linesOf(user)
	require.Len(t, userLines, 1)
	assert.Equal(t, 1, userLines[0].Quantity)
	assert.Equal(t, 3, repo.reserved("a"))
}

func TestMergeOnLogin_RequiresBothIdentifiers(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	_, err := svc.MergeOnLogin(context.Background(), "", "u1")
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.MergeOnLogin(context.Background(), "s1", " ")
	require.ErrorIs(t, err, domain.ErrValidation)
}
