// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"codeberg.org/typecode/accounts/internal/models"
	"codeberg.org/typecode/accounts/internal/repository"
	"codeberg.org/typecode/accounts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinCruise_CreatesCruiseOnce(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	ann := testutil.NewTestAccount(t, repo, "ann@example.com", true)
	bob := testutil.NewTestAccount(t, repo, "bob@example.com", true)

	c1, err := repo.JoinCruise(ctx, ann.ID, "2026-07-01", 7)
	require.NoError(t, err)
	c2, err := repo.JoinCruise(ctx, bob.ID, "2026-07-01", 7)
	require.NoError(t, err)

	assert.Equal(t, c1.ID, c2.ID)
	assert.Equal(t, "2026-07-01", c1.DepartureDate)
	assert.Equal(t, int64(7), c1.ShipID)
	assert.Equal(t, "Norwegian Prima", c1.ShipName)
}

func TestJoinCruise_UnknownShip(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	ann := testutil.NewTestAccount(t, repo, "ann@example.com", true)

	_, err := repo.JoinCruise(ctx, ann.ID, "2026-07-01", 9999)

	assert.ErrorIs(t, err, repository.ErrUnknownShip)
	cruises, err := repo.ListCruisesByUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, cruises)
}

func TestListCompanies(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	companies, err := repo.ListCompanies(context.Background())

	require.NoError(t, err)
	require.Len(t, companies, 3)
	assert.Equal(t, "Carnival Cruise Line", companies[0].Name)
	assert.Equal(t, "Norwegian Cruise Line", companies[1].Name)
	assert.Equal(t, "Royal Caribbean International", companies[2].Name)
}

func TestListShipsByCompany(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	ships, err := repo.ListShipsByCompany(ctx, 3)
	require.NoError(t, err)
	require.Len(t, ships, 3)
	for _, s := range ships {
		assert.Equal(t, int64(3), s.CompanyID)
	}
	assert.Equal(t, "Norwegian Encore", ships[0].Name)

	ships, err = repo.ListShipsByCompany(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, ships)
}

func TestListCruisesByUser_IncludesShipName(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	ann := testutil.NewTestAccount(t, repo, "ann@example.com", true)

	_, err := repo.JoinCruise(ctx, ann.ID, "2026-09-01", 4)
	require.NoError(t, err)
	_, err = repo.JoinCruise(ctx, ann.ID, "2026-07-01", 7)
	require.NoError(t, err)

	cruises, err := repo.ListCruisesByUser(ctx, ann.ID)

	require.NoError(t, err)
	require.Len(t, cruises, 2)
	assert.Equal(t, "Norwegian Prima", cruises[0].ShipName)
	assert.Equal(t, "Icon of the Seas", cruises[1].ShipName)
}

func TestJoinCruise_Idempotent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	ann := testutil.NewTestAccount(t, repo, "ann@example.com", true)

	_, err := repo.JoinCruise(ctx, ann.ID, "2026-07-01", 7)
	require.NoError(t, err)
	_, err = repo.JoinCruise(ctx, ann.ID, "2026-07-01", 7)
	require.NoError(t, err)

	cruises, err := repo.ListCruisesByUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Len(t, cruises, 1)
}

func TestLeaveCruise(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	ann := testutil.NewTestAccount(t, repo, "ann@example.com", true)

	cruise, err := repo.JoinCruise(ctx, ann.ID, "2026-07-01", 7)
	require.NoError(t, err)

	require.NoError(t, repo.LeaveCruise(ctx, ann.ID, cruise.ID))
	assert.ErrorIs(t, repo.LeaveCruise(ctx, ann.ID, cruise.ID), repository.ErrNotFound)

	cruises, err := repo.ListCruisesByUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, cruises)
}

func TestListCruiseMembers_ExcludesCaller(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	ann := testutil.NewTestAccount(t, repo, "ann@example.com", true)
	bob := testutil.NewTestAccount(t, repo, "bob@example.com", true)
	require.NoError(t, repo.UpdateAccount(ctx, bob.ID, models.AccountPatch{
		FirstName: models.Ptr("Bob"),
		Bio:       models.Ptr("Deck chair enthusiast"),
	}))

	cruise, err := repo.JoinCruise(ctx, ann.ID, "2026-07-01", 7)
	require.NoError(t, err)
	_, err = repo.JoinCruise(ctx, bob.ID, "2026-07-01", 7)
	require.NoError(t, err)

	members, err := repo.ListCruiseMembers(ctx, cruise.ID, ann.ID)

	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, bob.ID, members[0].ID)
	assert.Equal(t, "Bob", members[0].FirstName)
	assert.Equal(t, "Deck chair enthusiast", members[0].Bio)
}

func TestDeleteAccount_BlockedByMemberships(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	ann := testutil.NewTestAccount(t, repo, "ann@example.com", true)

	_, err := repo.JoinCruise(ctx, ann.ID, "2026-07-01", 7)
	require.NoError(t, err)

	err = repo.DeleteAccount(ctx, ann.ID)
	require.Error(t, err)

	require.NoError(t, repo.DeleteMembershipsByUser(ctx, ann.ID))
	require.NoError(t, repo.DeleteAccount(ctx, ann.ID))

	cruises, err := repo.ListCruisesByUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, cruises)
}

func TestGetMembership(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	ann := testutil.NewTestAccount(t, repo, "ann@example.com", true)
	bob := testutil.NewTestAccount(t, repo, "bob@example.com", true)

	cruise, err := repo.JoinCruise(ctx, ann.ID, "2026-07-01", 7)
	require.NoError(t, err)

	m, err := repo.GetMembership(ctx, ann.ID, cruise.ID)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, m.UserID)
	assert.Equal(t, cruise.ID, m.CruiseID)
	assert.NotZero(t, m.JoinedAt)

	_, err = repo.GetMembership(ctx, bob.ID, cruise.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
