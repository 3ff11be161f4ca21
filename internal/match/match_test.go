package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ride-marketplace/internal/assignment"
	"github.com/example/ride-marketplace/internal/ledger"
	"github.com/example/ride-marketplace/internal/match"
	"github.com/example/ride-marketplace/internal/models"
	"github.com/example/ride-marketplace/internal/registry"
)

func seedRegistry(t *testing.T) (*registry.Registry, *match.Engine) {
	t.Helper()
	reg := registry.New(nil)
	seed := []struct {
		owner, origin, dest string
	}{
		{"alice", "Mumbai Central", "Pune"},
		{"bob", "mumbai airport", "PUNE station"},
		{"carol", "Delhi", "Agra"},
		{"dan", "Mumbai", "Nashik"},
	}
	for _, s := range seed {
		_, err := reg.CreateRide(s.owner, s.origin, s.dest, 3, false)
		require.NoError(t, err)
	}
	return reg, match.New(reg)
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	_, eng := seedRegistry(t)

	got := eng.Search("mumbai", "pune", nil)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].OwnerID)
	assert.Equal(t, "bob", got[1].OwnerID)
}

func TestSearch_NoFiltersReturnsOpenRides(t *testing.T) {
	reg, eng := seedRegistry(t)
	rides := reg.ListRides()
	_, err := reg.CancelRide(rides[2].ID, "carol")
	require.NoError(t, err)

	got := eng.Search("", "", nil)
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, models.StatusOpen, r.Status)
	}
}

func TestSearch_ExplicitStatusFilter(t *testing.T) {
	reg, eng := seedRegistry(t)
	rides := reg.ListRides()
	_, err := reg.CancelRide(rides[2].ID, "carol")
	require.NoError(t, err)

	cancelled := models.StatusCancelled
	got := eng.Search("", "", &cancelled)
	require.Len(t, got, 1)
	assert.Equal(t, "carol", got[0].OwnerID)
}

func TestSearch_PreservesInsertionOrder(t *testing.T) {
	_, eng := seedRegistry(t)

	got := eng.Search("mumbai", "", nil)
	require.Len(t, got, 3)
	assert.Equal(t, "ride-000001", got[0].ID)
	assert.Equal(t, "ride-000002", got[1].ID)
	assert.Equal(t, "ride-000004", got[2].ID)
}

func TestFindSimilar(t *testing.T) {
	reg := registry.New(nil)
	eng := match.New(reg)
	coord := assignment.New(reg, ledger.New(nil))

	mine, err := reg.CreateRide("alice", "Mumbai", "Pune", 2, false)
	require.NoError(t, err)

	other, err := reg.CreateRide("bob", "Thane", "pune", 2, false)
	require.NoError(t, err)

	// same owner: excluded
	_, err = reg.CreateRide("alice", "Dadar", "Pune", 2, false)
	require.NoError(t, err)

	// different destination: excluded
	_, err = reg.CreateRide("carol", "Mumbai", "Nashik", 2, false)
	require.NoError(t, err)

	// full ride: excluded
	full, err := reg.CreateRide("dan", "Mumbai", "Pune", 1, false)
	require.NoError(t, err)
	_, err = coord.RequestJoin(full.ID, "passenger")
	require.NoError(t, err)

	// cancelled ride: excluded
	gone, err := reg.CreateRide("erin", "Mumbai", "Pune", 2, false)
	require.NoError(t, err)
	_, err = reg.CancelRide(gone.ID, "erin")
	require.NoError(t, err)

	got := eng.FindSimilar(mine)
	require.Len(t, got, 1)
	assert.Equal(t, other.ID, got[0].ID)
}
