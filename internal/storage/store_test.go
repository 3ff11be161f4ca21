package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ride-marketplace/internal/models"
	"github.com/example/ride-marketplace/internal/storage"
)

func TestMemoryStore_Rides(t *testing.T) {
	st := storage.NewMemoryStore()

	r := &models.Ride{ID: "ride-000001", OwnerID: "alice", Status: models.StatusOpen, MaxRiders: 2}
	require.NoError(t, st.SaveRide(r))

	got, ok := st.GetRide("ride-000001")
	require.True(t, ok)
	assert.Equal(t, "alice", got.OwnerID)

	r2 := *r
	r2.Status = models.StatusCancelled
	require.NoError(t, st.UpdateRide(&r2))

	got, ok = st.GetRide("ride-000001")
	require.True(t, ok)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestMemoryStore_Accounts(t *testing.T) {
	st := storage.NewMemoryStore()

	require.NoError(t, st.SaveAccount(&models.Account{OwnerID: "bob", Balance: 42}))

	got, ok := st.GetAccount("bob")
	require.True(t, ok)
	assert.Equal(t, int64(42), got.Balance)

	_, ok = st.GetAccount("nobody")
	assert.False(t, ok)
}
