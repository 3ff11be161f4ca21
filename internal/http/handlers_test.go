package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ride-marketplace/internal/config"
	httpapi "github.com/example/ride-marketplace/internal/http"
	"github.com/example/ride-marketplace/internal/models"
)

func newTestServer(t *testing.T) *httpapi.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpapi.NewServer(config.ServerConfig{}, logger)
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func createRide(t *testing.T, srv *httpapi.Server, owner string, maxRiders int, auto bool) models.Ride {
	t.Helper()
	rec := doJSON(t, srv, "POST", "/api/v1/rides", map[string]any{
		"owner_id": owner, "origin": "Mumbai", "destination": "Pune",
		"max_riders": maxRiders, "auto_assign_driver": auto,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Ride](t, rec)
}

func TestCreateRide(t *testing.T) {
	srv := newTestServer(t)
	ride := createRide(t, srv, "alice", 3, false)

	assert.Equal(t, "alice", ride.OwnerID)
	assert.Equal(t, models.StatusOpen, ride.Status)
	assert.Empty(t, ride.DriverID)
}

func TestCreateRide_AutoAssign(t *testing.T) {
	srv := newTestServer(t)
	ride := createRide(t, srv, "dave", 1, true)

	assert.Equal(t, "dave", ride.DriverID)
	assert.True(t, ride.IsDriverCreated)
}

func TestCreateRide_InvalidCapacity(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, "POST", "/api/v1/rides", map[string]any{
		"owner_id": "alice", "origin": "a", "destination": "b", "max_riders": 0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetRide_NotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, "GET", "/api/v1/rides/ride-999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinFlowAndNotifications(t *testing.T) {
	srv := newTestServer(t)
	ride := createRide(t, srv, "alice", 2, false)

	rec := doJSON(t, srv, "POST", "/api/v1/rides/"+ride.ID+"/join", map[string]any{"rider_id": "bob"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[models.Ride](t, rec)
	assert.Equal(t, []string{"bob"}, got.Riders)

	// owner was notified about the join
	rec = doJSON(t, srv, "GET", "/api/v1/notifications/alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode[[]string](t, rec)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "bob")

	// duplicate join conflicts
	rec = doJSON(t, srv, "POST", "/api/v1/rides/"+ride.ID+"/join", map[string]any{"rider_id": "bob"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelRide_NonOwnerForbidden(t *testing.T) {
	srv := newTestServer(t)
	ride := createRide(t, srv, "alice", 2, false)

	rec := doJSON(t, srv, "POST", "/api/v1/rides/"+ride.ID+"/cancel", map[string]any{"caller_id": "mallory"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, "GET", "/api/v1/rides/"+ride.ID, nil)
	got := decode[models.Ride](t, rec)
	assert.Equal(t, models.StatusOpen, got.Status)
}

func TestDriverJoin(t *testing.T) {
	srv := newTestServer(t)
	ride := createRide(t, srv, "alice", 2, false)

	rec := doJSON(t, srv, "POST", "/api/v1/rides/"+ride.ID+"/driver", map[string]any{"driver_id": "dave"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, "POST", "/api/v1/rides/"+ride.ID+"/driver", map[string]any{"driver_id": "eve"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t)
	createRide(t, srv, "alice", 2, false) // Mumbai -> Pune
	rec := doJSON(t, srv, "POST", "/api/v1/rides", map[string]any{
		"owner_id": "carol", "origin": "Delhi", "destination": "Agra", "max_riders": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, "GET", "/api/v1/rides/search?origin=MUMBAI&destination=pune", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]models.Ride](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].OwnerID)
}

func TestSearch_UnknownStatus(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, "GET", "/api/v1/rides/search?status=bogus", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTokenEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, "POST", "/api/v1/tokens/credit", map[string]any{"account_id": "alice", "amount": 100})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, "POST", "/api/v1/tokens/transfer", map[string]any{"payer_id": "alice", "payee_id": "bob", "amount": 30})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, "GET", "/api/v1/balances/bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	acct := decode[models.Account](t, rec)
	assert.Equal(t, int64(30), acct.Balance)

	rec = doJSON(t, srv, "POST", "/api/v1/tokens/transfer", map[string]any{"payer_id": "bob", "payee_id": "alice", "amount": 500})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestPurchase_WithoutStripeDegradesToCredit(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, "POST", "/api/v1/tokens/purchase", map[string]any{"account_id": "alice", "amount": 25})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(25), body["balance"])
	assert.Equal(t, "", body["payment_id"])
}

func TestSettleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	ride := createRide(t, srv, "alice", 4, false)

	for _, rider := range []string{"r1", "r2", "r3"} {
		rec := doJSON(t, srv, "POST", "/api/v1/rides/"+ride.ID+"/join", map[string]any{"rider_id": rider})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := doJSON(t, srv, "POST", "/api/v1/rides/"+ride.ID+"/driver", map[string]any{"driver_id": "dave"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, "POST", "/api/v1/tokens/credit", map[string]any{"account_id": "r1", "amount": 10})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, "POST", "/api/v1/rides/"+ride.ID+"/settle", map[string]any{"payer_id": "r1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(4), body["amount_charged"])

	rec = doJSON(t, srv, "POST", "/api/v1/rides/"+ride.ID+"/settle", map[string]any{"payer_id": "r1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFindSimilarOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	mine := createRide(t, srv, "alice", 2, false)
	other := createRide(t, srv, "bob", 2, false)

	rec := doJSON(t, srv, "GET", fmt.Sprintf("/api/v1/rides/%s/similar", mine.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]models.Ride](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, other.ID, got[0].ID)
}

func TestDriverRewardsOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	createRide(t, srv, "dave", 1, true)

	rec := doJSON(t, srv, "GET", "/api/v1/rewards/dave", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(1), body["assigned_rides"])
	assert.Equal(t, "bronze", body["tier"])
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
