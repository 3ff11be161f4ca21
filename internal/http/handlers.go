package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-marketplace/internal/assignment"
	"github.com/example/ride-marketplace/internal/config"
	"github.com/example/ride-marketplace/internal/events"
	"github.com/example/ride-marketplace/internal/ledger"
	"github.com/example/ride-marketplace/internal/match"
	"github.com/example/ride-marketplace/internal/models"
	"github.com/example/ride-marketplace/internal/notify"
	"github.com/example/ride-marketplace/internal/observability"
	"github.com/example/ride-marketplace/internal/payments"
	"github.com/example/ride-marketplace/internal/registry"
	"github.com/example/ride-marketplace/internal/rewards"
	"github.com/example/ride-marketplace/internal/storage"
)

// Server is the request/response boundary of the marketplace core.
// Caller identity is always explicit in the payload or query, never
// inferred from ambient session state.
type Server struct {
	Registry    *registry.Registry
	Coordinator *assignment.Coordinator
	Ledger      *ledger.Service
	Match       *match.Engine
	Rewards     *rewards.Tracker
	Feed        *notify.Feed
	WSReg       *notify.WSRegistry
	Kafka       *events.KafkaProducer
	Stripe      *payments.StripeClient

	currency string
	logger   *slog.Logger
	mux      *mux.Router
}

// NewServer wires the core from config. Store selection mirrors the
// deployment options: Postgres when a DSN is set, redis as a lighter
// key-value mirror, in-memory otherwise.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) *Server {
	var store storage.Store
	if cfg.PGDSN != "" {
		if ps, err := storage.NewPostgresStore(cfg.PGDSN); err == nil {
			store = ps
		} else {
			logger.Warn("postgres unavailable, falling back", "error", err)
		}
	}
	if store == nil && cfg.RedisAddr != "" {
		store = storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
	}
	if store == nil {
		store = storage.NewMemoryStore()
	}

	reg := registry.New(store)
	led := ledger.New(store)

	var kp *events.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		kp = events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	var sc *payments.StripeClient
	if cfg.StripeAPIKey != "" {
		sc = payments.NewStripeClient(cfg.StripeAPIKey)
	}

	wsreg := notify.NewWSRegistry()

	s := &Server{
		Registry:    reg,
		Coordinator: assignment.New(reg, led),
		Ledger:      led,
		Match:       match.New(reg),
		Rewards:     rewards.New(reg, led, nil),
		Feed:        notify.NewFeed(wsreg),
		WSReg:       wsreg,
		Kafka:       kp,
		Stripe:      sc,
		currency:    cfg.StripeCurrency,
		logger:      logger,
		mux:         mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/rides", s.handleCreateRide).Methods("POST")
	api.HandleFunc("/rides", s.handleListRides).Methods("GET")
	api.HandleFunc("/rides/search", s.handleSearch).Methods("GET")
	api.HandleFunc("/rides/{ride_id}", s.handleGetRide).Methods("GET")
	api.HandleFunc("/rides/{ride_id}/similar", s.handleFindSimilar).Methods("GET")
	api.HandleFunc("/rides/{ride_id}/cancel", s.handleCancelRide).Methods("POST")
	api.HandleFunc("/rides/{ride_id}/complete", s.handleCompleteRide).Methods("POST")
	api.HandleFunc("/rides/{ride_id}/join", s.handleRequestJoin).Methods("POST")
	api.HandleFunc("/rides/{ride_id}/accept", s.handleAcceptRider).Methods("POST")
	api.HandleFunc("/rides/{ride_id}/driver", s.handleDriverJoin).Methods("POST")
	api.HandleFunc("/rides/{ride_id}/settle", s.handleSettle).Methods("POST")

	api.HandleFunc("/tokens/credit", s.handleCredit).Methods("POST")
	api.HandleFunc("/tokens/purchase", s.handlePurchase).Methods("POST")
	api.HandleFunc("/tokens/transfer", s.handleTransfer).Methods("POST")
	api.HandleFunc("/balances/{account_id}", s.handleGetBalance).Methods("GET")

	api.HandleFunc("/rewards/{driver_id}", s.handleDriverRewards).Methods("GET")
	api.HandleFunc("/notifications/{user_id}", s.handleNotifications).Methods("GET")

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/{user_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type createRideRequest struct {
	OwnerID          string `json:"owner_id"`
	Origin           string `json:"origin"`
	Destination      string `json:"destination"`
	MaxRiders        int    `json:"max_riders"`
	AutoAssignDriver bool   `json:"auto_assign_driver"`
}

func (s *Server) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	var req createRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ride, err := s.Registry.CreateRide(req.OwnerID, req.Origin, req.Destination, req.MaxRiders, req.AutoAssignDriver)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	observability.RidesCreatedTotal.Inc()
	s.publish("created", req.OwnerID, ride)
	writeJSON(w, http.StatusCreated, ride)
}

func (s *Server) handleListRides(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Registry.ListRides())
}

func (s *Server) handleGetRide(w http.ResponseWriter, r *http.Request) {
	ride, err := s.Registry.GetRide(mux.Vars(r)["ride_id"])
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var status *models.RideStatus
	if v := q.Get("status"); v != "" {
		st := models.RideStatus(v)
		if st != models.StatusOpen && st != models.StatusCancelled && st != models.StatusCompleted {
			writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("unknown status %q", v))
			return
		}
		status = &st
	}
	writeJSON(w, http.StatusOK, s.Match.Search(q.Get("origin"), q.Get("destination"), status))
}

func (s *Server) handleFindSimilar(w http.ResponseWriter, r *http.Request) {
	ride, err := s.Registry.GetRide(mux.Vars(r)["ride_id"])
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Match.FindSimilar(ride))
}

type callerRequest struct {
	CallerID string `json:"caller_id"`
}

func (s *Server) handleCancelRide(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ride, err := s.Registry.CancelRide(mux.Vars(r)["ride_id"], req.CallerID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.Feed.NotifyAll(ride.Riders, "A ride you joined has been cancelled.")
	s.publish("cancelled", req.CallerID, ride)
	writeJSON(w, http.StatusOK, ride)
}

func (s *Server) handleCompleteRide(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ride, err := s.Registry.CompleteRide(mux.Vars(r)["ride_id"], req.CallerID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.Feed.NotifyAll(ride.Riders, "A ride you joined has been completed.")
	s.publish("completed", req.CallerID, ride)
	writeJSON(w, http.StatusOK, ride)
}

func (s *Server) handleRequestJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RiderID string `json:"rider_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ride, err := s.Coordinator.RequestJoin(mux.Vars(r)["ride_id"], req.RiderID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	observability.RideJoinsTotal.Inc()
	s.Feed.Notify(ride.OwnerID, fmt.Sprintf("User %s joined your ride to %s.", req.RiderID, ride.Destination))
	s.publish("rider_joined", req.RiderID, ride)
	writeJSON(w, http.StatusOK, ride)
}

func (s *Server) handleAcceptRider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"owner_id"`
		RiderID string `json:"rider_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ride, err := s.Coordinator.AcceptRider(mux.Vars(r)["ride_id"], req.OwnerID, req.RiderID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	observability.RideJoinsTotal.Inc()
	s.Feed.Notify(req.RiderID, "Your request to join the ride has been accepted.")
	s.publish("rider_joined", req.RiderID, ride)
	writeJSON(w, http.StatusOK, ride)
}

func (s *Server) handleDriverJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DriverID string `json:"driver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ride, err := s.Coordinator.DriverJoin(mux.Vars(r)["ride_id"], req.DriverID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	observability.DriverAssignments.Inc()
	s.Feed.Notify(ride.OwnerID, fmt.Sprintf("Driver %s has joined your ride.", req.DriverID))
	s.Feed.NotifyAll(ride.Riders, "A driver has joined your ride.")
	s.publish("driver_joined", req.DriverID, ride)
	writeJSON(w, http.StatusOK, ride)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PayerID string `json:"payer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ride, amount, err := s.Coordinator.SettleRidePayment(mux.Vars(r)["ride_id"], req.PayerID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	observability.SettlementsTotal.Inc()
	s.Feed.Notify(ride.DriverID, fmt.Sprintf("Received %d tokens from %s.", amount, req.PayerID))
	s.publish("settled", req.PayerID, ride)
	writeJSON(w, http.StatusOK, map[string]any{"ride_id": ride.ID, "amount_charged": amount})
}

type creditRequest struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	balance, err := s.Ledger.Credit(req.AccountID, req.Amount)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	observability.TokensCredited.Add(float64(req.Amount))
	writeJSON(w, http.StatusOK, map[string]any{"account_id": req.AccountID, "balance": balance})
}

// handlePurchase charges the buyer through stripe (when configured) and
// records the resulting credit. Without a stripe key it degrades to a
// plain credit, trusting the external issuance authority.
func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var paymentID string
	if s.Stripe != nil {
		var err error
		paymentID, err = s.Stripe.Charge(r.Context(), req.Amount*100, s.currency, "")
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
	}
	balance, err := s.Ledger.Credit(req.AccountID, req.Amount)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	observability.TokensCredited.Add(float64(req.Amount))
	writeJSON(w, http.StatusOK, map[string]any{"account_id": req.AccountID, "balance": balance, "payment_id": paymentID})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PayerID string `json:"payer_id"`
		PayeeID string `json:"payee_id"`
		Amount  int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Ledger.Transfer(req.PayerID, req.PayeeID, req.Amount); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payer_balance": s.Ledger.GetBalance(req.PayerID)})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["account_id"]
	writeJSON(w, http.StatusOK, models.Account{OwnerID: id, Balance: s.Ledger.GetBalance(id)})
}

func (s *Server) handleDriverRewards(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Rewards.CheckDriverRewards(mux.Vars(r)["driver_id"])
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	msgs := s.Feed.For(mux.Vars(r)["user_id"])
	if msgs == nil {
		msgs = []string{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["user_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		s.logger.Warn("ws upgrade failed", "user_id", id, "error", err)
		return
	}
	s.WSReg.Add(id, conn)
}

// publish emits a ride event to kafka, best-effort.
func (s *Server) publish(eventType, actorID string, ride *models.Ride) {
	if s.Kafka == nil {
		return
	}
	ev := models.RideEvent{Type: eventType, RideID: ride.ID, ActorID: actorID, Ride: ride}
	if err := s.Kafka.PublishRideEvent(ev); err != nil {
		s.logger.Warn("event publish failed", "type", eventType, "ride_id", ride.ID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeFailure maps the typed business-rule rejections onto HTTP statuses.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrRideNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidCapacity), errors.Is(err, models.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	default:
		// remaining rejections are state conflicts: terminal rides, full
		// rides, duplicate joins/assignments, repeated settlement
		return http.StatusConflict
	}
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
