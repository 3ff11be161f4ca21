// Package registry is the single writer for ride records. All mutations
// funnel through one lock, which keeps per-ride operations linearizable
// and gives readers consistent snapshots. Rides are never deleted;
// cancellation and completion are terminal statuses, so historical
// queries (rewards, audit) stay valid.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/example/ride-marketplace/internal/models"
	"github.com/example/ride-marketplace/internal/storage"
)

type Registry struct {
	mu    sync.RWMutex
	rides map[string]*models.Ride
	order []string // insertion order for ListRides
	seq   uint64
	store storage.RideStore // optional write-through, best-effort
	now   func() time.Time
}

func New(store storage.RideStore) *Registry {
	return &Registry{
		rides: make(map[string]*models.Ride),
		store: store,
		now:   time.Now,
	}
}

// CreateRide allocates a new open ride. With autoAssignDriver the creator
// becomes the driver in the same step; there is no separate assignment.
func (g *Registry) CreateRide(ownerID, origin, destination string, maxRiders int, autoAssignDriver bool) (*models.Ride, error) {
	if maxRiders < 1 {
		return nil, models.ErrInvalidCapacity
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	now := g.now()
	r := &models.Ride{
		ID:              fmt.Sprintf("ride-%06d", g.seq),
		OwnerID:         ownerID,
		Origin:          origin,
		Destination:     destination,
		MaxRiders:       maxRiders,
		Status:          models.StatusOpen,
		IsDriverCreated: autoAssignDriver,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if autoAssignDriver {
		r.DriverID = ownerID
	}
	g.rides[r.ID] = r
	g.order = append(g.order, r.ID)
	if g.store != nil {
		_ = g.store.SaveRide(r.Clone())
	}
	return r.Clone(), nil
}

func (g *Registry) GetRide(id string) (*models.Ride, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rides[id]
	if !ok {
		return nil, models.ErrRideNotFound
	}
	return r.Clone(), nil
}

// ListRides returns copies of all rides in insertion order.
func (g *Registry) ListRides() []*models.Ride {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*models.Ride, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.rides[id].Clone())
	}
	return out
}

// CancelRide transitions an open ride to Cancelled. Only the owner may
// cancel. No refunds are issued to riders who already settled.
func (g *Registry) CancelRide(id, callerID string) (*models.Ride, error) {
	return g.terminate(id, callerID, models.StatusCancelled, false)
}

// CompleteRide transitions an open ride to Completed. The owner or the
// assigned driver may complete.
func (g *Registry) CompleteRide(id, callerID string) (*models.Ride, error) {
	return g.terminate(id, callerID, models.StatusCompleted, true)
}

func (g *Registry) terminate(id, callerID string, to models.RideStatus, driverMay bool) (*models.Ride, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rides[id]
	if !ok {
		return nil, models.ErrRideNotFound
	}
	allowed := callerID == r.OwnerID || (driverMay && r.DriverID != "" && callerID == r.DriverID)
	if !allowed {
		return nil, models.ErrNotOwner
	}
	if r.Status != models.StatusOpen {
		return nil, models.ErrAlreadyTerminal
	}
	r.Status = to
	r.UpdatedAt = g.now()
	if g.store != nil {
		_ = g.store.UpdateRide(r.Clone())
	}
	return r.Clone(), nil
}

// Update runs fn on the live ride under the registry lock. If fn returns
// an error the ride is left exactly as it was; on success the change is
// written through and a snapshot returned. This is the serialization
// point for joins, assignments and settlement.
func (g *Registry) Update(id string, fn func(r *models.Ride) error) (*models.Ride, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rides[id]
	if !ok {
		return nil, models.ErrRideNotFound
	}
	before := r.Clone()
	if err := fn(r); err != nil {
		*r = *before // fn must not leave partial effects
		return nil, err
	}
	r.UpdatedAt = g.now()
	if g.store != nil {
		_ = g.store.UpdateRide(r.Clone())
	}
	return r.Clone(), nil
}
