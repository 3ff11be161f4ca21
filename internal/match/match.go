// Package match is the read-only query layer over the ride registry.
// Queries are pure functions of the current registry snapshot; nothing
// is cached between calls.
package match

import (
	"strings"

	"github.com/example/ride-marketplace/internal/models"
	"github.com/example/ride-marketplace/internal/registry"
)

type Engine struct {
	Registry *registry.Registry
}

func New(reg *registry.Registry) *Engine {
	return &Engine{Registry: reg}
}

// Search filters rides by case-insensitive substring on origin and
// destination. Without an explicit status filter only open rides are
// returned. Order follows the registry's insertion order.
func (e *Engine) Search(origin, destination string, status *models.RideStatus) []*models.Ride {
	origin = strings.ToLower(origin)
	destination = strings.ToLower(destination)

	var out []*models.Ride
	for _, r := range e.Registry.ListRides() {
		if origin != "" && !strings.Contains(strings.ToLower(r.Origin), origin) {
			continue
		}
		if destination != "" && !strings.Contains(strings.ToLower(r.Destination), destination) {
			continue
		}
		if status != nil {
			if r.Status != *status {
				continue
			}
		} else if r.Status != models.StatusOpen {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FindSimilar suggests carpool consolidation candidates: open rides to
// the same destination, owned by someone else, with at least one free
// seat. The ride itself is excluded.
func (e *Engine) FindSimilar(ride *models.Ride) []*models.Ride {
	dest := strings.ToLower(ride.Destination)

	var out []*models.Ride
	for _, r := range e.Registry.ListRides() {
		if r.ID == ride.ID || r.OwnerID == ride.OwnerID {
			continue
		}
		if r.Status != models.StatusOpen {
			continue
		}
		if strings.ToLower(r.Destination) != dest {
			continue
		}
		if len(r.Riders) >= r.MaxRiders {
			continue
		}
		out = append(out, r)
	}
	return out
}
