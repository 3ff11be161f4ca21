// Package assignment mutates ride membership: rider joins, driver
// assignment, and payment settlement. Joins and assignments race against
// the same ride record, so every mutation runs inside the registry's
// per-ride critical section.
package assignment

import (
	"github.com/example/ride-marketplace/internal/ledger"
	"github.com/example/ride-marketplace/internal/models"
	"github.com/example/ride-marketplace/internal/registry"
)

type Coordinator struct {
	Registry *registry.Registry
	Ledger   *ledger.Service
}

func New(reg *registry.Registry, led *ledger.Service) *Coordinator {
	return &Coordinator{Registry: reg, Ledger: led}
}

// RequestJoin adds a rider to an open ride. The capacity check and the
// insert happen under the same lock, so two riders cannot both take the
// last seat.
func (c *Coordinator) RequestJoin(rideID, riderID string) (*models.Ride, error) {
	return c.Registry.Update(rideID, func(r *models.Ride) error {
		return addRider(r, riderID)
	})
}

// AcceptRider lets the ride owner admit a rider directly.
func (c *Coordinator) AcceptRider(rideID, ownerID, riderID string) (*models.Ride, error) {
	return c.Registry.Update(rideID, func(r *models.Ride) error {
		if ownerID != r.OwnerID {
			return models.ErrNotOwner
		}
		return addRider(r, riderID)
	})
}

func addRider(r *models.Ride, riderID string) error {
	if r.Status != models.StatusOpen {
		return models.ErrRideNotOpen
	}
	if len(r.Riders) >= r.MaxRiders {
		return models.ErrRideFull
	}
	if riderID == r.OwnerID || r.HasRider(riderID) {
		return models.ErrAlreadyJoined
	}
	if r.DriverID != "" && riderID == r.DriverID {
		return models.ErrSelfJoin
	}
	r.Riders = append(r.Riders, riderID)
	return nil
}

// DriverJoin binds a driver to a ride exactly once. Re-assignment is
// impossible: once DriverID is set it never changes.
func (c *Coordinator) DriverJoin(rideID, driverID string) (*models.Ride, error) {
	return c.Registry.Update(rideID, func(r *models.Ride) error {
		if r.Status != models.StatusOpen {
			return models.ErrRideNotOpen
		}
		if driverID == r.OwnerID && r.IsDriverCreated {
			return models.ErrSelfAssignment
		}
		if r.DriverID != "" {
			return models.ErrDriverAlreadyAssigned
		}
		r.DriverID = driverID
		return nil
	})
}

// SettleRidePayment charges the payer their share and pays the driver.
// Runs under the ride lock, then takes the ledger lock inside; the ride
// lock is always acquired first, so ride/account locking cannot cycle.
func (c *Coordinator) SettleRidePayment(rideID, payerID string) (*models.Ride, int64, error) {
	var amount int64
	ride, err := c.Registry.Update(rideID, func(r *models.Ride) error {
		var err error
		amount, err = c.Ledger.SettleRidePayment(r, payerID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return ride, amount, nil
}
