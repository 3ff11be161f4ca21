package models

import "time"

// RideStatus is the lifecycle tag for a ride. Open is the only state
// that admits mutation; Cancelled and Completed are terminal.
type RideStatus string

const (
	StatusOpen      RideStatus = "open"
	StatusCancelled RideStatus = "cancelled"
	StatusCompleted RideStatus = "completed"
)

// Terminal reports whether no further transitions are allowed.
func (s RideStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Ride is a shareable trip record. Riders holds joined passengers only;
// the owner is not a member of their own ride's rider set.
type Ride struct {
	ID              string     `json:"ride_id"`
	OwnerID         string     `json:"owner_id"`
	Origin          string     `json:"origin"`
	Destination     string     `json:"destination"`
	MaxRiders       int        `json:"max_riders"`
	Riders          []string   `json:"riders"`
	DriverID        string     `json:"driver_id,omitempty"` // empty until assigned, then immutable
	Status          RideStatus `json:"status"`
	IsDriverCreated bool       `json:"is_driver_created"`
	Paid            []string   `json:"paid,omitempty"` // riders who already settled
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasRider reports membership in the riders set.
func (r *Ride) HasRider(id string) bool {
	for _, rd := range r.Riders {
		if rd == id {
			return true
		}
	}
	return false
}

// HasPaid reports whether a rider already settled their share.
func (r *Ride) HasPaid(id string) bool {
	for _, p := range r.Paid {
		if p == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand rides out of the
// registry without exposing the guarded record.
func (r *Ride) Clone() *Ride {
	cp := *r
	cp.Riders = append([]string(nil), r.Riders...)
	cp.Paid = append([]string(nil), r.Paid...)
	return &cp
}

// Account is a token balance owned by an identity handle.
type Account struct {
	OwnerID string `json:"owner_id"`
	Balance int64  `json:"balance"`
}

// Notification is a message addressed to a single user.
type Notification struct {
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// RideEvent is published to the event stream after a successful mutation.
type RideEvent struct {
	Type    string `json:"type"` // created, rider_joined, driver_joined, cancelled, completed, settled
	RideID  string `json:"ride_id"`
	ActorID string `json:"actor_id"`
	Ride    *Ride  `json:"ride,omitempty"`
}
