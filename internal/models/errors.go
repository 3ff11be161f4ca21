package models

import "errors"

// Business-rule rejections. Every failed mutation leaves state untouched;
// none of these are retried internally. Handlers map them to HTTP statuses.
var (
	ErrRideNotFound = errors.New("ride not found")

	ErrInvalidCapacity = errors.New("max riders must be at least 1")
	ErrNotOwner        = errors.New("caller is not the ride owner")
	ErrAlreadyTerminal = errors.New("ride is already cancelled or completed")

	ErrRideNotOpen           = errors.New("ride is not open")
	ErrRideFull              = errors.New("ride is full")
	ErrAlreadyJoined         = errors.New("already part of this ride")
	ErrSelfJoin              = errors.New("driver cannot join as a rider")
	ErrDriverAlreadyAssigned = errors.New("ride already has a driver")
	ErrSelfAssignment        = errors.New("cannot drive a ride you created as driver")

	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSelfTransfer        = errors.New("payer and payee are the same account")
	ErrSupplyExhausted     = errors.New("token supply exhausted")

	ErrNoDriverAssigned = errors.New("no driver assigned")
	ErrNotARider        = errors.New("payer is not a rider on this ride")
	ErrAlreadySettled   = errors.New("rider already settled this ride")
)
