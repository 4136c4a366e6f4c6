package query

import "errors"

var (
	// ErrNotFound covers a missing or inactive bookable entity, or an entity
	// belonging to a different workspace.
	ErrNotFound = errors.New("bookable entity not found")

	// ErrInvalidInput covers malformed request values (bad date, non-positive
	// days).
	ErrInvalidInput = errors.New("invalid input")
)

// Reasons attached to successful empty-day results. "No slots" outcomes are
// legitimate business states, never errors.
const (
	ReasonOutsideBookingWindow = "date is outside the booking window"
	ReasonNoAvailability       = "no availability this day"
)
