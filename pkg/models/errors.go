package models

import "errors"

// Domain errors surfaced by repositories, the reservation engine, the seating
// controller and the session layer. The wire layer maps these onto response
// envelopes; the error text is what a terminal displays.
var (
	// Lookup errors
	ErrUserNotFound  = errors.New("user not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrTableNotFound = errors.New("table not found")
	ErrHoursNotFound = errors.New("no opening hours configured for this date")

	// Conflict errors
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrDuplicateMemberCode = errors.New("membership code already in use")
	ErrDuplicateTable      = errors.New("table id already in use")
	ErrAlreadyOnline       = errors.New("user is already logged in elsewhere")
	ErrAlreadyActive       = errors.New("an active order already exists for this contact today")

	// Credential errors
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("operation not permitted")

	// Reservation validation errors
	ErrOutsideHours = errors.New("requested time is outside opening hours")
	ErrTooSoon      = errors.New("reservations require at least one hour notice")
	ErrTooFar       = errors.New("reservations open at most 31 days ahead")
	ErrNoTables     = errors.New("no table can hold a party of this size")

	// Seating errors
	ErrWrongState     = errors.New("order is not in a valid state for this operation")
	ErrOutsideWindow  = errors.New("arrival is outside the allowed window")
	ErrNoFreeTable    = errors.New("no free table is currently available")
	ErrNotLeavable    = errors.New("order is not waiting and cannot leave the waitlist")
	ErrTableOccupied  = errors.New("table is occupied")
	ErrMissingContact = errors.New("phone or email contact is required")
)
