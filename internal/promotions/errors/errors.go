package errors

import "errors"

var (
	ErrNotFound = errors.New("promotion request not found")

	ErrInvalidID = errors.New("invalid ID format")

	ErrListingNotFound = errors.New("listing not found")

	// ErrNotPending is returned by a conditional decision update that matched
	// no pending request.
	ErrNotPending = errors.New("promotion request is not pending")

	ErrLockHeld = errors.New("listing lock is held by another decision")
)
