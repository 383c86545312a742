package auction

import "errors"

// Sentinel errors returned by the engine.
var (
	// ErrDuplicateAuction is returned when an item with the same name
	// already has an active auction.
	ErrDuplicateAuction = errors.New("an auction for this item is already active")

	// ErrNotPending is returned when an occurrence is not in the pending list.
	ErrNotPending = errors.New("occurrence is not pending")

	// ErrNotActive is returned when no active auction has the given ID.
	ErrNotActive = errors.New("auction is not active")

	// ErrDuplicateOccurrence is returned when an occurrence ID is already tracked.
	ErrDuplicateOccurrence = errors.New("occurrence is already tracked")

	// ErrInvalidState is returned by Restore for inconsistent collections.
	ErrInvalidState = errors.New("invalid engine state")
)
