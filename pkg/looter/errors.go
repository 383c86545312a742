package looter

import (
	"errors"
	"fmt"

	"github.com/ninjalooter/ninjalooter-go/internal/auction"
	"github.com/ninjalooter/ninjalooter-go/internal/catalog"
	"github.com/ninjalooter/ninjalooter-go/internal/extract"
	"github.com/ninjalooter/ninjalooter-go/internal/snapshot"
)

// Sentinel errors returned by this package and the components it wires.
var (
	// ErrDuplicateAuction is returned when an item with the same name
	// already has an active auction.
	ErrDuplicateAuction = auction.ErrDuplicateAuction

	// ErrDuplicateOccurrence is returned when an occurrence ID is already
	// tracked.
	ErrDuplicateOccurrence = auction.ErrDuplicateOccurrence

	// ErrNotPending is returned when an occurrence is not pending.
	ErrNotPending = auction.ErrNotPending

	// ErrNotActive is returned when no active auction has the given ID.
	ErrNotActive = auction.ErrNotActive

	// ErrEmptyCatalog is returned when the catalog has no items.
	ErrEmptyCatalog = catalog.ErrEmptyCatalog

	// ErrNoPatterns is returned when an Extractor is built without names.
	ErrNoPatterns = extract.ErrNoPatterns

	// ErrNoSnapshot is returned when no state has been saved yet.
	ErrNoSnapshot = snapshot.ErrNoSnapshot

	// ErrSnapshotCorrupt is returned when saved state cannot be decoded.
	ErrSnapshotCorrupt = snapshot.ErrSnapshotCorrupt

	// ErrLogFileNotFound is returned when the log file to watch does not exist.
	ErrLogFileNotFound = errors.New("log file not found")
)

// ParseError wraps a malformed log line.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
