// Package event defines the outcome events emitted by the auction engine.
//
// This package is separated from the main looter package to avoid import
// cycles between pkg/looter and internal/auction.
package event

import (
	"sort"
	"strings"
	"time"
)

// Type represents the kind of outcome event.
type Type string

const (
	// OccurrenceDetected indicates an item mention was added to pending.
	OccurrenceDetected Type = "occurrence_detected"

	// OccurrenceIgnored indicates a pending occurrence was dismissed.
	OccurrenceIgnored Type = "occurrence_ignored"

	// AuctionStarted indicates a pending occurrence became an active auction.
	AuctionStarted Type = "auction_started"

	// PromotionRejected indicates an auction could not be started.
	PromotionRejected Type = "promotion_rejected"

	// SubmissionAccepted indicates a bid or roll was recorded.
	SubmissionAccepted Type = "submission_accepted"

	// SubmissionRejected indicates a bid or roll was refused.
	SubmissionRejected Type = "submission_rejected"

	// AuctionResolved indicates an auction moved to history.
	AuctionResolved Type = "auction_resolved"
)

// allTypes is the canonical list of all event types.
var allTypes = []Type{
	OccurrenceDetected,
	OccurrenceIgnored,
	AuctionStarted,
	PromotionRejected,
	SubmissionAccepted,
	SubmissionRejected,
	AuctionResolved,
}

// TypeNames returns a sorted list of all valid event type names.
func TypeNames() []string {
	names := make([]string, len(allTypes))
	for i, t := range allTypes {
		names[i] = string(t)
	}
	sort.Strings(names)
	return names
}

var typeByName = func() map[string]Type {
	m := make(map[string]Type, len(allTypes))
	for _, t := range allTypes {
		m[string(t)] = t
	}
	return m
}()

// ParseType converts a string to Type if valid.
// It is case-insensitive and trims leading/trailing whitespace.
func ParseType(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	t, ok := typeByName[name]
	return t, ok
}

// Rejection reasons carried in Event.Reason.
const (
	ReasonNoAmount         = "no_amount"
	ReasonBelowMinimum     = "below_minimum"
	ReasonNotHighest       = "not_highest"
	ReasonDuplicateRoll    = "duplicate_roll"
	ReasonComplete         = "auction_complete"
	ReasonNotActive        = "not_active"
	ReasonNotPending       = "not_pending"
	ReasonDuplicateAuction = "duplicate_auction"
)

// Event is one engine outcome.
type Event struct {
	// Type is the event type.
	Type Type `json:"type"`

	// Timestamp is when the engine produced the event.
	Timestamp time.Time `json:"timestamp"`

	// OccurrenceID identifies the item occurrence (and its auction).
	OccurrenceID string `json:"occurrence_id"`

	// ItemName is the occurrence's item name.
	ItemName string `json:"item_name"`

	// Reporter is who reported the item (OccurrenceDetected only).
	Reporter string `json:"reporter,omitempty"`

	// Kind is "bid" or "roll" for auction events.
	Kind string `json:"kind,omitempty"`

	// Bidder is the submitter for submission events.
	Bidder string `json:"bidder,omitempty"`

	// Amount is the submitted bid or roll.
	Amount int `json:"amount,omitempty"`

	// Reason explains a rejection.
	Reason string `json:"reason,omitempty"`

	// Winners lists the leader names at resolution.
	Winners []string `json:"winners,omitempty"`

	// Text is the announcement for the broadcast channel, if any.
	Text string `json:"text,omitempty"`
}
