package auction

import (
	"time"

	"github.com/google/uuid"
)

// Kind tags which variant an Auction is.
type Kind string

const (
	// KindBid is resolved by the highest unique bid at or above a minimum.
	KindBid Kind = "bid"

	// KindRoll is resolved by the highest random roll, one per bidder.
	KindRoll Kind = "roll"
)

// Valid reports whether k is a known auction kind.
func (k Kind) Valid() bool {
	return k == KindBid || k == KindRoll
}

// Occurrence is one observed report of an item in the text stream.
// Occurrences are told apart by ID, never by name.
type Occurrence struct {
	ID        string
	Name      string
	Reporter  string
	Timestamp time.Time

	// MinBidOverride replaces the catalog minimum when greater than zero.
	MinBidOverride int
}

// NewOccurrence creates an occurrence with a fresh identifier.
func NewOccurrence(name, reporter string, ts time.Time) Occurrence {
	return Occurrence{
		ID:        uuid.NewString(),
		Name:      name,
		Reporter:  reporter,
		Timestamp: ts.UTC(),
	}
}

// String formats the occurrence for logs.
func (o Occurrence) String() string {
	return o.Name + " (" + o.Reporter + " @ " + o.Timestamp.Format(time.RFC3339) + ")"
}

// BidDetails holds the state of a KindBid auction.
type BidDetails struct {
	// Group is the alliance or group label the call is addressed to.
	Group string

	// MinBid is the lowest acceptable amount.
	MinBid int

	// Bids maps amount to bidder. Amounts are unique and lower bids are kept.
	Bids map[int]string
}

// RollDetails holds the state of a KindRoll auction.
type RollDetails struct {
	// Round is the label players roll against, e.g. "333" for /random 333.
	Round string

	// Rolls maps bidder to rolled number, one entry per bidder.
	Rolls map[string]int
}

// Auction is a tagged union over the bid and roll variants.
// Exactly one of Bid or Roll is set, matching Kind.
type Auction struct {
	Kind      Kind
	Item      Occurrence
	Complete  bool
	StartTime time.Time

	Bid  *BidDetails
	Roll *RollDetails
}

// ID returns the identifier of the underlying occurrence.
func (a Auction) ID() string {
	return a.Item.ID
}

// Name returns the item name.
func (a Auction) Name() string {
	return a.Item.Name
}

// Clone returns a deep copy of a.
func (a Auction) Clone() Auction {
	out := a
	if a.Bid != nil {
		bid := *a.Bid
		bid.Bids = make(map[int]string, len(a.Bid.Bids))
		for amount, bidder := range a.Bid.Bids {
			bid.Bids[amount] = bidder
		}
		out.Bid = &bid
	}
	if a.Roll != nil {
		roll := *a.Roll
		roll.Rolls = make(map[string]int, len(a.Roll.Rolls))
		for bidder, n := range a.Roll.Rolls {
			roll.Rolls[bidder] = n
		}
		out.Roll = &roll
	}
	return out
}

// Leader is one current leader of an auction.
type Leader struct {
	Bidder string
	Amount int
}

// State is a full copy of the engine's collections.
type State struct {
	Pending []Occurrence
	Ignored []Occurrence
	Active  map[string]Auction
	History map[string]Auction

	// RoundCounter is how many round labels have been handed out.
	RoundCounter int
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		Pending:      append([]Occurrence(nil), s.Pending...),
		Ignored:      append([]Occurrence(nil), s.Ignored...),
		Active:       make(map[string]Auction, len(s.Active)),
		History:      make(map[string]Auction, len(s.History)),
		RoundCounter: s.RoundCounter,
	}
	for id, a := range s.Active {
		out.Active[id] = a.Clone()
	}
	for id, a := range s.History {
		out.History[id] = a.Clone()
	}
	return out
}
