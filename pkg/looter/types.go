package looter

import (
	"io"
	"log/slog"
	"time"

	"github.com/ninjalooter/ninjalooter-go/internal/auction"
	"github.com/ninjalooter/ninjalooter-go/internal/catalog"
	"github.com/ninjalooter/ninjalooter-go/internal/extract"
	"github.com/ninjalooter/ninjalooter-go/internal/logline"
	"github.com/ninjalooter/ninjalooter-go/pkg/looter/event"
)

// Re-exported types so callers can work with just this package.

// Event is an outcome event emitted by the engine.
type Event = event.Event

// EventType is the kind of an Event.
type EventType = event.Type

// Event type constants.
const (
	EventOccurrenceDetected = event.OccurrenceDetected
	EventOccurrenceIgnored  = event.OccurrenceIgnored
	EventAuctionStarted     = event.AuctionStarted
	EventPromotionRejected  = event.PromotionRejected
	EventSubmissionAccepted = event.SubmissionAccepted
	EventSubmissionRejected = event.SubmissionRejected
	EventAuctionResolved    = event.AuctionResolved
)

type (
	// Catalog is the item catalog.
	Catalog = catalog.Catalog

	// Extractor finds catalog item names in text.
	Extractor = extract.Extractor

	// Engine is the auction engine.
	Engine = auction.Engine

	// Auction is an active or resolved auction.
	Auction = auction.Auction

	// Occurrence is one reported drop of an item.
	Occurrence = auction.Occurrence

	// Line is a parsed game log line.
	Line = logline.Line

	// Leader is one current leader of an auction.
	Leader = auction.Leader

	// State is a full copy of the engine's collections.
	State = auction.State

	// EngineOption configures an Engine.
	EngineOption = auction.Option
)

// Auction kinds.
const (
	KindBid  = auction.KindBid
	KindRoll = auction.KindRoll
)

// NewEngine creates an auction engine with empty collections.
func NewEngine(opts ...EngineOption) *Engine {
	return auction.New(opts...)
}

// WithCatalog sets the catalog used for canonical names, minimum bids and
// class lists.
func WithCatalog(c *Catalog) EngineOption {
	return auction.WithCatalog(c)
}

// WithDefaultMinBid sets the minimum bid for items the catalog has no
// minimum for.
func WithDefaultMinBid(n int) EngineOption {
	return auction.WithDefaultMinBid(n)
}

// WithMinDuration sets the advisory auction duration.
func WithMinDuration(d time.Duration) EngineOption {
	return auction.WithMinDuration(d)
}

// WithRounds sets the roll round rotation.
func WithRounds(rounds []string) EngineOption {
	return auction.WithRounds(rounds)
}

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return auction.WithLogger(logger)
}

// Leaders returns the current leaders of a.
func Leaders(a Auction) []Leader {
	return auction.Leaders(a)
}

// Mention is one item name found in a chat line.
type Mention struct {
	Timestamp time.Time `json:"timestamp"`
	Speaker   string    `json:"speaker"`
	Channel   string    `json:"channel"`

	// Item is the catalog spelling when the text matches a catalog name,
	// otherwise the text itself.
	Item string `json:"item"`

	// Text is the matched substring as written in the line.
	Text string `json:"text"`

	RawLine string `json:"raw_line,omitempty"`
}

// LoadCatalog reads an item catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	return catalog.Load(path)
}

// ParseCatalog decodes a JSON item catalog.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	return catalog.Parse(r)
}

// NewExtractor compiles the catalog's names into an Extractor.
func NewExtractor(c *Catalog) (*Extractor, error) {
	return extract.New(c.Names())
}
