// Package auction implements the loot auction engine.
//
// The engine owns four collections of item occurrences: pending (awaiting a
// bid or roll decision), ignored, active auctions and historical auctions.
// An occurrence ID is in exactly one collection at a time; every transition
// moves it under a single lock so no reader sees it missing or duplicated.
package auction

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ninjalooter/ninjalooter-go/internal/catalog"
	"github.com/ninjalooter/ninjalooter-go/pkg/looter/event"
)

// DefaultMinDuration is how long an auction should stay open before it is
// called. Expiry is advisory only.
const DefaultMinDuration = 150 * time.Second

// DefaultRounds is the rotating pool of roll round labels.
var DefaultRounds = []string{"111", "222", "333", "444", "555", "666", "777", "888", "999"}

// subscriberBuffer is the default channel size for Subscribe.
const subscriberBuffer = 64

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog sets the item catalog used for names and minimum bids.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithDefaultMinBid sets the minimum bid for items the catalog does not price.
func WithDefaultMinBid(n int) Option {
	return func(e *Engine) {
		e.defaultMinBid = n
	}
}

// WithMinDuration sets the advisory auction duration.
func WithMinDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.minDuration = d
		}
	}
}

// WithRounds sets the pool of roll round labels. Empty pools are ignored.
func WithRounds(rounds []string) Option {
	return func(e *Engine) {
		if len(rounds) > 0 {
			e.rounds = append([]string(nil), rounds...)
		}
	}
}

// WithClock sets the time source. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the slog logger. If nil (default), logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine tracks occurrences and auctions. It is safe for concurrent use.
type Engine struct {
	catalog       *catalog.Catalog
	defaultMinBid int
	minDuration   time.Duration
	rounds        []string
	now           func() time.Time
	logger        *slog.Logger

	mu           sync.Mutex
	pending      []Occurrence
	ignored      []Occurrence
	active       map[string]*Auction
	history      map[string]*Auction
	roundCounter int
	subs         map[int]chan event.Event
	nextSub      int
}

// New creates an engine with empty collections.
func New(opts ...Option) *Engine {
	e := &Engine{
		minDuration: DefaultMinDuration,
		rounds:      DefaultRounds,
		now:         time.Now,
		active:      make(map[string]*Auction),
		history:     make(map[string]*Auction),
		subs:        make(map[int]chan event.Event),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// MinDuration returns the advisory auction duration.
func (e *Engine) MinDuration() time.Duration {
	return e.minDuration
}

// Catalog returns the engine's catalog, which may be nil.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Detect records a new occurrence of name reported by reporter and appends
// it to pending. The name is rewritten to its catalog spelling if known.
func (e *Engine) Detect(name, reporter string, ts time.Time) Occurrence {
	o := NewOccurrence(e.catalog.Canonical(name), reporter, ts)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = append(e.pending, o)
	e.logger.Info("item detected",
		slog.String("item", o.Name),
		slog.String("reporter", o.Reporter),
		slog.String("id", o.ID))
	e.emit(event.Event{
		Type:         event.OccurrenceDetected,
		OccurrenceID: o.ID,
		ItemName:     o.Name,
		Reporter:     o.Reporter,
	})
	return o
}

// AddPending appends an existing occurrence to pending.
// Returns ErrDuplicateOccurrence if its ID is already tracked.
func (e *Engine) AddPending(o Occurrence) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tracked(o.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateOccurrence, o.ID)
	}
	o.Timestamp = o.Timestamp.UTC()
	e.pending = append(e.pending, o)
	e.emit(event.Event{
		Type:         event.OccurrenceDetected,
		OccurrenceID: o.ID,
		ItemName:     o.Name,
		Reporter:     o.Reporter,
	})
	return nil
}

// Ignore moves a pending occurrence to the ignored list.
func (e *Engine) Ignore(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.pendingIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotPending, id)
	}
	o := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	e.ignored = append(e.ignored, o)

	e.logger.Info("item ignored", slog.String("item", o.Name), slog.String("id", o.ID))
	e.emit(event.Event{
		Type:         event.OccurrenceIgnored,
		OccurrenceID: o.ID,
		ItemName:     o.Name,
	})
	return nil
}

// PromoteToBid starts a bid auction for a pending occurrence.
// Returns ErrDuplicateAuction, without changing any collection, if an
// auction for an item of the same name is already active.
func (e *Engine) PromoteToBid(id, group string) (Auction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.promote(id, KindBid, func(o Occurrence) *Auction {
		return &Auction{
			Kind: KindBid,
			Bid: &BidDetails{
				Group:  group,
				MinBid: e.minBidFor(o),
				Bids:   make(map[int]string),
			},
		}
	})
}

// PromoteToRoll starts a roll auction for a pending occurrence and assigns
// it the next round label from the engine-wide rotation.
func (e *Engine) PromoteToRoll(id string) (Auction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.promote(id, KindRoll, func(Occurrence) *Auction {
		return &Auction{
			Kind: KindRoll,
			Roll: &RollDetails{
				Round: e.nextRound(),
				Rolls: make(map[string]int),
			},
		}
	})
}

// promote moves a pending occurrence into active. Callers hold e.mu.
func (e *Engine) promote(id string, kind Kind, build func(Occurrence) *Auction) (Auction, error) {
	idx := e.pendingIndex(id)
	if idx < 0 {
		e.rejectPromotion(id, "", kind, event.ReasonNotPending)
		return Auction{}, fmt.Errorf("%w: %s", ErrNotPending, id)
	}
	o := e.pending[idx]

	for _, a := range e.active {
		if a.Item.Name == o.Name {
			e.logger.Warn("auction already active for item, not starting another",
				slog.String("item", o.Name),
				slog.String("active_id", a.Item.ID))
			e.rejectPromotion(o.ID, o.Name, kind, event.ReasonDuplicateAuction)
			return Auction{}, fmt.Errorf("%w: %s", ErrDuplicateAuction, o.Name)
		}
	}

	a := build(o)
	a.Item = o
	a.StartTime = e.now().UTC()

	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	e.active[o.ID] = a

	e.logger.Info("auction started",
		slog.String("item", o.Name),
		slog.String("kind", string(kind)),
		slog.String("id", o.ID))
	e.emit(event.Event{
		Type:         event.AuctionStarted,
		OccurrenceID: o.ID,
		ItemName:     o.Name,
		Kind:         string(kind),
		Text:         e.callText(*a),
	})
	return a.Clone(), nil
}

func (e *Engine) rejectPromotion(id, name string, kind Kind, reason string) {
	e.emit(event.Event{
		Type:         event.PromotionRejected,
		OccurrenceID: id,
		ItemName:     name,
		Kind:         string(kind),
		Reason:       reason,
	})
}

// SubmitBid records a bid on an active bid auction. It returns false, and
// changes nothing, for a zero amount, an amount below the minimum, an amount
// not strictly above the current highest bid, or a completed auction.
func (e *Engine) SubmitBid(id string, amount int, bidder string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, reason := e.submissionTarget(id, KindBid)
	if a != nil {
		reason = checkBid(a.Bid, amount)
	}
	if reason != "" {
		e.rejectSubmission(id, a, KindBid, bidder, amount, reason)
		return false
	}

	a.Bid.Bids[amount] = bidder
	e.logger.Info("bid added",
		slog.String("item", a.Item.Name),
		slog.String("bidder", bidder),
		slog.Int("amount", amount))
	e.emit(event.Event{
		Type:         event.SubmissionAccepted,
		OccurrenceID: id,
		ItemName:     a.Item.Name,
		Kind:         string(KindBid),
		Bidder:       bidder,
		Amount:       amount,
		Text:         e.callText(*a),
	})
	return true
}

func checkBid(b *BidDetails, amount int) string {
	if amount <= 0 {
		return event.ReasonNoAmount
	}
	if amount < b.MinBid {
		return event.ReasonBelowMinimum
	}
	for existing := range b.Bids {
		if amount <= existing {
			return event.ReasonNotHighest
		}
	}
	return ""
}

// SubmitRoll records a roll on an active roll auction. It returns false, and
// changes nothing, for a zero roll, a second roll by the same bidder, or a
// completed auction.
func (e *Engine) SubmitRoll(id string, amount int, bidder string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, reason := e.submissionTarget(id, KindRoll)
	if a != nil {
		switch _, rolled := a.Roll.Rolls[bidder]; {
		case amount <= 0:
			reason = event.ReasonNoAmount
		case rolled:
			reason = event.ReasonDuplicateRoll
		}
	}
	if reason != "" {
		e.rejectSubmission(id, a, KindRoll, bidder, amount, reason)
		return false
	}

	a.Roll.Rolls[bidder] = amount
	e.logger.Info("roll accepted",
		slog.String("item", a.Item.Name),
		slog.String("bidder", bidder),
		slog.Int("amount", amount))
	e.emit(event.Event{
		Type:         event.SubmissionAccepted,
		OccurrenceID: id,
		ItemName:     a.Item.Name,
		Kind:         string(KindRoll),
		Bidder:       bidder,
		Amount:       amount,
	})
	return true
}

// submissionTarget finds the active auction of the given kind for a
// submission, or returns a rejection reason. Callers hold e.mu.
func (e *Engine) submissionTarget(id string, kind Kind) (*Auction, string) {
	if a, ok := e.active[id]; ok && a.Kind == kind && !a.Complete {
		return a, ""
	}
	if _, ok := e.history[id]; ok {
		return nil, event.ReasonComplete
	}
	return nil, event.ReasonNotActive
}

func (e *Engine) rejectSubmission(id string, a *Auction, kind Kind, bidder string, amount int, reason string) {
	name := ""
	if a != nil {
		name = a.Item.Name
	} else if h, ok := e.history[id]; ok {
		name = h.Item.Name
	}
	e.logger.Info("submission rejected",
		slog.String("item", name),
		slog.String("kind", string(kind)),
		slog.String("bidder", bidder),
		slog.Int("amount", amount),
		slog.String("reason", reason))
	e.emit(event.Event{
		Type:         event.SubmissionRejected,
		OccurrenceID: id,
		ItemName:     name,
		Kind:         string(kind),
		Bidder:       bidder,
		Amount:       amount,
		Reason:       reason,
	})
}

// Resolve marks an active auction complete and moves it to history.
func (e *Engine) Resolve(id string) (Auction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.active[id]
	if !ok {
		return Auction{}, fmt.Errorf("%w: %s", ErrNotActive, id)
	}
	a.Complete = true
	delete(e.active, id)
	e.history[id] = a

	leaders := Leaders(*a)
	winners := make([]string, len(leaders))
	for i, l := range leaders {
		winners[i] = l.Bidder
	}
	e.logger.Info("auction resolved",
		slog.String("item", a.Item.Name),
		slog.String("winners", HighestPlayers(*a)),
		slog.String("amount", HighestNumber(*a)))
	e.emit(event.Event{
		Type:         event.AuctionResolved,
		OccurrenceID: id,
		ItemName:     a.Item.Name,
		Kind:         string(a.Kind),
		Winners:      winners,
		Text:         WinText(*a, e.remaining(*a)),
	})
	return a.Clone(), nil
}

// Pending returns a copy of the pending occurrences in arrival order.
func (e *Engine) Pending() []Occurrence {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Occurrence(nil), e.pending...)
}

// Ignored returns a copy of the ignored occurrences.
func (e *Engine) Ignored() []Occurrence {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Occurrence(nil), e.ignored...)
}

// Active returns copies of the active auctions, oldest first.
func (e *Engine) Active() []Auction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sortedAuctions(e.active)
}

// History returns copies of the resolved auctions, oldest first.
func (e *Engine) History() []Auction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sortedAuctions(e.history)
}

// Lookup returns the active or historical auction with the given ID.
func (e *Engine) Lookup(id string) (Auction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if a, ok := e.active[id]; ok {
		return a.Clone(), true
	}
	if a, ok := e.history[id]; ok {
		return a.Clone(), true
	}
	return Auction{}, false
}

// ActiveByName returns the active auction for an item name, matched exactly.
func (e *Engine) ActiveByName(name string) (Auction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range e.active {
		if a.Item.Name == name {
			return a.Clone(), true
		}
	}
	return Auction{}, false
}

// ActiveByRound returns the active roll auction using round label.
func (e *Engine) ActiveByRound(round string) (Auction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range sortedAuctions(e.active) {
		if a.Kind == KindRoll && a.Roll.Round == round {
			return a, true
		}
	}
	return Auction{}, false
}

// Announcement returns the current broadcast text for an auction: the bid or
// roll call while active, the win text once resolved.
func (e *Engine) Announcement(id string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if a, ok := e.active[id]; ok {
		return e.callText(*a), nil
	}
	if a, ok := e.history[id]; ok {
		return WinText(*a, e.remaining(*a)), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotActive, id)
}

// TimeRemaining returns the advisory time left on an auction.
func (e *Engine) TimeRemaining(a Auction) time.Duration {
	return e.remaining(a)
}

// Snapshot returns a deep copy of all collections.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := State{
		Pending:      append([]Occurrence(nil), e.pending...),
		Ignored:      append([]Occurrence(nil), e.ignored...),
		Active:       make(map[string]Auction, len(e.active)),
		History:      make(map[string]Auction, len(e.history)),
		RoundCounter: e.roundCounter,
	}
	for id, a := range e.active {
		s.Active[id] = a.Clone()
	}
	for id, a := range e.history {
		s.History[id] = a.Clone()
	}
	return s
}

// Restore replaces all collections with s. The state is validated first;
// on error the engine is left unchanged.
func (e *Engine) Restore(s State) error {
	if err := Validate(s); err != nil {
		return err
	}
	s = s.Clone()

	active := make(map[string]*Auction, len(s.Active))
	for id, a := range s.Active {
		a := a
		active[id] = &a
	}
	history := make(map[string]*Auction, len(s.History))
	for id, a := range s.History {
		a := a
		history[id] = &a
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = s.Pending
	e.ignored = s.Ignored
	e.active = active
	e.history = history
	e.roundCounter = s.RoundCounter

	e.logger.Info("state restored",
		slog.Int("pending", len(e.pending)),
		slog.Int("ignored", len(e.ignored)),
		slog.Int("active", len(e.active)),
		slog.Int("history", len(e.history)))
	return nil
}

// Validate checks that every occurrence ID appears in exactly one
// collection and that every auction is a well-formed variant.
func Validate(s State) error {
	seen := make(map[string]string)
	mark := func(id, where string) error {
		if id == "" {
			return fmt.Errorf("%w: empty occurrence id in %s", ErrInvalidState, where)
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("%w: occurrence %s in both %s and %s", ErrInvalidState, id, prev, where)
		}
		seen[id] = where
		return nil
	}
	for _, o := range s.Pending {
		if err := mark(o.ID, "pending"); err != nil {
			return err
		}
	}
	for _, o := range s.Ignored {
		if err := mark(o.ID, "ignored"); err != nil {
			return err
		}
	}
	for _, group := range []struct {
		name string
		m    map[string]Auction
	}{{"active", s.Active}, {"history", s.History}} {
		for id, a := range group.m {
			if id != a.Item.ID {
				return fmt.Errorf("%w: %s key %s holds auction %s", ErrInvalidState, group.name, id, a.Item.ID)
			}
			if err := validateVariant(a); err != nil {
				return err
			}
			if err := mark(id, group.name); err != nil {
				return err
			}
		}
	}
	if s.RoundCounter < 0 {
		return fmt.Errorf("%w: negative round counter", ErrInvalidState)
	}
	return nil
}

func validateVariant(a Auction) error {
	switch a.Kind {
	case KindBid:
		if a.Bid == nil || a.Roll != nil {
			return fmt.Errorf("%w: bid auction %s has wrong details", ErrInvalidState, a.Item.ID)
		}
	case KindRoll:
		if a.Roll == nil || a.Bid != nil {
			return fmt.Errorf("%w: roll auction %s has wrong details", ErrInvalidState, a.Item.ID)
		}
	default:
		return fmt.Errorf("%w: auction %s has unknown kind %q", ErrInvalidState, a.Item.ID, a.Kind)
	}
	return nil
}

// Subscribe returns a channel of engine events and a function that
// unsubscribes and closes it. Events are dropped when the channel is full.
// buffer <= 0 uses a default size.
func (e *Engine) Subscribe(buffer int) (<-chan event.Event, func()) {
	if buffer <= 0 {
		buffer = subscriberBuffer
	}
	ch := make(chan event.Event, buffer)

	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
			close(ch)
		})
	}
}

// emit sends ev to every subscriber without blocking. Callers hold e.mu.
func (e *Engine) emit(ev event.Event) {
	ev.Timestamp = e.now().UTC()
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			// Drop event if subscriber is full
		}
	}
}

// tracked reports whether id is in any collection. Callers hold e.mu.
func (e *Engine) tracked(id string) bool {
	if e.pendingIndex(id) >= 0 {
		return true
	}
	for _, o := range e.ignored {
		if o.ID == id {
			return true
		}
	}
	_, active := e.active[id]
	_, history := e.history[id]
	return active || history
}

func (e *Engine) pendingIndex(id string) int {
	for i, o := range e.pending {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// nextRound hands out the next round label. Callers hold e.mu.
func (e *Engine) nextRound() string {
	round := e.rounds[e.roundCounter%len(e.rounds)]
	e.roundCounter++
	return round
}

// minBidFor picks the occurrence override, then the catalog minimum, then
// the engine default.
func (e *Engine) minBidFor(o Occurrence) int {
	if o.MinBidOverride > 0 {
		return o.MinBidOverride
	}
	if item, ok := e.catalog.Lookup(o.Name); ok && item.MinBid != nil {
		return *item.MinBid
	}
	return e.defaultMinBid
}

func (e *Engine) remaining(a Auction) time.Duration {
	return TimeRemaining(a.StartTime, e.now(), e.minDuration)
}

func (e *Engine) callText(a Auction) string {
	classes := ""
	if item, ok := e.catalog.Lookup(a.Item.Name); ok {
		classes = item.ClassList()
	}
	return CallText(a, classes, e.remaining(a))
}

func sortedAuctions(m map[string]*Auction) []Auction {
	out := make([]Auction, 0, len(m))
	for _, a := range m {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}
