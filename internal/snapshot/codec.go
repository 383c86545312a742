// Package snapshot persists the auction engine's collections.
//
// A snapshot is one JSON document. Every occurrence and auction inside it is
// a record object carrying a "json_type" discriminator next to its own
// fields, so each record is rebuilt as the right variant without outside
// hints. Decoding is all or nothing: an unknown discriminator or a record
// whose fields do not parse fails the whole document with ErrSnapshotCorrupt.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ninjalooter/ninjalooter-go/internal/auction"
)

// Version is the document format written by Encode.
const Version = 1

// Record discriminators.
const (
	TypeOccurrence = "item_occurrence"
	TypeBidAuction = "bid_auction"
	TypeRoll       = "roll_auction"
)

var (
	// ErrNoSnapshot is returned by a Store when no state has been saved yet.
	ErrNoSnapshot = errors.New("no saved snapshot")

	// ErrSnapshotCorrupt is returned when saved state cannot be decoded.
	ErrSnapshotCorrupt = errors.New("snapshot is corrupt")
)

// Snapshot is the durable content: engine state plus auxiliary collections
// owned by other components, kept as opaque JSON values.
type Snapshot struct {
	State auction.State
	Aux   map[string]json.RawMessage
}

type document struct {
	Version      int                        `json:"version"`
	Pending      []json.RawMessage          `json:"pending"`
	Ignored      []json.RawMessage          `json:"ignored"`
	Active       map[string]json.RawMessage `json:"active"`
	Historical   map[string]json.RawMessage `json:"historical"`
	RoundCounter int                        `json:"round_counter"`
	Aux          map[string]json.RawMessage `json:"aux,omitempty"`
}

type tag struct {
	JSONType string `json:"json_type"`
}

type occurrenceRecord struct {
	JSONType       string `json:"json_type"`
	UUID           string `json:"uuid"`
	Name           string `json:"name"`
	Reporter       string `json:"reporter"`
	Timestamp      string `json:"timestamp"`
	MinDKPOverride int    `json:"min_dkp_override,omitempty"`
}

type bidAuctionRecord struct {
	JSONType  string            `json:"json_type"`
	Item      json.RawMessage   `json:"item"`
	Alliance  string            `json:"alliance"`
	MinDKP    int               `json:"min_dkp"`
	Bids      map[string]string `json:"bids"`
	Complete  bool              `json:"complete"`
	StartTime string            `json:"start_time"`
}

type rollAuctionRecord struct {
	JSONType  string          `json:"json_type"`
	Item      json.RawMessage `json:"item"`
	Number    string          `json:"number"`
	Rolls     map[string]int  `json:"rolls"`
	Complete  bool            `json:"complete"`
	StartTime string          `json:"start_time"`
}

// Encode serializes s. Timestamps are written as RFC 3339 in UTC.
func Encode(s Snapshot) ([]byte, error) {
	doc := document{
		Version:      Version,
		Pending:      make([]json.RawMessage, 0, len(s.State.Pending)),
		Ignored:      make([]json.RawMessage, 0, len(s.State.Ignored)),
		Active:       make(map[string]json.RawMessage, len(s.State.Active)),
		Historical:   make(map[string]json.RawMessage, len(s.State.History)),
		RoundCounter: s.State.RoundCounter,
		Aux:          s.Aux,
	}

	for _, o := range s.State.Pending {
		raw, err := encodeOccurrence(o)
		if err != nil {
			return nil, err
		}
		doc.Pending = append(doc.Pending, raw)
	}
	for _, o := range s.State.Ignored {
		raw, err := encodeOccurrence(o)
		if err != nil {
			return nil, err
		}
		doc.Ignored = append(doc.Ignored, raw)
	}
	for id, a := range s.State.Active {
		raw, err := encodeAuction(a)
		if err != nil {
			return nil, fmt.Errorf("encode active auction %s: %w", id, err)
		}
		doc.Active[id] = raw
	}
	for id, a := range s.State.History {
		raw, err := encodeAuction(a)
		if err != nil {
			return nil, fmt.Errorf("encode historical auction %s: %w", id, err)
		}
		doc.Historical[id] = raw
	}

	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses a document written by Encode. The decoded state is
// validated; any failure is reported as ErrSnapshotCorrupt.
func Decode(data []byte) (Snapshot, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, corrupt("document", err)
	}
	if doc.Version > Version {
		return Snapshot{}, fmt.Errorf("%w: unsupported version %d", ErrSnapshotCorrupt, doc.Version)
	}

	state := auction.State{
		Active:       make(map[string]auction.Auction, len(doc.Active)),
		History:      make(map[string]auction.Auction, len(doc.Historical)),
		RoundCounter: doc.RoundCounter,
	}

	var err error
	if state.Pending, err = decodeOccurrences(doc.Pending, "pending"); err != nil {
		return Snapshot{}, err
	}
	if state.Ignored, err = decodeOccurrences(doc.Ignored, "ignored"); err != nil {
		return Snapshot{}, err
	}
	if err := decodeAuctions(doc.Active, state.Active, "active"); err != nil {
		return Snapshot{}, err
	}
	if err := decodeAuctions(doc.Historical, state.History, "historical"); err != nil {
		return Snapshot{}, err
	}
	if err := auction.Validate(state); err != nil {
		return Snapshot{}, corrupt("state", err)
	}

	aux, err := compactAux(doc.Aux)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{State: state, Aux: aux}, nil
}

// decodeRecord reads the discriminator of raw and decodes the record as
// that type. The set of record types is closed.
func decodeRecord(raw json.RawMessage) (any, error) {
	var t tag
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	switch t.JSONType {
	case TypeOccurrence:
		return decodeOccurrence(raw)
	case TypeBidAuction:
		return decodeBidAuction(raw)
	case TypeRoll:
		return decodeRollAuction(raw)
	default:
		return nil, fmt.Errorf("unknown record type %q", t.JSONType)
	}
}

func decodeOccurrences(raws []json.RawMessage, where string) ([]auction.Occurrence, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]auction.Occurrence, 0, len(raws))
	for i, raw := range raws {
		v, err := decodeRecord(raw)
		if err != nil {
			return nil, corrupt(fmt.Sprintf("%s[%d]", where, i), err)
		}
		o, ok := v.(auction.Occurrence)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not an occurrence", ErrSnapshotCorrupt, where, i)
		}
		out = append(out, o)
	}
	return out, nil
}

func decodeAuctions(raws map[string]json.RawMessage, dst map[string]auction.Auction, where string) error {
	for id, raw := range raws {
		v, err := decodeRecord(raw)
		if err != nil {
			return corrupt(where+"["+id+"]", err)
		}
		a, ok := v.(auction.Auction)
		if !ok {
			return fmt.Errorf("%w: %s[%s] is not an auction", ErrSnapshotCorrupt, where, id)
		}
		dst[id] = a
	}
	return nil
}

func encodeOccurrence(o auction.Occurrence) (json.RawMessage, error) {
	return json.Marshal(occurrenceRecord{
		JSONType:       TypeOccurrence,
		UUID:           o.ID,
		Name:           o.Name,
		Reporter:       o.Reporter,
		Timestamp:      formatTime(o.Timestamp),
		MinDKPOverride: o.MinBidOverride,
	})
}

func decodeOccurrence(raw json.RawMessage) (auction.Occurrence, error) {
	var r occurrenceRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return auction.Occurrence{}, err
	}
	ts, err := parseTime(r.Timestamp)
	if err != nil {
		return auction.Occurrence{}, err
	}
	return auction.Occurrence{
		ID:             r.UUID,
		Name:           r.Name,
		Reporter:       r.Reporter,
		Timestamp:      ts,
		MinBidOverride: r.MinDKPOverride,
	}, nil
}

func encodeAuction(a auction.Auction) (json.RawMessage, error) {
	item, err := encodeOccurrence(a.Item)
	if err != nil {
		return nil, err
	}

	switch a.Kind {
	case auction.KindBid:
		if a.Bid == nil {
			return nil, errors.New("bid auction without bid details")
		}
		bids := make(map[string]string, len(a.Bid.Bids))
		for amount, bidder := range a.Bid.Bids {
			bids[strconv.Itoa(amount)] = bidder
		}
		return json.Marshal(bidAuctionRecord{
			JSONType:  TypeBidAuction,
			Item:      item,
			Alliance:  a.Bid.Group,
			MinDKP:    a.Bid.MinBid,
			Bids:      bids,
			Complete:  a.Complete,
			StartTime: formatTime(a.StartTime),
		})

	case auction.KindRoll:
		if a.Roll == nil {
			return nil, errors.New("roll auction without roll details")
		}
		rolls := a.Roll.Rolls
		if rolls == nil {
			rolls = map[string]int{}
		}
		return json.Marshal(rollAuctionRecord{
			JSONType:  TypeRoll,
			Item:      item,
			Number:    a.Roll.Round,
			Rolls:     rolls,
			Complete:  a.Complete,
			StartTime: formatTime(a.StartTime),
		})
	}
	return nil, fmt.Errorf("unknown auction kind %q", a.Kind)
}

func decodeBidAuction(raw json.RawMessage) (auction.Auction, error) {
	var r bidAuctionRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return auction.Auction{}, err
	}
	item, err := decodeItem(r.Item)
	if err != nil {
		return auction.Auction{}, err
	}
	start, err := parseTime(r.StartTime)
	if err != nil {
		return auction.Auction{}, err
	}
	bids := make(map[int]string, len(r.Bids))
	for key, bidder := range r.Bids {
		amount, err := strconv.Atoi(key)
		if err != nil {
			return auction.Auction{}, fmt.Errorf("bid amount %q: %w", key, err)
		}
		bids[amount] = bidder
	}
	return auction.Auction{
		Kind:      auction.KindBid,
		Item:      item,
		Complete:  r.Complete,
		StartTime: start,
		Bid: &auction.BidDetails{
			Group:  r.Alliance,
			MinBid: r.MinDKP,
			Bids:   bids,
		},
	}, nil
}

func decodeRollAuction(raw json.RawMessage) (auction.Auction, error) {
	var r rollAuctionRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return auction.Auction{}, err
	}
	item, err := decodeItem(r.Item)
	if err != nil {
		return auction.Auction{}, err
	}
	start, err := parseTime(r.StartTime)
	if err != nil {
		return auction.Auction{}, err
	}
	rolls := make(map[string]int, len(r.Rolls))
	for bidder, n := range r.Rolls {
		rolls[bidder] = n
	}
	return auction.Auction{
		Kind:      auction.KindRoll,
		Item:      item,
		Complete:  r.Complete,
		StartTime: start,
		Roll: &auction.RollDetails{
			Round: r.Number,
			Rolls: rolls,
		},
	}, nil
}

// decodeItem decodes the nested occurrence of an auction record, which is
// itself a tagged record.
func decodeItem(raw json.RawMessage) (auction.Occurrence, error) {
	if len(raw) == 0 {
		return auction.Occurrence{}, errors.New("auction record has no item")
	}
	v, err := decodeRecord(raw)
	if err != nil {
		return auction.Occurrence{}, fmt.Errorf("item: %w", err)
	}
	o, ok := v.(auction.Occurrence)
	if !ok {
		return auction.Occurrence{}, errors.New("item is not an occurrence")
	}
	return o, nil
}

func compactAux(aux map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	if len(aux) == 0 {
		return nil, nil
	}
	out := make(map[string]json.RawMessage, len(aux))
	for key, raw := range aux {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, corrupt("aux["+key+"]", err)
		}
		out[key] = buf.Bytes()
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func corrupt(where string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSnapshotCorrupt, where, err)
}
