package looter

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/ninjalooter/ninjalooter-go/internal/auction"
	"github.com/ninjalooter/ninjalooter-go/internal/logline"
)

// Action is what a Processor did with a line.
type Action string

const (
	// ActionNone means the line changed nothing.
	ActionNone Action = ""

	// ActionDetect means the line reported items as new occurrences.
	ActionDetect Action = "detect"

	// ActionBid means the line was a bid on an active bid auction.
	ActionBid Action = "bid"

	// ActionRoll means the line completed a roll for an active roll auction.
	ActionRoll Action = "roll"
)

// Result describes how one line was routed.
type Result struct {
	Line        *Line
	Action      Action
	Mentions    []Mention
	Occurrences []Occurrence

	// Submission fields, set for ActionBid and ActionRoll.
	AuctionID string
	Bidder    string
	Amount    int
	Accepted  bool
}

// Processor routes parsed log lines into an auction engine:
//
//   - Guild chat from another player naming an item that has an active bid
//     auction is a bid by the speaker, for the first number in the message
//     that is not part of the item name.
//   - Any other chat from another player naming catalog items reports each
//     item as a new pending occurrence.
//   - A Magic Die header line followed by its result line is a roll by the
//     header's player on the active roll auction whose round equals the top
//     of the rolled range.
//
// Lines typed by the log's owner never change the engine.
// A Processor is safe for concurrent use, but roll pairing assumes lines
// arrive in log order.
type Processor struct {
	engine    *auction.Engine
	extractor *Extractor
	cfg       *processorConfig
	logger    *slog.Logger

	mu     sync.Mutex
	roller string
}

// NewProcessor returns a processor feeding engine, matching items with x.
func NewProcessor(engine *Engine, x *Extractor, opts ...ProcessorOption) *Processor {
	cfg := applyProcessorOptions(opts)
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{
		engine:    engine,
		extractor: x,
		cfg:       cfg,
		logger:    logger,
	}
}

// Engine returns the engine lines are routed into.
func (p *Processor) Engine() *Engine {
	return p.engine
}

// Parse parses raw in the processor's time zone. Malformed lines are
// returned as *ParseError.
func (p *Processor) Parse(raw string) (*Line, error) {
	l, err := logline.ParseIn(raw, p.cfg.location)
	if err != nil {
		return nil, &ParseError{Line: raw, Err: err}
	}
	return l, nil
}

// Process parses and routes one raw log line. Lines without a timestamp
// prefix return a zero Result.
func (p *Processor) Process(raw string) (Result, error) {
	l, err := p.Parse(raw)
	if err != nil || l == nil {
		return Result{}, err
	}
	return p.Route(l, raw), nil
}

// Route applies one parsed line to the engine. raw is kept on mentions
// when the processor was built WithProcessorRawLine.
func (p *Processor) Route(l *Line, raw string) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := Result{Line: l}

	// A roll result only counts directly after its header.
	roller := p.roller
	p.roller = ""

	switch l.Kind {
	case logline.KindRollHeader:
		p.roller = l.Speaker

	case logline.KindRollResult:
		if roller == "" {
			return res
		}
		return p.submitRoll(res, roller, l)

	case logline.KindChat:
		if l.FromLocalPlayer() {
			return res
		}
		ms, spans := mentions(p.extractor, p.engine.Catalog(), l)
		if len(ms) == 0 {
			return res
		}
		if p.cfg.includeRawLine {
			for i := range ms {
				ms[i].RawLine = raw
			}
		}
		res.Mentions = ms

		if l.Channel == logline.ChannelGuild {
			for _, m := range ms {
				a, ok := p.engine.ActiveByName(m.Item)
				if ok && a.Kind == auction.KindBid {
					return p.submitBid(res, a, l, bidAmount(l.Message, spans))
				}
			}
		}

		for _, m := range ms {
			o := p.engine.Detect(m.Item, l.Speaker, l.Timestamp)
			res.Occurrences = append(res.Occurrences, o)
		}
		res.Action = ActionDetect
	}
	return res
}

func (p *Processor) submitBid(res Result, a Auction, l *Line, amount int) Result {
	res.Action = ActionBid
	res.AuctionID = a.ID()
	res.Bidder = l.Speaker
	res.Amount = amount
	res.Accepted = p.engine.SubmitBid(a.ID(), amount, l.Speaker)
	p.logger.Debug("bid routed",
		slog.String("item", a.Name()),
		slog.String("bidder", l.Speaker),
		slog.Int("amount", amount),
		slog.Bool("accepted", res.Accepted))
	return res
}

func (p *Processor) submitRoll(res Result, roller string, l *Line) Result {
	a, ok := p.engine.ActiveByRound(strconv.Itoa(l.RollMax))
	if !ok {
		p.logger.Debug("roll without matching auction",
			slog.String("bidder", roller),
			slog.Int("range", l.RollMax))
		return res
	}
	res.Action = ActionRoll
	res.AuctionID = a.ID()
	res.Bidder = roller
	res.Amount = l.RollResult
	res.Accepted = p.engine.SubmitRoll(a.ID(), l.RollResult, roller)
	return res
}
