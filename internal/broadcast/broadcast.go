// Package broadcast publishes engine events to NATS.
//
// Each event is published as JSON on "<prefix>.<event type>". Events that
// carry announcement text are also published verbatim on "<prefix>.announce"
// so a relay can paste them into the game.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/ninjalooter/ninjalooter-go/pkg/looter/event"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "ninjalooter"

// AnnounceSubject is the subject suffix for announcement text.
const AnnounceSubject = "announce"

// Publisher sends a message on a subject. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Broadcaster forwards events to a Publisher.
type Broadcaster struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
	conn   *nats.Conn
}

// New returns a broadcaster over pub. A nil logger disables logging.
func New(pub Publisher, prefix string, logger *slog.Logger) *Broadcaster {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broadcaster{pub: pub, prefix: prefix, logger: logger}
}

// Connect dials the NATS server at url and returns a broadcaster over it.
func Connect(url, prefix string, logger *slog.Logger) (*Broadcaster, error) {
	conn, err := nats.Connect(url, nats.Name("ninjalooter"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	b := New(conn, prefix, logger)
	b.conn = conn
	return b, nil
}

// Subject returns the subject an event type is published on.
func (b *Broadcaster) Subject(t event.Type) string {
	return b.prefix + "." + string(t)
}

// Publish sends ev, and its announcement text if any.
func (b *Broadcaster) Publish(ev event.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.pub.Publish(b.Subject(ev.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	if ev.Text != "" {
		if err := b.pub.Publish(b.prefix+"."+AnnounceSubject, []byte(ev.Text)); err != nil {
			return fmt.Errorf("publish announcement: %w", err)
		}
	}
	return nil
}

// Run publishes events until the channel closes or ctx is done.
// Publish failures are logged and do not stop the loop.
func (b *Broadcaster) Run(ctx context.Context, events <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := b.Publish(ev); err != nil {
				b.logger.Warn("broadcast failed",
					slog.String("type", string(ev.Type)),
					slog.String("error", err.Error()))
			}
		}
	}
}

// Close drains the NATS connection opened by Connect.
func (b *Broadcaster) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Drain()
}
