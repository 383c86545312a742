// Package tailer follows a growing game log file and delivers its lines.
package tailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nxadm/tail"
)

// errBuffer is the size of the error channel.
const errBuffer = 16

// Line is one line read from the log.
type Line struct {
	Text string

	// Read is when the tailer read the line, not the log's own timestamp.
	Read time.Time
}

// Tailer wraps nxadm/tail for the game log.
type Tailer struct {
	t      *tail.Tail
	ctx    context.Context
	cancel context.CancelFunc
	lines  chan Line
	errors chan error
	doneCh chan struct{}

	mu      sync.Mutex
	stopped bool
}

// Config controls how the log is followed.
type Config struct {
	// Follow keeps reading as the file grows.
	Follow bool

	// ReOpen reopens the file when it is truncated or recreated, as the
	// client does when the log is rotated.
	ReOpen bool

	// Poll uses polling instead of filesystem notifications.
	Poll bool

	// MustExist fails New when the file is missing instead of waiting.
	MustExist bool

	// FromStart reads the whole file before following it.
	FromStart bool

	// Offset starts reading at this byte offset. It overrides FromStart.
	Offset int64
}

// DefaultConfig follows the end of an existing log.
func DefaultConfig() Config {
	return Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
	}
}

func (c Config) location() *tail.SeekInfo {
	switch {
	case c.Offset > 0:
		return &tail.SeekInfo{Offset: c.Offset, Whence: io.SeekStart}
	case c.FromStart:
		return &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}
	default:
		return &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}
}

// New starts tailing path. The context controls the tailer's lifetime.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    cfg.Follow,
		ReOpen:    cfg.ReOpen,
		Poll:      cfg.Poll,
		MustExist: cfg.MustExist,
		Location:  cfg.location(),
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening tail: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	tailer := &Tailer{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
		lines:  make(chan Line),
		errors: make(chan error, errBuffer),
		doneCh: make(chan struct{}),
	}
	go tailer.run()
	return tailer, nil
}

// Lines returns the channel of lines. It is closed when the tailer stops.
func (t *Tailer) Lines() <-chan Line {
	return t.lines
}

// Errors returns the channel of read errors. Errors are dropped when the
// buffer is full.
func (t *Tailer) Errors() <-chan error {
	return t.errors
}

// Tell returns the current read offset in the file.
func (t *Tailer) Tell() (int64, error) {
	return t.t.Tell()
}

// Stop stops tailing and waits for the delivery goroutine to exit.
// Safe to call multiple times.
func (t *Tailer) Stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	t.mu.Unlock()

	t.cancel()
	<-t.doneCh
	return t.t.Stop()
}

func (t *Tailer) run() {
	defer close(t.doneCh)
	defer close(t.lines)
	defer close(t.errors)

	for {
		select {
		case <-t.ctx.Done():
			return
		case line, ok := <-t.t.Lines:
			if !ok {
				return
			}
			if line.Err != nil {
				select {
				case t.errors <- fmt.Errorf("tail: %w", line.Err):
				case <-t.ctx.Done():
					return
				default:
				}
				continue
			}
			out := Line{Text: strings.TrimRight(line.Text, "\r"), Read: line.Time}
			select {
			case t.lines <- out:
			case <-t.ctx.Done():
				return
			}
		}
	}
}
