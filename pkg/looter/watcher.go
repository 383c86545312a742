package looter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ninjalooter/ninjalooter-go/internal/tailer"
)

// ReplayMode specifies how existing log lines are handled.
type ReplayMode int

const (
	// ReplayNone only processes new lines (default).
	ReplayNone ReplayMode = iota
	// ReplayFromStart processes the whole file first.
	ReplayFromStart
	// ReplayLastN processes the last N lines first.
	ReplayLastN
	// ReplaySinceTime processes lines stamped at or after a time.
	ReplaySinceTime
)

// DefaultMaxReplayLastN is the default cap for ReplayLastN.
const DefaultMaxReplayLastN = 10000

// errBuffer is the size of the Watch error channel.
const errBuffer = 16

// ReplayConfig configures replay. Only one mode is active at a time.
type ReplayConfig struct {
	Mode  ReplayMode
	LastN int       // For ReplayLastN
	Since time.Time // For ReplaySinceTime
}

func (c *watchConfig) validate() error {
	if c.replay.Mode == ReplayLastN {
		if c.replay.LastN < 0 {
			return fmt.Errorf("replay LastN must be non-negative, got %d", c.replay.LastN)
		}
		maxLines := c.maxReplayLines
		if maxLines == 0 {
			maxLines = DefaultMaxReplayLastN
		}
		if maxLines > 0 && c.replay.LastN > maxLines {
			return fmt.Errorf("replay LastN (%d) exceeds maximum of %d", c.replay.LastN, maxLines)
		}
	}
	if c.replay.Mode == ReplaySinceTime && c.replay.Since.IsZero() {
		return errors.New("replay Since must be set when mode is ReplaySinceTime")
	}
	return nil
}

// Watcher follows a game log file and routes each new line through a
// Processor. Events the engine emits while the watcher runs, including
// those caused by other callers of the engine, are delivered on the
// channel returned by Watch.
type Watcher struct {
	path   string
	proc   *Processor
	cfg    *watchConfig
	logger *slog.Logger

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
	watching bool
}

// NewWatcher validates options and checks that path exists.
// It does not start any goroutines.
func NewWatcher(path string, proc *Processor, opts ...WatchOption) (*Watcher, error) {
	if proc == nil {
		return nil, errors.New("looter: processor required")
	}
	cfg := applyWatchOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLogFileNotFound, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a log file", path)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{path: path, proc: proc, cfg: cfg, logger: logger}, nil
}

// Watch starts following the log. Both channels close when ctx is done,
// Close is called or the tailer fails to start. Watch can only be called
// once per Watcher; later calls return closed channels.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, <-chan error) {
	w.mu.Lock()
	if w.closed || w.watching {
		w.mu.Unlock()
		eventCh := make(chan Event)
		errCh := make(chan error)
		close(eventCh)
		close(errCh)
		return eventCh, errCh
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	eventCh := make(chan Event)
	errCh := make(chan error, errBuffer)

	// Subscribe before returning so no event emitted after Watch is missed.
	sub, unsubscribe := w.proc.engine.Subscribe(w.cfg.eventBuffer)

	go w.run(ctx, sub, unsubscribe, eventCh, errCh)

	return eventCh, errCh
}

// Close stops the watcher and waits for its goroutine to exit.
// Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, sub <-chan Event, unsubscribe func(), eventCh chan<- Event, errCh chan<- error) {
	defer close(w.doneCh)
	defer close(eventCh)
	defer close(errCh)
	defer unsubscribe()

	cfg := tailer.DefaultConfig()
	cfg.Poll = w.cfg.poll
	cfg.FromStart = w.cfg.replay.Mode == ReplayFromStart || w.cfg.replay.Mode == ReplaySinceTime

	if w.cfg.replay.Mode == ReplayLastN && w.cfg.replay.LastN > 0 {
		end, err := w.replayLastN(ctx, sub, eventCh, errCh)
		if err != nil {
			sendError(errCh, fmt.Errorf("replaying last N lines: %w", err))
		}
		// Continue exactly where the replay stopped reading.
		cfg.Offset = end
	}

	t, err := tailer.New(ctx, w.path, cfg)
	if err != nil {
		sendError(errCh, fmt.Errorf("starting tailer: %w", err))
		return
	}
	defer func() { _ = t.Stop() }()

	w.logger.Debug("watching log file", slog.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			w.processLine(line.Text, errCh)
			if !w.drain(ctx, sub, eventCh) {
				return
			}
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(errCh, err)
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if !w.forward(ctx, ev, eventCh) {
				return
			}
		}
	}
}

func (w *Watcher) processLine(raw string, errCh chan<- error) {
	l, err := w.proc.Parse(raw)
	if err != nil {
		sendError(errCh, err)
		return
	}
	if l == nil {
		return
	}
	if w.cfg.replay.Mode == ReplaySinceTime && l.Timestamp.Before(w.cfg.replay.Since) {
		return
	}
	w.proc.Route(l, raw)
}

// drain forwards every event already queued on sub. It reports false if
// ctx ended first.
func (w *Watcher) drain(ctx context.Context, sub <-chan Event, eventCh chan<- Event) bool {
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return true
			}
			if !w.forward(ctx, ev, eventCh) {
				return false
			}
		default:
			return true
		}
	}
}

func (w *Watcher) forward(ctx context.Context, ev Event, eventCh chan<- Event) bool {
	if !w.cfg.filter.Allows(ev.Type) {
		return true
	}
	select {
	case eventCh <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// replayLastN processes the last N lines and returns the offset the tailer
// should resume from.
func (w *Watcher) replayLastN(ctx context.Context, sub <-chan Event, eventCh chan<- Event, errCh chan<- error) (int64, error) {
	lines, end, err := readLastNLines(w.path, w.cfg.replay.LastN)
	if err != nil {
		return 0, err
	}
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return end, err
		}
		w.processLine(line, errCh)
		if !w.drain(ctx, sub, eventCh) {
			return end, ctx.Err()
		}
	}
	return end, nil
}

// readLastNLines reads the last n lines of a file, oldest first, along with
// the file size at the time of reading.
func readLastNLines(path string, n int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, 0, err
	}
	size := stat.Size()
	if size == 0 {
		return nil, 0, nil
	}

	const chunkSize = 4096
	var lines []string
	var buffer []byte
	offset := size

	for len(lines) <= n && offset > 0 {
		readSize := int64(chunkSize)
		if offset < readSize {
			readSize = offset
		}
		offset -= readSize

		chunk := make([]byte, readSize)
		if _, err := file.ReadAt(chunk, offset); err != nil {
			return nil, 0, err
		}
		buffer = append(chunk, buffer...)
		lines = splitLines(buffer)
	}

	// Unless the whole file was read, the first line may be partial.
	if offset > 0 && len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, size, nil
}

// splitLines splits buffer into non-empty lines with CR/LF removed.
func splitLines(buffer []byte) []string {
	var lines []string
	start := 0
	for i := 0; i <= len(buffer); i++ {
		if i < len(buffer) && buffer[i] != '\n' {
			continue
		}
		line := buffer[start:i]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if len(line) > 0 {
			lines = append(lines, string(line))
		}
		start = i + 1
	}
	return lines
}

// sendError sends an error non-blocking.
func sendError(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
		// Drop error if channel is full
	}
}

// Watch is a convenience function that creates a watcher and starts it.
// Initialization failures are returned immediately.
func Watch(ctx context.Context, path string, proc *Processor, opts ...WatchOption) (<-chan Event, <-chan error, error) {
	w, err := NewWatcher(path, proc, opts...)
	if err != nil {
		return nil, nil, err
	}
	events, errs := w.Watch(ctx)
	return events, errs, nil
}
