package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ninjalooter/ninjalooter-go/internal/broadcast"
	"github.com/ninjalooter/ninjalooter-go/internal/config"
	"github.com/ninjalooter/ninjalooter-go/internal/snapshot"
	"github.com/ninjalooter/ninjalooter-go/pkg/looter"
)

// saveTimeout bounds the final snapshot save after the watch loop ends.
const saveTimeout = 10 * time.Second

var (
	// watch flags
	watchLogFile      string
	watchCatalog      string
	watchState        string
	watchFormat       string
	watchIncludeTypes []string
	watchExcludeTypes []string
	watchRaw          bool
	watchReplay       bool
	watchReplayLast   int
	watchPoll         bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a game log and run auctions",
	Long: `Follow a game log in real time, report every item named in chat,
and route guild bids and dice rolls into running auctions.

Auctions are controlled with commands typed on stdin (type "help").
State is restored from the snapshot at start and saved again on exit.

Examples:
  # Follow a log with ninjalooter.toml in the current directory
  ninjalooter watch --log-file eqlog_Jim_P1999Green.txt

  # Human-readable output, only auction events
  ninjalooter watch --log-file eqlog.txt --format pretty \
    --include-types auction_started,submission_accepted,auction_resolved

  # Re-read the whole log first
  ninjalooter watch --log-file eqlog.txt --replay

  # Pipe events to jq
  ninjalooter watch --log-file eqlog.txt | jq 'select(.type == "auction_resolved")'`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchLogFile, "log-file", "l", "",
		"Game log file to follow (overrides log_file.path)")
	watchCmd.Flags().StringVar(&watchCatalog, "catalog", "",
		"Item catalog file (overrides catalog.path)")
	watchCmd.Flags().StringVarP(&watchState, "state", "s", "",
		"Snapshot path or DSN (overrides snapshot.path)")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	watchCmd.Flags().StringSliceVar(&watchIncludeTypes, "include-types", nil,
		"Event types to include (comma-separated)")
	watchCmd.Flags().StringSliceVar(&watchExcludeTypes, "exclude-types", nil,
		"Event types to exclude (comma-separated)")
	watchCmd.Flags().BoolVar(&watchRaw, "raw", false,
		"Keep raw log lines on mentions")
	watchCmd.Flags().BoolVar(&watchReplay, "replay", false,
		"Process the whole log before following it")
	watchCmd.Flags().IntVar(&watchReplayLast, "replay-last", 0,
		"Process the last N lines before following the log")
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false,
		"Poll the log file instead of using filesystem notifications")

	registerEventTypeCompletion(watchCmd, "include-types")
	registerEventTypeCompletion(watchCmd, "exclude-types")
	_ = watchCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !ValidFormats[watchFormat] {
		return fmt.Errorf("invalid format %q: must be one of: jsonl, pretty", watchFormat)
	}

	includes, err := NormalizeEventTypes(watchIncludeTypes)
	if err != nil {
		return err
	}
	excludes, err := NormalizeEventTypes(watchExcludeTypes)
	if err != nil {
		return err
	}
	if err := RejectOverlap(includes, excludes); err != nil {
		return err
	}
	if watchReplay && watchReplayLast > 0 {
		return fmt.Errorf("--replay and --replay-last cannot be used together")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyWatchOverrides(cfg)
	if cfg.LogFile.Path == "" {
		return fmt.Errorf("no log file: set --log-file or log_file.path")
	}

	logger := cfg.Log.NewLogger(cmd.ErrOrStderr(), verbose)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	items, err := looter.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	x, err := looter.NewExtractor(items)
	if err != nil {
		return err
	}
	engine := newEngine(cfg, items, logger)
	logReady(logger, items, x, engine)

	store, err := snapshot.Open(ctx, snapshotOptions(cfg.Snapshot))
	if err != nil {
		return err
	}
	defer store.Close()
	aux := restoreSnapshot(ctx, store, engine, logger)

	if cfg.Broadcast.NATSURL != "" {
		b, err := broadcast.Connect(cfg.Broadcast.NATSURL, cfg.Broadcast.SubjectPrefix, logger)
		if err != nil {
			return err
		}
		defer b.Close()
		sub, unsubscribe := engine.Subscribe(0)
		defer unsubscribe()
		go b.Run(ctx, sub)
		logger.Info("broadcasting events", slog.String("url", cfg.Broadcast.NATSURL))
	}

	proc := looter.NewProcessor(engine, x,
		looter.WithProcessorLogger(logger),
		looter.WithProcessorRawLine(watchRaw),
	)
	watcher, err := looter.NewWatcher(cfg.LogFile.Path, proc, watchOptions(cfg, includes, excludes, logger)...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	con := &console{
		engine: engine,
		store:  store,
		aux:    aux,
		group:  cfg.Auction.DefaultGroup,
		out:    cmd.ErrOrStderr(),
	}

	loopErr := watchLoop(ctx, watcher, con, cmd.InOrStdin(), cmd.OutOrStdout())

	saveCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := store.Save(saveCtx, snapshot.Snapshot{State: engine.Snapshot(), Aux: aux}); err != nil {
		logger.Error("failed to save snapshot", slog.String("error", err.Error()))
		if loopErr == nil {
			loopErr = err
		}
	}
	return loopErr
}

// watchLoop prints events and runs console commands until ctx is done, the
// watcher stops, or the operator quits.
func watchLoop(ctx context.Context, watcher *looter.Watcher, con *console, in io.Reader, out io.Writer) error {
	events, errs := watcher.Watch(ctx)
	lines := readCommands(ctx, in)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := OutputEvent(watchFormat, ev, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			fmt.Fprintf(con.out, "warning: %v\n", err)

		case line, ok := <-lines:
			if !ok {
				// stdin closed; keep watching
				lines = nil
				continue
			}
			if err := con.Exec(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintf(con.out, "error: %v\n", err)
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// readCommands delivers lines from in until it is exhausted or ctx is done.
func readCommands(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func applyWatchOverrides(cfg *config.Config) {
	if watchLogFile != "" {
		cfg.LogFile.Path = watchLogFile
	}
	if watchCatalog != "" {
		cfg.Catalog.Path = watchCatalog
	}
	if watchState != "" {
		cfg.Snapshot.Path = watchState
		cfg.Snapshot.DSN = watchState
	}
	if watchReplay {
		cfg.LogFile.ReplayFromStart = true
	}
}

func watchOptions(cfg *config.Config, includes, excludes []looter.EventType, logger *slog.Logger) []looter.WatchOption {
	opts := []looter.WatchOption{
		looter.WithLogger(logger),
		looter.WithPoll(watchPoll),
	}
	switch {
	case watchReplayLast > 0:
		opts = append(opts, looter.WithReplayLastN(watchReplayLast))
	case cfg.LogFile.ReplayFromStart:
		opts = append(opts, looter.WithReplayFromStart())
	}
	if len(includes) > 0 {
		opts = append(opts, looter.WithIncludeTypes(includes...))
	}
	if len(excludes) > 0 {
		opts = append(opts, looter.WithExcludeTypes(excludes...))
	}
	return opts
}

func newEngine(cfg *config.Config, items *looter.Catalog, logger *slog.Logger) *looter.Engine {
	return looter.NewEngine(
		looter.WithCatalog(items),
		looter.WithDefaultMinBid(cfg.Auction.MinBid),
		looter.WithMinDuration(cfg.Auction.MinDuration()),
		looter.WithRounds(cfg.Auction.Rounds),
		looter.WithEngineLogger(logger),
	)
}

// logReady reports what the watch session was built with.
func logReady(logger *slog.Logger, items *looter.Catalog, x *looter.Extractor, engine *looter.Engine) {
	logger.Info("catalog loaded",
		slog.Int("items", items.Len()),
		slog.Int("patterns", x.Patterns()),
		slog.String("min_duration", engine.MinDuration().String()),
	)
}

func snapshotOptions(cfg config.SnapshotConfig) snapshot.Options {
	return snapshot.Options{
		Backend:   cfg.Backend,
		Path:      cfg.Path,
		DSN:       cfg.DSN,
		RedisAddr: cfg.RedisAddr,
		RedisKey:  cfg.RedisKey,
	}
}

// restoreSnapshot loads saved state into engine and returns its auxiliary
// collections. A missing or unreadable snapshot leaves the engine empty.
func restoreSnapshot(ctx context.Context, store snapshot.Store, engine *looter.Engine, logger *slog.Logger) map[string]json.RawMessage {
	snap, err := store.Load(ctx)
	switch {
	case errors.Is(err, snapshot.ErrNoSnapshot):
		logger.Info("no saved state, starting empty")
		return nil
	case err != nil:
		logger.Warn("saved state could not be loaded, starting empty", slog.String("error", err.Error()))
		return nil
	}
	if err := engine.Restore(snap.State); err != nil {
		logger.Warn("saved state is inconsistent, starting empty", slog.String("error", err.Error()))
		return nil
	}
	return snap.Aux
}
