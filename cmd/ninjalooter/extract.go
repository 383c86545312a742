package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ninjalooter/ninjalooter-go/pkg/looter"
)

var (
	// extract flags
	extractCatalog     string
	extractChannels    []string
	extractSince       string
	extractUntil       string
	extractFormat      string
	extractRaw         bool
	extractLocal       bool
	extractStopOnError bool
)

var extractCmd = &cobra.Command{
	Use:   "extract files...",
	Short: "List item mentions in game logs (batch mode)",
	Long: `Read game logs and print every catalog item named in chat.

Unlike 'watch', this command only reads the files and does not run any
auctions or touch saved state.

Examples:
  # All mentions in a log
  ninjalooter extract eqlog_Jim_P1999Green.txt

  # Guild and raid chat during one evening
  ninjalooter extract eqlog.txt --channels guild,raid \
    --since "2020-08-17T19:00:00-04:00" --until "2020-08-18T00:00:00-04:00"

  # Human-readable output
  ninjalooter extract eqlog.txt --format pretty`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractCatalog, "catalog", "",
		"Item catalog file (overrides catalog.path)")
	extractCmd.Flags().StringSliceVar(&extractChannels, "channels", nil,
		"Chat channels to include (comma-separated: guild,group,raid,ooc,auction,shout,say,tell)")
	extractCmd.Flags().StringVar(&extractSince, "since", "",
		"Only mentions at/after timestamp (RFC3339 format, e.g., 2020-08-17T19:00:00Z)")
	extractCmd.Flags().StringVar(&extractUntil, "until", "",
		"Only mentions before timestamp (RFC3339 format)")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	extractCmd.Flags().BoolVar(&extractRaw, "raw", false,
		"Include raw log lines in output")
	extractCmd.Flags().BoolVar(&extractLocal, "local", false,
		"Include lines typed by the log's owner")
	extractCmd.Flags().BoolVar(&extractStopOnError, "stop-on-error", false,
		"Stop on first malformed line instead of skipping")

	_ = extractCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if !ValidFormats[extractFormat] {
		return fmt.Errorf("invalid format %q: must be one of: jsonl, pretty", extractFormat)
	}

	sinceTime, untilTime, err := parseTimeRange(extractSince, extractUntil)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if extractCatalog != "" {
		cfg.Catalog.Path = extractCatalog
	}
	items, err := looter.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	x, err := looter.NewExtractor(items)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []looter.ParseOption
	if len(extractChannels) > 0 {
		opts = append(opts, looter.WithParseChannels(extractChannels...))
	}
	if !sinceTime.IsZero() || !untilTime.IsZero() {
		opts = append(opts, looter.WithParseTimeRange(sinceTime, untilTime))
	}
	if extractRaw {
		opts = append(opts, looter.WithParseIncludeRawLine(true))
	}
	if extractLocal {
		opts = append(opts, looter.WithParseIncludeLocal(true))
	}
	if extractStopOnError {
		opts = append(opts, looter.WithParseStopOnError(true))
	}

	out := cmd.OutOrStdout()
	for _, path := range args {
		for m, err := range looter.ScanFile(ctx, path, x, items, opts...) {
			if err != nil {
				// Ctrl+C: exit silently
				if errors.Is(err, context.Canceled) && ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := OutputMention(extractFormat, m, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		}
	}
	return nil
}

// parseTimeRange parses since and until strings into time.Time values.
func parseTimeRange(since, until string) (time.Time, time.Time, error) {
	var sinceTime, untilTime time.Time
	var err error

	if since != "" {
		sinceTime, err = time.Parse(time.RFC3339, since)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --since format: %w (expected RFC3339, e.g., 2020-08-17T19:00:00Z)", err)
		}
	}
	if until != "" {
		untilTime, err = time.Parse(time.RFC3339, until)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --until format: %w (expected RFC3339, e.g., 2020-08-17T19:00:00Z)", err)
		}
	}

	if !sinceTime.IsZero() && !untilTime.IsZero() && sinceTime.After(untilTime) {
		return time.Time{}, time.Time{}, fmt.Errorf("--since must be before --until")
	}
	return sinceTime, untilTime, nil
}
