package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ninjalooter/ninjalooter-go/internal/auction"
	"github.com/ninjalooter/ninjalooter-go/internal/snapshot"
	"github.com/ninjalooter/ninjalooter-go/pkg/looter"
)

var (
	// state flags
	stateBackend string
	statePath    string
	stateFormat  string
	stateArchive bool
	stateItem    string
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show saved auction state",
	Long: `Print a summary of the saved snapshot: pending and ignored items,
running auctions and resolved auctions.

With the sqlite backend, --archive lists every resolved auction ever saved.

Examples:
  ninjalooter state
  ninjalooter state --state state.json --format jsonl
  ninjalooter state --backend sqlite --state loot.db --archive --item "Copper Disc"`,
	RunE: runState,
}

func init() {
	stateCmd.Flags().StringVar(&stateBackend, "backend", "",
		"Snapshot backend: file, sqlite, redis (overrides snapshot.backend)")
	stateCmd.Flags().StringVarP(&statePath, "state", "s", "",
		"Snapshot path or DSN (overrides snapshot.path)")
	stateCmd.Flags().StringVarP(&stateFormat, "format", "f", "pretty",
		"Output format: jsonl, pretty")
	stateCmd.Flags().BoolVar(&stateArchive, "archive", false,
		"List the resolved auction archive (sqlite backend)")
	stateCmd.Flags().StringVar(&stateItem, "item", "",
		"Only archive rows for this item")

	_ = stateCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

type occurrenceSummary struct {
	ID       string `json:"id"`
	Item     string `json:"item"`
	Reporter string `json:"reporter"`
}

type auctionSummary struct {
	ID      string   `json:"id"`
	Item    string   `json:"item"`
	Kind    string   `json:"kind"`
	Leaders []string `json:"leaders,omitempty"`
	Amount  int      `json:"amount,omitempty"`
	Detail  string   `json:"detail"`
}

type stateSummary struct {
	Pending      []occurrenceSummary `json:"pending"`
	Ignored      []occurrenceSummary `json:"ignored"`
	Active       []auctionSummary    `json:"active"`
	Resolved     []auctionSummary    `json:"resolved"`
	RoundCounter int                 `json:"round_counter"`
	Aux          []string            `json:"aux,omitempty"`
}

func runState(cmd *cobra.Command, args []string) error {
	if !ValidFormats[stateFormat] {
		return fmt.Errorf("invalid format %q: must be one of: jsonl, pretty", stateFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if stateBackend != "" {
		cfg.Snapshot.Backend = stateBackend
	}
	if statePath != "" {
		cfg.Snapshot.Path = statePath
		cfg.Snapshot.DSN = statePath
	}

	ctx := context.Background()
	store, err := snapshot.Open(ctx, snapshotOptions(cfg.Snapshot))
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if stateArchive {
		sql, ok := store.(*snapshot.SQLStore)
		if !ok {
			return fmt.Errorf("--archive requires the sqlite backend")
		}
		return printArchive(ctx, sql, out)
	}

	snap, err := store.Load(ctx)
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		fmt.Fprintln(cmd.ErrOrStderr(), "no saved state")
		return nil
	}
	if err != nil {
		return err
	}

	summary := summarize(snap)
	if stateFormat == "jsonl" {
		return OutputJSON(summary, out)
	}
	printSummary(summary, out)
	return nil
}

func printArchive(ctx context.Context, store *snapshot.SQLStore, out io.Writer) error {
	rows, err := store.Archive(ctx, stateItem)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if stateFormat == "jsonl" {
			if err := OutputJSON(row, out); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "%s  %s\n", row.StartedAt.Format("2006-01-02 15:04"), row)
	}
	return nil
}

func summarize(snap snapshot.Snapshot) stateSummary {
	s := snap.State
	summary := stateSummary{
		Pending:      summarizeOccurrences(s.Pending),
		Ignored:      summarizeOccurrences(s.Ignored),
		Active:       summarizeAuctions(s.Active),
		Resolved:     summarizeAuctions(s.History),
		RoundCounter: s.RoundCounter,
	}
	for key := range snap.Aux {
		summary.Aux = append(summary.Aux, key)
	}
	sort.Strings(summary.Aux)
	return summary
}

func summarizeOccurrences(occurrences []looter.Occurrence) []occurrenceSummary {
	out := make([]occurrenceSummary, len(occurrences))
	for i, o := range occurrences {
		out[i] = occurrenceSummary{ID: o.ID, Item: o.Name, Reporter: o.Reporter}
	}
	return out
}

func summarizeAuctions(auctions map[string]looter.Auction) []auctionSummary {
	out := make([]auctionSummary, 0, len(auctions))
	for _, a := range auctions {
		s := auctionSummary{
			ID:     a.ID(),
			Item:   a.Name(),
			Kind:   string(a.Kind),
			Detail: describeAuction(a),
		}
		for _, l := range auction.Leaders(a) {
			s.Leaders = append(s.Leaders, l.Bidder)
			s.Amount = l.Amount
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Item != out[j].Item {
			return out[i].Item < out[j].Item
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func printSummary(s stateSummary, out io.Writer) {
	fmt.Fprintf(out, "Pending (%d):\n", len(s.Pending))
	for _, o := range s.Pending {
		fmt.Fprintf(out, "  %s  %s (reported by %s)\n", shortID(o.ID), o.Item, o.Reporter)
	}
	fmt.Fprintf(out, "Ignored (%d):\n", len(s.Ignored))
	for _, o := range s.Ignored {
		fmt.Fprintf(out, "  %s  %s\n", shortID(o.ID), o.Item)
	}
	fmt.Fprintf(out, "Active (%d):\n", len(s.Active))
	for _, a := range s.Active {
		fmt.Fprintf(out, "  %s  %s\n", shortID(a.ID), a.Detail)
	}
	fmt.Fprintf(out, "Resolved (%d):\n", len(s.Resolved))
	for _, a := range s.Resolved {
		fmt.Fprintf(out, "  %s  %s\n", shortID(a.ID), a.Detail)
	}
	fmt.Fprintf(out, "Rounds handed out: %d\n", s.RoundCounter)
	if len(s.Aux) > 0 {
		fmt.Fprintf(out, "Other data: %s\n", strings.Join(s.Aux, ", "))
	}
}
