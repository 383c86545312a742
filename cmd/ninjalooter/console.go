package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ninjalooter/ninjalooter-go/internal/auction"
	"github.com/ninjalooter/ninjalooter-go/internal/snapshot"
	"github.com/ninjalooter/ninjalooter-go/pkg/looter"
)

// errQuit is returned by Exec for the quit command.
var errQuit = errors.New("quit")

const consoleHelp = `commands:
  list                 show pending, active and resolved items
  bid <id> [group]     start a bid auction
  roll <id>            start a roll auction
  ignore <id>          ignore a pending item
  resolve <id>         close an active auction
  text <id>            print the announcement for an auction
  find <name>          search the item catalog
  save                 write the snapshot now
  quit                 stop watching
IDs may be shortened to any unique prefix.`

// console runs operator commands typed while watching.
type console struct {
	engine *looter.Engine
	store  snapshot.Store
	aux    map[string]json.RawMessage
	group  string
	out    io.Writer
}

// Exec runs one command line.
func (c *console) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "list", "ls":
		c.list()
		return nil
	case "save":
		return c.save(ctx)
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
		return nil
	case "quit", "exit":
		return errQuit
	}

	if len(args) == 0 {
		return fmt.Errorf("%s: argument required", name)
	}

	switch name {
	case "find":
		c.find(strings.Join(args, " "))
		return nil
	case "bid":
		id, err := c.findID(args[0], true)
		if err != nil {
			return err
		}
		group := c.group
		if len(args) > 1 {
			group = strings.Join(args[1:], " ")
		}
		a, err := c.engine.PromoteToBid(id, group)
		if err != nil {
			return err
		}
		return c.announce(a.ID())
	case "roll":
		id, err := c.findID(args[0], true)
		if err != nil {
			return err
		}
		a, err := c.engine.PromoteToRoll(id)
		if err != nil {
			return err
		}
		return c.announce(a.ID())
	case "ignore":
		id, err := c.findID(args[0], true)
		if err != nil {
			return err
		}
		return c.engine.Ignore(id)
	case "resolve":
		id, err := c.findID(args[0], false)
		if err != nil {
			return err
		}
		if _, err := c.engine.Resolve(id); err != nil {
			return err
		}
		return c.announce(id)
	case "text":
		id, err := c.findID(args[0], false)
		if err != nil {
			return err
		}
		return c.announce(id)
	}
	return fmt.Errorf("unknown command %q (try help)", name)
}

func (c *console) announce(id string) error {
	text, err := c.engine.Announcement(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, text)
	return nil
}

// maxFindResults caps the catalog search output.
const maxFindResults = 10

func (c *console) find(query string) {
	items := c.engine.Catalog()
	names := items.Search(query, maxFindResults)
	if len(names) == 0 {
		fmt.Fprintf(c.out, "no items match %q\n", query)
		return
	}
	for _, name := range names {
		item, _ := items.Lookup(name)
		if classes := item.ClassList(); classes != "" {
			fmt.Fprintf(c.out, "  %s (%s)\n", name, classes)
			continue
		}
		fmt.Fprintf(c.out, "  %s\n", name)
	}
}

func (c *console) save(ctx context.Context) error {
	if err := c.store.Save(ctx, snapshot.Snapshot{State: c.engine.Snapshot(), Aux: c.aux}); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	fmt.Fprintln(c.out, "saved")
	return nil
}

func (c *console) list() {
	pending, active, history := c.engine.Pending(), c.engine.Active(), c.engine.History()

	fmt.Fprintf(c.out, "Pending (%d):\n", len(pending))
	for _, o := range pending {
		fmt.Fprintf(c.out, "  %s  %s (reported by %s)\n", shortID(o.ID), o.Name, o.Reporter)
	}

	fmt.Fprintf(c.out, "Active (%d):\n", len(active))
	for _, a := range active {
		fmt.Fprintf(c.out, "  %s  %s, %s left\n", shortID(a.ID()), describeAuction(a),
			auction.RemainingText(c.engine.TimeRemaining(a)))
	}

	fmt.Fprintf(c.out, "Resolved (%d):\n", len(history))
	for _, a := range history {
		fmt.Fprintf(c.out, "  %s  %s\n", shortID(a.ID()), describeAuction(a))
	}
}

// findID expands prefix to a full occurrence ID. Pending occurrences are
// searched when pending is true, otherwise active and resolved auctions.
func (c *console) findID(prefix string, pending bool) (string, error) {
	var ids []string
	if pending {
		for _, o := range c.engine.Pending() {
			ids = append(ids, o.ID)
		}
	} else {
		for _, a := range c.engine.Active() {
			ids = append(ids, a.ID())
		}
		for _, a := range c.engine.History() {
			ids = append(ids, a.ID())
		}
	}
	return matchID(prefix, ids)
}

func matchID(prefix string, ids []string) (string, error) {
	var found []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no occurrence matches %q", prefix)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%q matches %d occurrences", prefix, len(found))
	}
}

// describeAuction formats an auction's item, kind and leaders on one line.
func describeAuction(a looter.Auction) string {
	label := string(a.Kind)
	switch {
	case a.Kind == looter.KindBid && a.Bid != nil:
		label = fmt.Sprintf("bid for %s, min %d", a.Bid.Group, a.Bid.MinBid)
	case a.Kind == looter.KindRoll && a.Roll != nil:
		label = "roll " + a.Roll.Round
	}
	return fmt.Sprintf("[%s] %s: %s with %s", a.Name(), label, auction.HighestPlayers(a), auction.HighestNumber(a))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
