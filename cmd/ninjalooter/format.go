package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ninjalooter/ninjalooter-go/pkg/looter"
)

// ValidFormats lists the accepted --format values.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

// OutputJSON writes v as a single JSON line.
func OutputJSON(v any, w io.Writer) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// OutputEvent writes ev in the given format.
func OutputEvent(format string, ev looter.Event, w io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(ev, w)
	case "pretty":
		return OutputPretty(ev, w)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputPretty writes ev as one human-readable line.
func OutputPretty(ev looter.Event, w io.Writer) error {
	var body string
	switch ev.Type {
	case looter.EventOccurrenceDetected:
		body = fmt.Sprintf("+ %s reported [%s] (%s)", ev.Reporter, ev.ItemName, ev.OccurrenceID)
	case looter.EventOccurrenceIgnored:
		body = fmt.Sprintf("- ignored [%s]", ev.ItemName)
	case looter.EventAuctionStarted:
		body = fmt.Sprintf("> %s auction for [%s]: %s", ev.Kind, ev.ItemName, ev.Text)
	case looter.EventPromotionRejected:
		body = fmt.Sprintf("! no %s auction for %s: %s", ev.Kind, itemOrID(ev), ev.Reason)
	case looter.EventSubmissionAccepted:
		body = fmt.Sprintf("$ %s %d on [%s]", ev.Bidder, ev.Amount, ev.ItemName)
	case looter.EventSubmissionRejected:
		body = fmt.Sprintf("x %s %d on %s: %s", ev.Bidder, ev.Amount, itemOrID(ev), ev.Reason)
	case looter.EventAuctionResolved:
		winners := "None"
		if len(ev.Winners) > 0 {
			winners = strings.Join(ev.Winners, ", ")
		}
		body = fmt.Sprintf("* [%s] won by %s", ev.ItemName, winners)
	default:
		body = fmt.Sprintf("? %s", ev.Type)
	}
	_, err := fmt.Fprintf(w, "[%s] %s\n", ev.Timestamp.Format("15:04:05"), body)
	return err
}

func itemOrID(ev looter.Event) string {
	if ev.ItemName != "" {
		return "[" + ev.ItemName + "]"
	}
	return ev.OccurrenceID
}

// OutputMention writes m in the given format.
func OutputMention(format string, m looter.Mention, w io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(m, w)
	case "pretty":
		_, err := fmt.Fprintf(w, "[%s] %s (%s): [%s]\n",
			m.Timestamp.Format("2006-01-02 15:04:05"), m.Speaker, m.Channel, m.Item)
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
