package auction

import (
	"fmt"
	"time"
)

// TimeRemaining returns minDuration minus the time elapsed since start,
// floored at zero.
func TimeRemaining(start, now time.Time, minDuration time.Duration) time.Duration {
	left := minDuration - now.Sub(start)
	if left < 0 {
		return 0
	}
	return left
}

// RemainingText formats a duration as "2m05s", or "45s" under a minute.
func RemainingText(d time.Duration) string {
	total := int(d / time.Second)
	minutes, seconds := total/60, total%60
	if minutes > 0 {
		return fmt.Sprintf("%dm%02ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// CallText is the announcement asking for bids or rolls on an active auction.
// classes is the item's eligible class list, or empty.
func CallText(a Auction, classes string, remaining time.Duration) string {
	if classes != "" {
		classes = " (" + classes + ")"
	}

	switch a.Kind {
	case KindBid:
		group, minBid := "", 0
		if a.Bid != nil {
			group, minBid = a.Bid.Group, a.Bid.MinBid
		}
		if len(Leaders(a)) == 0 {
			return fmt.Sprintf("/gu [%s]%s - `%s` BID IN /GU, MIN %d DKP. "+
				"You MUST include the item name in your bid! Currently: `None` - Closes in %s.",
				a.Item.Name, classes, group, minBid, RemainingText(remaining))
		}
		return fmt.Sprintf("/gu [%s]%s - `%s` BID IN /GU. "+
			"You MUST include the item name in your bid! Currently: `%s` with %s DKP - Closing in %s!",
			a.Item.Name, classes, group, HighestPlayers(a), HighestNumber(a), RemainingText(remaining))

	case KindRoll:
		round := ""
		if a.Roll != nil {
			round = a.Roll.Round
		}
		return fmt.Sprintf("/gu [%s]%s ROLL %s NOW! Currently: `%s` with %s.",
			a.Item.Name, classes, round, HighestPlayers(a), HighestNumber(a))
	}
	return ""
}

// WinText is the announcement naming the winner(s) of an auction.
func WinText(a Auction, remaining time.Duration) string {
	switch a.Kind {
	case KindBid:
		group := ""
		if a.Bid != nil {
			group = a.Bid.Group
		}
		return fmt.Sprintf("/gu Grats %s on [%s] (%s DKP) for `%s`! Closed with %s left.",
			HighestPlayers(a), a.Item.Name, HighestNumber(a), group, RemainingText(remaining))

	case KindRoll:
		round := ""
		if a.Roll != nil {
			round = a.Roll.Round
		}
		return fmt.Sprintf("/shout Grats %s on [%s] with %s / %s!",
			HighestPlayers(a), a.Item.Name, HighestNumber(a), round)
	}
	return ""
}
