package auction

import (
	"sort"
	"strconv"
	"strings"
)

// Leaders returns the current leaders of an auction.
//
// A bid auction has at most one leader, the highest amount. A roll auction
// returns every bidder tied at the highest roll, ordered by name; ties are
// settled outside the engine.
func Leaders(a Auction) []Leader {
	switch a.Kind {
	case KindBid:
		if a.Bid == nil || len(a.Bid.Bids) == 0 {
			return nil
		}
		best := -1
		for amount := range a.Bid.Bids {
			if amount > best {
				best = amount
			}
		}
		return []Leader{{Bidder: a.Bid.Bids[best], Amount: best}}

	case KindRoll:
		if a.Roll == nil || len(a.Roll.Rolls) == 0 {
			return nil
		}
		high := -1
		for _, n := range a.Roll.Rolls {
			if n > high {
				high = n
			}
		}
		var leaders []Leader
		for bidder, n := range a.Roll.Rolls {
			if n == high {
				leaders = append(leaders, Leader{Bidder: bidder, Amount: n})
			}
		}
		sort.Slice(leaders, func(i, j int) bool {
			return leaders[i].Bidder < leaders[j].Bidder
		})
		return leaders
	}
	return nil
}

// HighestNumber returns the leading amount, or "None" without submissions.
func HighestNumber(a Auction) string {
	leaders := Leaders(a)
	if len(leaders) == 0 {
		return "None"
	}
	return strconv.Itoa(leaders[0].Amount)
}

// HighestPlayers returns the leading bidders joined with ", ", or "None".
func HighestPlayers(a Auction) string {
	leaders := Leaders(a)
	if len(leaders) == 0 {
		return "None"
	}
	names := make([]string, len(leaders))
	for i, l := range leaders {
		names[i] = l.Bidder
	}
	return strings.Join(names, ", ")
}
