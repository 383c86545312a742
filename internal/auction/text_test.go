package auction

import (
	"testing"
	"time"
)

func TestTimeRemaining(t *testing.T) {
	start := testStart
	tests := []struct {
		name    string
		elapsed time.Duration
		want    time.Duration
	}{
		{"just started", 0, 150 * time.Second},
		{"partway", 100 * time.Second, 50 * time.Second},
		{"exactly expired", 150 * time.Second, 0},
		{"long expired", time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimeRemaining(start, start.Add(tt.elapsed), DefaultMinDuration)
			if got != tt.want {
				t.Errorf("TimeRemaining() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRemainingText(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{60 * time.Second, "1m00s"},
		{125 * time.Second, "2m05s"},
		{125*time.Second + 900*time.Millisecond, "2m05s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := RemainingText(tt.in); got != tt.want {
				t.Errorf("RemainingText(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func bidAuction(bids map[int]string) Auction {
	return Auction{
		Kind: KindBid,
		Item: Occurrence{ID: "a1", Name: "Copper Disc"},
		Bid:  &BidDetails{Group: "VCR", MinBid: 5, Bids: bids},
	}
}

func rollAuction(rolls map[string]int) Auction {
	return Auction{
		Kind: KindRoll,
		Item: Occurrence{ID: "r1", Name: "Platinum Disc"},
		Roll: &RollDetails{Round: "333", Rolls: rolls},
	}
}

func TestCallText(t *testing.T) {
	tests := []struct {
		name    string
		auction Auction
		classes string
		want    string
	}{
		{
			name:    "bid without bids",
			auction: bidAuction(map[int]string{}),
			classes: "Warrior, Paladin",
			want: "/gu [Copper Disc] (Warrior, Paladin) - `VCR` BID IN /GU, MIN 5 DKP. " +
				"You MUST include the item name in your bid! Currently: `None` - Closes in 2m30s.",
		},
		{
			name:    "bid with leader",
			auction: bidAuction(map[int]string{7: "Amy", 12: "Jim"}),
			want: "/gu [Copper Disc] - `VCR` BID IN /GU. " +
				"You MUST include the item name in your bid! Currently: `Jim` with 12 DKP - Closing in 2m30s!",
		},
		{
			name:    "roll without rolls",
			auction: rollAuction(map[string]int{}),
			want:    "/gu [Platinum Disc] ROLL 333 NOW! Currently: `None` with None.",
		},
		{
			name:    "roll with tie",
			auction: rollAuction(map[string]int{"Zed": 300, "Amy": 300, "Bob": 2}),
			classes: "Rogue",
			want:    "/gu [Platinum Disc] (Rogue) ROLL 333 NOW! Currently: `Amy, Zed` with 300.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CallText(tt.auction, tt.classes, DefaultMinDuration)
			if got != tt.want {
				t.Errorf("CallText() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestWinText(t *testing.T) {
	bid := bidAuction(map[int]string{12: "Jim"})
	want := "/gu Grats Jim on [Copper Disc] (12 DKP) for `VCR`! Closed with 45s left."
	if got := WinText(bid, 45*time.Second); got != want {
		t.Errorf("WinText(bid) = %q, want %q", got, want)
	}

	roll := rollAuction(map[string]int{"Amy": 250})
	want = "/shout Grats Amy on [Platinum Disc] with 250 / 333!"
	if got := WinText(roll, 0); got != want {
		t.Errorf("WinText(roll) = %q, want %q", got, want)
	}

	if got := WinText(Auction{}, 0); got != "" {
		t.Errorf("WinText(zero) = %q, want empty", got)
	}
}

func TestLeaders_Empty(t *testing.T) {
	if got := Leaders(bidAuction(nil)); got != nil {
		t.Errorf("Leaders() = %v, want nil", got)
	}
	if got := HighestNumber(rollAuction(nil)); got != "None" {
		t.Errorf("HighestNumber() = %q, want None", got)
	}
	if got := HighestPlayers(Auction{Kind: KindRoll}); got != "None" {
		t.Errorf("HighestPlayers() = %q, want None", got)
	}
}
