// Package logline parses lines of the game client's text log.
package logline

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimestampLayout is the layout of the bracketed prefix on every log line.
const TimestampLayout = "Mon Jan 02 15:04:05 2006"

// LocalPlayer is the speaker name used for lines typed by the log's owner.
const LocalPlayer = "You"

// Kind classifies a parsed line.
type Kind string

const (
	KindOther      Kind = "other"
	KindChat       Kind = "chat"
	KindRollHeader Kind = "roll_header"
	KindRollResult Kind = "roll_result"
)

// Channel is the chat channel a message was sent on.
type Channel string

const (
	ChannelGuild   Channel = "guild"
	ChannelGroup   Channel = "group"
	ChannelRaid    Channel = "raid"
	ChannelOOC     Channel = "ooc"
	ChannelAuction Channel = "auction"
	ChannelShout   Channel = "shout"
	ChannelSay     Channel = "say"
	ChannelTell    Channel = "tell"
)

// Line is one parsed log line.
type Line struct {
	Timestamp time.Time
	Kind      Kind

	// Body is the text after the timestamp prefix.
	Body string

	// Chat fields.
	Speaker string
	Channel Channel
	Message string

	// Roll fields. A roll header sets Speaker; a roll result sets the range
	// and the rolled number.
	RollMin    int
	RollMax    int
	RollResult int
}

// FromLocalPlayer reports whether the line was typed by the log's owner.
func (l *Line) FromLocalPlayer() bool {
	return l.Speaker == LocalPlayer
}

var (
	prefixPattern = regexp.MustCompile(`^\[(\w{3} \w{3} \d{2} \d{2}:\d{2}:\d{2} \d{4})\] (.*)$`)

	otherChatPattern = regexp.MustCompile(
		`^(\w+) (tells the guild|tells the group|tells the raid|says out of character|auctions|shouts|says|tells you),\s+'(.*)'$`)

	localChatPattern = regexp.MustCompile(
		`^You (say to your guild|tell your party|tell your raid|say out of character|auction|shout|say|told \w+),\s+'(.*)'$`)

	rollHeaderPattern = regexp.MustCompile(`^\*\*A Magic Die is rolled by (\w+)\.$`)

	rollResultPattern = regexp.MustCompile(
		`^\*\*It could have been any number from (\d+) to (\d+), but this time it turned up a (\d+)\.$`)
)

var otherChannels = map[string]Channel{
	"tells the guild":       ChannelGuild,
	"tells the group":       ChannelGroup,
	"tells the raid":        ChannelRaid,
	"says out of character": ChannelOOC,
	"auctions":              ChannelAuction,
	"shouts":                ChannelShout,
	"says":                  ChannelSay,
	"tells you":             ChannelTell,
}

var localChannels = map[string]Channel{
	"say to your guild":    ChannelGuild,
	"tell your party":      ChannelGroup,
	"tell your raid":       ChannelRaid,
	"say out of character": ChannelOOC,
	"auction":              ChannelAuction,
	"shout":                ChannelShout,
	"say":                  ChannelSay,
}

// Parse parses a log line, reading the timestamp in the local time zone.
//
// Return values:
//   - (*Line, nil): a timestamped line, classified by Kind
//   - (nil, nil): no timestamp prefix (not an error)
//   - (nil, error): the prefix is present but malformed
func Parse(line string) (*Line, error) {
	return ParseIn(line, time.Local)
}

// ParseIn is like Parse but reads the timestamp in loc.
func ParseIn(line string, loc *time.Location) (*Line, error) {
	m := prefixPattern.FindStringSubmatch(trimEOL(line))
	if m == nil {
		return nil, nil
	}

	ts, err := time.ParseInLocation(TimestampLayout, m[1], loc)
	if err != nil {
		return nil, fmt.Errorf("timestamp %q: %w", m[1], err)
	}

	l := &Line{Timestamp: ts, Kind: KindOther, Body: m[2]}
	switch {
	case parseChat(l):
	case rollHeaderPattern.MatchString(l.Body):
		l.Kind = KindRollHeader
		l.Speaker = rollHeaderPattern.FindStringSubmatch(l.Body)[1]
	case rollResultPattern.MatchString(l.Body):
		if err := parseRollResult(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func parseChat(l *Line) bool {
	if m := localChatPattern.FindStringSubmatch(l.Body); m != nil {
		ch, ok := localChannels[m[1]]
		if !ok {
			ch = ChannelTell
		}
		l.Kind, l.Speaker, l.Channel, l.Message = KindChat, LocalPlayer, ch, m[2]
		return true
	}
	if m := otherChatPattern.FindStringSubmatch(l.Body); m != nil {
		l.Kind, l.Speaker, l.Channel, l.Message = KindChat, m[1], otherChannels[m[2]], m[3]
		return true
	}
	return false
}

func parseRollResult(l *Line) error {
	m := rollResultPattern.FindStringSubmatch(l.Body)
	nums := make([]int, 3)
	for i := range nums {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return fmt.Errorf("roll number %q: %w", m[i+1], err)
		}
		nums[i] = n
	}
	l.Kind = KindRollResult
	l.RollMin, l.RollMax, l.RollResult = nums[0], nums[1], nums[2]
	return nil
}

func trimEOL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
