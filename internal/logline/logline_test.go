package logline

import (
	"testing"
	"time"
)

var ts = time.Date(2020, 8, 17, 7, 15, 39, 0, time.UTC)

func TestParseIn(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Line
		wantErr bool
	}{
		{
			name:  "guild chat",
			input: "[Mon Aug 17 07:15:39 2020] Jim tells the guild, 'Copper Disc 15'",
			want: &Line{Kind: KindChat, Speaker: "Jim", Channel: ChannelGuild,
				Message: "Copper Disc 15"},
		},
		{
			name:  "raid chat with extra space",
			input: "[Mon Aug 17 07:15:39 2020] Amy tells the raid,  'grats Jim'",
			want:  &Line{Kind: KindChat, Speaker: "Amy", Channel: ChannelRaid, Message: "grats Jim"},
		},
		{
			name:  "ooc before say",
			input: "[Mon Aug 17 07:15:39 2020] Bob says out of character, 'Platinum Disc on corpse'",
			want: &Line{Kind: KindChat, Speaker: "Bob", Channel: ChannelOOC,
				Message: "Platinum Disc on corpse"},
		},
		{
			name:  "say",
			input: "[Mon Aug 17 07:15:39 2020] Bob says, 'it's here'",
			want:  &Line{Kind: KindChat, Speaker: "Bob", Channel: ChannelSay, Message: "it's here"},
		},
		{
			name:  "tell",
			input: "[Mon Aug 17 07:15:39 2020] Bob tells you, 'hi'",
			want:  &Line{Kind: KindChat, Speaker: "Bob", Channel: ChannelTell, Message: "hi"},
		},
		{
			name:  "local guild chat",
			input: "[Mon Aug 17 07:15:39 2020] You say to your guild, 'Copper Disc'",
			want: &Line{Kind: KindChat, Speaker: LocalPlayer, Channel: ChannelGuild,
				Message: "Copper Disc"},
		},
		{
			name:  "local tell",
			input: "[Mon Aug 17 07:15:39 2020] You told Bob, 'ok'",
			want:  &Line{Kind: KindChat, Speaker: LocalPlayer, Channel: ChannelTell, Message: "ok"},
		},
		{
			name:  "roll header",
			input: "[Mon Aug 17 07:15:39 2020] **A Magic Die is rolled by Jim.",
			want:  &Line{Kind: KindRollHeader, Speaker: "Jim"},
		},
		{
			name:  "roll result",
			input: "[Mon Aug 17 07:15:39 2020] **It could have been any number from 0 to 333, but this time it turned up a 217.",
			want:  &Line{Kind: KindRollResult, RollMin: 0, RollMax: 333, RollResult: 217},
		},
		{
			name:  "other line",
			input: "[Mon Aug 17 07:15:39 2020] You have entered Plane of Sky.",
			want:  &Line{Kind: KindOther},
		},
		{
			name:  "trailing CRLF",
			input: "[Mon Aug 17 07:15:39 2020] Jim shouts, 'train'\r\n",
			want:  &Line{Kind: KindChat, Speaker: "Jim", Channel: ChannelShout, Message: "train"},
		},
		{
			name:  "no prefix",
			input: "Jim tells the guild, 'Copper Disc'",
		},
		{
			name:  "empty",
			input: "",
		},
		{
			name:    "bad date",
			input:   "[Mon Aug 47 07:15:39 2020] Jim says, 'x'",
			wantErr: true,
		},
		{
			name:    "roll overflow",
			input:   "[Mon Aug 17 07:15:39 2020] **It could have been any number from 0 to 99999999999999999999, but this time it turned up a 1.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIn(tt.input, time.UTC)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIn() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want == nil {
				if got != nil {
					t.Errorf("ParseIn() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("ParseIn() = nil, want line")
			}
			if !got.Timestamp.Equal(ts) {
				t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
			}
			if got.Kind != tt.want.Kind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.want.Kind)
			}
			if got.Speaker != tt.want.Speaker {
				t.Errorf("Speaker = %q, want %q", got.Speaker, tt.want.Speaker)
			}
			if got.Channel != tt.want.Channel {
				t.Errorf("Channel = %q, want %q", got.Channel, tt.want.Channel)
			}
			if got.Message != tt.want.Message {
				t.Errorf("Message = %q, want %q", got.Message, tt.want.Message)
			}
			if got.RollMin != tt.want.RollMin || got.RollMax != tt.want.RollMax || got.RollResult != tt.want.RollResult {
				t.Errorf("roll = %d-%d:%d, want %d-%d:%d",
					got.RollMin, got.RollMax, got.RollResult,
					tt.want.RollMin, tt.want.RollMax, tt.want.RollResult)
			}
		})
	}
}

func TestParse_LocalTime(t *testing.T) {
	got, err := Parse("[Mon Aug 17 07:15:39 2020] Jim says, 'x'")
	if err != nil {
		t.Fatal(err)
	}
	if got.Timestamp.Location() != time.Local {
		t.Errorf("Location() = %v, want Local", got.Timestamp.Location())
	}
	if got.Timestamp.Hour() != 7 {
		t.Errorf("Hour() = %d, want 7", got.Timestamp.Hour())
	}
}

func TestLine_FromLocalPlayer(t *testing.T) {
	if !(&Line{Speaker: LocalPlayer}).FromLocalPlayer() {
		t.Error("FromLocalPlayer() = false for You")
	}
	if (&Line{Speaker: "Jim"}).FromLocalPlayer() {
		t.Error("FromLocalPlayer() = true for Jim")
	}
}
