package looter

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ninjalooter/ninjalooter-go/internal/extract"
)

func TestApplyWatchOptions_Defaults(t *testing.T) {
	cfg := applyWatchOptions([]WatchOption{nil, WithEventBuffer(0)})
	if cfg.replay.Mode != ReplayNone {
		t.Errorf("replay mode = %v, want ReplayNone", cfg.replay.Mode)
	}
	if cfg.maxReplayLines != DefaultMaxReplayLastN {
		t.Errorf("maxReplayLines = %d, want %d", cfg.maxReplayLines, DefaultMaxReplayLastN)
	}
	if cfg.eventBuffer != 256 {
		t.Errorf("eventBuffer = %d, want 256", cfg.eventBuffer)
	}
	if cfg.logger != nil || cfg.filter != nil || cfg.poll {
		t.Errorf("unexpected non-default config %+v", cfg)
	}
}

func TestApplyProcessorOptions(t *testing.T) {
	cfg := applyProcessorOptions([]ProcessorOption{WithLocation(nil)})
	if cfg.location != time.Local {
		t.Errorf("location = %v, want Local", cfg.location)
	}

	cfg = applyProcessorOptions([]ProcessorOption{WithLocation(time.UTC), WithProcessorRawLine(true)})
	if cfg.location != time.UTC {
		t.Errorf("location = %v, want UTC", cfg.location)
	}
	if !cfg.includeRawLine {
		t.Error("includeRawLine = false, want true")
	}
}

func TestWatchConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []WatchOption
		wantErr bool
	}{
		{name: "defaults"},
		{name: "last n zero", opts: []WatchOption{WithReplayLastN(0)}},
		{name: "last n at cap", opts: []WatchOption{WithReplayLastN(DefaultMaxReplayLastN)}},
		{name: "last n above cap", opts: []WatchOption{WithReplayLastN(DefaultMaxReplayLastN + 1)}, wantErr: true},
		{name: "zero cap uses default", opts: []WatchOption{WithMaxReplayLines(0), WithReplayLastN(DefaultMaxReplayLastN + 1)}, wantErr: true},
		{name: "since set", opts: []WatchOption{WithReplaySinceTime(time.Now())}},
		{name: "since zero", opts: []WatchOption{WithReplaySinceTime(time.Time{})}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := applyWatchOptions(tt.opts).validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBidAmount(t *testing.T) {
	tests := []struct {
		name  string
		msg   string
		spans []extract.Span
		want  int
	}{
		{"after name", "Copper Disc 15", []extract.Span{{Start: 0, End: 11}}, 15},
		{"before name", "15 Copper Disc", []extract.Span{{Start: 3, End: 14}}, 15},
		{"digits inside name are skipped", "Rune 3 of Doom 20", []extract.Span{{Start: 0, End: 14}}, 20},
		{"no number", "Copper Disc", []extract.Span{{Start: 0, End: 11}}, 0},
		{"overflow is skipped", "Copper Disc 99999999999999999999999", []extract.Span{{Start: 0, End: 11}}, 0},
		{"first number wins", "Copper Disc 12 or 14", []extract.Span{{Start: 0, End: 11}}, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bidAmount(tt.msg, tt.spans); got != tt.want {
				t.Errorf("bidAmount(%q) = %d, want %d", tt.msg, got, tt.want)
			}
		})
	}
}

func TestReadLastNLines(t *testing.T) {
	var long strings.Builder
	for i := 0; i < 1000; i++ {
		long.WriteString("line ")
		long.WriteString(strings.Repeat("x", i%7))
		long.WriteString("\n")
	}
	longContent := long.String() + "last one\n"

	tests := []struct {
		name    string
		content string
		n       int
		want    []string
	}{
		{"empty file", "", 3, nil},
		{"fewer lines than n", "a\nb\nc\n", 5, []string{"a", "b", "c"}},
		{"last two", "a\nb\nc\n", 2, []string{"b", "c"}},
		{"no trailing newline", "a\nb\nc", 2, []string{"b", "c"}},
		{"crlf", "a\r\nb\r\n", 2, []string{"a", "b"}},
		{"blank lines skipped", "a\n\nb\n\n", 2, []string{"a", "b"}},
		{"spans chunks", longContent, 2, []string{"line " + strings.Repeat("x", 999%7), "last one"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "eqlog.txt")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			got, size, err := readLastNLines(path, tt.n)
			if err != nil {
				t.Fatalf("readLastNLines() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("readLastNLines() = %q, want %q", got, tt.want)
			}
			if size != int64(len(tt.content)) {
				t.Errorf("readLastNLines() size = %d, want %d", size, len(tt.content))
			}
		})
	}
}
