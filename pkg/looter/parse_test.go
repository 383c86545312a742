package looter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ninjalooter/ninjalooter-go/pkg/looter"
)

const scanLog = `[Mon Aug 17 07:15:39 2020] Bob tells the guild, 'Copper Disc on corpse'
[Mon Aug 17 07:15:40 2020] You say to your guild, 'Platinum Disc'
[Mon Aug 17 07:15:41 2020] Amy says out of character, 'belt of iniquity and Copper Disc'
[Mon Aug 17 07:15:42 2020] Amy tells the guild, 'nothing here'
[Mon Foo 17 07:15:43 2020] broken
[Mon Aug 17 07:15:44 2020] **A Magic Die is rolled by Amy.
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eqlog_Jim_P1999Green.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestExtractor(t *testing.T) (*looter.Extractor, *looter.Catalog) {
	t.Helper()
	c, err := looter.ParseCatalog(strings.NewReader(testCatalogJSON))
	if err != nil {
		t.Fatal(err)
	}
	x, err := looter.NewExtractor(c)
	if err != nil {
		t.Fatal(err)
	}
	return x, c
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind string
		wantNil  bool
	}{
		{
			name:     "guild chat",
			input:    "[Mon Aug 17 07:15:39 2020] Bob tells the guild, 'Copper Disc'",
			wantKind: "chat",
		},
		{
			name:     "roll header",
			input:    "[Mon Aug 17 07:15:39 2020] **A Magic Die is rolled by Amy.",
			wantKind: "roll_header",
		},
		{
			name:    "line without prefix returns nil",
			input:   "some random text",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := looter.ParseLine(tt.input)
			if err != nil {
				t.Fatalf("ParseLine() error = %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseLine() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("ParseLine() = nil, want non-nil")
			}
			if string(got.Kind) != tt.wantKind {
				t.Errorf("ParseLine().Kind = %v, want %v", got.Kind, tt.wantKind)
			}
		})
	}
}

func TestMentions(t *testing.T) {
	x, c := newTestExtractor(t)

	l, err := looter.ParseLine("[Mon Aug 17 07:15:39 2020] Bob tells the guild, 'COPPER DISC and Belt of Iniquity'")
	if err != nil {
		t.Fatal(err)
	}
	got := looter.Mentions(x, c, l)
	if len(got) != 2 {
		t.Fatalf("Mentions() = %d mentions, want 2", len(got))
	}
	if got[0].Item != "Copper Disc" || got[0].Text != "COPPER DISC" {
		t.Errorf("Mentions()[0] = %+v, want Copper Disc written as COPPER DISC", got[0])
	}
	if got[1].Item != "Belt of Iniquity" {
		t.Errorf("Mentions()[1].Item = %q, want %q", got[1].Item, "Belt of Iniquity")
	}
	if got[0].Channel != "guild" || got[0].Speaker != "Bob" {
		t.Errorf("Mentions()[0] = %+v, want Bob on guild", got[0])
	}

	if got := looter.Mentions(x, c, nil); got != nil {
		t.Errorf("Mentions(nil) = %v, want nil", got)
	}
}

func TestScanFile(t *testing.T) {
	x, c := newTestExtractor(t)
	path := writeLog(t, scanLog)

	tests := []struct {
		name     string
		opts     []looter.ParseOption
		wantItem []string
	}{
		{
			name:     "default skips local lines",
			wantItem: []string{"Copper Disc", "Belt of Iniquity", "Copper Disc"},
		},
		{
			name:     "include local",
			opts:     []looter.ParseOption{looter.WithParseIncludeLocal(true)},
			wantItem: []string{"Copper Disc", "Platinum Disc", "Belt of Iniquity", "Copper Disc"},
		},
		{
			name:     "guild only",
			opts:     []looter.ParseOption{looter.WithParseChannels("guild")},
			wantItem: []string{"Copper Disc"},
		},
		{
			name: "time range is half open",
			opts: []looter.ParseOption{looter.WithParseTimeRange(
				time.Date(2020, 8, 17, 7, 15, 40, 0, time.UTC),
				time.Date(2020, 8, 17, 7, 15, 42, 0, time.UTC),
			)},
			wantItem: []string{"Belt of Iniquity", "Copper Disc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]looter.ParseOption{looter.WithParseLocation(time.UTC)}, tt.opts...)
			got, err := looter.ScanFileAll(context.Background(), path, x, c, opts...)
			if err != nil {
				t.Fatalf("ScanFileAll() error = %v", err)
			}
			if len(got) != len(tt.wantItem) {
				t.Fatalf("got %d mentions, want %d: %+v", len(got), len(tt.wantItem), got)
			}
			for i, want := range tt.wantItem {
				if got[i].Item != want {
					t.Errorf("mention %d: got item %q, want %q", i, got[i].Item, want)
				}
			}
		})
	}
}

func TestScanFile_StopOnError(t *testing.T) {
	x, c := newTestExtractor(t)
	path := writeLog(t, scanLog)

	got, err := looter.ScanFileAll(context.Background(), path, x, c,
		looter.WithParseLocation(time.UTC),
		looter.WithParseStopOnError(true),
	)
	var parseErr *looter.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("ScanFileAll() error = %v, want *ParseError", err)
	}
	if !strings.Contains(parseErr.Line, "broken") {
		t.Errorf("ParseError.Line = %q, want the malformed line", parseErr.Line)
	}
	if len(got) != 3 {
		t.Errorf("got %d mentions before the error, want 3", len(got))
	}
}

func TestScanFile_IncludeRawLine(t *testing.T) {
	x, c := newTestExtractor(t)
	path := writeLog(t, scanLog)

	got, err := looter.ScanFileAll(context.Background(), path, x, c,
		looter.WithParseIncludeRawLine(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.SplitN(scanLog, "\n", 2)[0]
	if got[0].RawLine != want {
		t.Errorf("RawLine = %q, want %q", got[0].RawLine, want)
	}
}

func TestScanFile_Errors(t *testing.T) {
	x, c := newTestExtractor(t)
	path := writeLog(t, scanLog)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		path string
		x    *looter.Extractor
		want error
	}{
		{name: "empty path", ctx: context.Background(), x: x},
		{name: "missing extractor", ctx: context.Background(), path: path},
		{name: "file not found", ctx: context.Background(), path: "/nonexistent/eqlog.txt", x: x, want: os.ErrNotExist},
		{name: "canceled context", ctx: canceled, path: path, x: x, want: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errCount int
			for _, err := range looter.ScanFile(tt.ctx, tt.path, tt.x, c) {
				if err != nil {
					errCount++
					if tt.want != nil && !errors.Is(err, tt.want) {
						t.Errorf("ScanFile() error = %v, want %v", err, tt.want)
					}
					break
				}
			}
			if errCount != 1 {
				t.Error("ScanFile() should yield an error")
			}
		})
	}
}

func TestScanFile_EarlyBreak(t *testing.T) {
	x, c := newTestExtractor(t)
	path := writeLog(t, scanLog)

	count := 0
	for _, err := range looter.ScanFile(context.Background(), path, x, c) {
		if err != nil {
			t.Fatal(err)
		}
		count++
		break
	}
	if count != 1 {
		t.Errorf("got %d mentions, want 1", count)
	}
}
