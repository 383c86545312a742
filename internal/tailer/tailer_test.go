package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	guildLine = "[Mon Aug 17 07:15:39 2020] Jim tells the guild, 'Copper Disc 15'"
	rollLine  = "[Mon Aug 17 07:15:40 2020] **A Magic Die is rolled by Amy."
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eqlog_Jim_P1999Green.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func expectLines(t *testing.T, tl *Tailer, want ...string) {
	t.Helper()
	for i, w := range want {
		select {
		case got, ok := <-tl.Lines():
			if !ok {
				t.Fatalf("line %d: channel closed, want %q", i, w)
			}
			if got.Text != w {
				t.Errorf("line %d = %q, want %q", i, got.Text, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for line %d: %q", i, w)
		}
	}
}

func TestTailer_FollowsAppendedLines(t *testing.T) {
	path := writeLog(t, "old line\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tl, err := New(ctx, path, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer tl.Stop()

	// Give the watcher a moment to start.
	time.Sleep(100 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for _, line := range []string{guildLine, rollLine} {
		if _, err := f.WriteString(line + "\r\n"); err != nil {
			t.Fatal(err)
		}
		f.Sync()
		expectLines(t, tl, line)
	}
}

func TestTailer_StartPosition(t *testing.T) {
	content := guildLine + "\n" + rollLine + "\n"

	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "from start",
			cfg:  Config{Follow: true, MustExist: true, FromStart: true},
			want: []string{guildLine, rollLine},
		},
		{
			name: "from offset",
			cfg:  Config{Follow: true, MustExist: true, Offset: int64(len(guildLine) + 1)},
			want: []string{rollLine},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLog(t, content)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			tl, err := New(ctx, path, tt.cfg)
			if err != nil {
				t.Fatal(err)
			}
			defer tl.Stop()

			expectLines(t, tl, tt.want...)
		})
	}
}

func TestTailer_Stop(t *testing.T) {
	path := writeLog(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tl, err := New(ctx, path, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	if err := tl.Stop(); err != nil {
		t.Errorf("first Stop() error = %v", err)
	}
	if err := tl.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}

	select {
	case _, ok := <-tl.Lines():
		if ok {
			t.Error("Lines() still open after Stop()")
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for Lines() to close")
	}
}

func TestTailer_ContextCancel(t *testing.T) {
	path := writeLog(t, "")
	ctx, cancel := context.WithCancel(context.Background())

	tl, err := New(ctx, path, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer tl.Stop()

	cancel()

	select {
	case _, ok := <-tl.Lines():
		if ok {
			t.Error("Lines() still open after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for Lines() to close")
	}
}

func TestTailer_MissingFile(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), DefaultConfig())
	if err == nil {
		t.Error("New() error = nil for missing file")
	}
}
