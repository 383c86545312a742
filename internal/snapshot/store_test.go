package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path)

	if _, err := store.Load(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Load() on missing file error = %v, want %v", err, ErrNoSnapshot)
	}

	want := Snapshot{State: sampleState()}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	// Saving again replaces the file and leaves no temp files behind.
	want.State.RoundCounter = 9
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.State.RoundCounter != 9 {
		t.Errorf("RoundCounter = %d, want 9", got.State.RoundCounter)
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"pending": [{"json_type": "nope"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileStore(path).Load(context.Background())
	if !errors.Is(err, ErrSnapshotCorrupt) {
		t.Errorf("Load() error = %v, want %v", err, ErrSnapshotCorrupt)
	}
}

func TestFileStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err := store.Save(ctx, Snapshot{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Save() error = %v, want %v", err, context.Canceled)
	}
}

func TestSQLStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQL(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenSQL() error = %v", err)
	}
	defer store.Close()

	if _, err := store.Load(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Load() on empty database error = %v, want %v", err, ErrNoSnapshot)
	}

	want := Snapshot{State: sampleState()}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// A second save must not duplicate archive rows.
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	rows, err := store.Archive(ctx, "")
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Archive() = %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.ID != "d1" || row.Item != "Copper Disc" || row.Winners != "Jim" || row.Amount != 17 || row.Kind != "bid" {
		t.Errorf("Archive()[0] = %+v", row)
	}

	rows, err = store.Archive(ctx, "Platinum Disc")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("Archive(Platinum Disc) = %v, want none", rows)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{"default is file", Options{Path: filepath.Join(dir, "a.json")}, "*snapshot.FileStore", false},
		{"file", Options{Backend: BackendFile, Path: filepath.Join(dir, "b.json")}, "*snapshot.FileStore", false},
		{"sqlite from path", Options{Backend: BackendSQLite, Path: filepath.Join(dir, "c.db")}, "*snapshot.SQLStore", false},
		{"file without path", Options{Backend: BackendFile}, "", true},
		{"redis without address", Options{Backend: BackendRedis}, "", true},
		{"unknown backend", Options{Backend: "etcd", Path: "x"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(ctx, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if store != nil {
					t.Errorf("Open() store = %v, want nil on error", store)
				}
				return
			}
			defer store.Close()
			if got := reflect.TypeOf(store).String(); got != tt.want {
				t.Errorf("Open() type = %s, want %s", got, tt.want)
			}
		})
	}
}
