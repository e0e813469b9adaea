package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestGlob_SortedMatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"raw_events_002.csv", "raw_events_000.csv", "raw_events_001.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	got, err := Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	want := []string{
		filepath.Join(dir, "raw_events_000.csv"),
		filepath.Join(dir, "raw_events_001.csv"),
		filepath.Join(dir, "raw_events_002.csv"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Glob = %v, want %v", got, want)
	}
}

// TestGlob_NoMatches verifies an empty result is not an error; the caller
// decides whether that is fatal.
func TestGlob_NoMatches(t *testing.T) {
	t.Parallel()

	got, err := Glob(filepath.Join(t.TempDir(), "*.csv"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Glob = %v, want empty", got)
	}
}

func TestLocal_Open(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "part.csv")
	if err := os.WriteFile(path, []byte("event_id\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rc, err := NewLocal(path).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "event_id\n" {
		t.Fatalf("content = %q", b)
	}
}

func TestLocal_OpenMissing(t *testing.T) {
	t.Parallel()

	_, err := NewLocal(filepath.Join(t.TempDir(), "missing.csv")).Open(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestLocal_OpenCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal("irrelevant").Open(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
