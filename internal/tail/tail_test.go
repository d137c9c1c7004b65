package tail

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestFollowReadsAppendedLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString("first\nsec"); err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lines := make(chan string, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- Follow(ctx, path, func(line []byte) bool {
			lines <- string(line)
			return string(line) == "end"
		})
	}()

	if got := <-lines; got != "first" {
		t.Fatalf("line = %q, want first", got)
	}
	if _, err := f.WriteString("ond\r\nend\nignored\n"); err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}

	if err := <-errc; err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	close(lines)
	var got []string
	for l := range lines {
		got = append(got, l)
	}
	if want := []string{"second", "end"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %v, want %v", got, want)
	}
}

func TestFollowReportsRemoval(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte("first\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lines := make(chan string, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- Follow(ctx, path, func(line []byte) bool {
			lines <- string(line)
			return false
		})
	}()

	if got := <-lines; got != "first" {
		t.Fatalf("line = %q, want first", got)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if err := <-errc; !errors.Is(err, ErrRemoved) {
		t.Fatalf("Follow() after Remove = %v, want ErrRemoved", err)
	}
}

func TestFollowReportsReplacement(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "events.jsonl")
	if err := os.WriteFile(path, []byte("old\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lines := make(chan string, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- Follow(ctx, path, func(line []byte) bool {
			lines <- string(line)
			return false
		})
	}()

	if got := <-lines; got != "old" {
		t.Fatalf("line = %q, want old", got)
	}
	next := filepath.Join(dir, "next.jsonl")
	if err := os.WriteFile(next, []byte("new\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.Rename(next, path); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	if err := <-errc; !errors.Is(err, ErrRemoved) {
		t.Fatalf("Follow() after replacement = %v, want ErrRemoved", err)
	}
}

func TestFollowStopsOnContext(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Follow(ctx, path, func([]byte) bool { return false })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Follow() error = %v, want context.Canceled", err)
	}
}

func TestFollowMissingFile(t *testing.T) {
	t.Parallel()

	err := Follow(context.Background(), filepath.Join(t.TempDir(), "missing"), func([]byte) bool { return true })
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Follow() error = %v, want not exist", err)
	}
}
