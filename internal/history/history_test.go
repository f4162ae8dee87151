package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/supercycler/internal/logic"
)

func sampleEntries() []Entry {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	return []Entry{
		{At: base, State: logic.StateOn, Mode: "AUTO", OK: true},
		{At: base.Add(12 * time.Hour), State: logic.StateOff, Mode: "AUTO", OK: true},
		{At: base.Add(13 * time.Hour), State: logic.StateOn, Mode: "MANUAL", Error: "connection refused"},
	}
}

// checkStore runs the shared behaviour against any Store.
func checkStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	for _, e := range sampleEntries() {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Mode != "MANUAL" || got[0].OK || got[0].Error != "connection refused" {
		t.Errorf("newest entry: got %+v", got[0])
	}
	if got[1].State != logic.StateOff {
		t.Errorf("second entry: got %+v", got[1])
	}
	if !got[1].At.Equal(time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp: got %v", got[1].At)
	}

	all, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent(0): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected all 3 entries, got %d", len(all))
	}
}

func TestMemoryStore(t *testing.T) {
	checkStore(t, NewMemory(10))
}

func TestMemoryStoreLimit(t *testing.T) {
	m := NewMemory(2)
	for _, e := range sampleEntries() {
		m.Append(context.Background(), e)
	}

	got, _ := m.Recent(context.Background(), 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[1].State != logic.StateOff {
		t.Errorf("oldest entry should have been evicted, got %+v", got[1])
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	checkStore(t, s)
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history.db")

	s, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Append(context.Background(), Entry{At: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), State: logic.StateOn, Mode: "AUTO", OK: true})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].State != logic.StateOn || !got[0].OK {
		t.Errorf("unexpected entries after reopen: %+v", got)
	}
}

func TestSQLiteStoreZeroTimestamp(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	before := time.Now().Add(-time.Second)
	s.Append(context.Background(), Entry{State: logic.StateOff, Mode: "AUTO", OK: true})

	got, _ := s.Recent(context.Background(), 1)
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].At.Before(before) {
		t.Errorf("zero timestamp should be replaced with now, got %v", got[0].At)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  ", zerolog.Nop()); err == nil {
		t.Error("expected error for empty path")
	}
}
