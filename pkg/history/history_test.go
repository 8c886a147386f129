package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowweave/flowweave/pkg/errors"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewStore(): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	stored, err := s.Append(ctx, Run{
		DatasetHash:    "dhash",
		DefinitionHash: "defhash",
		GraphHash:      "ghash",
		NodeCount:      3,
		LinkCount:      2,
		InputValue:     15,
		RoutedValue:    15,
		Duration:       42 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Append(): %v", err)
	}
	if stored.ID == "" {
		t.Fatal("Append() did not assign an ID")
	}
	if stored.CreatedAt.IsZero() {
		t.Fatal("Append() did not assign a timestamp")
	}

	got, err := s.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if got.GraphHash != "ghash" || got.NodeCount != 3 || got.Duration != 42*time.Millisecond {
		t.Errorf("Get() = %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get(missing) = %v, want NOT_FOUND", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.Append(ctx, Run{
			ID:        string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append(): %v", err)
		}
	}

	runs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List(): %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("List() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("List() order = [%s %s], want [c b]", runs[0].ID, runs[1].ID)
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List(0): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List(0) returned %d runs, want 3", len(all))
	}
}

func TestPrune(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, Run{
			ID:        string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append(): %v", err)
		}
	}

	removed, err := s.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune(): %v", err)
	}
	if removed != 3 {
		t.Errorf("Prune() removed %d, want 3", removed)
	}

	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List(): %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "e" || runs[1].ID != "d" {
		t.Errorf("after prune: %+v", runs)
	}
}
