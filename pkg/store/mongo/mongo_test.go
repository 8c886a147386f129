package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/graph"
)

// Integration tests need a reachable MongoDB; set FLOWWEAVE_MONGO_URI to
// run them, e.g. FLOWWEAVE_MONGO_URI=mongodb://localhost:27017 go test.
func testStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("FLOWWEAVE_MONGO_URI")
	if uri == "" {
		t.Skip("FLOWWEAVE_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := New(ctx, uri, "flowweave_test")
	if err != nil {
		t.Fatalf("New(): %v", err)
	}
	t.Cleanup(func() {
		_ = s.coll.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	g := &graph.Graph{
		Nodes: []graph.Node{
			{ID: "farms", Band: 0},
			{ID: "customers^Men", Band: 1, Group: "customers", Bucket: "Men"},
		},
		Links: []graph.Link{
			{From: "farms", To: "customers^Men", Material: "fruit", Value: 10},
		},
	}

	if err := s.Save(ctx, "fruit", g, "ghash"); err != nil {
		t.Fatalf("Save(): %v", err)
	}
	got, err := s.Load(ctx, "fruit")
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Links) != 1 {
		t.Errorf("Load() = %d nodes / %d links", len(got.Nodes), len(got.Links))
	}
	if got.Links[0].Value != 10 {
		t.Errorf("Load() link value = %v", got.Links[0].Value)
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List(): %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "fruit" || infos[0].GraphHash != "ghash" {
		t.Errorf("List() = %+v", infos)
	}
}

func TestLoad_NotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.Load(context.Background(), "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load(missing) = %v, want NOT_FOUND", err)
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "tmp", &graph.Graph{}, ""); err != nil {
		t.Fatalf("Save(): %v", err)
	}
	if err := s.Delete(ctx, "tmp"); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	if err := s.Delete(ctx, "tmp"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Delete(tmp) again = %v, want NOT_FOUND", err)
	}
}
