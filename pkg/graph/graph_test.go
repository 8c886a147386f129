package graph

import (
	"bytes"
	"testing"

	"github.com/flowweave/flowweave/pkg/errors"
)

func fruitGraph() *Graph {
	return &Graph{
		Nodes: []Node{
			{ID: "farms", Band: 0, Pos: 0, Group: "farms"},
			{ID: "customers^Men", Band: 1, Pos: 0, Group: "customers", Bucket: "Men"},
			{ID: "customers^Women", Band: 1, Pos: 0, Group: "customers", Bucket: "Women"},
		},
		Links: []Link{
			{From: "farms", To: "customers^Men", Material: "fruit", Value: 10},
			{From: "farms", To: "customers^Women", Material: "fruit", Value: 5},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := fruitGraph().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidate_UnknownEndpoint(t *testing.T) {
	g := fruitGraph()
	g.Links = append(g.Links, Link{From: "farms", To: "ghost", Material: "fruit", Value: 1})
	if err := g.Validate(); !errors.Is(err, errors.ErrCodeUnknownNode) {
		t.Errorf("Validate() = %v, want UNKNOWN_NODE", err)
	}
}

func TestValidate_BandOrdering(t *testing.T) {
	g := fruitGraph()
	g.Links = append(g.Links, Link{From: "customers^Men", To: "farms", Material: "fruit", Value: 1})
	if err := g.Validate(); !errors.Is(err, errors.ErrCodeInvalidOrdering) {
		t.Errorf("Validate() = %v, want INVALID_ORDERING", err)
	}
}

func TestValidate_DuplicateID(t *testing.T) {
	g := fruitGraph()
	g.Nodes = append(g.Nodes, Node{ID: "farms", Band: 2})
	if err := g.Validate(); !errors.Is(err, errors.ErrCodeInvalidDefinition) {
		t.Errorf("Validate() = %v, want INVALID_DEFINITION", err)
	}
}

func TestTotalValue(t *testing.T) {
	if got := fruitGraph().TotalValue(); got != 15 {
		t.Errorf("TotalValue() = %v, want 15", got)
	}
}

func TestTable_Sorted(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: "a", Band: 0}, {ID: "b", Band: 1}, {ID: "c", Band: 1},
		},
		Links: []Link{
			{From: "a", To: "c", Material: "m2", Value: 1},
			{From: "a", To: "b", Material: "m1", Value: 2},
			{From: "a", To: "b", Material: "m0", Value: 3},
		},
	}
	rows := g.Table()
	want := []Row{
		{From: "a", To: "b", Material: "m0", Value: 3},
		{From: "a", To: "b", Material: "m1", Value: 2},
		{From: "a", To: "c", Material: "m2", Value: 1},
	}
	if len(rows) != len(want) {
		t.Fatalf("Table() returned %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("Table()[%d] = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g := fruitGraph()

	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal(): %v", err)
	}
	back, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read(): %v", err)
	}

	if len(back.Nodes) != len(g.Nodes) || len(back.Links) != len(g.Links) {
		t.Fatalf("round trip lost content: %d/%d nodes, %d/%d links",
			len(back.Nodes), len(g.Nodes), len(back.Links), len(g.Links))
	}

	again, err := Marshal(back)
	if err != nil {
		t.Fatalf("Marshal(): %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("marshal → read → marshal is not byte-identical")
	}
}

func TestRead_RejectsInvalid(t *testing.T) {
	bad := `{"nodes":[{"id":"a","band":1}],"links":[{"from":"a","to":"a","material":"m","value":1}]}`
	if _, err := Read(bytes.NewReader([]byte(bad))); err == nil {
		t.Error("Read() should reject a link violating band ordering")
	}
}

func TestNodeID(t *testing.T) {
	if got := NodeID("customers", "Men"); got != "customers^Men" {
		t.Errorf("NodeID() = %q", got)
	}
	if got := NodeID("farms", ""); got != "farms" {
		t.Errorf("NodeID() = %q", got)
	}
	if got := ViaNodeID(2, 1); got != "__via_2_1" {
		t.Errorf("ViaNodeID() = %q", got)
	}
}
