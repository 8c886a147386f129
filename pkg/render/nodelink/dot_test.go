package nodelink

import (
	"strings"
	"testing"

	"github.com/flowweave/flowweave/pkg/graph"
)

func testGraph() *graph.Graph {
	return &graph.Graph{
		Nodes: []graph.Node{
			{ID: "farms", Band: 0, Group: "farms"},
			{ID: "__via_0_1", Band: 1, Pos: 0, Kind: graph.KindVia},
			{ID: "customers^Men", Band: 2, Group: "customers", Bucket: "Men"},
			{ID: "customers^__other", Band: 2, Group: "customers", Bucket: "(Other)", CatchAll: true},
		},
		Links: []graph.Link{
			{From: "farms", To: "__via_0_1", Material: "fruit", Value: 10},
			{From: "__via_0_1", To: "customers^Men", Material: "fruit", Value: 10},
		},
	}
}

func TestToDOT_Structure(t *testing.T) {
	dot := ToDOT(testGraph(), Options{})

	for _, want := range []string{
		"rankdir=LR",
		`"farms" -> "__via_0_1"`,
		`"__via_0_1" -> "customers^Men"`,
		"rank=same",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOT_ViaAndCatchAllStyling(t *testing.T) {
	dot := ToDOT(testGraph(), Options{})

	if !strings.Contains(dot, "shape=point") {
		t.Error("via node not rendered as a point")
	}
	if !strings.Contains(dot, "dashed") {
		t.Error("catch-all node not rendered dashed")
	}
}

func TestToDOT_RanksPerBand(t *testing.T) {
	dot := ToDOT(testGraph(), Options{})
	if got := strings.Count(dot, "rank=same"); got != 3 {
		t.Errorf("got %d rank groups, want 3", got)
	}
}

func TestToDOT_DetailedLabels(t *testing.T) {
	dot := ToDOT(testGraph(), Options{Detailed: true})
	if !strings.Contains(dot, "fruit (10)") {
		t.Errorf("detailed link label missing:\n%s", dot)
	}
	if !strings.Contains(dot, `customers\nMen`) {
		t.Errorf("detailed node label missing:\n%s", dot)
	}
}

func TestToDOT_PenwidthScalesWithValue(t *testing.T) {
	g := &graph.Graph{
		Nodes: []graph.Node{
			{ID: "a", Band: 0}, {ID: "b", Band: 1},
		},
		Links: []graph.Link{
			{From: "a", To: "b", Material: "big", Value: 10},
			{From: "a", To: "b", Material: "small", Value: 1},
		},
	}
	dot := ToDOT(g, Options{})
	if !strings.Contains(dot, "penwidth=6.00") {
		t.Errorf("largest link should have max penwidth:\n%s", dot)
	}
	if !strings.Contains(dot, "penwidth=1.50") {
		t.Errorf("small link width off:\n%s", dot)
	}
}
