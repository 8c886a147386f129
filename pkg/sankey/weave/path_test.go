package weave

import (
	"testing"

	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/sankey"
)

func placements(bands ...[]string) map[string]sankey.Placement {
	m := make(map[string]sankey.Placement)
	for band, names := range bands {
		for pos, name := range names {
			m[name] = sankey.Placement{Band: band, Pos: pos}
		}
	}
	return m
}

func TestResolvePath_Adjacent(t *testing.T) {
	p := placements([]string{"a"}, []string{"b"})
	hops, err := resolvePath(sankey.Bundle{Source: "a", Target: "b"}, 0, p)
	if err != nil {
		t.Fatalf("resolvePath(): %v", err)
	}
	if len(hops) != 2 || hops[0].name != "a" || hops[1].name != "b" {
		t.Errorf("hops = %+v, want [a b]", hops)
	}
}

func TestResolvePath_InsertsVias(t *testing.T) {
	p := placements([]string{"a"}, []string{"m"}, []string{"x"}, []string{"b"})
	hops, err := resolvePath(sankey.Bundle{Source: "a", Target: "b"}, 3, p)
	if err != nil {
		t.Fatalf("resolvePath(): %v", err)
	}
	want := []hop{
		{name: "a", band: 0},
		{name: "__via_3_1", band: 1, via: true},
		{name: "__via_3_2", band: 2, via: true},
		{name: "b", band: 3},
	}
	if len(hops) != len(want) {
		t.Fatalf("got %d hops, want %d: %+v", len(hops), len(want), hops)
	}
	for i := range want {
		if hops[i] != want[i] {
			t.Errorf("hops[%d] = %+v, want %+v", i, hops[i], want[i])
		}
	}
}

func TestResolvePath_ExplicitWaypointsSkipVias(t *testing.T) {
	p := placements([]string{"a"}, []string{"w"}, []string{"x"}, []string{"b"})
	hops, err := resolvePath(sankey.Bundle{Source: "a", Target: "b", Waypoints: []string{"w"}}, 0, p)
	if err != nil {
		t.Fatalf("resolvePath(): %v", err)
	}
	// Waypoints pin the path exactly; the skipped band gets no via.
	if len(hops) != 3 || hops[1].name != "w" {
		t.Errorf("hops = %+v, want [a w b]", hops)
	}
}

func TestResolvePath_BackwardIsConflict(t *testing.T) {
	p := placements([]string{"b"}, []string{"a"})
	_, err := resolvePath(sankey.Bundle{Source: "a", Target: "b"}, 0, p)
	if !errors.Is(err, errors.ErrCodeRoutingConflict) {
		t.Errorf("resolvePath() = %v, want ROUTING_CONFLICT", err)
	}
}

func TestResolvePath_SameBandWaypointIsConflict(t *testing.T) {
	p := placements([]string{"a", "w"}, []string{"b"})
	_, err := resolvePath(sankey.Bundle{Source: "a", Target: "b", Waypoints: []string{"w"}}, 0, p)
	if !errors.Is(err, errors.ErrCodeRoutingConflict) {
		t.Errorf("resolvePath() = %v, want ROUTING_CONFLICT", err)
	}
}
