package weave

import (
	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/graph"
	"github.com/flowweave/flowweave/pkg/sankey"
)

// hop is one station of a resolved bundle path: a definition node or a
// synthetic via node, pinned to a band.
type hop struct {
	name string // definition node name, or via node ID for synthetic hops
	band int
	via  bool
}

// resolvePath computes the node sequence bundle index i must traverse.
//
// With explicit waypoints the path is exactly source → waypoints → target
// and every step must move to a strictly later band. Without waypoints,
// skipped bands between source and target get one synthetic via hop each,
// named uniquely per (bundle, band) so paths of different bundles never
// collide.
func resolvePath(b sankey.Bundle, i int, placements map[string]sankey.Placement) ([]hop, error) {
	names := make([]string, 0, len(b.Waypoints)+2)
	names = append(names, b.Source)
	names = append(names, b.Waypoints...)
	names = append(names, b.Target)

	hops := make([]hop, len(names))
	for j, name := range names {
		hops[j] = hop{name: name, band: placements[name].Band}
	}

	for j := 1; j < len(hops); j++ {
		if hops[j].band <= hops[j-1].band {
			return nil, errors.New(errors.ErrCodeRoutingConflict,
				"bundle %d (%s): %q (band %d) does not come after %q (band %d)",
				i, b, hops[j].name, hops[j].band, hops[j-1].name, hops[j-1].band)
		}
	}

	if len(b.Waypoints) > 0 {
		return hops, nil
	}

	src, tgt := hops[0], hops[1]
	if tgt.band-src.band == 1 {
		return hops, nil
	}
	path := make([]hop, 0, tgt.band-src.band+1)
	path = append(path, src)
	for band := src.band + 1; band < tgt.band; band++ {
		path = append(path, hop{name: graph.ViaNodeID(i, band), band: band, via: true})
	}
	return append(path, tgt), nil
}

// resolvePaths resolves every bundle path against the ordering.
// The definition must have been validated first.
func resolvePaths(def *sankey.Definition) ([][]hop, error) {
	placements := def.Placements()
	paths := make([][]hop, len(def.Bundles))
	for i, b := range def.Bundles {
		p, err := resolvePath(b, i, placements)
		if err != nil {
			return nil, err
		}
		paths[i] = p
	}
	return paths, nil
}
