// Package graph defines the output graph produced by the weaving engine:
// the fully resolved nodes and aggregated links consumed by rendering.
//
// The format is the canonical serialization for woven diagrams. It is
// human-readable and designed for round-trip fidelity: weave → export →
// re-import produces identical results. Node order and link order are part
// of the format — the weave engine emits them deterministically, so two
// weaves of the same inputs are byte-identical after encoding.
package graph

import (
	"fmt"
	"sort"

	"github.com/flowweave/flowweave/pkg/errors"
)

// Node kinds. A regular node is one (definition node, partition bucket)
// pair; a via node is a synthetic passthrough inserted where a bundle
// crosses a band without an explicit waypoint.
const (
	KindProcess = "" // regular node, the zero value
	KindVia     = "via"
)

// Node is one box of the output diagram.
type Node struct {
	ID     string `json:"id" bson:"id"`
	Band   int    `json:"band" bson:"band"`
	Pos    int    `json:"pos" bson:"pos"`
	Group  string `json:"group,omitempty" bson:"group,omitempty"`   // originating definition node name
	Bucket string `json:"bucket,omitempty" bson:"bucket,omitempty"` // partition bucket label, empty when unpartitioned
	Title  string `json:"title,omitempty" bson:"title,omitempty"`   // display title (defaults to ID)

	// CatchAll marks the implicit "(Other)" bucket. It is a tag, not a
	// label convention: a user bucket named "(Other)" has CatchAll false.
	CatchAll bool `json:"catch_all,omitempty" bson:"catch_all,omitempty"`

	// Kind is KindProcess or KindVia.
	Kind string `json:"kind,omitempty" bson:"kind,omitempty"`
}

// IsVia reports whether the node is a synthetic passthrough.
func (n *Node) IsVia() bool { return n.Kind == KindVia }

// DisplayTitle returns the title if set, otherwise the ID.
func (n *Node) DisplayTitle() string {
	if n.Title != "" {
		return n.Title
	}
	return n.ID
}

// Link is one aggregated flow between two nodes.
type Link struct {
	From     string  `json:"from" bson:"from"`
	To       string  `json:"to" bson:"to"`
	Material string  `json:"material" bson:"material"`
	Value    float64 `json:"value" bson:"value"`
}

// Graph is the resolved, aggregated flow graph.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Links []Link `json:"links" bson:"links"`
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// TotalValue returns the sum of all link values.
func (g *Graph) TotalValue() float64 {
	var total float64
	for _, l := range g.Links {
		total += l.Value
	}
	return total
}

// Validate checks graph integrity:
//
//  1. Node IDs are unique and non-empty
//  2. Every link references existing nodes
//  3. Every link moves strictly left to right (from.Band < to.Band)
//
// A woven graph always satisfies these; Validate guards re-imported or
// hand-built graphs before rendering.
func (g *Graph) Validate() error {
	byID := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == "" {
			return errors.New(errors.ErrCodeInvalidDefinition, "node %d has empty ID", i)
		}
		if _, dup := byID[n.ID]; dup {
			return errors.New(errors.ErrCodeInvalidDefinition, "duplicate node ID %q", n.ID)
		}
		byID[n.ID] = n
	}

	for i, l := range g.Links {
		from, ok := byID[l.From]
		if !ok {
			return errors.New(errors.ErrCodeUnknownNode, "link %d references unknown node %q", i, l.From)
		}
		to, ok := byID[l.To]
		if !ok {
			return errors.New(errors.ErrCodeUnknownNode, "link %d references unknown node %q", i, l.To)
		}
		if from.Band >= to.Band {
			return errors.New(errors.ErrCodeInvalidOrdering,
				"link %s → %s does not move left to right (band %d → %d)",
				l.From, l.To, from.Band, to.Band)
		}
	}
	return nil
}

// Row is one row of the tabular projection: an aggregated
// node×node×material×value cell.
type Row struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Material string  `json:"material"`
	Value    float64 `json:"value"`
}

// Table returns the tabular projection of the links, sorted by
// (from, to, material) for stable programmatic inspection. Content is
// equivalent to Links; only the ordering differs.
func (g *Graph) Table() []Row {
	rows := make([]Row, len(g.Links))
	for i, l := range g.Links {
		rows[i] = Row{From: l.From, To: l.To, Material: l.Material, Value: l.Value}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].From != rows[j].From {
			return rows[i].From < rows[j].From
		}
		if rows[i].To != rows[j].To {
			return rows[i].To < rows[j].To
		}
		return rows[i].Material < rows[j].Material
	})
	return rows
}

// NodeID builds the canonical output node identifier for a definition
// node and bucket label. Unpartitioned nodes use the bare name.
func NodeID(group, bucket string) string {
	if bucket == "" {
		return group
	}
	return fmt.Sprintf("%s^%s", group, bucket)
}

// ViaNodeID builds the deterministic identifier for a synthetic via node,
// unique per (bundle index, band index) so paths of different bundles
// never collide.
func ViaNodeID(bundle, band int) string {
	return fmt.Sprintf("__via_%d_%d", bundle, band)
}
