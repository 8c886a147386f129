package sankey

import (
	"github.com/flowweave/flowweave/pkg/errors"
)

// Node is one named element of the diagram: a selector over processes,
// an optional partition that splits the node into buckets, and an optional
// display title.
type Node struct {
	Selector  Selector
	Partition Partition
	Title     string
}

// Definition composes named nodes, bundles, and the left-to-right ordering
// into a complete diagram description. Band i of Ordering is drawn at
// horizontal position i; names within a band stack top to bottom.
//
// An optional FlowPartition groups material tags into buckets; when unset,
// links carry the raw material tag.
type Definition struct {
	Nodes         map[string]Node
	Bundles       []Bundle
	Ordering      [][]string
	FlowPartition Partition
}

// Placement locates a node name within the ordering.
type Placement struct {
	Band int // index of the band (horizontal position)
	Pos  int // index within the band (vertical position)
}

// Placements returns the ordering as a name → placement map.
// Validate must have succeeded for the result to be meaningful.
func (d *Definition) Placements() map[string]Placement {
	m := make(map[string]Placement)
	for band, names := range d.Ordering {
		for pos, name := range names {
			m[name] = Placement{Band: band, Pos: pos}
		}
	}
	return m
}

// Validate checks the definition's referential invariants:
//
//   - every name a bundle references exists in Nodes
//   - every name in the ordering exists in Nodes
//   - no name appears twice in the ordering
//   - every node a bundle references is placed in the ordering
//   - a bundle's source and target differ
//
// Partition invariants (unique bucket labels) are enforced at partition
// construction. Validate returns the first violation as a configuration
// error; a nil return means the weave engine can rely on every lookup
// succeeding.
func (d *Definition) Validate() error {
	if len(d.Nodes) == 0 {
		return errors.New(errors.ErrCodeInvalidDefinition, "definition has no nodes")
	}

	placed := make(map[string]struct{})
	for band, names := range d.Ordering {
		for _, name := range names {
			if _, ok := d.Nodes[name]; !ok {
				return errors.New(errors.ErrCodeUnknownNode,
					"ordering band %d references unknown node %q", band, name)
			}
			if _, dup := placed[name]; dup {
				return errors.New(errors.ErrCodeInvalidOrdering,
					"node %q appears twice in the ordering", name)
			}
			placed[name] = struct{}{}
		}
	}

	for i, b := range d.Bundles {
		for _, name := range b.names() {
			if _, ok := d.Nodes[name]; !ok {
				return errors.New(errors.ErrCodeUnknownNode,
					"bundle %d (%s) references unknown node %q", i, b, name)
			}
			if _, ok := placed[name]; !ok {
				return errors.New(errors.ErrCodeInvalidOrdering,
					"bundle %d (%s): node %q is not placed in the ordering", i, b, name)
			}
		}
		if b.Source == b.Target {
			return errors.New(errors.ErrCodeInvalidDefinition,
				"bundle %d: source and target are both %q", i, b.Source)
		}
	}

	return nil
}
