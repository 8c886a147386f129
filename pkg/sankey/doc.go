// Package sankey defines the declarative model for flow diagrams: selectors
// over processes, ordered partitions, bundles, and the diagram definition
// that composes them.
//
// A Definition is pure configuration. It references no dataset and holds no
// resolved state; the weave package resolves it against a dataset.Dataset
// and produces the output graph.
//
// # Building a Definition
//
//	def := &sankey.Definition{
//	    Nodes: map[string]sankey.Node{
//	        "farms":     {Selector: sankey.MustQuery(`type == "farm"`)},
//	        "customers": {Selector: sankey.MustQuery(`type == "customer"`),
//	            Partition: sankey.Simple("sex", "Men", "Women")},
//	    },
//	    Bundles:  []sankey.Bundle{{Source: "farms", Target: "customers"}},
//	    Ordering: [][]string{{"farms"}, {"customers"}},
//	}
//	if err := def.Validate(); err != nil { ... }
//
// Validate enforces the referential invariants up front so the weave engine
// can assume a consistent definition: every name a bundle or the ordering
// mentions must exist in Nodes, every node a bundle touches must be placed
// in exactly one ordering band, and partition bucket labels must be unique.
package sankey
