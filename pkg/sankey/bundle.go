package sankey

import "github.com/flowweave/flowweave/pkg/expr"

// Bundle describes an intended flow path from one named node to another,
// optionally routed through intermediate waypoint nodes and optionally
// restricted to flows matching a filter predicate (flow scope).
type Bundle struct {
	Source    string
	Target    string
	Waypoints []string
	Filter    *expr.Predicate
}

// String returns a compact human-readable form, used in error messages
// and diagnostics ("farms → customers" or "farms → via → customers").
func (b Bundle) String() string {
	s := b.Source
	for _, w := range b.Waypoints {
		s += " → " + w
	}
	return s + " → " + b.Target
}

// names returns every node name the bundle references, path order.
func (b Bundle) names() []string {
	out := make([]string, 0, len(b.Waypoints)+2)
	out = append(out, b.Source)
	out = append(out, b.Waypoints...)
	out = append(out, b.Target)
	return out
}
