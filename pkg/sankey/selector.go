package sankey

import (
	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/expr"
)

// Selector denotes a set of process identifiers, either as an explicit
// list or as a predicate evaluated in process scope. The zero value is an
// empty explicit selector, which resolves to no processes.
type Selector struct {
	ids   []string
	query *expr.Predicate
}

// IDs creates an explicit selector. Order is preserved and duplicates are
// removed, so resolution returns exactly this list.
func IDs(ids ...string) Selector {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return Selector{ids: out}
}

// Query creates a predicate selector. The predicate is compiled eagerly so
// syntax errors surface at definition time, not mid-weave.
func Query(pred string) (Selector, error) {
	p, err := expr.Parse(pred)
	if err != nil {
		return Selector{}, errors.Wrap(errors.ErrCodeInvalidPredicate, err, "selector predicate %q", pred)
	}
	return Selector{query: p}, nil
}

// MustQuery is like Query but panics on a malformed predicate.
// Intended for definitions embedded in source code and for tests.
func MustQuery(pred string) Selector {
	s, err := Query(pred)
	if err != nil {
		panic(err)
	}
	return s
}

// IsExplicit reports whether the selector is an explicit ID list.
func (s Selector) IsExplicit() bool { return s.query == nil }

// ExplicitIDs returns the explicit ID list (nil for predicate selectors).
// The returned slice must not be modified.
func (s Selector) ExplicitIDs() []string { return s.ids }

// Predicate returns the compiled predicate (nil for explicit selectors).
func (s Selector) Predicate() *expr.Predicate { return s.query }
