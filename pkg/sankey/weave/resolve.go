package weave

import (
	"github.com/flowweave/flowweave/pkg/dataset"
	"github.com/flowweave/flowweave/pkg/sankey"
)

// resolver resolves selectors to process sets, memoized per weave call.
// Resolution against an unchanged dataset is idempotent, so caching per
// (node name) is safe for the lifetime of one invocation.
type resolver struct {
	ds  *dataset.Dataset
	def *sankey.Definition

	ids  map[string][]string
	sets map[string]map[string]struct{}
}

func newResolver(ds *dataset.Dataset, def *sankey.Definition) *resolver {
	return &resolver{
		ds:   ds,
		def:  def,
		ids:  make(map[string][]string),
		sets: make(map[string]map[string]struct{}),
	}
}

// resolve returns the process identifiers the named node's selector
// denotes, order preserved. Explicit selectors return their list
// verbatim; predicate selectors are evaluated over every process
// identifier in the dataset's flow records.
func (r *resolver) resolve(name string) ([]string, error) {
	if cached, ok := r.ids[name]; ok {
		return cached, nil
	}

	sel := r.def.Nodes[name].Selector
	var ids []string
	if sel.IsExplicit() {
		ids = sel.ExplicitIDs()
	} else {
		var err error
		ids, err = r.ds.QueryProcesses(sel.Predicate())
		if err != nil {
			return nil, err
		}
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	r.ids[name] = ids
	r.sets[name] = set
	return ids, nil
}

// contains reports whether the named node's resolved set includes id.
// resolve must have been called for name first.
func (r *resolver) contains(name, id string) bool {
	_, ok := r.sets[name][id]
	return ok
}
