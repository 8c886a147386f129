package weave

import (
	stderrors "errors"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/flowweave/flowweave/pkg/dataset"
	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/expr"
	"github.com/flowweave/flowweave/pkg/graph"
	"github.com/flowweave/flowweave/pkg/sankey"
)

// Result is the outcome of one weave call: the output graph plus the
// coverage diagnostics accumulated while routing.
type Result struct {
	Graph       *graph.Graph `json:"graph"`
	Diagnostics Diagnostics  `json:"diagnostics"`
}

// Option configures a weave call.
type Option func(*weaver)

// WithLogger sets the logger for weave progress. Defaults to log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(w *weaver) { w.logger = logger }
}

// Weave resolves the definition against the dataset and produces the
// aggregated output graph. The call is side-effect free: the dataset and
// definition are read-only and all working state is scoped to the call.
//
// Configuration and data errors abort with a nil result; coverage gaps
// (unmatched flows, empty selectors, catch-all hits) are reported in
// Result.Diagnostics instead.
func Weave(ds *dataset.Dataset, def *sankey.Definition, opts ...Option) (*Result, error) {
	w := &weaver{
		ds:     ds,
		def:    def,
		logger: log.Default(),
		links:  make(map[linkKey]float64),
		hits:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w.run()
}

// linkKey identifies one aggregated output link.
type linkKey struct {
	from     string
	to       string
	material string
}

type weaver struct {
	ds     *dataset.Dataset
	def    *sankey.Definition
	logger *log.Logger

	res   *resolver
	paths [][]hop
	links map[linkKey]float64
	hits  map[string]bool // catch-all and via node IDs actually routed through
	diag  Diagnostics
}

func (w *weaver) run() (*Result, error) {
	if err := w.def.Validate(); err != nil {
		return nil, err
	}

	paths, err := resolvePaths(w.def)
	if err != nil {
		return nil, err
	}
	w.paths = paths

	w.res = newResolver(w.ds, w.def)
	for _, band := range w.def.Ordering {
		for _, name := range band {
			ids, err := w.res.resolve(name)
			if err != nil {
				return nil, err
			}
			if len(ids) == 0 {
				w.diag.EmptySelectors = append(w.diag.EmptySelectors, name)
			}
		}
	}

	w.diag.InputValue = w.ds.Total()
	flows := w.ds.Flows()
	for i := range flows {
		if err := w.route(&flows[i]); err != nil {
			return nil, err
		}
	}

	g := w.emit()
	w.logger.Debug("wove graph",
		"bundles", len(w.def.Bundles),
		"nodes", len(g.Nodes),
		"links", len(g.Links),
		"unmatched", w.diag.UnmatchedCount)

	return &Result{Graph: g, Diagnostics: w.diag}, nil
}

// route sends one flow record along the first declared bundle covering
// its endpoints, or records it as unmatched.
func (w *weaver) route(f *dataset.FlowRecord) error {
	for i, b := range w.def.Bundles {
		if !w.res.contains(b.Source, f.Source) || !w.res.contains(b.Target, f.Target) {
			continue
		}
		if b.Filter != nil {
			ok, err := b.Filter.Eval(w.ds.FlowEnv(f))
			if err != nil {
				return wrapFilterErr(err, i, b)
			}
			if !ok {
				continue
			}
		}
		return w.routeAlong(f, b, w.paths[i])
	}

	w.diag.UnmatchedCount++
	w.diag.UnmatchedValue += f.Value
	return nil
}

// routeAlong accumulates the record's value into every link of the path.
// Multi-hop paths carry the value once per hop; the record itself counts
// once toward RoutedValue.
func (w *weaver) routeAlong(f *dataset.FlowRecord, b sankey.Bundle, path []hop) error {
	material, err := w.materialFor(f)
	if err != nil {
		return err
	}

	prev := ""
	for _, h := range path {
		id, err := w.nodeIDFor(f, b, h)
		if err != nil {
			return err
		}
		if prev != "" {
			w.links[linkKey{from: prev, to: id, material: material}] += f.Value
		}
		prev = id
	}
	w.diag.RoutedValue += f.Value
	return nil
}

// nodeIDFor classifies the record at one hop and returns the output node
// ID it lands in. Source and target hops classify in process scope over
// their own endpoint; waypoint hops classify in flow scope; via hops are
// unpartitioned passthroughs.
func (w *weaver) nodeIDFor(f *dataset.FlowRecord, b sankey.Bundle, h hop) (string, error) {
	if h.via {
		w.hits[h.name] = true
		return h.name, nil
	}

	node := w.def.Nodes[h.name]
	if node.Partition.IsZero() {
		return h.name, nil
	}

	var env expr.Env
	switch h.name {
	case b.Source:
		env = w.ds.ProcessEnv(f.Source)
	case b.Target:
		env = w.ds.ProcessEnv(f.Target)
	default:
		env = w.ds.FlowEnv(f)
	}

	ref, err := node.Partition.Classify(env)
	if err != nil {
		return "", err
	}
	if ref.Kind == sankey.BucketOther {
		w.diag.OtherHits++
		id := otherNodeID(h.name)
		w.hits[id] = true
		return id, nil
	}
	return graph.NodeID(h.name, ref.Label), nil
}

// materialFor returns the link material key: the flow partition bucket
// when one is set, the raw material tag otherwise.
func (w *weaver) materialFor(f *dataset.FlowRecord) (string, error) {
	if w.def.FlowPartition.IsZero() {
		return f.Material, nil
	}
	ref, err := w.def.FlowPartition.Classify(w.ds.FlowEnv(f))
	if err != nil {
		return "", err
	}
	if ref.Kind == sankey.BucketOther {
		w.diag.OtherHits++
	}
	return ref.Label, nil
}

// emit assembles the output graph in deterministic order. Explicit buckets
// of every placed node are emitted even when empty; catch-all and via
// nodes appear only when a record routed through them. Via nodes follow
// the real nodes of their band, in bundle declaration order.
func (w *weaver) emit() *graph.Graph {
	g := &graph.Graph{}

	for band, names := range w.def.Ordering {
		for pos, name := range names {
			node := w.def.Nodes[name]
			if node.Partition.IsZero() {
				g.Nodes = append(g.Nodes, graph.Node{
					ID: name, Band: band, Pos: pos, Group: name, Title: node.Title,
				})
				continue
			}
			for _, label := range node.Partition.Labels() {
				g.Nodes = append(g.Nodes, graph.Node{
					ID: graph.NodeID(name, label), Band: band, Pos: pos,
					Group: name, Bucket: label,
				})
			}
			if id := otherNodeID(name); w.hits[id] {
				g.Nodes = append(g.Nodes, graph.Node{
					ID: id, Band: band, Pos: pos,
					Group: name, Bucket: sankey.OtherLabel, CatchAll: true,
				})
			}
		}
		viaPos := len(names)
		for i := range w.paths {
			for _, h := range w.paths[i] {
				if h.via && h.band == band && w.hits[h.name] {
					g.Nodes = append(g.Nodes, graph.Node{
						ID: h.name, Band: band, Pos: viaPos, Kind: graph.KindVia,
					})
					viaPos++
				}
			}
		}
	}

	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		index[n.ID] = i
	}

	keys := make([]linkKey, 0, len(w.links))
	for k := range w.links {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if index[a.from] != index[b.from] {
			return index[a.from] < index[b.from]
		}
		if index[a.to] != index[b.to] {
			return index[a.to] < index[b.to]
		}
		return a.material < b.material
	})
	for _, k := range keys {
		g.Links = append(g.Links, graph.Link{
			From: k.from, To: k.to, Material: k.material, Value: w.links[k],
		})
	}
	return g
}

// otherNodeID is the output ID of a node's implicit catch-all bucket.
// The suffix is outside the label namespace, so a user bucket literally
// named "(Other)" maps to a different node.
func otherNodeID(group string) string {
	return group + "^__other"
}

func wrapFilterErr(err error, i int, b sankey.Bundle) error {
	if stderrors.Is(err, expr.ErrUnknownAttribute) {
		return errors.Wrap(errors.ErrCodeMissingAttribute, err,
			"bundle %d (%s) filter references a column absent from flow scope", i, b)
	}
	return errors.Wrap(errors.ErrCodeInvalidPredicate, err,
		"bundle %d (%s) filter failed", i, b)
}
