// Package weave implements the weaving engine: it resolves a diagram
// definition against a dataset and produces the aggregated output graph.
//
// # Pipeline
//
// One weave call is a pure, synchronous transformation:
//
//  1. Validate the definition (configuration errors abort here).
//  2. Resolve every bundle's node path against the ordering, inserting
//     synthetic via nodes where a bundle skips bands without explicit
//     waypoints.
//  3. Resolve selectors to process sets, memoized for the call.
//  4. Route each flow record along the first declared bundle that covers
//     its endpoints, classifying it into partition buckets at every hop
//     and accumulating link values keyed by (from, to, material).
//  5. Emit the output graph with deterministic node and link order, plus
//     a diagnostics record for coverage auditing.
//
// The engine keeps no state across calls: resolution caches live for a
// single invocation, so concurrent weaves over a shared read-only dataset
// are safe.
//
// # Determinism
//
// Identical inputs produce byte-identical graphs after JSON encoding.
// Nodes are ordered by (band, position within band, bucket declaration
// order) with via nodes after real nodes of their band; links are ordered
// by node order and material. Flow routing follows fact-table order, and
// bundle tie-breaks follow declaration order, so accumulated sums never
// depend on map iteration.
package weave
