// Package dataset owns the flow fact table and its dimension tables.
//
// A Dataset is built once per analysis from a slice of [FlowRecord] plus
// optional dimension tables describing processes and flows. It is immutable
// after construction and safe for concurrent reads, which makes it a valid
// input to any number of concurrent weave calls.
//
// # Attribute Scopes
//
// Predicates are evaluated against one of two joined attribute namespaces:
//
//   - Process scope: bare column names. "id" plus every column of the
//     process dimension table ("type", "location", ...).
//   - Flow scope: the flow columns ("source", "target", "material",
//     "value", any extra flow attributes), plus the process dimension
//     columns of both endpoints under "source." and "target." prefixes
//     ("source.organic", "target.sex").
//
// There is deliberately no "process." prefix: process-scoped lookups are
// always bare, flow-scoped lookups of endpoint attributes are always
// prefixed. This is the one consistent rule replacing the scope asymmetry
// the original system carried.
//
// Referencing a column that exists in no joined table for the requested
// scope is a fatal data error (MISSING_ATTRIBUTE). A process that simply
// has no row in the dimension table evaluates its dimension columns as
// empty strings.
package dataset
