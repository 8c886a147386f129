package dataset

import (
	stderrors "errors"

	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/expr"
)

// Scope selects which joined attribute namespace a query runs against.
type Scope int

const (
	// ScopeFlow evaluates predicates per flow record over the flow columns
	// plus source./target. prefixed process attributes.
	ScopeFlow Scope = iota
	// ScopeProcess evaluates predicates per process identifier over "id"
	// plus the bare process dimension columns.
	ScopeProcess
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeFlow:
		return "flow"
	case ScopeProcess:
		return "process"
	}
	return "unknown"
}

// QueryFlows returns the flow records matching pred in flow scope,
// preserving fact-table order. Referencing an attribute absent from the
// joined namespace is a fatal data error.
func (d *Dataset) QueryFlows(pred *expr.Predicate) ([]FlowRecord, error) {
	var out []FlowRecord
	for i := range d.flows {
		ok, err := pred.Eval(flowEnv{d: d, f: &d.flows[i]})
		if err != nil {
			return nil, wrapEvalErr(err, ScopeFlow)
		}
		if ok {
			out = append(out, d.flows[i])
		}
	}
	return out, nil
}

// QueryProcesses returns the process identifiers matching pred in process
// scope, in the first-occurrence order of Processes.
func (d *Dataset) QueryProcesses(pred *expr.Predicate) ([]string, error) {
	var out []string
	for _, id := range d.processes {
		ok, err := pred.Eval(processEnv{d: d, id: id})
		if err != nil {
			return nil, wrapEvalErr(err, ScopeProcess)
		}
		if ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// PartitionValues returns the distinct values occurring for column in the
// given scope, ordered by first occurrence. The result is the natural
// bucket list for a partition built from observed data.
func (d *Dataset) PartitionValues(column string, scope Scope) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	switch scope {
	case ScopeFlow:
		for i := range d.flows {
			v, ok := (flowEnv{d: d, f: &d.flows[i]}).Attr(column)
			if !ok {
				return nil, errors.New(errors.ErrCodeMissingAttribute,
					"no column %q in flow scope", column)
			}
			add(v)
		}
	case ScopeProcess:
		for _, id := range d.processes {
			v, ok := (processEnv{d: d, id: id}).Attr(column)
			if !ok {
				return nil, errors.New(errors.ErrCodeMissingAttribute,
					"no column %q in process scope", column)
			}
			add(v)
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidScope, "unknown scope %d", scope)
	}
	return out, nil
}

func wrapEvalErr(err error, scope Scope) error {
	if stderrors.Is(err, expr.ErrUnknownAttribute) {
		return errors.Wrap(errors.ErrCodeMissingAttribute, err,
			"predicate references a column absent from %s scope", scope)
	}
	return errors.Wrap(errors.ErrCodeInvalidPredicate, err,
		"predicate failed in %s scope", scope)
}
