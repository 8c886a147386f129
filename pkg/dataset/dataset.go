package dataset

import (
	"strconv"

	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/expr"
)

// FlowRecord is one row of the flow fact table: a quantity of material
// moving from a source process to a target process. Records are immutable
// once loaded into a Dataset.
type FlowRecord struct {
	ID       string            `json:"id,omitempty"`    // optional, joins the flow dimension table
	Source   string            `json:"source"`          // source process identifier
	Target   string            `json:"target"`          // target process identifier
	Material string            `json:"material"`        // material/type tag
	Value    float64           `json:"value"`           // flow quantity
	Attrs    map[string]string `json:"attrs,omitempty"` // extra flow columns
}

// DimensionTable holds descriptive attributes keyed by identifier.
// All rows share the declared column set; absent cells are empty strings.
type DimensionTable struct {
	columns []string
	colSet  map[string]struct{}
	rows    map[string]map[string]string
	order   []string
}

// NewDimensionTable creates an empty table with the given columns.
func NewDimensionTable(columns ...string) *DimensionTable {
	colSet := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		colSet[c] = struct{}{}
	}
	return &DimensionTable{
		columns: columns,
		colSet:  colSet,
		rows:    make(map[string]map[string]string),
	}
}

// AddRow adds or replaces the row for id. Values for undeclared columns
// are rejected so that schema typos surface early.
func (t *DimensionTable) AddRow(id string, values map[string]string) error {
	if id == "" {
		return errors.New(errors.ErrCodeInvalidTable, "dimension row has empty identifier")
	}
	row := make(map[string]string, len(t.columns))
	for _, c := range t.columns {
		row[c] = ""
	}
	for k, v := range values {
		if _, ok := t.colSet[k]; !ok {
			return errors.New(errors.ErrCodeInvalidTable, "row %q: undeclared column %q", id, k)
		}
		row[k] = v
	}
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
	return nil
}

// Columns returns the declared column names in declaration order.
func (t *DimensionTable) Columns() []string { return t.columns }

// HasColumn reports whether col is declared on this table.
func (t *DimensionTable) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	_, ok := t.colSet[col]
	return ok
}

// Row returns the attribute row for id, if present.
func (t *DimensionTable) Row(id string) (map[string]string, bool) {
	if t == nil {
		return nil, false
	}
	r, ok := t.rows[id]
	return r, ok
}

// Len returns the number of rows.
func (t *DimensionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// IDs returns row identifiers in insertion order.
func (t *DimensionTable) IDs() []string {
	if t == nil {
		return nil
	}
	return t.order
}

// cell returns the value of col for id. Rows absent from the table read
// every declared column as the empty string.
func (t *DimensionTable) cell(id, col string) string {
	if r, ok := t.rows[id]; ok {
		return r[col]
	}
	return ""
}

// Option configures a Dataset during construction.
type Option func(*Dataset)

// WithProcessDims attaches a process dimension table keyed by process id.
func WithProcessDims(t *DimensionTable) Option {
	return func(d *Dataset) { d.processDims = t }
}

// WithFlowDims attaches a flow dimension table keyed by FlowRecord.ID.
func WithFlowDims(t *DimensionTable) Option {
	return func(d *Dataset) { d.flowDims = t }
}

// Dataset owns the flow fact table and zero or more dimension tables.
// It answers predicate queries and value-domain lookups; see the package
// documentation for the scope rules. The zero value is not usable.
type Dataset struct {
	flows       []FlowRecord
	processDims *DimensionTable
	flowDims    *DimensionTable
	processes   []string // first-occurrence order over flow endpoints
	total       float64
}

// New builds a Dataset from flow records and options.
//
// Every flow must name a non-empty source and target. Endpoints without a
// row in the process dimension table are allowed; their dimension columns
// read as empty strings.
func New(flows []FlowRecord, opts ...Option) (*Dataset, error) {
	d := &Dataset{flows: flows}
	for _, opt := range opts {
		opt(d)
	}

	seen := make(map[string]struct{})
	for i, f := range flows {
		if f.Source == "" || f.Target == "" {
			return nil, errors.New(errors.ErrCodeInvalidTable, "flow %d: empty source or target", i)
		}
		for _, id := range [2]string{f.Source, f.Target} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				d.processes = append(d.processes, id)
			}
		}
		d.total += f.Value
	}
	return d, nil
}

// Flows returns the flow records. The returned slice must not be modified.
func (d *Dataset) Flows() []FlowRecord { return d.flows }

// Processes returns every process identifier appearing as a flow endpoint,
// in first-occurrence order (source before target within a record). The
// order is a pure function of the flow table, so repeated calls and
// repeated weaves see the same sequence.
func (d *Dataset) Processes() []string { return d.processes }

// ProcessDims returns the process dimension table, or nil.
func (d *Dataset) ProcessDims() *DimensionTable { return d.processDims }

// FlowDims returns the flow dimension table, or nil.
func (d *Dataset) FlowDims() *DimensionTable { return d.flowDims }

// Total returns the sum of all flow values, for conservation auditing.
func (d *Dataset) Total() float64 { return d.total }

// =============================================================================
// Attribute environments
// =============================================================================

// processEnv resolves process-scoped attributes for one process id.
type processEnv struct {
	d  *Dataset
	id string
}

// Attr implements expr.Env. "id" is always present; dimension columns are
// present whenever the table declares them.
func (e processEnv) Attr(name string) (string, bool) {
	if name == "id" {
		return e.id, true
	}
	if e.d.processDims.HasColumn(name) {
		return e.d.processDims.cell(e.id, name), true
	}
	return "", false
}

// flowEnv resolves flow-scoped attributes for one flow record.
type flowEnv struct {
	d *Dataset
	f *FlowRecord
}

// Attr implements expr.Env over the joined flow namespace.
func (e flowEnv) Attr(name string) (string, bool) {
	switch name {
	case "source":
		return e.f.Source, true
	case "target":
		return e.f.Target, true
	case "material", "type":
		return e.f.Material, true
	case "value":
		return strconv.FormatFloat(e.f.Value, 'f', -1, 64), true
	}
	if v, ok := e.f.Attrs[name]; ok {
		return v, true
	}
	if e.d.flowDims.HasColumn(name) && e.f.ID != "" {
		return e.d.flowDims.cell(e.f.ID, name), true
	}
	if col, ok := cutPrefix(name, "source."); ok && e.d.processDims.HasColumn(col) {
		return e.d.processDims.cell(e.f.Source, col), true
	}
	if col, ok := cutPrefix(name, "target."); ok && e.d.processDims.HasColumn(col) {
		return e.d.processDims.cell(e.f.Target, col), true
	}
	return "", false
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}
	return "", false
}

// ProcessEnv returns the process-scoped attribute environment for id.
func (d *Dataset) ProcessEnv(id string) expr.Env {
	return processEnv{d: d, id: id}
}

// FlowEnv returns the flow-scoped attribute environment for f.
// f must point into the slice returned by Flows.
func (d *Dataset) FlowEnv(f *FlowRecord) expr.Env {
	return flowEnv{d: d, f: f}
}
