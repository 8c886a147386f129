package dataset

import (
	"testing"

	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/expr"
)

func fruitDataset(t *testing.T) *Dataset {
	t.Helper()

	dims := NewDimensionTable("type", "organic", "sex")
	rows := map[string]map[string]string{
		"farm1": {"type": "farm", "organic": "yes"},
		"farm2": {"type": "farm", "organic": "no"},
		"Fred":  {"type": "customer", "sex": "Men"},
		"Susan": {"type": "customer", "sex": "Women"},
	}
	for id, values := range rows {
		if err := dims.AddRow(id, values); err != nil {
			t.Fatalf("AddRow(%s): %v", id, err)
		}
	}

	flows := []FlowRecord{
		{Source: "farm1", Target: "Fred", Material: "fruit", Value: 10},
		{Source: "farm2", Target: "Susan", Material: "fruit", Value: 5},
	}
	d, err := New(flows, WithProcessDims(dims))
	if err != nil {
		t.Fatalf("New(): %v", err)
	}
	return d
}

func TestNew_Basic(t *testing.T) {
	d := fruitDataset(t)

	if got := d.Total(); got != 15 {
		t.Errorf("Total() = %v, want 15", got)
	}

	want := []string{"farm1", "Fred", "farm2", "Susan"}
	got := d.Processes()
	if len(got) != len(want) {
		t.Fatalf("Processes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Processes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNew_EmptyEndpoint(t *testing.T) {
	_, err := New([]FlowRecord{{Source: "", Target: "x", Value: 1}})
	if !errors.Is(err, errors.ErrCodeInvalidTable) {
		t.Errorf("New() error = %v, want INVALID_TABLE", err)
	}
}

func TestProcessEnv(t *testing.T) {
	d := fruitDataset(t)
	env := d.ProcessEnv("farm1")

	tests := []struct {
		attr   string
		want   string
		wantOK bool
	}{
		{"id", "farm1", true},
		{"type", "farm", true},
		{"organic", "yes", true},
		{"sex", "", true}, // declared column, empty for farms
		{"colour", "", false},
	}
	for _, tt := range tests {
		got, ok := env.Attr(tt.attr)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Attr(%q) = (%q, %v), want (%q, %v)", tt.attr, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFlowEnv(t *testing.T) {
	d := fruitDataset(t)
	f := &d.Flows()[0]
	env := d.FlowEnv(f)

	tests := []struct {
		attr   string
		want   string
		wantOK bool
	}{
		{"source", "farm1", true},
		{"target", "Fred", true},
		{"material", "fruit", true},
		{"type", "fruit", true}, // alias for material in flow scope
		{"value", "10", true},
		{"source.organic", "yes", true},
		{"target.sex", "Men", true},
		{"source.colour", "", false},
		{"process.organic", "", false}, // no process. prefix exists
	}
	for _, tt := range tests {
		got, ok := env.Attr(tt.attr)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Attr(%q) = (%q, %v), want (%q, %v)", tt.attr, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestQueryProcesses(t *testing.T) {
	d := fruitDataset(t)

	got, err := d.QueryProcesses(expr.MustParse(`type == "farm"`))
	if err != nil {
		t.Fatalf("QueryProcesses(): %v", err)
	}
	want := []string{"farm1", "farm2"}
	if len(got) != len(want) {
		t.Fatalf("QueryProcesses() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("QueryProcesses()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestQueryFlows(t *testing.T) {
	d := fruitDataset(t)

	got, err := d.QueryFlows(expr.MustParse(`source.organic == "yes"`))
	if err != nil {
		t.Fatalf("QueryFlows(): %v", err)
	}
	if len(got) != 1 || got[0].Source != "farm1" {
		t.Errorf("QueryFlows() = %v, want one flow from farm1", got)
	}
}

func TestQuery_MissingAttribute(t *testing.T) {
	d := fruitDataset(t)

	_, err := d.QueryProcesses(expr.MustParse(`colour == "red"`))
	if !errors.Is(err, errors.ErrCodeMissingAttribute) {
		t.Errorf("QueryProcesses() error = %v, want MISSING_ATTRIBUTE", err)
	}

	_, err = d.QueryFlows(expr.MustParse(`process.organic == "yes"`))
	if !errors.Is(err, errors.ErrCodeMissingAttribute) {
		t.Errorf("QueryFlows() error = %v, want MISSING_ATTRIBUTE", err)
	}
}

func TestPartitionValues(t *testing.T) {
	d := fruitDataset(t)

	got, err := d.PartitionValues("organic", ScopeProcess)
	if err != nil {
		t.Fatalf("PartitionValues(): %v", err)
	}
	// farm1 first (organic=yes), then Fred (empty), then farm2 (no)
	want := []string{"yes", "", "no"}
	if len(got) != len(want) {
		t.Fatalf("PartitionValues() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PartitionValues()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := d.PartitionValues("colour", ScopeProcess); !errors.Is(err, errors.ErrCodeMissingAttribute) {
		t.Errorf("PartitionValues(colour) error = %v, want MISSING_ATTRIBUTE", err)
	}
}

func TestPartitionValues_FlowScope(t *testing.T) {
	d := fruitDataset(t)

	got, err := d.PartitionValues("material", ScopeFlow)
	if err != nil {
		t.Fatalf("PartitionValues(): %v", err)
	}
	if len(got) != 1 || got[0] != "fruit" {
		t.Errorf("PartitionValues() = %v, want [fruit]", got)
	}
}

func TestFlowDims(t *testing.T) {
	dims := NewDimensionTable("route")
	if err := dims.AddRow("f1", map[string]string{"route": "road"}); err != nil {
		t.Fatalf("AddRow(): %v", err)
	}

	flows := []FlowRecord{{ID: "f1", Source: "a", Target: "b", Material: "m", Value: 1}}
	d, err := New(flows, WithFlowDims(dims))
	if err != nil {
		t.Fatalf("New(): %v", err)
	}

	got, err := d.QueryFlows(expr.MustParse(`route == "road"`))
	if err != nil {
		t.Fatalf("QueryFlows(): %v", err)
	}
	if len(got) != 1 {
		t.Errorf("QueryFlows() matched %d flows, want 1", len(got))
	}
}

func TestDimensionTable_UndeclaredColumn(t *testing.T) {
	dims := NewDimensionTable("type")
	err := dims.AddRow("x", map[string]string{"colour": "red"})
	if !errors.Is(err, errors.ErrCodeInvalidTable) {
		t.Errorf("AddRow() error = %v, want INVALID_TABLE", err)
	}
}
