package sankey

import (
	"testing"

	"github.com/flowweave/flowweave/pkg/errors"
)

func validDefinition() *Definition {
	return &Definition{
		Nodes: map[string]Node{
			"farms":     {Selector: MustQuery(`type == "farm"`)},
			"traders":   {Selector: IDs("t1", "t2")},
			"customers": {Selector: MustQuery(`type == "customer"`), Partition: Simple("sex", "Men", "Women")},
		},
		Bundles: []Bundle{
			{Source: "farms", Target: "customers", Waypoints: []string{"traders"}},
		},
		Ordering: [][]string{{"farms"}, {"traders"}, {"customers"}},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validDefinition().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidate_UnknownBundleNode(t *testing.T) {
	def := validDefinition()
	def.Bundles = append(def.Bundles, Bundle{Source: "farms", Target: "shops"})
	if err := def.Validate(); !errors.Is(err, errors.ErrCodeUnknownNode) {
		t.Errorf("Validate() = %v, want UNKNOWN_NODE", err)
	}
}

func TestValidate_UnknownOrderingNode(t *testing.T) {
	def := validDefinition()
	def.Ordering = append(def.Ordering, []string{"ghost"})
	if err := def.Validate(); !errors.Is(err, errors.ErrCodeUnknownNode) {
		t.Errorf("Validate() = %v, want UNKNOWN_NODE", err)
	}
}

func TestValidate_DuplicatePlacement(t *testing.T) {
	def := validDefinition()
	def.Ordering = [][]string{{"farms"}, {"traders", "farms"}, {"customers"}}
	if err := def.Validate(); !errors.Is(err, errors.ErrCodeInvalidOrdering) {
		t.Errorf("Validate() = %v, want INVALID_ORDERING", err)
	}
}

func TestValidate_BundleNodeNotPlaced(t *testing.T) {
	def := validDefinition()
	def.Ordering = [][]string{{"farms"}, {"customers"}} // traders missing
	if err := def.Validate(); !errors.Is(err, errors.ErrCodeInvalidOrdering) {
		t.Errorf("Validate() = %v, want INVALID_ORDERING", err)
	}
}

func TestValidate_SelfBundle(t *testing.T) {
	def := validDefinition()
	def.Bundles = []Bundle{{Source: "farms", Target: "farms"}}
	if err := def.Validate(); !errors.Is(err, errors.ErrCodeInvalidDefinition) {
		t.Errorf("Validate() = %v, want INVALID_DEFINITION", err)
	}
}

func TestValidate_Empty(t *testing.T) {
	def := &Definition{}
	if err := def.Validate(); !errors.Is(err, errors.ErrCodeInvalidDefinition) {
		t.Errorf("Validate() = %v, want INVALID_DEFINITION", err)
	}
}

func TestPlacements(t *testing.T) {
	def := validDefinition()
	got := def.Placements()

	want := map[string]Placement{
		"farms":     {Band: 0, Pos: 0},
		"traders":   {Band: 1, Pos: 0},
		"customers": {Band: 2, Pos: 0},
	}
	for name, p := range want {
		if got[name] != p {
			t.Errorf("Placements()[%q] = %+v, want %+v", name, got[name], p)
		}
	}
}

func TestSelector_IDsDeduplicate(t *testing.T) {
	s := IDs("a", "b", "a", "c", "b")
	got := s.ExplicitIDs()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("ExplicitIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExplicitIDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSelector_BadPredicate(t *testing.T) {
	_, err := Query(`type == `)
	if !errors.Is(err, errors.ErrCodeInvalidPredicate) {
		t.Errorf("Query() error = %v, want INVALID_PREDICATE", err)
	}
}

func TestBundle_String(t *testing.T) {
	b := Bundle{Source: "farms", Target: "customers", Waypoints: []string{"traders"}}
	if got := b.String(); got != "farms → traders → customers" {
		t.Errorf("String() = %q", got)
	}
}
