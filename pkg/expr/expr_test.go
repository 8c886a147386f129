package expr

import (
	"errors"
	"testing"
)

var farmEnv = MapEnv{
	"id":       "farm1",
	"type":     "farm",
	"organic":  "yes",
	"capacity": "120.5",
}

func TestEval_Equality(t *testing.T) {
	tests := []struct {
		pred string
		want bool
	}{
		{`type == "farm"`, true},
		{`type == 'customer'`, false},
		{`type != "customer"`, true},
		{`organic == "yes"`, true},
		{`id == "farm1"`, true},
	}

	for _, tt := range tests {
		p, err := Parse(tt.pred)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.pred, err)
		}
		got, err := p.Eval(farmEnv)
		if err != nil {
			t.Fatalf("Eval(%q): %v", tt.pred, err)
		}
		if got != tt.want {
			t.Errorf("Eval(%q) = %v, want %v", tt.pred, got, tt.want)
		}
	}
}

func TestEval_NumericComparison(t *testing.T) {
	tests := []struct {
		pred string
		want bool
	}{
		{`capacity > 100`, true},
		{`capacity >= 120.5`, true},
		{`capacity < 120.5`, false},
		{`capacity <= 200`, true},
		{`100 < capacity`, true},
	}

	for _, tt := range tests {
		got, err := MustParse(tt.pred).Eval(farmEnv)
		if err != nil {
			t.Fatalf("Eval(%q): %v", tt.pred, err)
		}
		if got != tt.want {
			t.Errorf("Eval(%q) = %v, want %v", tt.pred, got, tt.want)
		}
	}
}

func TestEval_NumericComparisonNonNumeric(t *testing.T) {
	_, err := MustParse(`type > 10`).Eval(farmEnv)
	if !errors.Is(err, ErrNotNumeric) {
		t.Errorf("Eval() error = %v, want ErrNotNumeric", err)
	}
}

func TestEval_In(t *testing.T) {
	tests := []struct {
		pred string
		want bool
	}{
		{`type in ("farm", "orchard")`, true},
		{`type in ("customer", "shop")`, false},
		{`capacity in (120.5, 99)`, true},
	}

	for _, tt := range tests {
		got, err := MustParse(tt.pred).Eval(farmEnv)
		if err != nil {
			t.Fatalf("Eval(%q): %v", tt.pred, err)
		}
		if got != tt.want {
			t.Errorf("Eval(%q) = %v, want %v", tt.pred, got, tt.want)
		}
	}
}

func TestEval_BooleanOperators(t *testing.T) {
	tests := []struct {
		pred string
		want bool
	}{
		{`type == "farm" and organic == "yes"`, true},
		{`type == "farm" and organic == "no"`, false},
		{`type == "shop" or organic == "yes"`, true},
		{`not type == "shop"`, true},
		{`not (type == "farm" and organic == "yes")`, false},
		{`type == "farm" && organic == "yes"`, true},
		{`type == "shop" || organic == "yes"`, true},
		{`! (organic == "no")`, true},
	}

	for _, tt := range tests {
		got, err := MustParse(tt.pred).Eval(farmEnv)
		if err != nil {
			t.Fatalf("Eval(%q): %v", tt.pred, err)
		}
		if got != tt.want {
			t.Errorf("Eval(%q) = %v, want %v", tt.pred, got, tt.want)
		}
	}
}

func TestEval_DottedAttributes(t *testing.T) {
	env := MapEnv{
		"material":       "fruit",
		"source.organic": "yes",
		"target.sex":     "Men",
	}
	got, err := MustParse(`source.organic == "yes" and target.sex != "Women"`).Eval(env)
	if err != nil {
		t.Fatalf("Eval(): %v", err)
	}
	if !got {
		t.Error("Eval() = false, want true")
	}
}

func TestEval_UnknownAttribute(t *testing.T) {
	_, err := MustParse(`colour == "red"`).Eval(farmEnv)
	if !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("Eval() error = %v, want ErrUnknownAttribute", err)
	}
}

func TestEval_ShortCircuitSkipsUnknown(t *testing.T) {
	// and short-circuits before touching the missing attribute
	got, err := MustParse(`type == "shop" and colour == "red"`).Eval(farmEnv)
	if err != nil {
		t.Fatalf("Eval(): %v", err)
	}
	if got {
		t.Error("Eval() = true, want false")
	}
}

func TestEval_Deterministic(t *testing.T) {
	p := MustParse(`type == "farm" or capacity > 50`)
	first, err := p.Eval(farmEnv)
	if err != nil {
		t.Fatalf("Eval(): %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := p.Eval(farmEnv)
		if err != nil {
			t.Fatalf("Eval(): %v", err)
		}
		if got != first {
			t.Fatal("repeated evaluation changed result")
		}
	}
}

func TestParse_Errors(t *testing.T) {
	bad := []string{
		``,
		`type ==`,
		`type = "farm"`,
		`(type == "farm"`,
		`type in ()`,
		`type in ("a" "b")`,
		`"unterminated`,
		`type == "farm" garbage`,
		`and == "x"`,
	}
	for _, pred := range bad {
		if _, err := Parse(pred); err == nil {
			t.Errorf("Parse(%q) should fail", pred)
		}
	}
}

func TestAttrs(t *testing.T) {
	p := MustParse(`source.organic == "yes" and (value > 3 or source.organic != "no")`)
	got := p.Attrs()
	want := []string{"source.organic", "value"}
	if len(got) != len(want) {
		t.Fatalf("Attrs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Attrs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
