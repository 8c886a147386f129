package sankey

import (
	"testing"

	"github.com/flowweave/flowweave/pkg/errors"
)

const fruitTOML = `
ordering = [["farms"], ["customers"]]

[nodes.farms]
selector = 'type == "farm"'
title = "Farms"

[nodes.customers]
selector = 'type == "customer"'

[nodes.customers.partition]
column = "sex"
values = ["Men", "Women"]

[[bundles]]
source = "farms"
target = "customers"
filter = 'material == "fruit"'
`

func TestParseDefinitionTOML(t *testing.T) {
	def, err := ParseDefinitionTOML([]byte(fruitTOML))
	if err != nil {
		t.Fatalf("ParseDefinitionTOML(): %v", err)
	}

	if len(def.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(def.Nodes))
	}
	if def.Nodes["farms"].Title != "Farms" {
		t.Errorf("farms title = %q", def.Nodes["farms"].Title)
	}
	if got := def.Nodes["customers"].Partition.Labels(); len(got) != 2 || got[0] != "Men" {
		t.Errorf("customers partition labels = %v", got)
	}
	if len(def.Bundles) != 1 || def.Bundles[0].Filter == nil {
		t.Errorf("bundles = %+v", def.Bundles)
	}
	if len(def.Ordering) != 2 {
		t.Errorf("ordering = %v", def.Ordering)
	}
}

func TestParseDefinitionTOML_ExplicitBuckets(t *testing.T) {
	src := `
ordering = [["a"], ["b"]]

[nodes.a]
ids = ["a1"]

[nodes.b]
ids = ["b1"]

[[nodes.b.partition.buckets]]
label = "big"
query = "value > '5'"

[[nodes.b.partition.buckets]]
label = "small"
column = "size"
values = ["s"]

[[bundles]]
source = "a"
target = "b"
`
	def, err := ParseDefinitionTOML([]byte(src))
	if err != nil {
		t.Fatalf("ParseDefinitionTOML(): %v", err)
	}
	buckets := def.Nodes["b"].Partition.Buckets()
	if len(buckets) != 2 || buckets[0].Query == nil || buckets[1].Column != "size" {
		t.Errorf("buckets = %+v", buckets)
	}
}

func TestBuild_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code errors.Code
	}{
		{
			name: "bad selector syntax",
			src: `
ordering = [["a"]]
[nodes.a]
selector = "type =="
`,
			code: errors.ErrCodeInvalidPredicate,
		},
		{
			name: "ids and selector together",
			src: `
ordering = [["a"]]
[nodes.a]
ids = ["x"]
selector = 'type == "y"'
`,
			code: errors.ErrCodeInvalidDefinition,
		},
		{
			name: "bundle references unknown node",
			src: `
ordering = [["a"]]
[nodes.a]
ids = ["x"]
[[bundles]]
source = "a"
target = "ghost"
`,
			code: errors.ErrCodeUnknownNode,
		},
		{
			name: "partition without rules",
			src: `
ordering = [["a"]]
[nodes.a]
ids = ["x"]
[nodes.a.partition]
column = "sex"
`,
			code: errors.ErrCodeInvalidDefinition,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDefinitionTOML([]byte(tc.src))
			if !errors.Is(err, tc.code) {
				t.Errorf("got %v, want code %s", err, tc.code)
			}
		})
	}
}

func TestLoadDefinition_MissingFile(t *testing.T) {
	if _, err := LoadDefinition("does/not/exist.toml"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadDefinition() = %v, want FILE_NOT_FOUND", err)
	}
}
