package sankey

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/expr"
)

// DefinitionConfig is the serialized form of a Definition, as written in
// TOML definition files and accepted by the server's JSON API. Build
// converts it into a validated Definition.
type DefinitionConfig struct {
	Nodes         map[string]NodeConfig `toml:"nodes" json:"nodes"`
	Bundles       []BundleConfig        `toml:"bundles" json:"bundles"`
	Ordering      [][]string            `toml:"ordering" json:"ordering"`
	FlowPartition *PartitionConfig      `toml:"flow_partition" json:"flow_partition,omitempty"`
}

// NodeConfig declares one named node: an explicit ID list or a selector
// predicate, plus an optional partition and display title.
type NodeConfig struct {
	IDs       []string         `toml:"ids" json:"ids,omitempty"`
	Selector  string           `toml:"selector" json:"selector,omitempty"`
	Title     string           `toml:"title" json:"title,omitempty"`
	Partition *PartitionConfig `toml:"partition" json:"partition,omitempty"`
}

// PartitionConfig declares a partition either as column/values shorthand
// (one bucket per value, labelled by the value) or as explicit buckets.
type PartitionConfig struct {
	Column  string         `toml:"column" json:"column,omitempty"`
	Values  []string       `toml:"values" json:"values,omitempty"`
	Buckets []BucketConfig `toml:"buckets" json:"buckets,omitempty"`
}

// BucketConfig declares one explicit partition bucket.
type BucketConfig struct {
	Label  string   `toml:"label" json:"label"`
	Column string   `toml:"column" json:"column,omitempty"`
	Values []string `toml:"values" json:"values,omitempty"`
	Query  string   `toml:"query" json:"query,omitempty"`
}

// BundleConfig declares one bundle.
type BundleConfig struct {
	Source    string   `toml:"source" json:"source"`
	Target    string   `toml:"target" json:"target"`
	Waypoints []string `toml:"waypoints" json:"waypoints,omitempty"`
	Filter    string   `toml:"filter" json:"filter,omitempty"`
}

// ParseDefinitionTOML decodes TOML definition source and builds the
// Definition.
func ParseDefinitionTOML(data []byte) (*Definition, error) {
	var cfg DefinitionConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "parse definition")
	}
	return cfg.Build()
}

// LoadDefinition reads and builds a Definition from a TOML file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read definition %s", path)
	}
	return ParseDefinitionTOML(data)
}

// Build converts the config into a validated Definition. Predicates are
// compiled here, so syntax errors name the node or bundle they came from.
func (c *DefinitionConfig) Build() (*Definition, error) {
	def := &Definition{
		Nodes:    make(map[string]Node, len(c.Nodes)),
		Ordering: c.Ordering,
	}

	for name, nc := range c.Nodes {
		node, err := nc.build(name)
		if err != nil {
			return nil, err
		}
		def.Nodes[name] = node
	}

	for i, bc := range c.Bundles {
		b := Bundle{Source: bc.Source, Target: bc.Target, Waypoints: bc.Waypoints}
		if bc.Filter != "" {
			p, err := expr.Parse(bc.Filter)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidPredicate, err,
					"bundle %d (%s → %s) filter", i, bc.Source, bc.Target)
			}
			b.Filter = p
		}
		def.Bundles = append(def.Bundles, b)
	}

	if c.FlowPartition != nil {
		p, err := c.FlowPartition.build()
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "flow partition")
		}
		def.FlowPartition = p
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func (nc NodeConfig) build(name string) (Node, error) {
	if len(nc.IDs) > 0 && nc.Selector != "" {
		return Node{}, errors.New(errors.ErrCodeInvalidDefinition,
			"node %q declares both ids and selector", name)
	}

	node := Node{Title: nc.Title}
	if nc.Selector != "" {
		sel, err := Query(nc.Selector)
		if err != nil {
			return Node{}, errors.Wrap(errors.ErrCodeInvalidPredicate, err, "node %q selector", name)
		}
		node.Selector = sel
	} else {
		node.Selector = IDs(nc.IDs...)
	}

	if nc.Partition != nil {
		p, err := nc.Partition.build()
		if err != nil {
			return Node{}, errors.Wrap(errors.GetCode(err), err, "node %q partition", name)
		}
		node.Partition = p
	}
	return node, nil
}

func (pc PartitionConfig) build() (Partition, error) {
	if len(pc.Buckets) > 0 {
		if pc.Column != "" || len(pc.Values) > 0 {
			return Partition{}, errors.New(errors.ErrCodeInvalidDefinition,
				"partition declares both column/values shorthand and explicit buckets")
		}
		buckets := make([]Bucket, len(pc.Buckets))
		for i, bc := range pc.Buckets {
			b := Bucket{Label: bc.Label, Column: bc.Column, Values: bc.Values}
			if bc.Query != "" {
				q, err := expr.Parse(bc.Query)
				if err != nil {
					return Partition{}, errors.Wrap(errors.ErrCodeInvalidPredicate, err,
						"bucket %q query", bc.Label)
				}
				b.Query = q
			}
			buckets[i] = b
		}
		return NewPartition(buckets...)
	}

	if pc.Column == "" || len(pc.Values) == 0 {
		return Partition{}, errors.New(errors.ErrCodeInvalidDefinition,
			"partition needs column+values or explicit buckets")
	}
	return Simple(pc.Column, pc.Values...), nil
}
