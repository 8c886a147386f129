package sankey

import (
	stderrors "errors"
	"fmt"

	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/expr"
)

// BucketKind distinguishes user-declared buckets from the implicit
// catch-all. The catch-all is a tagged variant rather than a magic label,
// so a user bucket literally named "(Other)" can never collide with it.
type BucketKind int

const (
	// BucketExplicit is a bucket declared in the partition.
	BucketExplicit BucketKind = iota
	// BucketOther is the implicit catch-all appended after explicit buckets.
	BucketOther
)

// OtherLabel is the display label of the implicit catch-all bucket.
const OtherLabel = "(Other)"

// Bucket is one (label, rule) pair of a partition. The rule is either a
// value set over a column or a predicate; exactly one must be set.
type Bucket struct {
	Label  string
	Column string   // column for a value-set rule
	Values []string // values matching this bucket
	Query  *expr.Predicate
}

// matches evaluates the bucket rule against env.
func (b Bucket) matches(env expr.Env) (bool, error) {
	if b.Query != nil {
		return b.Query.Eval(env)
	}
	v, ok := env.Attr(b.Column)
	if !ok {
		return false, fmt.Errorf("%w: %q", expr.ErrUnknownAttribute, b.Column)
	}
	for _, want := range b.Values {
		if v == want {
			return true, nil
		}
	}
	return false, nil
}

// BucketRef identifies the bucket a value was classified into.
type BucketRef struct {
	Kind  BucketKind
	Label string
}

// String returns the bucket's display label.
func (r BucketRef) String() string { return r.Label }

// Other is the catch-all bucket reference.
var Other = BucketRef{Kind: BucketOther, Label: OtherLabel}

// Partition is an ordered sequence of named buckets plus the implicit
// catch-all. The zero value is the unset partition: callers treat an unset
// partition as a single bucket equal to the node's own name.
type Partition struct {
	buckets []Bucket
}

// NewPartition creates a partition from explicit buckets. Bucket labels
// must be unique; order is significant and preserved in the output.
func NewPartition(buckets ...Bucket) (Partition, error) {
	seen := make(map[string]struct{}, len(buckets))
	for _, b := range buckets {
		if b.Label == "" {
			return Partition{}, errors.New(errors.ErrCodeInvalidDefinition, "partition bucket has empty label")
		}
		if _, dup := seen[b.Label]; dup {
			return Partition{}, errors.New(errors.ErrCodeDuplicateBucket, "partition declares bucket %q twice", b.Label)
		}
		seen[b.Label] = struct{}{}
		if b.Query == nil && b.Column == "" {
			return Partition{}, errors.New(errors.ErrCodeInvalidDefinition, "bucket %q has neither values nor predicate", b.Label)
		}
	}
	return Partition{buckets: buckets}, nil
}

// MustPartition is like NewPartition but panics on invalid buckets.
func MustPartition(buckets ...Bucket) Partition {
	p, err := NewPartition(buckets...)
	if err != nil {
		panic(err)
	}
	return p
}

// Simple creates a partition over one column with one bucket per value,
// labelled by the value itself. This is the common case of partitioning
// by the observed domain of a dimension column.
func Simple(column string, values ...string) Partition {
	buckets := make([]Bucket, len(values))
	for i, v := range values {
		buckets[i] = Bucket{Label: v, Column: column, Values: []string{v}}
	}
	return Partition{buckets: buckets}
}

// IsZero reports whether the partition is unset.
func (p Partition) IsZero() bool { return len(p.buckets) == 0 }

// Buckets returns the explicit buckets in declaration order.
func (p Partition) Buckets() []Bucket { return p.buckets }

// Labels returns the explicit bucket labels in declaration order.
func (p Partition) Labels() []string {
	out := make([]string, len(p.buckets))
	for i, b := range p.buckets {
		out[i] = b.Label
	}
	return out
}

// Classify returns the bucket for env. Rules are tested in declaration
// order and the first match wins; when nothing matches, the implicit
// catch-all is returned. Classification depends only on rule order and
// the row itself, never on dataset row order.
func (p Partition) Classify(env expr.Env) (BucketRef, error) {
	for _, b := range p.buckets {
		ok, err := b.matches(env)
		if err != nil {
			if stderrors.Is(err, expr.ErrUnknownAttribute) {
				return BucketRef{}, errors.Wrap(errors.ErrCodeMissingAttribute, err,
					"partition bucket %q", b.Label)
			}
			return BucketRef{}, errors.Wrap(errors.ErrCodeInvalidPredicate, err,
				"partition bucket %q", b.Label)
		}
		if ok {
			return BucketRef{Kind: BucketExplicit, Label: b.Label}, nil
		}
	}
	return Other, nil
}
