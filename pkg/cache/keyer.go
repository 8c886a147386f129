package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer generates cache keys for the pipeline's two cacheable stages.
// Keys are pure functions of their inputs, so identical weaves hit the
// same entry regardless of which process computed it.
type Keyer interface {
	// WeaveKey keys a woven graph by its inputs: the dataset content hash
	// and the definition content hash.
	WeaveKey(datasetHash, definitionHash string) string

	// ArtifactKey keys one rendered artifact by graph hash and render
	// options.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds the render options that change artifact bytes.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Detailed bool    `json:"detailed,omitempty"`
	PNGScale float64 `json:"png_scale,omitempty"`
}

// DefaultKeyer is the standard key scheme: prefix:sha256(parts).
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

func (k *DefaultKeyer) WeaveKey(datasetHash, definitionHash string) string {
	return hashKey("weave", datasetHash, definitionHash)
}

func (k *DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}

// ScopedKeyer prepends a namespace prefix to every key, isolating
// tenants that share one backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps a keyer with a prefix. A nil inner keyer defaults
// to the standard scheme.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) WeaveKey(datasetHash, definitionHash string) string {
	return k.prefix + k.inner.WeaveKey(datasetHash, definitionHash)
}

func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}

// hashKey builds prefix:sha256(json(parts)). The full 256-bit hash keeps
// collisions out of reach even across very large corpora.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash computes the SHA-256 content hash of data as a 64-char hex string.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
