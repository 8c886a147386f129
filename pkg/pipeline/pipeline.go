// Package pipeline provides the weave → render pipeline shared by the
// CLI and the HTTP server.
//
// # Architecture
//
// The pipeline consists of two cacheable stages:
//
//  1. Weave: resolve the definition against the dataset and produce the
//     output graph plus diagnostics
//  2. Render: generate artifacts in the requested formats
//
// Each stage can run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Dataset:    ds,
//	    Definition: def,
//	    Formats:    []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowweave/flowweave/pkg/dataset"
	"github.com/flowweave/flowweave/pkg/graph"
	"github.com/flowweave/flowweave/pkg/sankey"
	"github.com/flowweave/flowweave/pkg/sankey/weave"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPDF:  true,
	FormatPNG:  true,
}

// DefaultPNGScale is the resolution multiplier for PNG export.
const DefaultPNGScale = 2.0

// Options contains all configuration for one pipeline run.
type Options struct {
	// Inputs. Both are read-only for the duration of the run.
	Dataset    *dataset.Dataset    `json:"-"`
	Definition *sankey.Definition  `json:"-"`

	// Content hashes of the inputs, used as cache keys. When either is
	// empty the weave stage bypasses the cache; loaders that read inputs
	// from files should hash the raw bytes.
	DatasetHash    string `json:"dataset_hash,omitempty"`
	DefinitionHash string `json:"definition_hash,omitempty"`

	// Render options.
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	PNGScale float64  `json:"png_scale,omitempty"`

	// Refresh bypasses cache reads and recomputes everything.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized).
	Logger *log.Logger `json:"-"`

	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the woven output graph.
	Graph *graph.Graph

	// Diagnostics carries the coverage warnings from the weave.
	Diagnostics weave.Diagnostics

	// GraphHash is the content hash of the encoded graph.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LinkCount  int
	WeaveTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits per pipeline stage.
type CacheInfo struct {
	WeaveHit  bool // woven graph came from cache
	RenderHit bool // all artifacts came from cache
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg, pdf, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Idempotent; later calls are no-ops.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Dataset == nil {
		return fmt.Errorf("dataset is required")
	}
	if o.Definition == nil {
		return fmt.Errorf("definition is required")
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Cacheable reports whether the weave stage can use the cache: both
// input hashes must be known.
func (o *Options) Cacheable() bool {
	return o.DatasetHash != "" && o.DefinitionHash != ""
}
