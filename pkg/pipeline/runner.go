package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowweave/flowweave/pkg/cache"
	"github.com/flowweave/flowweave/pkg/graph"
	"github.com/flowweave/flowweave/pkg/observability"
	"github.com/flowweave/flowweave/pkg/render"
	"github.com/flowweave/flowweave/pkg/render/nodelink"
	"github.com/flowweave/flowweave/pkg/sankey/weave"
)

// Runner encapsulates pipeline execution with caching. Both CLI and
// server use it, so caching behavior stays identical across entry
// points.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely share one Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer gets the default scheme; a nil cache disables caching;
// a nil logger falls back to log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete weave → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{Artifacts: make(map[string][]byte)}

	weaveStart := time.Now()
	wres, weaveHit, err := r.WeaveWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("weave: %w", err)
	}
	result.Graph = wres.Graph
	result.Diagnostics = wres.Diagnostics
	result.Stats.WeaveTime = time.Since(weaveStart)
	result.Stats.NodeCount = len(wres.Graph.Nodes)
	result.Stats.LinkCount = len(wres.Graph.Links)
	result.CacheInfo.WeaveHit = weaveHit

	if data, err := graph.Marshal(wres.Graph); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	r.Logger.Info("wove graph",
		"nodes", result.Stats.NodeCount,
		"links", result.Stats.LinkCount,
		"unmatched", wres.Diagnostics.UnmatchedCount,
		"duration", result.Stats.WeaveTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, wres.Graph, result.GraphHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// WeaveWithCacheInfo runs the weave stage with caching and reports
// whether the result came from cache.
func (r *Runner) WeaveWithCacheInfo(ctx context.Context, opts Options) (*weave.Result, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Weave()
	hooks.OnWeaveStart(ctx, len(opts.Definition.Bundles), len(opts.Dataset.Flows()))

	var key string
	if opts.Cacheable() {
		key = r.Keyer.WeaveKey(opts.DatasetHash, opts.DefinitionHash)
	}

	if key != "" && !opts.Refresh {
		var cached weave.Result
		err := cache.GetJSON(ctx, r.Cache, key, &cached)
		if err == nil && cached.Graph != nil {
			observability.Cache().OnCacheHit(ctx, "weave")
			return &cached, true, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			r.Logger.Debug("weave cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "weave")
	}

	start := time.Now()
	res, err := weave.Weave(opts.Dataset, opts.Definition, weave.WithLogger(opts.Logger))
	if err != nil {
		hooks.OnWeaveComplete(ctx, 0, 0, 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnWeaveComplete(ctx,
		len(res.Graph.Nodes), len(res.Graph.Links),
		res.Diagnostics.UnmatchedCount, time.Since(start), nil)

	if key != "" {
		if err := cache.SetJSON(ctx, r.Cache, key, res, cache.TTLWeave); err == nil {
			if data, merr := graph.Marshal(res.Graph); merr == nil {
				observability.Cache().OnCacheSet(ctx, "weave", len(data))
			}
		}
	}

	return res, false, nil
}

// Weave is a convenience wrapper that discards the cache hit info.
func (r *Runner) Weave(ctx context.Context, opts Options) (*weave.Result, error) {
	res, _, err := r.WeaveWithCacheInfo(ctx, opts)
	return res, err
}

// RenderWithCacheInfo renders all requested formats with caching and
// reports whether every artifact came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Graph, graphHash string, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	hooks := observability.Weave()
	hooks.OnRenderStart(ctx, opts.Formats)

	if graphHash != "" && !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		allCached := true
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(graphHash, r.artifactKeyOpts(format, opts))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				allCached = false
				break
			}
			artifacts[format] = data
		}
		if allCached {
			observability.Cache().OnCacheHit(ctx, "artifact")
			hooks.OnRenderComplete(ctx, opts.Formats, 0, nil)
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	start := time.Now()
	artifacts, err := RenderArtifacts(g, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if graphHash != "" {
		for format, data := range artifacts {
			key := r.Keyer.ArtifactKey(graphHash, r.artifactKeyOpts(format, opts))
			if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
				observability.Cache().OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}

	return artifacts, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, graphHash string, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, graphHash, opts)
	return artifacts, err
}

// RenderArtifacts renders the graph into every requested format without
// touching the cache. DOT and SVG intermediates are computed at most
// once even when several formats derive from them.
func RenderArtifacts(g *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	needDOT := func() string {
		if dot == "" {
			dot = nodelink.ToDOT(g, nodelink.Options{Detailed: opts.Detailed})
		}
		return dot
	}

	var svg []byte
	needSVG := func() ([]byte, error) {
		if svg == nil {
			var err error
			svg, err = nodelink.RenderSVG(needDOT())
			if err != nil {
				return nil, err
			}
		}
		return svg, nil
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := graph.Marshal(g)
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
		case FormatDOT:
			artifacts[format] = []byte(needDOT())
		case FormatSVG:
			data, err := needSVG()
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
		case FormatPDF:
			data, err := needSVG()
			if err != nil {
				return nil, err
			}
			pdf, err := render.ToPDF(data)
			if err != nil {
				return nil, err
			}
			artifacts[format] = pdf
		case FormatPNG:
			data, err := needSVG()
			if err != nil {
				return nil, err
			}
			scale := opts.PNGScale
			if scale == 0 {
				scale = DefaultPNGScale
			}
			png, err := render.ToPNG(data, scale)
			if err != nil {
				return nil, err
			}
			artifacts[format] = png
		default:
			return nil, fmt.Errorf("invalid format: %q", format)
		}
	}
	return artifacts, nil
}

func (r *Runner) artifactKeyOpts(format string, opts Options) cache.ArtifactKeyOpts {
	ko := cache.ArtifactKeyOpts{Format: format, Detailed: opts.Detailed}
	if format == FormatPNG {
		ko.PNGScale = opts.PNGScale
	}
	return ko
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
