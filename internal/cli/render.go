package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowweave/flowweave/pkg/cache"
	"github.com/flowweave/flowweave/pkg/graph"
	"github.com/flowweave/flowweave/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string  // output file (single format) or base path
	formats  string  // comma-separated output formats
	detailed bool    // detailed labels
	pngScale float64 // resolution multiplier for PNG export
	noCache  bool    // disable caching
	refresh  bool    // re-render even when cached
}

// renderCommand creates the render command for re-rendering a woven graph.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{pngScale: pipeline.DefaultPNGScale}

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a woven graph to diagram formats",
		Long: `Render a woven graph to diagram formats.

The render command takes a graph.json file (produced by 'weave') and
renders it to DOT, SVG, PDF, or PNG without re-weaving. Use it to try
different render options on the same graph.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "svg", "output format(s): dot, svg, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show per-bucket detail")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", opts.pngScale, "resolution multiplier for PNG export")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when a cached artifact exists")

	return cmd
}

// runRender loads the graph and renders the requested formats.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	c.Logger.Infof("Loaded graph: %d nodes, %d links", len(g.Nodes), len(g.Links))

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var graphHash string
	if data, err := graph.Marshal(g); err == nil {
		graphHash = cache.Hash(data)
	}

	popts := pipeline.Options{
		Formats:  formats,
		Detailed: opts.detailed,
		PNGScale: opts.pngScale,
		Refresh:  opts.refresh,
		Logger:   c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, g, graphHash, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := basePath(opts.output, input)
	if err := writeArtifacts(artifacts, formats, base); err != nil {
		return err
	}

	printSuccess("Render complete")
	printStats(len(g.Nodes), len(g.Links), cacheHit)
	return nil
}
