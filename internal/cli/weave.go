package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowweave/flowweave/pkg/cache"
	"github.com/flowweave/flowweave/pkg/dataset"
	"github.com/flowweave/flowweave/pkg/history"
	"github.com/flowweave/flowweave/pkg/pipeline"
	"github.com/flowweave/flowweave/pkg/sankey"
)

// weaveOpts holds the command-line flags for the weave command.
type weaveOpts struct {
	definition  string  // TOML definition file path (required)
	processDims string  // process dimension table CSV
	flowDims    string  // flow dimension table CSV
	output      string  // output file (single format) or base path
	formats     string  // comma-separated output formats
	detailed    bool    // detailed labels in rendered diagrams
	pngScale    float64 // resolution multiplier for PNG export
	noCache     bool    // disable caching
	refresh     bool    // recompute even when cached
	noHistory   bool    // skip the local run log
}

// weaveCommand creates the weave command, the main entry point of the CLI.
func (c *CLI) weaveCommand() *cobra.Command {
	opts := weaveOpts{pngScale: pipeline.DefaultPNGScale}

	cmd := &cobra.Command{
		Use:   "weave [flows.csv]",
		Short: "Weave a flow table into a Sankey graph",
		Long: `Weave a flow table into a Sankey graph.

The weave command reads a flow fact table from CSV, resolves the given
TOML definition against it, and writes the aggregated graph in the
requested formats. Optional dimension tables supply process and flow
attributes for selectors and partitions.

Results are cached locally for faster subsequent runs, and every run is
recorded in the local history log.

Examples:
  flowweave weave flows.csv -d fruit.toml
  flowweave weave flows.csv -d fruit.toml --process-dims processes.csv -f json,svg
  flowweave weave flows.csv -d fruit.toml -o diagrams/fruit -f svg,pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.definition == "" {
				return fmt.Errorf("a definition file is required (use --definition)")
			}
			return c.runWeave(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.definition, "definition", "d", "", "TOML diagram definition file")
	cmd.Flags().StringVar(&opts.processDims, "process-dims", "", "process dimension table CSV")
	cmd.Flags().StringVar(&opts.flowDims, "flow-dims", "", "flow dimension table CSV")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): json (default), dot, svg, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show per-bucket detail in rendered diagrams")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", opts.pngScale, "resolution multiplier for PNG export")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached result exists")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record this run in the history log")

	return cmd
}

// runWeave loads the inputs, executes the pipeline, writes artifacts,
// and records the run.
func (c *CLI) runWeave(ctx context.Context, flowsPath string, opts *weaveOpts) error {
	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	ds, datasetHash, err := loadDataset(flowsPath, opts.processDims, opts.flowDims)
	if err != nil {
		return err
	}
	c.Logger.Infof("Loaded %d flows from %s", len(ds.Flows()), flowsPath)

	def, err := sankey.LoadDefinition(opts.definition)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := pipeline.Options{
		Dataset:        ds,
		Definition:     def,
		DatasetHash:    datasetHash,
		DefinitionHash: hashFile(opts.definition),
		Formats:        formats,
		Detailed:       opts.detailed,
		PNGScale:       opts.pngScale,
		Refresh:        opts.refresh,
		Logger:         c.Logger,
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Weaving...")
	spinner.Start()

	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Weave failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done(fmt.Sprintf("Wove %d nodes and %d links", result.Stats.NodeCount, result.Stats.LinkCount))

	base := basePath(opts.output, flowsPath)
	if err := writeArtifacts(result.Artifacts, formats, base); err != nil {
		return err
	}

	printSuccess("Weave complete")
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, result.CacheInfo.WeaveHit)
	printDiagnostics(result.Diagnostics)

	if !opts.noHistory {
		c.recordRun(ctx, popts, result)
	}

	printNewline()
	printNextStep("Inspect past runs", "flowweave history list")
	return nil
}

// recordRun appends the run to the local history log. Failures are
// logged but never fail the weave itself.
func (c *CLI) recordRun(ctx context.Context, opts pipeline.Options, result *pipeline.Result) {
	path, err := historyPath()
	if err != nil {
		c.Logger.Warnf("History disabled: %v", err)
		return
	}
	store, err := history.NewStore(path)
	if err != nil {
		c.Logger.Warnf("History disabled: %v", err)
		return
	}
	defer store.Close()

	run, err := store.Append(ctx, history.Run{
		DatasetHash:    opts.DatasetHash,
		DefinitionHash: opts.DefinitionHash,
		GraphHash:      result.GraphHash,
		NodeCount:      result.Stats.NodeCount,
		LinkCount:      result.Stats.LinkCount,
		Unmatched:      result.Diagnostics.UnmatchedCount,
		InputValue:     result.Diagnostics.InputValue,
		RoutedValue:    result.Diagnostics.RoutedValue,
		Duration:       result.Stats.WeaveTime,
	})
	if err != nil {
		c.Logger.Warnf("Record run: %v", err)
		return
	}
	c.Logger.Debugf("Recorded run %s", run.ID)
}

// loadDataset reads the flow table and optional dimension tables, and
// returns the dataset together with a content hash over all inputs.
func loadDataset(flowsPath, processDims, flowDims string) (*dataset.Dataset, string, error) {
	flows, err := dataset.ReadFlowsFile(flowsPath)
	if err != nil {
		return nil, "", err
	}

	hashes := []string{hashFile(flowsPath)}
	var opts []dataset.Option

	if processDims != "" {
		table, err := dataset.ReadDimensionTableFile(processDims)
		if err != nil {
			return nil, "", err
		}
		opts = append(opts, dataset.WithProcessDims(table))
		hashes = append(hashes, hashFile(processDims))
	}
	if flowDims != "" {
		table, err := dataset.ReadDimensionTableFile(flowDims)
		if err != nil {
			return nil, "", err
		}
		opts = append(opts, dataset.WithFlowDims(table))
		hashes = append(hashes, hashFile(flowDims))
	}

	ds, err := dataset.New(flows, opts...)
	if err != nil {
		return nil, "", err
	}
	return ds, combineHashes(hashes), nil
}

// hashFile content-hashes a file, or returns "" when it cannot be read.
// An empty hash disables caching for the run rather than failing it.
func hashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// combineHashes folds multiple input hashes into a single dataset hash.
// Any missing component poisons the whole hash so stale cache entries
// can never match.
func combineHashes(hashes []string) string {
	var joined []byte
	for _, h := range hashes {
		if h == "" {
			return ""
		}
		joined = append(joined, h...)
	}
	return cache.Hash(joined)
}
