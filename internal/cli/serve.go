package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowweave/flowweave/internal/server"
	"github.com/flowweave/flowweave/pkg/cache"
	"github.com/flowweave/flowweave/pkg/pipeline"
	mongostore "github.com/flowweave/flowweave/pkg/store/mongo"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string // listen address
	noCache bool   // disable result caching
	redis   string // redis address; empty uses the file cache
	redisDB int    // redis database number
	mongo   string // mongodb URI; empty disables graph storage
	mongoDB string // mongodb database name
}

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: ":8080", mongoDB: "flowweave"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flowweave HTTP API",
		Long: `Run the flowweave HTTP API.

The server exposes weave-on-demand at POST /v1/weave, named graph
storage under /v1/graphs (when MongoDB is configured), Prometheus
metrics at /metrics, and a health check at /healthz.

Caching uses the local file cache by default; pass --redis to share a
cache between replicas. The Redis password is read from REDIS_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable result caching")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "redis address for shared caching (host:port)")
	cmd.Flags().IntVar(&opts.redisDB, "redis-db", 0, "redis database number")
	cmd.Flags().StringVar(&opts.mongo, "mongo", "", "mongodb URI for named graph storage")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", opts.mongoDB, "mongodb database name")

	return cmd
}

// runServe builds the runner and optional graph store, then serves until
// the context is cancelled.
func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	cch, err := c.serverCache(ctx, opts)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(cch, nil, c.Logger)
	defer runner.Close()

	var graphs server.GraphStore
	if opts.mongo != "" {
		store, err := mongostore.New(ctx, opts.mongo, opts.mongoDB)
		if err != nil {
			return fmt.Errorf("connect graph store: %w", err)
		}
		defer store.Close(context.Background())
		graphs = server.MongoGraphStore{Store: store}
		c.Logger.Info("graph storage enabled", "db", opts.mongoDB)
	}

	server.RegisterHooks()
	srv := server.New(runner, graphs, c.Logger, opts.addr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serverCache selects the cache backend for the server.
func (c *CLI) serverCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redis != "" {
		cch, err := cache.NewRedisCache(ctx, opts.redis, os.Getenv("REDIS_PASSWORD"), opts.redisDB)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Logger.Info("using redis cache", "addr", opts.redis)
		return cch, nil
	}
	return newCache(false)
}
