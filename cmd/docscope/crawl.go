package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docscope/docscope/internal/cache"
	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/database"
	"github.com/docscope/docscope/internal/pipeline"
	"github.com/docscope/docscope/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url> [url...]",
		Short: "Crawl a website section and cache its content",
		Long: `Crawl discovers the pages under the given URL, scrapes each one, and
caches the extracted content in a session on disk.

The crawl is scoped to the path you point it at: starting from
https://example.com/docs/ stays inside /docs/ (plus the homepage and
immediate siblings, depending on configuration). An interrupted crawl
can be picked up later with 'docscope resume'.

Examples:
  # Crawl a documentation section
  docscope crawl https://example.com/docs/

  # Crawl several sites, two at a time
  docscope crawl --batch 2 https://a.example.com/docs/ https://b.example.com/guide/

  # Write a JSON report to a file
  docscope crawl --json -o report.json https://example.com/docs/

  # Use a custom configuration file
  docscope crawl -c myconfig.yaml https://example.com/docs/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from the starting URL")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages per crawl")
	cmd.Flags().Duration("delay", config.DefaultRequestDelay,
		"Delay between requests")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", 1,
		"Number of sites crawled concurrently (each site is still fetched one page at a time)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	cmd.Flags().Bool("no-history", false,
		"Skip recording the crawl in the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(logger)
	defer cancel()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	writer, cleanup, err := reportWriter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	db, err := openHistory(cmd, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close() //nolint:errcheck // Best effort close
	}

	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}

	if len(args) > 1 && batch > 1 {
		return runBatchCrawl(ctx, cmd, cfg, store, db, writer, args, batch, logger)
	}
	return runSequentialCrawl(ctx, cmd, cfg, store, db, writer, args, logger)
}

// buildCrawlConfig loads the config file and applies flag overrides.
// Flags only override values the user actually set, so file settings
// survive unless explicitly changed.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("depth") {
		depth, err := cmd.Flags().GetInt("depth")
		if err != nil {
			return nil, err
		}
		cfg.Crawling.MaxDepth = depth
	}
	if cmd.Flags().Changed("max-pages") {
		maxPages, err := cmd.Flags().GetInt("max-pages")
		if err != nil {
			return nil, err
		}
		cfg.Crawling.MaxPages = maxPages
	}
	if cmd.Flags().Changed("delay") {
		delay, err := cmd.Flags().GetDuration("delay")
		if err != nil {
			return nil, err
		}
		cfg.Crawling.RequestDelay = config.Duration(delay)
	}

	return cfg, nil
}

// openHistory opens the history database unless --no-history was given.
func openHistory(cmd *cobra.Command, logger *slog.Logger) (*database.HistoryDB, error) {
	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		return nil, nil
	}

	db, err := database.Open(config.HistoryDBDir(), database.DefaultOptions())
	if err != nil {
		// History is supplementary; a broken database should not block
		// the crawl itself.
		logger.Warn("history database unavailable", "error", err)
		return nil, nil
	}
	return db, nil
}

// runSequentialCrawl crawls targets one at a time with per-site config.
func runSequentialCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, store *cache.Store, db *database.HistoryDB, writer report.Writer, targets []string, logger *slog.Logger) error {
	var failed int
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		siteCfg := cfg.ApplySite(hostOf(target))

		configOpts := []pipeline.DefaultPipelineOption{
			pipeline.WithPipelineWriters(writer),
		}
		if db != nil {
			configOpts = append(configOpts, pipeline.WithPipelineHistory(db))
		}

		p := pipeline.DefaultPipeline(siteCfg, store,
			[]pipeline.Option{pipeline.WithLogger(logger)},
			configOpts...,
		)

		fmt.Fprintf(cmd.OutOrStdout(), "Crawling %s...\n", target)
		startTime := time.Now()

		run := pipeline.NewRun(target)
		if err := p.Execute(ctx, run); err != nil {
			return err
		}
		// The default pipeline continues on error so the report step can
		// describe a failed crawl; the failure itself lands in run.Err.
		if run.Err != nil {
			if errors.Is(run.Err, context.Canceled) {
				return run.Err
			}
			logger.Error("crawl failed", "target", target, "error", run.Err)
			failed++
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Fprintf(cmd.OutOrStdout(), "Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d crawls failed", failed, len(targets))
	}
	return nil
}

// runBatchCrawl crawls multiple sites concurrently using BatchProcessor.
// Reports are written from a callback under a mutex so concurrent crawls
// don't interleave output.
func runBatchCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, store *cache.Store, db *database.HistoryDB, writer report.Writer, targets []string, batch int, logger *slog.Logger) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Starting batch crawl of %d sites (concurrency: %d)...\n\n",
		len(targets), batch)

	if len(cfg.Sites) > 0 {
		logger.Warn("batch mode uses default site config only; per-site overrides are ignored",
			"site_count", len(cfg.Sites))
	}

	startTime := time.Now()

	configOpts := []pipeline.DefaultPipelineOption{}
	if db != nil {
		configOpts = append(configOpts, pipeline.WithPipelineHistory(db))
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			// Writers are intentionally left off the pipeline; the
			// callback renders reports serially.
			return pipeline.DefaultPipeline(cfg, store,
				[]pipeline.Option{pipeline.WithLogger(logger)},
				configOpts...,
			)
		},
		pipeline.WithConcurrency(batch),
		pipeline.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, targets, func(run *pipeline.Run, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s\n", index+1, len(targets), run.BaseURL)
		if run.Report == nil {
			if run.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Crawl error for %s: %v\n", run.BaseURL, run.Err)
			}
			return
		}
		if _, err := writer.Write(run.Report); err != nil {
			logger.Error("report failed", "target", run.BaseURL, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Fprintf(cmd.OutOrStdout(), "\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}
