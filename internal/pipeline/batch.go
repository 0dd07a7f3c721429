package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchProcessor handles concurrent crawling of multiple websites.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-crawl execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
//
// Each site still sees one request at a time; the concurrency limit only
// governs how many distinct sites are crawled in parallel.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each crawl.
	// We use a factory because the crawl controller carries per-crawl
	// state (scope, session, fingerprints) that must not leak between
	// sites.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of sites crawled in parallel.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed runs.
	// Access is synchronized via mutex.
	results []*Run
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of sites crawled in parallel.
// Default is 3 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each crawl to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak between
// crawls and allows for per-site customization if needed.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     3,
		results:         make([]*Run, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls multiple websites concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each site gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all runs collected, even for sites whose crawl failed.
// The error return indicates if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, baseURLs []string) ([]*Run, error) {
	bp.logger.Info("starting batch crawl",
		"total_sites", len(baseURLs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*Run, len(baseURLs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, baseURL := range baseURLs {
		i, baseURL := i, baseURL
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling site",
				"base_url", baseURL,
				"index", i+1,
				"total", len(baseURLs),
			)

			run := NewRun(baseURL)
			pipeline := bp.pipelineFactory()
			err := pipeline.Execute(ctx, run)

			// Store the run regardless of error; it records the
			// failure and any pages cached before it.
			bp.mu.Lock()
			bp.results[i] = run
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("crawl failed",
					"base_url", baseURL,
					"error", err,
				)
				// Don't return the error to errgroup - we want the
				// remaining sites to be crawled.
				return nil
			}

			bp.logger.Info("crawl completed",
				"base_url", baseURL,
			)

			return nil
		})
	}

	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch crawl complete",
		"total_sites", len(baseURLs),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback crawls multiple sites and calls a callback
// for each completed crawl. This is useful for streaming results.
//
// The callback receives the run and the index of the site in the
// original slice. The callback is called from the goroutine that
// completed the crawl, so it should be thread-safe if it accesses
// shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	baseURLs []string,
	callback func(run *Run, index int),
) error {
	bp.logger.Info("starting batch crawl with callback",
		"total_sites", len(baseURLs),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, baseURL := range baseURLs {
		i, baseURL := i, baseURL
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			run := NewRun(baseURL)
			pipeline := bp.pipelineFactory()
			_ = pipeline.Execute(ctx, run) //nolint:errcheck // Error is stored in the run

			callback(run, i)

			return nil
		})
	}

	return g.Wait()
}
