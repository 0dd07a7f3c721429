package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docscope/docscope/internal/cache"
	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/crawler"
	"github.com/docscope/docscope/internal/database"
	"github.com/docscope/docscope/internal/model"
	"github.com/docscope/docscope/internal/report"
)

// DiscoverStep runs URL discovery without scraping.
// It walks the site breadth-first from the base URL, applies scope and
// pattern filtering, and records the approved URL list in the run.
//
// Design decision: Discovery is a separate step because:
// 1. It supports a discover-only (dry run) pipeline for URL review
// 2. Its results can be approved or edited before scraping
// 3. It keeps the scrape step free of link-walking concerns
type DiscoverStep struct {
	// controller performs the actual crawl work.
	controller *crawler.Controller

	// logger for structured logging.
	logger *slog.Logger
}

// DiscoverStepOption configures a DiscoverStep.
type DiscoverStepOption func(*DiscoverStep)

// WithDiscoverLogger sets a custom logger for the discover step.
func WithDiscoverLogger(logger *slog.Logger) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.logger = logger
	}
}

// NewDiscoverStep creates a new discovery step.
func NewDiscoverStep(controller *crawler.Controller, opts ...DiscoverStepOption) *DiscoverStep {
	s := &DiscoverStep{
		controller: controller,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover"
}

// Do executes the discovery step.
func (s *DiscoverStep) Do(ctx context.Context, run *Run) error {
	urls, classifications, err := s.controller.DiscoverURLs(ctx, run.BaseURL)
	if err != nil {
		return fmt.Errorf("discover %s: %w", run.BaseURL, err)
	}

	run.URLs = urls
	run.Classifications = classifications
	run.SessionID = s.controller.SessionID()

	s.logger.Info("discovery completed",
		"base_url", run.BaseURL,
		"urls_found", len(urls),
	)

	return nil
}

// ScrapeStep scrapes a previously discovered URL list.
// It expects run.URLs to be populated, typically by a DiscoverStep or by
// a caller that reviewed and edited the discovery results.
type ScrapeStep struct {
	// controller performs the actual crawl work.
	controller *crawler.Controller

	// logger for structured logging.
	logger *slog.Logger
}

// ScrapeStepOption configures a ScrapeStep.
type ScrapeStepOption func(*ScrapeStep)

// WithScrapeLogger sets a custom logger for the scrape step.
func WithScrapeLogger(logger *slog.Logger) ScrapeStepOption {
	return func(s *ScrapeStep) {
		s.logger = logger
	}
}

// NewScrapeStep creates a new scrape step.
func NewScrapeStep(controller *crawler.Controller, opts ...ScrapeStepOption) *ScrapeStep {
	s := &ScrapeStep{
		controller: controller,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ScrapeStep) Name() string {
	return "scrape"
}

// Do executes the scrape step.
func (s *ScrapeStep) Do(ctx context.Context, run *Run) error {
	pages, err := s.controller.ScrapeApprovedURLs(ctx, run.URLs, run.BaseURL)

	// Partial results are kept even when the scrape aborts, so the
	// report step can describe what was cached before the failure.
	run.Pages = pages
	run.SessionID = s.controller.SessionID()

	if err != nil {
		return fmt.Errorf("scrape %s: %w", run.BaseURL, err)
	}

	s.logger.Info("scrape completed",
		"base_url", run.BaseURL,
		"pages", len(pages),
	)

	return nil
}

// CrawlStep performs the full discover-and-scrape crawl in one step.
// When run.SessionID is pre-set it resumes that session instead of
// starting fresh; otherwise a compatible active session is reused
// automatically.
//
// Design decision: The combined step exists alongside DiscoverStep and
// ScrapeStep because the common CLI path wants a single crawl without
// an approval stage, and the controller already knows how to chain
// discovery into scraping with session reuse.
type CrawlStep struct {
	// controller performs the actual crawl work.
	controller *crawler.Controller

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new combined crawl step.
func NewCrawlStep(controller *crawler.Controller, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		controller: controller,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, run *Run) error {
	var (
		pages []model.PageRecord
		err   error
	)
	if run.SessionID != "" {
		pages, err = s.controller.ResumeScraping(ctx, run.SessionID, run.BaseURL)
	} else {
		pages, err = s.controller.ScrapeWebsite(ctx, run.BaseURL)
	}

	run.Pages = pages
	if id := s.controller.SessionID(); id != "" {
		run.SessionID = id
	}

	if err != nil {
		return fmt.Errorf("crawl %s: %w", run.BaseURL, err)
	}

	s.logger.Info("crawl completed",
		"base_url", run.BaseURL,
		"pages", len(pages),
	)

	return nil
}

// ReportStep builds the crawl report from the cached session and writes
// it to the configured writers. It runs even after a failed crawl so the
// pages cached before the abort are still reported.
type ReportStep struct {
	// store provides session and page data for the report.
	store *cache.Store

	// writers receive the rendered report. May be empty, in which case
	// the report is only attached to the run.
	writers []report.Writer

	// logger for structured logging.
	logger *slog.Logger
}

// ReportStepOption configures a ReportStep.
type ReportStepOption func(*ReportStep)

// WithReportWriters sets the report output writers.
func WithReportWriters(writers ...report.Writer) ReportStepOption {
	return func(s *ReportStep) {
		s.writers = writers
	}
}

// WithReportLogger sets a custom logger for the report step.
func WithReportLogger(logger *slog.Logger) ReportStepOption {
	return func(s *ReportStep) {
		s.logger = logger
	}
}

// NewReportStep creates a new report step.
func NewReportStep(store *cache.Store, opts ...ReportStepOption) *ReportStep {
	s := &ReportStep{
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do executes the report step.
func (s *ReportStep) Do(ctx context.Context, run *Run) error {
	session, ok := s.store.LoadSession(run.SessionID)
	if !ok {
		s.logger.Debug("skipping report, no session to report on",
			"session_id", run.SessionID,
		)
		return nil
	}

	pages, err := s.store.LoadCachedPages(run.SessionID)
	if err != nil {
		s.logger.Warn("loading cached pages for report", "error", err)
	}

	run.Report = report.FromSession(session, pages, run.Err)

	for _, w := range s.writers {
		if _, err := w.Write(run.Report); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	return nil
}

// HistoryStep records the finished crawl in the history database.
// It is a no-op when no report was built.
type HistoryStep struct {
	// db is the history database.
	db *database.HistoryDB

	// logger for structured logging.
	logger *slog.Logger
}

// HistoryStepOption configures a HistoryStep.
type HistoryStepOption func(*HistoryStep)

// WithHistoryLogger sets a custom logger for the history step.
func WithHistoryLogger(logger *slog.Logger) HistoryStepOption {
	return func(s *HistoryStep) {
		s.logger = logger
	}
}

// NewHistoryStep creates a new history recording step.
func NewHistoryStep(db *database.HistoryDB, opts ...HistoryStepOption) *HistoryStep {
	s := &HistoryStep{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do executes the history step.
func (s *HistoryStep) Do(ctx context.Context, run *Run) error {
	if run.Report == nil {
		s.logger.Debug("skipping history, no report built")
		return nil
	}

	if err := s.db.RecordCrawl(ctx, run.Report); err != nil {
		// Non-fatal: the crawl itself succeeded and the cache holds
		// the pages; a history miss only affects the stats view.
		s.logger.Warn("recording crawl history", "error", err)
	}

	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Writers receive the rendered crawl report.
	Writers []report.Writer

	// History, when set, records finished crawls for the stats view.
	History *database.HistoryDB

	// CrawlerOptions are passed through to the crawl controller.
	CrawlerOptions []crawler.Option
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineWriters sets the report writers for the default pipeline.
func WithPipelineWriters(writers ...report.Writer) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Writers = writers
	}
}

// WithPipelineHistory sets the history database for the default pipeline.
func WithPipelineHistory(db *database.HistoryDB) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.History = db
	}
}

// WithPipelineCrawlerOptions passes options through to the crawl controller.
func WithPipelineCrawlerOptions(opts ...crawler.Option) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlerOptions = append(c.CrawlerOptions, opts...)
	}
}

// DefaultPipeline creates a pipeline with the standard crawl steps.
// It crawls, writes the report, and records history when a database is
// configured.
//
// Design decision: We provide a default pipeline because:
// 1. Most invocations want the full crawl-report-history sequence
// 2. Reduces boilerplate in the CLI
// 3. Ensures consistent ordering
//
// The pipeline continues on error so a failed crawl still produces a
// report describing the pages cached before the abort.
func DefaultPipeline(cfg *config.Config, store *cache.Store, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	pc := &DefaultPipelineConfig{}
	for _, opt := range configOpts {
		opt(pc)
	}

	pipelineOpts = append([]Option{WithContinueOnError(true)}, pipelineOpts...)
	p := New(pipelineOpts...)

	controller := crawler.New(cfg, store, pc.CrawlerOptions...)

	p.AddSteps(
		NewCrawlStep(controller, WithCrawlLogger(p.logger)),
		NewReportStep(store,
			WithReportWriters(pc.Writers...),
			WithReportLogger(p.logger),
		),
	)
	if pc.History != nil {
		p.AddStep(NewHistoryStep(pc.History, WithHistoryLogger(p.logger)))
	}

	return p
}
