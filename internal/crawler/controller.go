package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/docscope/docscope/internal/cache"
	"github.com/docscope/docscope/internal/classify"
	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/extract"
	"github.com/docscope/docscope/internal/fetch"
	"github.com/docscope/docscope/internal/model"
	"github.com/docscope/docscope/internal/scope"
)

// Controller orchestrates discovery and scraping for one crawl at a
// time. It is not safe for concurrent use; per-crawl state (scope,
// validation cache, duplicate-content fingerprints) belongs to the
// crawl in flight.
type Controller struct {
	cfg   *config.Config
	store *cache.Store

	fetcher    Fetcher
	extractor  ContentExtractor
	classifier ContentClassifier
	auth       AuthProvider
	pacing     PacingPolicy
	robots     RobotsChecker
	logger     *slog.Logger

	// sessionID is the session the current crawl writes to. Empty until
	// a session is created or resumed.
	sessionID string

	// Per-crawl state, rebuilt by initCrawl.
	scope     *scope.Manager
	validator *urlValidator
	depths    map[string]int

	// fingerprints maps normalized-content hashes to the 1-based index
	// of the page that first produced them.
	fingerprints map[string]int
	pageIndex    int
}

// Option configures a Controller.
type Option func(*Controller)

// WithFetcher replaces the default HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(c *Controller) { c.fetcher = f }
}

// WithExtractor replaces the default content extractor.
func WithExtractor(e ContentExtractor) Option {
	return func(c *Controller) { c.extractor = e }
}

// WithClassifier replaces the default URL classifier.
func WithClassifier(cl ContentClassifier) Option {
	return func(c *Controller) { c.classifier = cl }
}

// WithAuthProvider replaces the default config-driven auth provider.
func WithAuthProvider(a AuthProvider) Option {
	return func(c *Controller) { c.auth = a }
}

// WithPacingPolicy replaces the fixed-delay pacing policy.
func WithPacingPolicy(p PacingPolicy) Option {
	return func(c *Controller) { c.pacing = p }
}

// WithRobotsChecker replaces the default robots.txt gate.
func WithRobotsChecker(r RobotsChecker) Option {
	return func(c *Controller) { c.robots = r }
}

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithSession binds the controller to an existing session instead of
// creating or discovering one.
func WithSession(sessionID string) Option {
	return func(c *Controller) { c.sessionID = sessionID }
}

// New creates a Controller with default collaborators built from the
// configuration.
func New(cfg *config.Config, store *cache.Store, opts ...Option) *Controller {
	c := &Controller{
		cfg:   cfg,
		store: store,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.fetcher == nil {
		c.fetcher = fetch.New(
			fetch.WithUserAgent(cfg.Crawling.UserAgent),
			fetch.WithRetries(3, time.Second),
		)
	}
	if c.extractor == nil {
		c.extractor = defaultExtractor{inner: extract.New()}
	}
	if c.classifier == nil {
		c.classifier = classify.New()
	}
	if c.auth == nil {
		c.auth = configAuth{auth: cfg.Auth}
	}
	if c.pacing == nil {
		c.pacing = fixedPacing{delay: cfg.Crawling.RequestDelay.D()}
	}
	if c.robots == nil {
		if cfg.Crawling.RespectRobots {
			c.robots = fetch.NewRobotsGate(nil, cfg.Crawling.UserAgent)
		} else {
			c.robots = allowAllRobots{}
		}
	}

	return c
}

// SessionID returns the session the last crawl wrote to. Callers use it
// to report resumable progress after a failure.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// initCrawl builds the per-crawl state: scope manager, validation
// cache, depth tracker, and duplicate-content fingerprints.
func (c *Controller) initCrawl(baseURL string) error {
	sm, err := scope.New(baseURL, c.cfg.PathScoping)
	if err != nil {
		return fmt.Errorf("initialize scope: %w", err)
	}
	c.scope = sm
	c.validator = newURLValidator(c.cfg, sm, c.logger)
	c.depths = map[string]int{}
	c.fingerprints = map[string]int{}
	c.pageIndex = 0
	return nil
}

// setupAuth runs authentication when enabled. Failures are fatal only
// when credentials were explicitly configured; otherwise auth is
// disabled and the crawl continues anonymously.
func (c *Controller) setupAuth(ctx context.Context, baseURL string) error {
	if !c.cfg.Auth.Enabled {
		return nil
	}

	headers, err := c.auth.Authenticate(ctx, baseURL)
	if err != nil {
		if c.cfg.Auth.Explicit() {
			return &AuthenticationError{BaseURL: baseURL, Err: err}
		}
		c.logger.Warn("authentication failed, continuing anonymously", "base_url", baseURL, "error", err)
		return nil
	}

	if setter, ok := c.fetcher.(HeaderSetter); ok {
		for k, v := range headers {
			setter.SetHeader(k, v)
		}
	} else {
		c.logger.Warn("fetcher does not accept headers, authentication has no effect")
	}
	return nil
}

// DiscoverURLs runs a BFS discovery pass from baseURL and returns the
// discovered URL set (sorted) with its classifications. When a session
// is bound, the result is also persisted to it. A robots.txt disallow
// aborts discovery entirely and returns RobotsDisallowedError.
func (c *Controller) DiscoverURLs(ctx context.Context, baseURL string) ([]string, map[string]model.ContentType, error) {
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, nil, err
	}

	if err := c.setupAuth(ctx, normalized); err != nil {
		return nil, nil, err
	}
	if err := c.initCrawl(normalized); err != nil {
		return nil, nil, err
	}

	if c.cfg.Crawling.RespectRobots {
		allowed, err := c.robots.Allowed(ctx, normalized)
		if err != nil {
			c.logger.Warn("robots.txt check failed, proceeding", "base_url", normalized, "error", err)
		} else if !allowed {
			return nil, nil, &RobotsDisallowedError{BaseURL: normalized}
		}
	}

	discovered := map[string]struct{}{normalized: {}}
	classifications := map[string]model.ContentType{normalized: c.classifier.Classify(normalized)}
	c.depths[normalized] = 0

	frontier := []string{normalized}
	fetched := 0

	for depth := 0; depth <= c.cfg.Crawling.MaxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, pageURL := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			if fetched >= c.cfg.Crawling.MaxPages {
				break
			}

			if fetched > 0 {
				if err := c.pace(ctx, pageURL, classifications[pageURL]); err != nil {
					return nil, nil, err
				}
			}

			body, err := c.fetcher.Fetch(ctx, pageURL)
			fetched++
			if err != nil {
				if ctx.Err() != nil {
					return nil, nil, ctx.Err()
				}
				c.logger.Debug("discovery fetch failed", "url", pageURL, "error", err)
				continue
			}

			links := c.extractLinks(pageURL, body)
			for _, link := range links {
				if _, seen := discovered[link.URL]; seen {
					continue
				}
				isNav := c.scope.IsLikelyNavigation(link.URL, link.Context)
				if !c.validator.isValid(link.URL, isNav, depth+1) {
					continue
				}

				discovered[link.URL] = struct{}{}
				classifications[link.URL] = c.classifier.Classify(link.URL)
				c.depths[link.URL] = depth + 1
				next = append(next, link.URL)
			}
		}
		frontier = next
	}

	urls := make([]string, 0, len(discovered))
	for u := range discovered {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	if c.sessionID != "" {
		if err := c.store.SaveDiscoveryResults(c.sessionID, urls, classifications); err != nil {
			c.logger.Warn("failed to persist discovery results", "session_id", c.sessionID, "error", err)
		}
	}

	c.logger.Info("discovery finished", "base_url", normalized, "urls", len(urls), "fetched", fetched)
	return urls, classifications, nil
}

// extractLinks parses the page body and returns in-document links
// resolved against the page URL. Parse failures yield no links; a
// malformed page is not a crawl failure.
func (c *Controller) extractLinks(pageURL, body string) []Link {
	parser, err := NewLinkParser(pageURL)
	if err != nil {
		return nil
	}
	result, err := parser.Parse(strings.NewReader(body))
	if err != nil {
		c.logger.Debug("link extraction failed", "url", pageURL, "error", err)
		return nil
	}
	return result.Links
}

// ScrapeApprovedURLs scrapes a pre-approved URL set. An existing
// compatible session resumes: cached pages are returned as-is and only
// the remaining URLs are fetched. Without one, a fresh session is
// created, named from baseURL or the first approved member.
func (c *Controller) ScrapeApprovedURLs(ctx context.Context, approved []string, baseURL string) ([]model.PageRecord, error) {
	if len(approved) == 0 {
		return nil, nil
	}
	if baseURL == "" {
		baseURL = approved[0]
	}
	if c.scope == nil {
		if err := c.initCrawl(baseURL); err != nil {
			return nil, err
		}
	}

	records, remaining, err := c.prepareSession(baseURL, approved)
	if err != nil {
		return nil, err
	}

	scraped, err := c.scrapeURLs(ctx, remaining)
	records = append(records, scraped...)
	if err != nil {
		return records, err
	}

	if err := c.store.MarkSessionComplete(c.sessionID); err != nil {
		c.logger.Warn("failed to mark session complete", "session_id", c.sessionID, "error", err)
	}
	return records, nil
}

// prepareSession binds the controller to a session for the approved
// set: the bound or compatible active session when one exists, a fresh
// one otherwise. It returns records for already-cached pages and the
// URLs still to scrape.
func (c *Controller) prepareSession(baseURL string, approved []string) ([]model.PageRecord, []string, error) {
	if c.sessionID == "" {
		if found, ok := c.store.FindCompatibleSession(baseURL, c.cfg); ok {
			c.logger.Info("resuming compatible session", "session_id", found)
			c.sessionID = found
		}
	}

	if c.sessionID == "" {
		sessionID, err := c.store.CreateSession(baseURL, c.cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create session: %w", err)
		}
		c.sessionID = sessionID
		return nil, approved, nil
	}

	cached, err := c.store.LoadCachedPages(c.sessionID)
	if err != nil {
		c.logger.Warn("failed to load cached pages", "session_id", c.sessionID, "error", err)
		cached = nil
	}

	records := make([]model.PageRecord, 0, len(cached))
	for _, page := range cached {
		records = append(records, model.PageRecord{
			URL:         page.URL,
			Depth:       page.Depth,
			ContentType: page.ContentType,
			Content:     page.Content,
			FetchedAt:   page.CachedAt,
		})
	}

	return records, c.store.GetResumeURLs(c.sessionID, approved), nil
}

// scrapeURLs fetches, extracts, and persists each URL in order. Per-URL
// failures are recorded and skipped; duplicate content aborts the whole
// pass. Each page is durable before the next URL is attempted.
func (c *Controller) scrapeURLs(ctx context.Context, urls []string) ([]model.PageRecord, error) {
	records := make([]model.PageRecord, 0, len(urls))

	for i, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			// Cancellation leaves the session active for resume.
			return records, err
		}

		ctype := c.classifier.Classify(pageURL)
		if i > 0 {
			if err := c.pace(ctx, pageURL, ctype); err != nil {
				return records, err
			}
		}

		record, err := c.scrapeOne(ctx, pageURL, ctype)
		if err != nil {
			var dupErr *DuplicateContentError
			if errors.As(err, &dupErr) {
				if markErr := c.store.MarkSessionFailed(c.sessionID); markErr != nil {
					c.logger.Warn("failed to mark session failed", "session_id", c.sessionID, "error", markErr)
				}
				return records, err
			}
			if ctx.Err() != nil {
				return records, ctx.Err()
			}

			c.logger.Warn("page skipped", "url", pageURL, "error", err)
			if markErr := c.store.MarkURLFailed(c.sessionID, pageURL); markErr != nil {
				c.logger.Warn("failed to record failed URL", "session_id", c.sessionID, "error", markErr)
			}
			continue
		}

		records = append(records, *record)
	}

	return records, nil
}

// scrapeOne fetches and extracts a single URL, runs the duplicate
// content guard, and persists the page.
func (c *Controller) scrapeOne(ctx context.Context, pageURL string, ctype model.ContentType) (*model.PageRecord, error) {
	body, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	content, err := c.extractor.Extract(body, pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if len(content.Text) < c.cfg.Content.MinContentLength {
		c.logger.Debug("content below minimum length", "url", pageURL, "length", len(content.Text))
		return nil, fmt.Errorf("%w: %d bytes", ErrContentTooShort, len(content.Text))
	}

	c.pageIndex++
	fingerprint := extract.ContentFingerprint(content.Text)
	if firstIndex, seen := c.fingerprints[fingerprint]; seen {
		c.logger.Error("duplicate content detected, aborting scrape",
			"url", pageURL, "page_index", c.pageIndex, "first_seen_index", firstIndex)
		return nil, &DuplicateContentError{
			PageIndex: c.pageIndex,
			URL:       pageURL,
			Sample:    contentSample(content.Text),
		}
	}
	c.fingerprints[fingerprint] = c.pageIndex

	now := time.Now().UTC()
	page := &model.CachedPage{
		URL:         pageURL,
		Content:     content,
		ContentType: ctype,
		Depth:       c.depths[pageURL],
		CachedAt:    now,
	}
	if err := c.store.SavePage(c.sessionID, page); err != nil {
		return nil, fmt.Errorf("persist page: %w", err)
	}

	return &model.PageRecord{
		URL:         pageURL,
		Depth:       c.depths[pageURL],
		ContentType: ctype,
		Content:     content,
		FetchedAt:   now,
	}, nil
}

// ScrapeWebsite crawls baseURL end to end: discovery, then scraping of
// the discovered set, all against one session.
func (c *Controller) ScrapeWebsite(ctx context.Context, baseURL string) ([]model.PageRecord, error) {
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	if c.sessionID == "" {
		if found, ok := c.store.FindCompatibleSession(normalized, c.cfg); ok {
			return c.ResumeScraping(ctx, found, normalized)
		}
		sessionID, err := c.store.CreateSession(normalized, c.cfg)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		c.sessionID = sessionID
	}

	urls, _, err := c.DiscoverURLs(ctx, normalized)
	if err != nil {
		return nil, err
	}

	return c.ScrapeApprovedURLs(ctx, urls, normalized)
}

// ResumeScraping continues an interrupted session. Completed sessions
// return their cached pages unchanged. Otherwise the discovered set is
// loaded (running discovery first if it was never persisted) and the
// remaining URLs are scraped, appending to the cached set.
func (c *Controller) ResumeScraping(ctx context.Context, sessionID, baseURL string) ([]model.PageRecord, error) {
	session, found := c.store.LoadSession(sessionID)
	if !found {
		return nil, fmt.Errorf("%w: %s", cache.ErrSessionNotFound, sessionID)
	}
	c.sessionID = sessionID
	if baseURL == "" {
		baseURL = session.BaseURL
	}

	if session.Status == model.SessionCompleted {
		c.logger.Info("session already completed, returning cached pages", "session_id", sessionID)
		cached, err := c.store.LoadCachedPages(sessionID)
		if err != nil {
			return nil, err
		}
		records := make([]model.PageRecord, 0, len(cached))
		for _, page := range cached {
			records = append(records, model.PageRecord{
				URL:         page.URL,
				Depth:       page.Depth,
				ContentType: page.ContentType,
				Content:     page.Content,
				FetchedAt:   page.CachedAt,
			})
		}
		return records, nil
	}

	if err := c.initCrawl(baseURL); err != nil {
		return nil, err
	}

	urls := session.URLsDiscovered
	if len(urls) == 0 {
		discovered, _, err := c.DiscoverURLs(ctx, baseURL)
		if err != nil {
			return nil, err
		}
		urls = discovered
	}

	return c.ScrapeApprovedURLs(ctx, urls, baseURL)
}

// pace waits the pacing delay or until the context is cancelled.
func (c *Controller) pace(ctx context.Context, pageURL string, ctype model.ContentType) error {
	delay := c.pacing.Delay(pageURL, ctype)
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// normalizeBaseURL validates the starting URL and defaults its scheme
// to https when missing.
func normalizeBaseURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(baseURL))
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("invalid base URL %q", baseURL)
		}
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL %q has no host", baseURL)
	}
	return u.String(), nil
}

// contentSample returns a short prefix of text for error messages.
func contentSample(text string) string {
	const sampleLen = 120
	if len(text) <= sampleLen {
		return text
	}
	return text[:sampleLen] + "..."
}
