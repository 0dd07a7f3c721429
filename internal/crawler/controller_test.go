package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/docscope/docscope/internal/cache"
	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/model"
)

// fakeFetcher serves pages from a map and records the order of fetches.
type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	body, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return body, nil
}

// fetchFunc adapts a closure to the Fetcher interface.
type fetchFunc func(ctx context.Context, url string) (string, error)

func (f fetchFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

func pageHTML(title, text string, links ...string) string {
	body := "<html><head><title>" + title + "</title></head><body><main><p>" + text + "</p>"
	for _, link := range links {
		body += `<a href="` + link + `">link</a>`
	}
	return body + "</main></body></html>"
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.Crawling.MaxDepth = 1
	cfg.Crawling.MaxPages = 5
	cfg.Crawling.RequestDelay = 0
	cfg.Crawling.RespectRobots = false
	cfg.Content.MinContentLength = 10
	return cfg
}

func testController(t *testing.T, cfg *config.Config, opts ...Option) (*Controller, *cache.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := cache.NewStore(t.TempDir(), cache.WithCompression(false, 0), cache.WithLogger(logger))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	opts = append(opts, WithLogger(logger))
	return New(cfg, store, opts...), store
}

func TestController_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("BFS discovery respects scope", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]string{
			"https://example.com/docs/": pageHTML("Docs", "documentation index page",
				"/docs/a", "/docs/b", "/blog/x"),
			"https://example.com/docs/a": pageHTML("A", "page a body text here"),
			"https://example.com/docs/b": pageHTML("B", "page b body text here"),
		}}

		c, _ := testController(t, testConfig(), WithFetcher(fetcher))
		urls, classifications, err := c.DiscoverURLs(context.Background(), "https://example.com/docs/")
		if err != nil {
			t.Fatalf("DiscoverURLs() error = %v", err)
		}

		want := []string{
			"https://example.com/docs/",
			"https://example.com/docs/a",
			"https://example.com/docs/b",
		}
		if len(urls) != len(want) {
			t.Fatalf("urls = %v, want %v", urls, want)
		}
		for i := range want {
			if urls[i] != want[i] {
				t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
			}
		}

		for _, u := range want {
			if classifications[u] != model.ContentTypeDocumentation {
				t.Errorf("classification for %q = %q, want documentation", u, classifications[u])
			}
		}
	})

	t.Run("max_pages bounds fetches", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]string{
			"https://example.com/docs/": pageHTML("Docs", "documentation index page",
				"/docs/a", "/docs/b", "/docs/c", "/docs/d"),
			"https://example.com/docs/a": pageHTML("A", "page a body text here"),
			"https://example.com/docs/b": pageHTML("B", "page b body text here"),
			"https://example.com/docs/c": pageHTML("C", "page c body text here"),
			"https://example.com/docs/d": pageHTML("D", "page d body text here"),
		}}

		cfg := testConfig()
		cfg.Crawling.MaxPages = 2
		c, _ := testController(t, cfg, WithFetcher(fetcher))

		if _, _, err := c.DiscoverURLs(context.Background(), "https://example.com/docs/"); err != nil {
			t.Fatalf("DiscoverURLs() error = %v", err)
		}
		if len(fetcher.calls) != 2 {
			t.Errorf("fetches = %d, want 2", len(fetcher.calls))
		}
	})

	t.Run("robots disallow aborts discovery", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.Crawling.RespectRobots = true

		fetcher := &fakeFetcher{pages: map[string]string{}}
		c, _ := testController(t, cfg,
			WithFetcher(fetcher),
			WithRobotsChecker(robotsFunc(func(_ context.Context, _ string) (bool, error) {
				return false, nil
			})),
		)

		_, _, err := c.DiscoverURLs(context.Background(), "https://example.com/docs/")
		var robotsErr *RobotsDisallowedError
		if !errors.As(err, &robotsErr) {
			t.Fatalf("error = %v, want RobotsDisallowedError", err)
		}
		if len(fetcher.calls) != 0 {
			t.Errorf("fetches = %d after robots disallow, want 0", len(fetcher.calls))
		}
	})

	t.Run("rejects invalid base URL", func(t *testing.T) {
		t.Parallel()

		c, _ := testController(t, testConfig(), WithFetcher(&fakeFetcher{}))
		if _, _, err := c.DiscoverURLs(context.Background(), "://not-a-url"); err == nil {
			t.Error("DiscoverURLs() error = nil, want error")
		}
	})
}

// robotsFunc adapts a closure to the RobotsChecker interface.
type robotsFunc func(ctx context.Context, url string) (bool, error)

func (f robotsFunc) Allowed(ctx context.Context, url string) (bool, error) {
	return f(ctx, url)
}

func TestController_ScrapeApprovedURLs(t *testing.T) {
	t.Parallel()

	t.Run("scrapes all and completes the session", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]string{
			"https://example.com/docs/":  pageHTML("Docs", "documentation index page"),
			"https://example.com/docs/a": pageHTML("A", "page a body text here"),
			"https://example.com/docs/b": pageHTML("B", "page b body text here"),
		}}
		approved := []string{
			"https://example.com/docs/",
			"https://example.com/docs/a",
			"https://example.com/docs/b",
		}

		c, store := testController(t, testConfig(), WithFetcher(fetcher))
		records, err := c.ScrapeApprovedURLs(context.Background(), approved, "https://example.com/docs/")
		if err != nil {
			t.Fatalf("ScrapeApprovedURLs() error = %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("len(records) = %d, want 3", len(records))
		}

		session, found := store.LoadSession(c.SessionID())
		if !found {
			t.Fatal("session not found after scrape")
		}
		if session.Status != model.SessionCompleted {
			t.Errorf("Status = %q, want completed", session.Status)
		}
		if session.PagesScraped != 3 {
			t.Errorf("PagesScraped = %d, want 3", session.PagesScraped)
		}
		if session.PagesScraped != len(session.URLsScraped) {
			t.Errorf("PagesScraped = %d but len(URLsScraped) = %d", session.PagesScraped, len(session.URLsScraped))
		}

		pages, err := store.LoadCachedPages(c.SessionID())
		if err != nil {
			t.Fatalf("LoadCachedPages() error = %v", err)
		}
		if len(pages) != 3 {
			t.Errorf("cached pages = %d, want 3", len(pages))
		}
	})

	t.Run("per-URL failures are skipped and recorded", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{
			pages: map[string]string{
				"https://example.com/docs/a": pageHTML("A", "page a body text here"),
				"https://example.com/docs/c": pageHTML("C", "page c body text here"),
			},
			errs: map[string]error{
				"https://example.com/docs/b": errors.New("connection refused"),
			},
		}
		approved := []string{
			"https://example.com/docs/a",
			"https://example.com/docs/b",
			"https://example.com/docs/c",
		}

		c, store := testController(t, testConfig(), WithFetcher(fetcher))
		records, err := c.ScrapeApprovedURLs(context.Background(), approved, "https://example.com/docs/")
		if err != nil {
			t.Fatalf("ScrapeApprovedURLs() error = %v", err)
		}
		if len(records) != 2 {
			t.Errorf("len(records) = %d, want failing URL skipped", len(records))
		}

		session, _ := store.LoadSession(c.SessionID())
		if session.Status != model.SessionCompleted {
			t.Errorf("Status = %q, want completed despite per-URL failure", session.Status)
		}
		if len(session.URLsFailed) != 1 || session.URLsFailed[0] != "https://example.com/docs/b" {
			t.Errorf("URLsFailed = %v, want the failing URL", session.URLsFailed)
		}
	})

	t.Run("short content is skipped without failing the crawl", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.Content.MinContentLength = 1000

		fetcher := &fakeFetcher{pages: map[string]string{
			"https://example.com/docs/a": pageHTML("A", "too short"),
		}}
		c, store := testController(t, cfg, WithFetcher(fetcher))

		records, err := c.ScrapeApprovedURLs(context.Background(),
			[]string{"https://example.com/docs/a"}, "https://example.com/docs/")
		if err != nil {
			t.Fatalf("ScrapeApprovedURLs() error = %v", err)
		}
		if len(records) != 0 {
			t.Errorf("len(records) = %d, want 0", len(records))
		}

		session, _ := store.LoadSession(c.SessionID())
		if session.PagesScraped != 0 {
			t.Errorf("PagesScraped = %d, want 0", session.PagesScraped)
		}
	})

	t.Run("empty approved set is a no-op", func(t *testing.T) {
		t.Parallel()

		c, _ := testController(t, testConfig(), WithFetcher(&fakeFetcher{}))
		records, err := c.ScrapeApprovedURLs(context.Background(), nil, "")
		if err != nil {
			t.Fatalf("ScrapeApprovedURLs() error = %v", err)
		}
		if records != nil {
			t.Errorf("records = %v, want nil", records)
		}
	})
}

func TestController_DuplicateContentAbort(t *testing.T) {
	t.Parallel()

	// Pages b and c render identical text: the classic silent auth
	// failure signature.
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/docs/a": pageHTML("A", "unique first page body"),
		"https://example.com/docs/b": pageHTML("B", "please log in to continue"),
		"https://example.com/docs/c": pageHTML("C", "please log in to continue"),
		"https://example.com/docs/d": pageHTML("D", "never reached page body"),
	}}
	approved := []string{
		"https://example.com/docs/a",
		"https://example.com/docs/b",
		"https://example.com/docs/c",
		"https://example.com/docs/d",
	}

	c, store := testController(t, testConfig(), WithFetcher(fetcher))
	records, err := c.ScrapeApprovedURLs(context.Background(), approved, "https://example.com/docs/")

	var dupErr *DuplicateContentError
	if !errors.As(err, &dupErr) {
		t.Fatalf("error = %v, want DuplicateContentError", err)
	}
	if dupErr.PageIndex != 3 {
		t.Errorf("PageIndex = %d, want 3", dupErr.PageIndex)
	}
	if dupErr.URL != "https://example.com/docs/c" {
		t.Errorf("URL = %q, want the repeating page", dupErr.URL)
	}
	if dupErr.Sample == "" {
		t.Error("Sample is empty, want content sample for diagnosis")
	}

	// Pages before the failure point are cached; none after.
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2 pages before the abort", len(records))
	}
	pages, err := store.LoadCachedPages(c.SessionID())
	if err != nil {
		t.Fatalf("LoadCachedPages() error = %v", err)
	}
	if len(pages) != 2 {
		t.Errorf("cached pages = %d, want 2", len(pages))
	}
	for _, page := range pages {
		if page.URL == "https://example.com/docs/d" {
			t.Error("page after the failure point was cached")
		}
	}

	session, _ := store.LoadSession(c.SessionID())
	if session.Status != model.SessionFailed {
		t.Errorf("Status = %q, want failed", session.Status)
	}
}

func TestController_ResumeCorrectness(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	all := []string{
		"https://example.com/docs/a",
		"https://example.com/docs/b",
		"https://example.com/docs/c",
	}
	pages := map[string]string{
		all[0]: pageHTML("A", "page a body text here"),
		all[1]: pageHTML("B", "page b body text here"),
		all[2]: pageHTML("C", "page c body text here"),
	}

	// First run is interrupted after the first page: the fetcher cancels
	// the crawl's context once the first fetch succeeds.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupting := fetchFunc(func(_ context.Context, url string) (string, error) {
		body, ok := pages[url]
		if !ok {
			return "", fmt.Errorf("no page for %s", url)
		}
		cancel()
		return body, nil
	})

	first, store := testController(t, cfg, WithFetcher(interrupting))
	records, err := first.ScrapeApprovedURLs(ctx, all, "https://example.com/docs/")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("interrupted scrape error = %v, want context.Canceled", err)
	}
	if len(records) != 1 {
		t.Fatalf("records before interrupt = %d, want 1", len(records))
	}

	sessionID := first.SessionID()
	session, _ := store.LoadSession(sessionID)
	if session.Status != model.SessionActive {
		t.Fatalf("Status after interrupt = %q, want active", session.Status)
	}

	// Second run resumes the same session and fetches only what is left.
	resumeFetcher := &fakeFetcher{pages: pages}
	cfg2 := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	second := New(cfg2, store, WithFetcher(resumeFetcher), WithSession(sessionID), WithLogger(logger))

	records, err = second.ScrapeApprovedURLs(context.Background(), all, "https://example.com/docs/")
	if err != nil {
		t.Fatalf("resume ScrapeApprovedURLs() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("len(records) = %d, want full set after resume", len(records))
	}
	if len(resumeFetcher.calls) != 2 {
		t.Errorf("resume fetches = %d, want only the remaining 2", len(resumeFetcher.calls))
	}

	cached, err := store.LoadCachedPages(sessionID)
	if err != nil {
		t.Fatalf("LoadCachedPages() error = %v", err)
	}
	if len(cached) != 3 {
		t.Errorf("cached pages = %d, want 3 with no duplicates", len(cached))
	}

	session, _ = store.LoadSession(sessionID)
	if session.Status != model.SessionCompleted {
		t.Errorf("Status after resume = %q, want completed", session.Status)
	}
}

func TestController_ScrapeWebsite(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/docs/": pageHTML("Docs", "documentation index page",
			"/docs/a", "/docs/b", "/blog/x"),
		"https://example.com/docs/a": pageHTML("A", "page a body text here"),
		"https://example.com/docs/b": pageHTML("B", "page b body text here"),
	}}

	c, store := testController(t, testConfig(), WithFetcher(fetcher))
	records, err := c.ScrapeWebsite(context.Background(), "https://example.com/docs/")
	if err != nil {
		t.Fatalf("ScrapeWebsite() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	session, found := store.LoadSession(c.SessionID())
	if !found {
		t.Fatal("session not found")
	}
	if session.Status != model.SessionCompleted {
		t.Errorf("Status = %q, want completed", session.Status)
	}
	if len(session.URLsDiscovered) != 3 {
		t.Errorf("URLsDiscovered = %d, want discovery persisted to session", len(session.URLsDiscovered))
	}

	// Depths recorded during discovery carry into the page records.
	byURL := make(map[string]model.PageRecord)
	for _, r := range records {
		byURL[r.URL] = r
	}
	if byURL["https://example.com/docs/"].Depth != 0 {
		t.Errorf("base depth = %d, want 0", byURL["https://example.com/docs/"].Depth)
	}
	if byURL["https://example.com/docs/a"].Depth != 1 {
		t.Errorf("docs/a depth = %d, want 1", byURL["https://example.com/docs/a"].Depth)
	}
}

func TestController_ResumeScraping(t *testing.T) {
	t.Parallel()

	t.Run("completed session returns cached pages without fetching", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]string{
			"https://example.com/docs/a": pageHTML("A", "page a body text here"),
		}}
		c, store := testController(t, testConfig(), WithFetcher(fetcher))

		if _, err := c.ScrapeApprovedURLs(context.Background(),
			[]string{"https://example.com/docs/a"}, "https://example.com/docs/"); err != nil {
			t.Fatalf("ScrapeApprovedURLs() error = %v", err)
		}
		sessionID := c.SessionID()
		fetchesBefore := len(fetcher.calls)

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		resumed := New(testConfig(), store, WithFetcher(fetcher), WithLogger(logger))
		records, err := resumed.ResumeScraping(context.Background(), sessionID, "")
		if err != nil {
			t.Fatalf("ResumeScraping() error = %v", err)
		}
		if len(records) != 1 {
			t.Errorf("len(records) = %d, want 1", len(records))
		}
		if len(fetcher.calls) != fetchesBefore {
			t.Error("completed session triggered fetches")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()

		c, _ := testController(t, testConfig(), WithFetcher(&fakeFetcher{}))
		if _, err := c.ResumeScraping(context.Background(), "missing", ""); !errors.Is(err, cache.ErrSessionNotFound) {
			t.Errorf("error = %v, want ErrSessionNotFound", err)
		}
	})
}

func TestController_AuthSetup(t *testing.T) {
	t.Parallel()

	t.Run("explicit auth failure is fatal", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.Auth.Enabled = true
		cfg.Auth.Type = "basic" // explicit, but no credentials

		c, _ := testController(t, cfg, WithFetcher(&fakeFetcher{}))
		_, _, err := c.DiscoverURLs(context.Background(), "https://example.com/docs/")

		var authErr *AuthenticationError
		if !errors.As(err, &authErr) {
			t.Fatalf("error = %v, want AuthenticationError", err)
		}
	})

	t.Run("implicit auth failure continues anonymously", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.Auth.Enabled = true // no type, no credentials: implicit

		fetcher := &fakeFetcher{pages: map[string]string{
			"https://example.com/docs/": pageHTML("Docs", "documentation index page"),
		}}
		c, _ := testController(t, cfg, WithFetcher(fetcher))

		urls, _, err := c.DiscoverURLs(context.Background(), "https://example.com/docs/")
		if err != nil {
			t.Fatalf("DiscoverURLs() error = %v, want anonymous crawl", err)
		}
		if len(urls) != 1 {
			t.Errorf("len(urls) = %d, want 1", len(urls))
		}
	})
}
