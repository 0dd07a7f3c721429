package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/docscope/docscope/internal/cache"
	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/crawler"
	"github.com/docscope/docscope/internal/database"
	"github.com/docscope/docscope/internal/model"
	"github.com/docscope/docscope/internal/report"
)

// fakeFetcher serves canned HTML bodies keyed by URL.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	body, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return body, nil
}

func pageHTML(title, body string, links ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>" + title + "</title></head><body><main><p>")
	sb.WriteString(body)
	sb.WriteString("</p>")
	for _, link := range links {
		sb.WriteString(`<a href="` + link + `">link</a>`)
	}
	sb.WriteString("</main></body></html>")
	return sb.String()
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.Crawling.MaxDepth = 1
	cfg.Crawling.MaxPages = 10
	cfg.Crawling.RequestDelay = 0
	cfg.Crawling.RespectRobots = false
	cfg.Content.MinContentLength = 10
	return cfg
}

func testStore(t *testing.T) *cache.Store {
	t.Helper()

	store, err := cache.NewStore(t.TempDir(),
		cache.WithCompression(false, 0),
		cache.WithLogger(discardLogger()),
	)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func docsFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{
		"https://example.com/docs/": pageHTML("Docs", "documentation index with enough text",
			"/docs/install", "/docs/usage"),
		"https://example.com/docs/install": pageHTML("Install", "how to install the thing properly"),
		"https://example.com/docs/usage":   pageHTML("Usage", "how to use the thing day to day"),
	}}
}

func TestDiscoverAndScrapeSteps(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	controller := crawler.New(testConfig(), store,
		crawler.WithFetcher(docsFetcher()),
		crawler.WithLogger(discardLogger()),
	)

	p := New(WithLogger(discardLogger()))
	p.AddSteps(
		NewDiscoverStep(controller, WithDiscoverLogger(discardLogger())),
		NewScrapeStep(controller, WithScrapeLogger(discardLogger())),
	)

	run := NewRun("https://example.com/docs/")
	if err := p.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(run.URLs) != 3 {
		t.Errorf("discovered %d URLs, want 3: %v", len(run.URLs), run.URLs)
	}
	if len(run.Pages) != 3 {
		t.Errorf("scraped %d pages, want 3", len(run.Pages))
	}
	if run.SessionID == "" {
		t.Error("run.SessionID not set")
	}

	session, ok := store.LoadSession(run.SessionID)
	if !ok {
		t.Fatal("session not found in store")
	}
	if session.Status != model.SessionCompleted {
		t.Errorf("session status = %s, want completed", session.Status)
	}
}

func TestReportStep(t *testing.T) {
	t.Parallel()

	t.Run("builds and writes report from session", func(t *testing.T) {
		t.Parallel()

		store := testStore(t)
		sessionID, err := store.CreateSession("https://example.com/docs/", testConfig())
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if err := store.SaveDiscoveryResults(sessionID, []string{"https://example.com/docs/"}, nil); err != nil {
			t.Fatalf("SaveDiscoveryResults() error = %v", err)
		}
		page := &model.CachedPage{
			URL:         "https://example.com/docs/",
			Content:     &model.ExtractedContent{Title: "Docs", Text: "body", WordCount: 1},
			ContentType: model.ContentTypeDocumentation,
			CachedAt:    time.Now().UTC(),
			SessionID:   sessionID,
		}
		if err := store.SavePage(sessionID, page); err != nil {
			t.Fatalf("SavePage() error = %v", err)
		}
		if err := store.MarkSessionComplete(sessionID); err != nil {
			t.Fatalf("MarkSessionComplete() error = %v", err)
		}

		var buf bytes.Buffer
		step := NewReportStep(store,
			WithReportWriters(report.NewJSONWriter(&buf)),
			WithReportLogger(discardLogger()),
		)

		run := NewRun("https://example.com/docs/")
		run.SessionID = sessionID
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		if run.Report == nil {
			t.Fatal("run.Report not built")
		}
		if run.Report.PagesScraped != 1 {
			t.Errorf("PagesScraped = %d, want 1", run.Report.PagesScraped)
		}
		if run.Report.ContentTypes[model.ContentTypeDocumentation] != 1 {
			t.Errorf("ContentTypes = %v", run.Report.ContentTypes)
		}
		if buf.Len() == 0 {
			t.Error("writer received no output")
		}
	})

	t.Run("missing session is a no-op", func(t *testing.T) {
		t.Parallel()

		step := NewReportStep(testStore(t), WithReportLogger(discardLogger()))
		run := NewRun("https://example.com/")
		run.SessionID = "no_such_session"

		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if run.Report != nil {
			t.Error("report should not be built without a session")
		}
	})
}

func TestHistoryStep(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck

	step := NewHistoryStep(db, WithHistoryLogger(discardLogger()))

	t.Run("nil report is a no-op", func(t *testing.T) {
		if err := step.Do(context.Background(), NewRun("https://example.com/")); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
	})

	t.Run("records report", func(t *testing.T) {
		run := NewRun("https://example.com/docs/")
		run.Report = &model.CrawlReport{
			SessionID:    "s1",
			BaseURL:      "https://example.com/docs/",
			Status:       model.SessionCompleted,
			StartedAt:    time.Now().UTC().Add(-time.Minute),
			FinishedAt:   time.Now().UTC(),
			PagesScraped: 3,
			PagesTotal:   3,
		}
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		entry, err := db.Latest(context.Background(), "example.com")
		if err != nil {
			t.Fatalf("Latest() error = %v", err)
		}
		if entry == nil || entry.PagesScraped != 3 {
			t.Errorf("Latest() = %+v, want 3 pages scraped", entry)
		}
	})
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck

	var buf bytes.Buffer
	p := DefaultPipeline(testConfig(), store,
		[]Option{WithLogger(discardLogger())},
		WithPipelineWriters(report.NewJSONWriter(&buf)),
		WithPipelineHistory(db),
		WithPipelineCrawlerOptions(crawler.WithFetcher(docsFetcher())),
	)

	if p.StepCount() != 3 {
		t.Fatalf("StepCount() = %d, want crawl, report, history", p.StepCount())
	}

	run := NewRun("https://example.com/docs/")
	if err := p.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(run.Pages) != 3 {
		t.Errorf("scraped %d pages, want 3", len(run.Pages))
	}
	if run.Report == nil || run.Report.Status != model.SessionCompleted {
		t.Fatalf("run.Report = %+v, want completed", run.Report)
	}
	if buf.Len() == 0 {
		t.Error("report writer received no output")
	}

	entry, err := db.Latest(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if entry == nil || entry.SessionID != run.SessionID {
		t.Errorf("history entry = %+v, want session %s", entry, run.SessionID)
	}
}
