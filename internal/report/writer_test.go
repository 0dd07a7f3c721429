package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/docscope/docscope/internal/model"
)

func sampleReport() *model.CrawlReport {
	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return &model.CrawlReport{
		SessionID:    "docs_example_com_20260801-100000_abcd1234",
		BaseURL:      "https://docs.example.com/guide/",
		Status:       model.SessionCompleted,
		StartedAt:    started,
		FinishedAt:   started.Add(2 * time.Minute),
		PagesScraped: 9,
		PagesFailed:  1,
		PagesTotal:   10,
		ContentTypes: map[model.ContentType]int{
			model.ContentTypeDocumentation: 7,
			model.ContentTypeContent:       2,
		},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(sampleReport())
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, buffer has %d", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{
			"CRAWL REPORT",
			"https://docs.example.com/guide/",
			"9 / 10",
			"completed",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("verbose adds content types", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(sampleReport()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(buf.String(), "documentation") {
			t.Error("verbose output missing content-type breakdown")
		}
	})

	t.Run("failed crawl reports partial progress", func(t *testing.T) {
		t.Parallel()

		r := sampleReport()
		r.Status = model.SessionFailed
		r.Error = "duplicate content at page 3"

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(r); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "duplicate content at page 3") {
			t.Error("output missing abort reason")
		}
		if !strings.Contains(out, r.SessionID) {
			t.Error("output missing session ID for resume")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("plain report round trips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(sampleReport()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		var got model.CrawlReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got.PagesScraped != 9 {
			t.Errorf("PagesScraped = %d, want 9", got.PagesScraped)
		}
	})

	t.Run("version wrapper", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("1.2.3"))
		if _, err := w.Write(sampleReport()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		var got JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got.Version != "1.2.3" {
			t.Errorf("Version = %q, want 1.2.3", got.Version)
		}
		if got.Report == nil || got.Report.SessionID == "" {
			t.Error("wrapped report missing")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Crawl Report",
		"## Content Types",
		"docs.example.com",
		"mermaid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
	if _, err := mw.Write(sampleReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("MultiWriter did not write to all destinations")
	}
}

func TestFromSession(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	completed := now.Add(time.Minute)
	session := &model.CrawlSession{
		SessionID:    "s1",
		BaseURL:      "https://docs.example.com/",
		Status:       model.SessionCompleted,
		CreatedAt:    now,
		LastModified: now.Add(30 * time.Second),
		CompletedAt:  &completed,
		URLsScraped:  []string{"a", "b"},
		URLsFailed:   []string{"c"},
		PagesScraped: 2,
		PagesTotal:   3,
	}
	pages := []model.CachedPage{
		{URL: "a", ContentType: model.ContentTypeDocumentation},
		{URL: "b", ContentType: model.ContentTypeDocumentation},
	}

	report := FromSession(session, pages, nil)
	if report.PagesScraped != 2 || report.PagesFailed != 1 || report.PagesTotal != 3 {
		t.Errorf("counts = %d/%d/%d, want 2/1/3", report.PagesScraped, report.PagesFailed, report.PagesTotal)
	}
	if !report.FinishedAt.Equal(completed) {
		t.Errorf("FinishedAt = %v, want CompletedAt", report.FinishedAt)
	}
	if report.ContentTypes[model.ContentTypeDocumentation] != 2 {
		t.Errorf("ContentTypes = %v", report.ContentTypes)
	}

	failed := FromSession(session, nil, errors.New("boom"))
	if failed.Error != "boom" {
		t.Errorf("Error = %q, want boom", failed.Error)
	}
}
