package report

import (
	"io"

	"github.com/docscope/docscope/internal/model"
)

// Writer defines the interface for crawl report output.
// Implementations write reports in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CrawlReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// FromSession builds a CrawlReport from a session and its cached pages.
// The fatal error, if any, becomes the report's Error so a failed crawl
// still reports the progress made before the abort.
func FromSession(session *model.CrawlSession, pages []model.CachedPage, crawlErr error) *model.CrawlReport {
	report := &model.CrawlReport{
		SessionID:    session.SessionID,
		BaseURL:      session.BaseURL,
		Status:       session.Status,
		StartedAt:    session.CreatedAt,
		FinishedAt:   session.LastModified,
		PagesScraped: session.PagesScraped,
		PagesFailed:  len(session.URLsFailed),
		PagesTotal:   session.PagesTotal,
	}
	if session.CompletedAt != nil {
		report.FinishedAt = *session.CompletedAt
	}
	if crawlErr != nil {
		report.Error = crawlErr.Error()
	}

	if len(pages) > 0 {
		report.ContentTypes = make(map[model.ContentType]int, len(pages))
		for _, page := range pages {
			report.ContentTypes[page.ContentType]++
		}
	}
	return report
}
