package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/docscope/docscope/internal/model"
)

// durationPrecision is the rounding applied to displayed durations.
const durationPrecision = 100 * time.Millisecond

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
//  1. It works in all terminals without compatibility issues
//  2. It's easier to pipe to files or other tools
//  3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-content-type breakdown.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the crawl report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Base URL:      %s\n", report.BaseURL))
	sb.WriteString(fmt.Sprintf("  Session:       %s\n", report.SessionID))
	sb.WriteString(fmt.Sprintf("  Status:        %s\n", report.Status))
	sb.WriteString(fmt.Sprintf("  Pages scraped: %d / %d\n", report.PagesScraped, report.PagesTotal))
	if report.PagesFailed > 0 {
		sb.WriteString(fmt.Sprintf("  Pages failed:  %d\n", report.PagesFailed))
	}
	sb.WriteString(fmt.Sprintf("  Duration:      %s\n", report.Duration().Round(durationPrecision)))

	if report.Error != "" {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  [!] Crawl aborted: %s\n", report.Error))
		sb.WriteString(fmt.Sprintf("      %d page(s) were cached before the failure; resume with session %s\n",
			report.PagesScraped, report.SessionID))
	}

	if w.verbose && len(report.ContentTypes) > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		sb.WriteString("CONTENT TYPES\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n\n")
		for _, line := range contentTypeLines(report.ContentTypes) {
			sb.WriteString("  " + line + "\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

// contentTypeLines renders the content-type breakdown sorted by display
// priority, then name.
func contentTypeLines(counts map[model.ContentType]int) []string {
	types := make([]model.ContentType, 0, len(counts))
	for ct := range counts {
		types = append(types, ct)
	}
	sort.Slice(types, func(i, j int) bool {
		if types[i].Priority() != types[j].Priority() {
			return types[i].Priority() < types[j].Priority()
		}
		return types[i] < types[j]
	})

	lines := make([]string, 0, len(types))
	for _, ct := range types {
		lines = append(lines, fmt.Sprintf("%s %-14s %d", ct.Icon(), ct.String(), counts[ct]))
	}
	return lines
}
