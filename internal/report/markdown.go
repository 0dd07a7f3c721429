package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/docscope/docscope/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
//  1. Type-safe markdown generation
//  2. Support for tables, lists, and code blocks
//  3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the crawl report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeOutcome(md, report)
	w.writeContentTypes(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Base URL", "`" + report.BaseURL + "`"},
			{"Session", "`" + report.SessionID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(durationPrecision).String()},
			{"Pages Scraped", strconv.Itoa(report.PagesScraped) + " / " + strconv.Itoa(report.PagesTotal)},
			{"Pages Failed", strconv.Itoa(report.PagesFailed)},
			{"Status", string(report.Status)},
		},
	})
	md.PlainText("")
}

// writeOutcome writes an alert matching the crawl outcome.
func (w *MarkdownWriter) writeOutcome(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.Error != "":
		md.Cautionf(
			"Crawl aborted: %s. %d page(s) were cached before the failure; resume with session `%s`.",
			report.Error, report.PagesScraped, report.SessionID,
		)
	case report.PagesFailed > 0:
		md.Warningf(
			"%d page(s) failed to fetch or extract and were skipped.",
			report.PagesFailed,
		)
	case report.Status == model.SessionCompleted:
		md.Tip("All discovered pages were scraped successfully.")
	}
	md.PlainText("")
}

// writeContentTypes writes the per-content-type breakdown with a
// mermaid pie chart.
func (w *MarkdownWriter) writeContentTypes(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.ContentTypes) == 0 {
		return
	}

	md.H2("Content Types")

	types := make([]model.ContentType, 0, len(report.ContentTypes))
	for ct := range report.ContentTypes {
		types = append(types, ct)
	}
	sort.Slice(types, func(i, j int) bool {
		if types[i].Priority() != types[j].Priority() {
			return types[i].Priority() < types[j].Priority()
		}
		return types[i] < types[j]
	})

	rows := make([][]string, 0, len(types))
	for _, ct := range types {
		rows = append(rows, []string{
			ct.Icon() + " " + ct.String(),
			strconv.Itoa(report.ContentTypes[ct]),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Type", "Pages"},
		Rows:   rows,
	})

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Pages by Content Type"),
		piechart.WithShowData(true),
	)
	for _, ct := range types {
		chart.LabelAndIntValue(ct.String(), uint64(report.ContentTypes[ct]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}
