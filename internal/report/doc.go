// Package report renders crawl summaries in multiple formats.
//
// Three writers are provided:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: machine-readable output for tool integration
//   - MarkdownWriter: shareable documents with a content-type chart
//
// All writers implement the Writer interface, and MultiWriter fans one
// report out to several destinations (e.g. terminal and file).
package report
