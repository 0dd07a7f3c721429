package model

import "time"

// CrawlReport summarizes one finished (or aborted) crawl for reporting
// and history. It is derived from the session record plus timing data the
// controller gathers; it is not itself durable crawl state.
type CrawlReport struct {
	// SessionID is the session the crawl ran under.
	SessionID string `json:"session_id"`

	// BaseURL is the crawl's starting URL.
	BaseURL string `json:"base_url"`

	// Status is the session status at the end of the run.
	Status SessionStatus `json:"status"`

	// StartedAt and FinishedAt bound the crawl.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// PagesScraped, PagesFailed, and PagesTotal describe the outcome.
	PagesScraped int `json:"pages_scraped"`
	PagesFailed  int `json:"pages_failed"`
	PagesTotal   int `json:"pages_total"`

	// ContentTypes counts scraped pages per classification.
	ContentTypes map[ContentType]int `json:"content_types,omitempty"`

	// Error is the fatal error message when Status is failed, empty otherwise.
	// A failed crawl still reports how many pages succeeded before the
	// fatal condition so the user can resume or inspect partial results.
	Error string `json:"error,omitempty"`
}

// Duration returns the wall-clock time the crawl took.
func (r *CrawlReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
