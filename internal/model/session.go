package model

import (
	"time"
)

// SessionStatus represents the lifecycle state of a crawl session.
type SessionStatus string

const (
	// SessionActive marks a session that is in progress or was interrupted.
	// Active sessions are candidates for resume.
	SessionActive SessionStatus = "active"

	// SessionCompleted marks a session whose crawl finished a full pass.
	// Completed sessions are never resumed; their cached pages are served as-is.
	SessionCompleted SessionStatus = "completed"

	// SessionFailed marks a session aborted by a fatal error
	// (duplicate content, hard authentication failure).
	SessionFailed SessionStatus = "failed"
)

// CrawlSession is the durable record of one crawl attempt against one
// base URL and configuration pair. It is mutated incrementally as pages
// are scraped or fail, and persisted after every mutation so that a crash
// loses at most the in-flight page.
type CrawlSession struct {
	// SessionID uniquely identifies the session. It is derived from the
	// base URL's host, a timestamp, and the first 8 hex characters of the
	// configuration hash.
	SessionID string `json:"session_id"`

	// BaseURL is the starting URL the crawl was launched with.
	BaseURL string `json:"base_url"`

	// ConfigHash is the digest of the configuration subset that affects
	// crawl results. Sessions are only resumed when hashes match.
	ConfigHash string `json:"config_hash"`

	// Status is the lifecycle state: active, completed, or failed.
	Status SessionStatus `json:"status"`

	// CreatedAt is when the session was first persisted.
	CreatedAt time.Time `json:"created_at"`

	// LastModified is bumped on every persisted mutation.
	LastModified time.Time `json:"last_modified"`

	// CompletedAt is set when the session transitions to completed.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// URLsDiscovered is the full discovery result for the session.
	URLsDiscovered []string `json:"urls_discovered"`

	// URLsScraped lists URLs whose pages are durably cached.
	// Invariant: a URL appears at most once, and PagesScraped equals
	// len(URLsScraped).
	URLsScraped []string `json:"urls_scraped"`

	// URLsFailed lists URLs that failed to fetch or extract.
	URLsFailed []string `json:"urls_failed"`

	// PagesScraped is the count of scraped URLs, kept equal to
	// len(URLsScraped).
	PagesScraped int `json:"pages_scraped"`

	// PagesTotal is the number of discovered URLs expected to be scraped.
	PagesTotal int `json:"pages_total"`
}

// MarkScraped records a URL as scraped. The operation is idempotent:
// recording the same URL twice leaves the session unchanged.
// It returns true if the URL was newly added.
func (s *CrawlSession) MarkScraped(url string) bool {
	for _, u := range s.URLsScraped {
		if u == url {
			return false
		}
	}
	s.URLsScraped = append(s.URLsScraped, url)
	s.PagesScraped = len(s.URLsScraped)
	return true
}

// MarkFailed records a URL as failed, once.
func (s *CrawlSession) MarkFailed(url string) {
	for _, u := range s.URLsFailed {
		if u == url {
			return
		}
	}
	s.URLsFailed = append(s.URLsFailed, url)
}

// HasScraped reports whether the URL is already recorded as scraped.
func (s *CrawlSession) HasScraped(url string) bool {
	for _, u := range s.URLsScraped {
		if u == url {
			return true
		}
	}
	return false
}

// RemainingURLs returns the members of allURLs not yet scraped, preserving
// the order of allURLs. This is the set a resumed crawl still has to fetch.
func (s *CrawlSession) RemainingURLs(allURLs []string) []string {
	scraped := make(map[string]struct{}, len(s.URLsScraped))
	for _, u := range s.URLsScraped {
		scraped[u] = struct{}{}
	}

	remaining := make([]string, 0, len(allURLs))
	for _, u := range allURLs {
		if _, ok := scraped[u]; !ok {
			remaining = append(remaining, u)
		}
	}
	return remaining
}

// SessionSummary is the listing view of a session. It carries the fields
// needed to render session tables without loading page content.
type SessionSummary struct {
	// SessionID identifies the session.
	SessionID string `json:"session_id"`

	// BaseURL is the session's starting URL.
	BaseURL string `json:"base_url"`

	// Status is the session lifecycle state.
	Status SessionStatus `json:"status"`

	// PagesScraped and PagesTotal describe crawl progress.
	PagesScraped int `json:"pages_scraped"`
	PagesTotal   int `json:"pages_total"`

	// CreatedAt and LastModified are the session timestamps.
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`

	// SizeBytes is the computed on-disk size of the session directory.
	SizeBytes int64 `json:"size_bytes"`
}
