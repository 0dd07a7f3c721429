package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ExtractedContent is the content payload produced by a ContentExtractor.
// The cache treats it as opaque; only Text and WordCount are inspected by
// the crawler (for the minimum-length check and the duplicate-content guard).
type ExtractedContent struct {
	// Title is the page title, if the extractor found one.
	Title string `json:"title,omitempty"`

	// Text is the extracted readable text of the page.
	Text string `json:"text"`

	// WordCount is the number of words in Text.
	WordCount int `json:"word_count"`

	// Metadata carries extractor-specific fields (headings, language, ...).
	// Downstream exporters interpret it; the crawler does not.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PageRecord is one successfully scraped page as returned to callers.
type PageRecord struct {
	// URL is the fetched URL.
	URL string `json:"url"`

	// Depth is the BFS depth at which the URL was reached.
	// Zero for pages scraped from a pre-approved set.
	Depth int `json:"depth"`

	// ContentType is the classification assigned during discovery or scrape.
	ContentType ContentType `json:"content_type"`

	// Content is the extracted payload.
	Content *ExtractedContent `json:"content"`

	// FetchedAt is when the page was fetched.
	FetchedAt time.Time `json:"fetched_at"`
}

// CachedPage is the durable record of one scraped URL inside a session.
// It is addressed by the SHA-256 of its URL, so a second write for the
// same URL overwrites rather than duplicates.
type CachedPage struct {
	// URL is the page URL. Required; the cache rejects empty URLs.
	URL string `json:"url"`

	// Content is the extracted payload, stored as-is.
	Content *ExtractedContent `json:"content"`

	// ContentType is the classification the page carried when cached.
	ContentType ContentType `json:"content_type,omitempty"`

	// Depth is the crawl depth recorded for the page.
	Depth int `json:"depth"`

	// CachedAt is when the record was written.
	CachedAt time.Time `json:"cached_at"`

	// SessionID is the owning session.
	SessionID string `json:"session_id"`
}

// URLKey returns the hex SHA-256 digest of a URL, used as the cache file
// name for the page. The full 64-character digest is used; truncation
// would invite collisions on large crawls.
func URLKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
