package cache

import "errors"

// Store errors. All of these are recoverable conditions: callers log and
// treat the data as absent rather than aborting the crawl.
var (
	// ErrCacheFileNotFound is returned when neither the compressed nor
	// the plain variant of a cache file exists.
	ErrCacheFileNotFound = errors.New("cache file not found")

	// ErrSessionNotFound is returned when a session directory or its
	// session record does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEmptyURL is returned by SavePage when the page has no URL.
	// A page without a URL cannot be addressed and would be unreachable.
	ErrEmptyURL = errors.New("page URL must not be empty")
)
