// Package crawler drives URL discovery and content scraping.
//
// # Architecture
//
// The Controller coordinates one crawl at a time: a BFS discovery pass
// over the starting URL's section of the site, then a scrape pass over
// the discovered set. Progress is persisted to the session store after
// every page, so an interrupted crawl resumes from its last durable
// state instead of refetching.
//
// Fetching, extraction, classification, pacing, and authentication are
// pluggable collaborators. The defaults come from the fetch, extract,
// and classify packages; tests swap in fakes.
//
// # Politeness
//
// The crawl is single-threaded with one request in flight at a time:
//   - robots.txt disallow aborts discovery for the whole base URL
//   - a pacing delay runs between consecutive requests
//   - depth and page budgets bound the traversal
//
// # Failure model
//
// Per-URL fetch and extract errors are logged, recorded on the session,
// and skipped. Crawl-level failures are typed errors the caller can
// branch on: RobotsDisallowedError, DuplicateContentError, and
// AuthenticationError. Cancellation leaves the session active so a
// later resume picks up cleanly.
package crawler
