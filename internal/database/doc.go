// Package database provides SQLite-based storage for crawl history.
//
// The history database is supplementary to the filesystem session store:
// sessions remain the source of truth for crawl state and page content,
// while the history database keeps a compact, queryable record of
// finished crawls per domain for cross-run comparison.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
//  1. No external dependencies - the database is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. Sufficient performance for our use case
//  4. WAL mode provides good concurrent read performance
package database
