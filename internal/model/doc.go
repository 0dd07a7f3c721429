// Package model defines the core data structures shared across docscope.
//
// It contains the durable crawl records (CrawlSession, CachedPage,
// DiscoveryResult), the in-memory page representation (PageRecord,
// ExtractedContent), and the ContentType classification enum with its
// behavior tables.
//
// Design decision: We keep all shared types in a single model package
// rather than distributing them because:
//  1. It avoids circular imports between crawler, cache, and report
//  2. It provides one place to see the complete data model
//  3. JSON serialization concerns are centralized
package model
