// Package pipeline provides a framework for executing crawl steps in sequence.
//
// The pipeline pattern is used to process websites through multiple stages:
// URL discovery, scraping, report generation, and history recording. Each
// stage is implemented as a Step that receives the current run state and
// can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running crawls
// 4. It keeps the discover-only and full-crawl CLI paths on one code path
//
// The pipeline supports both individual crawls and batch processing of
// multiple sites with concurrency control using errgroup.
package pipeline
