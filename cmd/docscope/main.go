// Package main provides the entry point for the docscope CLI.
//
// docscope crawls a scoped section of a website and caches the extracted
// content so interrupted crawls can resume without re-fetching pages.
//
// Usage:
//
//	docscope crawl <url>
//	docscope resume <session-id>
//	docscope sessions list
//
// See --help for all available options.
package main

// main is the entry point for docscope.
func main() {
	Execute()
}
