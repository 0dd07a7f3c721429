// Package scope implements the path-scoping policy that keeps a crawl
// inside an intended section of a site.
//
// A Manager is built once per crawl from the starting URL and the
// path_scoping configuration. It answers, for any candidate URL, whether
// the URL is in scope and why: same registrable domain, allowed path
// prefixes (longest match wins), the homepage rule, the navigation
// policy, and the sibling rule are applied in that order.
//
// The Manager is pure apart from the navigation-depth memo, which records
// the minimum depth each external path was first seen at.
package scope
