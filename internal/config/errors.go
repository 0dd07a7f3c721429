package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors so callers can
// branch with errors.Is while still getting readable messages. The
// navigation-policy error is wrapped with the offending value at the
// call site via fmt.Errorf and %w.
var (
	// ErrInvalidMaxDepth is returned when crawling.max_depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when crawling.max_pages is not positive.
	// A page budget of zero would mean no crawling at all.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidRequestDelay is returned when the request delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidRequestDelay = errors.New("invalid request delay: must be non-negative")

	// ErrInvalidTimeout is returned when the per-request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMinContentLength is returned when content.min_content_length
	// is negative. Use 0 to cache everything.
	ErrInvalidMinContentLength = errors.New("invalid min content length: must be non-negative")

	// ErrInvalidParentLevels is returned when path_scoping.allow_parent_levels
	// is negative.
	ErrInvalidParentLevels = errors.New("invalid allow parent levels: must be non-negative")

	// ErrInvalidExternalDepth is returned when path_scoping.max_external_depth
	// is negative.
	ErrInvalidExternalDepth = errors.New("invalid max external depth: must be non-negative")

	// ErrInvalidNavigationPolicy is returned when path_scoping.navigation_policy
	// is not one of none, strict, or limited.
	ErrInvalidNavigationPolicy = errors.New("invalid navigation policy: must be none, strict, or limited")
)
