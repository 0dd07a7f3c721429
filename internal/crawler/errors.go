package crawler

import (
	"errors"
	"fmt"
)

// ErrContentTooShort marks a page whose extracted text is below the
// configured minimum. The page is skipped, never cached.
var ErrContentTooShort = errors.New("extracted content below minimum length")

// DuplicateContentError aborts a scrape when two pages extract to
// identical normalized text. This almost always means every page is
// rendering the same login or error page, so continuing would cache
// garbage for every remaining URL.
type DuplicateContentError struct {
	// PageIndex is the 1-based position of the repeating page within
	// the scrape pass.
	PageIndex int

	// URL is the page that repeated earlier content.
	URL string

	// Sample is a prefix of the duplicated text for diagnosis.
	Sample string
}

// Error implements the error interface.
func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("duplicate content at page %d (%s): pages are rendering identical text, sample: %q",
		e.PageIndex, e.URL, e.Sample)
}

// RobotsDisallowedError reports that robots.txt forbids crawling the
// base URL. Discovery is aborted entirely, not partially.
type RobotsDisallowedError struct {
	// BaseURL is the starting URL that was disallowed.
	BaseURL string
}

// Error implements the error interface.
func (e *RobotsDisallowedError) Error() string {
	return fmt.Sprintf("robots.txt disallows crawling %s", e.BaseURL)
}

// AuthenticationError reports a failed authentication setup. It is only
// raised when the caller explicitly configured credentials; implicit
// authentication failures disable auth and continue anonymously.
type AuthenticationError struct {
	// BaseURL is the URL authentication was attempted against.
	BaseURL string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication against %s failed: %v", e.BaseURL, e.Err)
}

// Unwrap returns the underlying failure.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
