package crawler

import (
	"context"
	"time"

	"github.com/docscope/docscope/internal/model"
)

// Fetcher retrieves the HTML body of a URL. Implementations enforce
// timeouts and retry transient failures; a non-HTML response is an
// error, not a body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HeaderSetter is implemented by fetchers that accept persistent request
// headers. Authentication providers use it to install session cookies.
type HeaderSetter interface {
	SetHeader(key, value string)
}

// ContentExtractor turns an HTML body into extracted content.
type ContentExtractor interface {
	Extract(htmlContent, url string) (*model.ExtractedContent, error)
}

// ContentClassifier labels a URL with a content type. Classification is
// URL-pattern based so freshly discovered links can be classified before
// their HTML is fetched.
type ContentClassifier interface {
	Classify(url string) model.ContentType
}

// AuthProvider performs authentication setup for a base URL and returns
// the request headers that carry the authenticated session.
type AuthProvider interface {
	Authenticate(ctx context.Context, baseURL string) (map[string]string, error)
}

// PacingPolicy computes the delay before the next request. When no
// policy is installed a fixed configured delay is used.
type PacingPolicy interface {
	Delay(url string, contentType model.ContentType) time.Duration
}

// RobotsChecker answers whether a URL may be crawled under robots.txt.
type RobotsChecker interface {
	Allowed(ctx context.Context, url string) (bool, error)
}
