package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNonHTMLContent is returned when a response carries a content type
// the extractor cannot handle. The URL is skipped, not retried.
var ErrNonHTMLContent = errors.New("response is not HTML")

// StatusError reports a non-success HTTP status after retries were
// exhausted (or for statuses that are never retried).
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}

// Retryable reports whether the status code is worth retrying.
// 429 and the transient 5xx family back off and retry; everything else
// fails immediately.
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Fetcher retrieves HTML pages over HTTP with retry and backoff.
type Fetcher struct {
	// client is the underlying HTTP client. Injected so tests can point
	// the fetcher at an httptest server with a short timeout.
	client *http.Client

	// userAgent is sent on every request.
	userAgent string

	// maxRetries is the number of retry attempts after the first try.
	maxRetries int

	// backoff is the base delay between retries; it doubles per attempt.
	backoff time.Duration

	// maxBodySize caps how much of a response body is read.
	maxBodySize int64

	// headers are extra headers applied to every request, used for
	// cookie-based and header-based authentication.
	headers map[string]string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the underlying HTTP client.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRetries sets the retry count and base backoff delay.
func WithRetries(retries int, backoff time.Duration) Option {
	return func(f *Fetcher) {
		f.maxRetries = retries
		f.backoff = backoff
	}
}

// WithMaxBodySize caps the response body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithHeaders sets extra request headers (cookies, authorization).
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// New creates a Fetcher with sane defaults: 30s timeout, 3 retries with
// one-second base backoff, 10MB body cap.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: 30 * time.Second},
		userAgent:   "docscope/1.0 (+https://github.com/docscope/docscope)",
		maxRetries:  3,
		backoff:     time.Second,
		maxBodySize: 10 * 1024 * 1024, // 10MB
		headers:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetHeader adds or replaces a persistent request header. Used by auth
// providers to install session cookies after authentication.
func (f *Fetcher) SetHeader(key, value string) {
	f.headers[key] = value
}

// Fetch retrieves the URL and returns its HTML body. Transient statuses
// (429, 500, 502, 503, 504) are retried with doubling backoff; other
// non-2xx statuses and non-HTML content types fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	delay := f.backoff

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		body, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			if !statusErr.Retryable() {
				return "", err
			}
			continue
		}
		if errors.Is(err, ErrNonHTMLContent) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		// Transport-level errors (refused connections, resets) retry too.
	}

	return "", fmt.Errorf("fetch %s: retries exhausted: %w", rawURL, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.1")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused across retries.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		return "", fmt.Errorf("%w: %s returned %q", ErrNonHTMLContent, rawURL, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// isHTMLContentType accepts text/html and XHTML. A missing Content-Type
// header is accepted because some servers omit it for HTML.
func isHTMLContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
