// Package fetch provides the default HTTP fetcher and the robots.txt
// gate. The fetcher enforces a request timeout, retries transient
// status codes with backoff, and rejects non-HTML responses so that
// extraction never sees binary content.
package fetch
