// Package log provides docscope's slog setup.
//
// Crawls against authenticated sites carry cookies, passwords, and bearer
// tokens through the crawler's structured logs. The RedactingHandler
// masks those attribute values before they reach the underlying handler,
// so debug logging never leaks credentials into terminal scrollback or
// log files.
package log
