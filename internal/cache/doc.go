// Package cache implements the durable session store for crawls.
//
// Each session lives in its own directory under the store root:
//
//	sessions/<sessionID>/session.json[.gz]
//	sessions/<sessionID>/pages/<sha256(url)>.json[.gz]
//	sessions/<sessionID>/discovery.json[.gz]
//
// Writes are idempotent (a page is keyed by the hash of its URL) and the
// session record is re-persisted after every mutation, so an interrupted
// crawl can resume from its last durable page. The store is
// compression-transparent: writers may gzip payloads, readers try the
// compressed path first and fall back to plain JSON.
//
// A session directory is assumed to have a single writer; concurrent
// processes mutating one session can race on the session-metadata
// read-modify-write cycle.
package cache
