// Package classify provides the default URL-pattern content classifier.
//
// Classification is advisory: it drives scrape ordering and display
// grouping, never admission. Scope rules decide what gets fetched; the
// classifier only labels what was admitted.
package classify
