package model

import "time"

// DiscoveryResult is the durable output of one URL discovery pass.
type DiscoveryResult struct {
	// URLs is the sorted list of discovered, in-scope URLs.
	URLs []string `json:"urls"`

	// Classifications maps each discovered URL to its content type.
	Classifications map[string]ContentType `json:"classifications"`

	// DiscoveredAt is when the discovery pass finished.
	DiscoveredAt time.Time `json:"discovered_at"`

	// TotalURLs is len(URLs), stored for quick display without loading
	// the full list.
	TotalURLs int `json:"total_urls"`
}
