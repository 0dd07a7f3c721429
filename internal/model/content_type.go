package model

// ContentType classifies a URL by the kind of content it is expected to hold.
// The classification drives display priority and scrape ordering; it never
// changes whether a page is fetched (scope rules do that).
//
// Design decision: We use string-based constants rather than iota integers
// because classifications are persisted in discovery.json and session files;
// strings keep those files self-describing and stable across releases.
type ContentType string

const (
	// ContentTypeDocumentation marks pages under documentation sections
	// (guides, references, API docs). These are the primary crawl target.
	ContentTypeDocumentation ContentType = "documentation"

	// ContentTypeContent marks general content pages (articles, posts)
	// that are in scope but not documentation proper.
	ContentTypeContent ContentType = "content"

	// ContentTypeNavigation marks pages that exist to route users
	// (home pages, sitemaps, section indexes).
	ContentTypeNavigation ContentType = "navigation"

	// ContentTypeTechnical marks machine-oriented pages (changelogs,
	// raw specs, downloads) that are kept but ranked below prose.
	ContentTypeTechnical ContentType = "technical"

	// ContentTypeExcluded marks pages identified as noise (login, search,
	// tag clouds). They are recorded but ranked last.
	ContentTypeExcluded ContentType = "excluded"
)

// contentTypePriority ranks content types for scrape and display ordering.
// Lower values sort first.
//
// Design decision: behavior is table-driven rather than attached to
// subtypes; there is no polymorphism here, only data.
var contentTypePriority = map[ContentType]int{
	ContentTypeDocumentation: 0,
	ContentTypeContent:       1,
	ContentTypeTechnical:     2,
	ContentTypeNavigation:    3,
	ContentTypeExcluded:      4,
}

// contentTypeIcon maps content types to the glyph shown in CLI listings.
var contentTypeIcon = map[ContentType]string{
	ContentTypeDocumentation: "📖",
	ContentTypeContent:       "📄",
	ContentTypeTechnical:     "⚙️",
	ContentTypeNavigation:    "🧭",
	ContentTypeExcluded:      "🚫",
}

// String returns the string form of the content type.
func (c ContentType) String() string {
	return string(c)
}

// Priority returns the sort rank for the content type.
// Unknown types rank after all known ones.
func (c ContentType) Priority() int {
	if p, ok := contentTypePriority[c]; ok {
		return p
	}
	return len(contentTypePriority)
}

// Icon returns the display glyph for the content type.
func (c ContentType) Icon() string {
	if icon, ok := contentTypeIcon[c]; ok {
		return icon
	}
	return "❓"
}

// Valid reports whether the content type is one of the known values.
func (c ContentType) Valid() bool {
	_, ok := contentTypePriority[c]
	return ok
}

// ParseContentType converts a string into a ContentType.
// Unknown strings map to ContentTypeContent, which is the neutral default
// for pages that were fetched but not recognized by any rule.
func ParseContentType(s string) ContentType {
	ct := ContentType(s)
	if ct.Valid() {
		return ct
	}
	return ContentTypeContent
}
