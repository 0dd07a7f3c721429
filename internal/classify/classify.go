package classify

import (
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/docscope/docscope/internal/model"
)

// rule pairs a compiled URL pattern with the content type it indicates.
// Rules are evaluated in order; the first match wins, so more specific
// patterns must come before generic ones.
type rule struct {
	pattern *regexp.Regexp
	ctype   model.ContentType
}

// defaultRules are the built-in URL-pattern rules. They match against the
// lowercased URL path only, never the query string or fragment.
var defaultRules = []rule{
	// Noise first: these outrank everything because a "/docs/search" page
	// is still a search page.
	{regexp.MustCompile(`/(login|logout|signin|signout|signup|register|auth)(/|$)`), model.ContentTypeExcluded},
	{regexp.MustCompile(`/(search|tags?|categories|archive)(/|$)`), model.ContentTypeExcluded},
	{regexp.MustCompile(`/(cart|checkout|account|profile|settings)(/|$)`), model.ContentTypeExcluded},

	// Machine-oriented pages.
	{regexp.MustCompile(`/(changelog|release-?notes|releases|downloads?)(/|$)`), model.ContentTypeTechnical},
	{regexp.MustCompile(`\.(xml|json|yaml|yml|txt|rss|atom)$`), model.ContentTypeTechnical},
	{regexp.MustCompile(`/(openapi|swagger|schema)(/|$)`), model.ContentTypeTechnical},

	// Documentation sections.
	{regexp.MustCompile(`/(docs?|documentation|guides?|manual|handbook)(/|$)`), model.ContentTypeDocumentation},
	{regexp.MustCompile(`/(reference|api-?reference|tutorials?|howtos?|how-to)(/|$)`), model.ContentTypeDocumentation},
	{regexp.MustCompile(`/(getting-started|quick-?start|learn)(/|$)`), model.ContentTypeDocumentation},

	// Routing pages.
	{regexp.MustCompile(`/(sitemap|index|toc|contents|overview)(/|$|\.html?$)`), model.ContentTypeNavigation},

	// General prose.
	{regexp.MustCompile(`/(blog|news|articles?|posts?|stories)(/|$)`), model.ContentTypeContent},
}

// Classifier labels URLs with a ContentType using path-pattern rules.
// It memoizes results because discovery classifies the same URL from
// multiple referring pages.
type Classifier struct {
	rules []rule

	mu    sync.RWMutex
	cache map[string]model.ContentType
}

// New returns a classifier with the built-in rule set.
func New() *Classifier {
	return &Classifier{
		rules: defaultRules,
		cache: make(map[string]model.ContentType),
	}
}

// Classify maps a URL to a content type. The site root and other bare
// paths classify as navigation; anything unmatched defaults to content.
func (c *Classifier) Classify(rawURL string) model.ContentType {
	c.mu.RLock()
	if ctype, ok := c.cache[rawURL]; ok {
		c.mu.RUnlock()
		return ctype
	}
	c.mu.RUnlock()

	ctype := c.classifyPath(rawURL)

	c.mu.Lock()
	c.cache[rawURL] = ctype
	c.mu.Unlock()

	return ctype
}

func (c *Classifier) classifyPath(rawURL string) model.ContentType {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.ContentTypeContent
	}

	path := strings.ToLower(u.Path)
	if path == "" || path == "/" {
		return model.ContentTypeNavigation
	}

	for _, r := range c.rules {
		if r.pattern.MatchString(path) {
			return r.ctype
		}
	}
	return model.ContentTypeContent
}

// ClassifyAll labels a batch of URLs, reusing the memo across the batch.
func (c *Classifier) ClassifyAll(urls []string) map[string]model.ContentType {
	result := make(map[string]model.ContentType, len(urls))
	for _, u := range urls {
		result[u] = c.Classify(u)
	}
	return result
}
