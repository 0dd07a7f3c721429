package crawler

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/scope"
)

// urlValidator applies URL-level rejection rules ahead of scope checks:
// length ceiling, exclude patterns, and skip extensions. Decisions are
// memoized per (url, isNavigation, depth) tuple because BFS sees the
// same link from many referring pages.
//
// The cache is scoped to one crawl and discarded with it.
type urlValidator struct {
	maxURLLength    int
	excludePatterns []*regexp.Regexp
	skipExtensions  map[string]struct{}
	authEnabled     bool
	scope           *scope.Manager

	cache map[validationKey]bool
}

type validationKey struct {
	url          string
	isNavigation bool
	depth        int
}

// authPatternException matches exclude patterns that target login and
// logout pages. Those patterns are suspended when authentication is
// enabled: an authenticated crawl must be able to reach them.
var authPatternException = regexp.MustCompile(`(?i)log[-_]?(in|out)|sign[-_]?(in|out)`)

func newURLValidator(cfg *config.Config, sm *scope.Manager, logger *slog.Logger) *urlValidator {
	v := &urlValidator{
		maxURLLength:   cfg.Filters.MaxURLLength,
		skipExtensions: make(map[string]struct{}, len(cfg.Filters.SkipExtensions)),
		authEnabled:    cfg.Auth.Enabled,
		scope:          sm,
		cache:          make(map[validationKey]bool),
	}

	for _, ext := range cfg.Filters.SkipExtensions {
		v.skipExtensions[strings.ToLower(ext)] = struct{}{}
	}

	for _, pattern := range cfg.Filters.ExcludePatterns {
		if v.authEnabled && authPatternException.MatchString(pattern) {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			logger.Warn("dropping invalid exclude pattern", "pattern", pattern, "error", err)
			continue
		}
		v.excludePatterns = append(v.excludePatterns, re)
	}

	return v
}

// isValid reports whether the URL passes all admission checks.
func (v *urlValidator) isValid(rawURL string, isNavigation bool, depth int) bool {
	key := validationKey{url: rawURL, isNavigation: isNavigation, depth: depth}
	if ok, cached := v.cache[key]; cached {
		return ok
	}

	result := v.check(rawURL, isNavigation, depth)
	v.cache[key] = result
	return result
}

func (v *urlValidator) check(rawURL string, isNavigation bool, depth int) bool {
	if v.maxURLLength > 0 && len(rawURL) > v.maxURLLength {
		return false
	}

	for _, re := range v.excludePatterns {
		if re.MatchString(rawURL) {
			return false
		}
	}

	if len(v.skipExtensions) > 0 {
		if u, err := url.Parse(rawURL); err == nil {
			path := strings.ToLower(u.Path)
			if dot := strings.LastIndex(path, "."); dot >= 0 && dot > strings.LastIndex(path, "/") {
				if _, skip := v.skipExtensions[path[dot:]]; skip {
					return false
				}
			}
		}
	}

	ok, _ := v.scope.IsInScope(rawURL, isNavigation, depth)
	return ok
}
