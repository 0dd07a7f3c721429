package scope

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/docscope/docscope/internal/config"
)

// Manager decides whether candidate URLs are within the crawl's scope.
// It is safe for concurrent use: all fields are read-only after
// construction except the navigation-depth memo, which is mutex-guarded.
type Manager struct {
	// enabled mirrors path_scoping.enabled. When false every URL on the
	// starting domain is admitted.
	enabled bool

	// domain is the registrable domain of the starting URL. Candidates
	// on any other registrable domain are rejected outright.
	domain string

	// startingPath is the normalized path of the starting URL.
	startingPath string

	// allowedPaths holds the admitted path prefixes, sorted by length
	// descending so the most specific prefix matches first.
	allowedPaths []string

	// siblingParent is the immediate parent of the starting path when
	// sibling matching is enabled, empty otherwise.
	siblingParent string

	allowHomepage    bool
	navigationPolicy string
	maxExternalDepth int

	// mu guards externalDepth.
	mu sync.Mutex

	// externalDepth memoizes, per normalized path, the minimum navigation
	// depth the path has been seen at. Once a path is admitted at depth d,
	// re-seeing it deeper keeps the original decision.
	externalDepth map[string]int
}

// Summary is a read-only snapshot of the scope policy for display.
type Summary struct {
	Enabled          bool     `json:"enabled"`
	Domain           string   `json:"domain"`
	StartingPath     string   `json:"starting_path"`
	AllowedPaths     []string `json:"allowed_paths"`
	SiblingParent    string   `json:"sibling_parent,omitempty"`
	AllowHomepage    bool     `json:"allow_homepage"`
	NavigationPolicy string   `json:"navigation_policy"`
	MaxExternalDepth int      `json:"max_external_depth"`
}

// New builds a Manager from the starting URL and the path_scoping config.
//
// The allowed prefix set always contains the normalized starting path,
// then up to allow_parent_levels of its ancestors, then "/" when the
// homepage is allowed. Siblings are matched dynamically against the
// starting path's immediate parent rather than enumerated up front.
func New(startingURL string, cfg config.PathScoping) (*Manager, error) {
	u, err := url.Parse(startingURL)
	if err != nil {
		return nil, fmt.Errorf("invalid starting URL %q: %w", startingURL, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("starting URL %q has no host", startingURL)
	}

	startingPath := NormalizePath(u.Path)

	m := &Manager{
		enabled:          cfg.Enabled,
		domain:           registrableDomain(u.Hostname()),
		startingPath:     startingPath,
		allowHomepage:    cfg.AllowHomepage,
		navigationPolicy: cfg.NavigationPolicy,
		maxExternalDepth: cfg.MaxExternalDepth,
		externalDepth:    make(map[string]int),
	}

	allowed := map[string]struct{}{startingPath: {}}

	// Walk up the requested number of ancestor segments, stopping at root.
	parent := startingPath
	for i := 0; i < cfg.AllowParentLevels; i++ {
		parent = parentPath(parent)
		if parent == "/" {
			break
		}
		allowed[parent] = struct{}{}
	}

	if cfg.AllowHomepage {
		allowed["/"] = struct{}{}
	}

	if cfg.AllowSiblings && startingPath != "/" {
		m.siblingParent = parentPath(startingPath)
	}

	m.allowedPaths = make([]string, 0, len(allowed))
	for p := range allowed {
		m.allowedPaths = append(m.allowedPaths, p)
	}
	// Longest prefix first: the most specific allowed path wins.
	sort.Slice(m.allowedPaths, func(i, j int) bool {
		if len(m.allowedPaths[i]) != len(m.allowedPaths[j]) {
			return len(m.allowedPaths[i]) > len(m.allowedPaths[j])
		}
		return m.allowedPaths[i] < m.allowedPaths[j]
	})

	return m, nil
}

// IsInScope reports whether the candidate URL may be crawled, with a
// human-readable reason for the decision.
//
// isNavigation marks URLs reached through site navigation (menus,
// headers) rather than content links; they are subject to the navigation
// policy. currentDepth is the BFS depth the URL was found at, used by the
// "limited" policy's depth bound.
//
// Malformed URLs yield a reject decision, never an error: scope checks sit
// on the hot path of link admission and a broken href is just out of scope.
func (m *Manager) IsInScope(rawURL string, isNavigation bool, currentDepth int) (bool, string) {
	if !m.enabled {
		return true, "scoping disabled"
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false, fmt.Sprintf("invalid URL: %s", rawURL)
	}

	if registrableDomain(u.Hostname()) != m.domain {
		return false, fmt.Sprintf("different domain: %s", u.Hostname())
	}

	path := NormalizePath(u.Path)

	// A crawl started at the site root intends the whole site.
	if m.startingPath == "/" {
		return true, "within starting scope /"
	}

	for _, allowed := range m.allowedPaths {
		// The root entry from allow_homepage must not admit the whole
		// site by prefix; exact "/" is handled below.
		if allowed == "/" {
			continue
		}
		if strings.HasPrefix(path, allowed) {
			return true, fmt.Sprintf("within allowed path: %s", allowed)
		}
	}

	if path == "/" && m.allowHomepage {
		return true, "homepage allowed"
	}

	if isNavigation {
		return m.checkNavigation(path, currentDepth)
	}

	if m.siblingParent != "" && isSibling(m.siblingParent, path) {
		return true, fmt.Sprintf("sibling of starting section under %s", m.siblingParent)
	}

	return false, fmt.Sprintf("path not in scope: %s", path)
}

// checkNavigation applies the navigation policy to an out-of-prefix
// navigation URL.
func (m *Manager) checkNavigation(path string, currentDepth int) (bool, string) {
	switch m.navigationPolicy {
	case config.NavigationPolicyLimited:
		depth := m.recordExternalDepth(path, currentDepth)
		if depth <= m.maxExternalDepth {
			return true, fmt.Sprintf("navigation within depth %d <= %d", depth, m.maxExternalDepth)
		}
		return false, fmt.Sprintf("navigation too deep: first seen at depth %d > %d", depth, m.maxExternalDepth)
	case config.NavigationPolicyNone, config.NavigationPolicyStrict:
		return false, fmt.Sprintf("navigation not allowed (policy: %s)", m.navigationPolicy)
	default:
		return false, fmt.Sprintf("navigation not allowed (policy: %s)", m.navigationPolicy)
	}
}

// recordExternalDepth returns the memoized minimum depth for the path,
// initializing it to currentDepth on first sight.
func (m *Manager) recordExternalDepth(path string, currentDepth int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, ok := m.externalDepth[path]; ok {
		if currentDepth < stored {
			m.externalDepth[path] = currentDepth
			return currentDepth
		}
		return stored
	}
	m.externalDepth[path] = currentDepth
	return currentDepth
}

// navPathPatterns are path shapes that almost always belong to site
// navigation rather than content.
var navPathPatterns = []string{"/", "/home", "/about"}

// navContextKeywords are link-context markers (class names, element
// names) that indicate navigation chrome.
var navContextKeywords = []string{"nav", "menu", "header", "footer"}

// IsLikelyNavigation heuristically reports whether a URL is a navigation
// link, based on its path shape and the context the link appeared in.
func (m *Manager) IsLikelyNavigation(rawURL, linkContext string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := NormalizePath(u.Path)

	for _, p := range navPathPatterns {
		if path == p {
			return true
		}
	}
	if strings.HasPrefix(path, "/sitemap") {
		return true
	}

	ctx := strings.ToLower(linkContext)
	for _, kw := range navContextKeywords {
		if strings.Contains(ctx, kw) {
			return true
		}
	}

	return false
}

// Summary returns a read-only snapshot of the scope policy.
func (m *Manager) Summary() Summary {
	paths := make([]string, len(m.allowedPaths))
	copy(paths, m.allowedPaths)
	sort.Strings(paths)

	return Summary{
		Enabled:          m.enabled,
		Domain:           m.domain,
		StartingPath:     m.startingPath,
		AllowedPaths:     paths,
		SiblingParent:    m.siblingParent,
		AllowHomepage:    m.allowHomepage,
		NavigationPolicy: m.navigationPolicy,
		MaxExternalDepth: m.maxExternalDepth,
	}
}

// PathHierarchy returns the ordered list of path prefixes from the root
// to the URL's path, for building display trees. For
// "https://example.com/docs/guide/intro" it returns
// ["/", "/docs", "/docs/guide", "/docs/guide/intro"].
func (m *Manager) PathHierarchy(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	path := NormalizePath(u.Path)
	hierarchy := []string{"/"}
	if path == "/" {
		return hierarchy
	}

	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	current := ""
	for _, seg := range segments {
		current += "/" + seg
		hierarchy = append(hierarchy, current)
	}
	return hierarchy
}

// NormalizePath ensures a leading slash and strips the trailing slash
// unless the path is the root.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// parentPath returns the immediate parent of a normalized path, or "/"
// when the path is one segment deep or the root.
func parentPath(path string) string {
	if path == "/" {
		return "/"
	}
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// isSibling reports whether path is exactly one segment below parent:
// a sibling of the starting section, not a deeper descendant of an
// unrelated sibling. Matching stays deliberately one level deep; the
// policy does not generalize to multi-level sibling trees.
func isSibling(parent, path string) bool {
	var rest string
	if parent == "/" {
		if !strings.HasPrefix(path, "/") || path == "/" {
			return false
		}
		rest = path[1:]
	} else {
		if !strings.HasPrefix(path, parent+"/") {
			return false
		}
		rest = path[len(parent)+1:]
	}
	return rest != "" && !strings.Contains(rest, "/")
}

// registrableDomain returns the effective TLD+1 for a hostname.
// Hosts without a public suffix (localhost, IPs, test hosts) fall back
// to the hostname itself, so same-host comparisons still work in tests
// and on intranets.
func registrableDomain(hostname string) string {
	host := strings.ToLower(hostname)
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
