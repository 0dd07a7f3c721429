package config

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These defaults target polite crawling of a documentation subtree;
// they can be overridden via the config file or CLI flags.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "docscope"

	// DefaultMaxDepth limits BFS discovery to three levels below the
	// starting URL. Documentation sections rarely nest deeper, and each
	// extra level can multiply the page count.
	DefaultMaxDepth = 3

	// DefaultMaxPages caps a single crawl. This prevents runaway crawling
	// on large or infinitely-generating sites.
	DefaultMaxPages = 100

	// DefaultRequestDelay is the pause between requests. One second is a
	// conservative politeness setting for sites without a pacing policy.
	DefaultRequestDelay = 1 * time.Second

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies docscope in HTTP requests so operators
	// can recognize crawler traffic in their logs.
	DefaultUserAgent = "docscope/1.0 (+https://github.com/docscope/docscope)"

	// DefaultMinContentLength is the minimum extracted-text length for a
	// page to be cached. Shorter pages are usually redirects or stubs.
	DefaultMinContentLength = 100

	// DefaultMaxURLLength rejects absurdly long URLs, which are almost
	// always calendar widgets or faceted-search explosions.
	DefaultMaxURLLength = 2000

	// DefaultAllowParentLevels is how many ancestor path segments of the
	// starting path are admitted into scope.
	DefaultAllowParentLevels = 1

	// DefaultMaxExternalDepth bounds how deep a navigation link may first
	// be seen and still be admitted under the "limited" policy.
	DefaultMaxExternalDepth = 1

	// DefaultMaxAgeDays is the retention window for session cleanup.
	DefaultMaxAgeDays = 30

	// DefaultKeepCompleted is how many recent completed sessions cleanup
	// always preserves regardless of age.
	DefaultKeepCompleted = 10
)

// Navigation policies accepted by path_scoping.navigation_policy.
const (
	// NavigationPolicyNone rejects every navigation link outside the
	// allowed path prefixes.
	NavigationPolicyNone = "none"

	// NavigationPolicyStrict also rejects out-of-prefix navigation links;
	// only explicitly in-scope URLs are crawled.
	NavigationPolicyStrict = "strict"

	// NavigationPolicyLimited admits out-of-prefix navigation links first
	// seen within max_external_depth.
	NavigationPolicyLimited = "limited"
)

// Config holds all docscope settings, grouped by concern. The crawling,
// content, filters, and path_scoping sections participate in the config
// hash that gates session compatibility; the rest do not.
type Config struct {
	// Crawling controls traversal budgets and request behavior.
	Crawling Crawling `yaml:"crawling"`

	// Content controls what extracted content is worth caching.
	Content Content `yaml:"content"`

	// Filters controls URL admission before scope rules run.
	Filters Filters `yaml:"filters"`

	// PathScoping controls the path-prefix scope policy.
	PathScoping PathScoping `yaml:"path_scoping"`

	// Cache controls the session store location, compression, and retention.
	Cache Cache `yaml:"cache"`

	// Auth configures optional authentication for protected sites.
	Auth Auth `yaml:"auth"`

	// Sites holds per-host overrides merged over Defaults at crawl time.
	Sites map[string]Site `yaml:"sites,omitempty"`

	// Defaults is the site configuration applied to every host unless
	// overridden in Sites.
	Defaults Site `yaml:"defaults,omitempty"`
}

// Crawling groups traversal and request settings.
type Crawling struct {
	// MaxDepth is the maximum BFS depth from the starting URL.
	// Depth 0 means only the starting page.
	MaxDepth int `yaml:"max_depth"`

	// MaxPages is the cumulative page budget for one crawl.
	MaxPages int `yaml:"max_pages"`

	// RequestDelay is the fixed pause between requests, used when no
	// pacing policy is installed.
	RequestDelay Duration `yaml:"request_delay"`

	// Timeout is the per-request timeout.
	Timeout Duration `yaml:"timeout"`

	// UserAgent is the User-Agent header for all requests.
	UserAgent string `yaml:"user_agent"`

	// RespectRobots aborts discovery when robots.txt disallows the
	// starting URL. Enabled by default.
	RespectRobots bool `yaml:"respect_robots"`
}

// Content groups extracted-content acceptance settings.
type Content struct {
	// MinContentLength is the minimum extracted-text length in bytes for
	// a page to be cached. Shorter pages are skipped, not failed.
	MinContentLength int `yaml:"min_content_length"`
}

// Filters groups URL-level rejection rules that run before scope checks.
type Filters struct {
	// ExcludePatterns are regular expressions; URLs matching any pattern
	// are rejected. Invalid patterns are dropped with a warning at
	// validation time.
	ExcludePatterns []string `yaml:"exclude_patterns"`

	// SkipExtensions are file extensions (with leading dot) to reject.
	SkipExtensions []string `yaml:"skip_extensions"`

	// MaxURLLength rejects URLs longer than this many characters.
	MaxURLLength int `yaml:"max_url_length"`
}

// PathScoping groups the path-prefix scope policy settings.
type PathScoping struct {
	// Enabled turns scoping on. When false every same-domain URL is
	// admitted.
	Enabled bool `yaml:"enabled"`

	// AllowParentLevels is how many ancestor path segments of the
	// starting path are added to the allowed prefixes.
	AllowParentLevels int `yaml:"allow_parent_levels"`

	// AllowHomepage admits the site root "/".
	AllowHomepage bool `yaml:"allow_homepage"`

	// AllowSiblings admits immediate siblings of the starting section.
	AllowSiblings bool `yaml:"allow_siblings"`

	// NavigationPolicy is one of none, strict, or limited.
	NavigationPolicy string `yaml:"navigation_policy"`

	// MaxExternalDepth is the depth bound for the limited policy.
	MaxExternalDepth int `yaml:"max_external_depth"`
}

// Cache groups session store settings. None of these participate in the
// config hash: where sessions live and how they are compressed does not
// change crawl results.
type Cache struct {
	// Dir is the session store root. Empty means the XDG data directory.
	Dir string `yaml:"dir"`

	// Compression controls gzip compression of cache files.
	Compression Compression `yaml:"compression"`

	// MaxAgeDays is the retention window used by cleanup.
	MaxAgeDays int `yaml:"max_age_days"`

	// KeepCompleted is how many recent completed sessions cleanup keeps.
	KeepCompleted int `yaml:"keep_completed"`
}

// Compression controls cache file compression. The YAML form may be a
// plain boolean ("compression: true") or a mapping with enabled/level;
// both are accepted and normalized here, once, at load time.
type Compression struct {
	// Enabled turns gzip compression on for newly written cache files.
	// Readers handle both compressed and plain files regardless.
	Enabled bool `yaml:"enabled"`

	// Level is the gzip level (gzip.BestSpeed..gzip.BestCompression).
	Level int `yaml:"level"`
}

// UnmarshalYAML accepts both the boolean and the mapping form.
func (c *Compression) UnmarshalYAML(unmarshal func(any) error) error {
	var enabled bool
	if err := unmarshal(&enabled); err == nil {
		c.Enabled = enabled
		c.Level = gzip.DefaultCompression
		return nil
	}

	type plain Compression
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*c = Compression(p)
	if c.Level == 0 {
		c.Level = gzip.DefaultCompression
	}
	return nil
}

// Auth configures optional authentication. When Type is set the crawl
// treats authentication failures as fatal; when only cookies or headers
// are present they are attached to requests best-effort.
type Auth struct {
	// Enabled turns authentication on.
	Enabled bool `yaml:"enabled"`

	// Type names the authentication flow (e.g. "basic", "cookie").
	// Non-empty Type means the user explicitly asked for authentication,
	// which makes auth failures fatal.
	Type string `yaml:"type"`

	// Username and Password are credentials for basic-style flows.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Cookie is a raw Cookie header value attached to every request.
	Cookie string `yaml:"cookie"`

	// Headers are extra headers attached to every request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Explicit reports whether the caller explicitly supplied credentials or
// an auth type. Explicit authentication failures abort the crawl; implicit
// ones silently disable authentication.
func (a Auth) Explicit() bool {
	return a.Type != "" || a.Username != "" || a.Password != ""
}

// New returns a Config populated with defaults.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero (budgets, delays, booleans that
// default to true). The constructor doubles as default documentation.
func New() *Config {
	return &Config{
		Crawling: Crawling{
			MaxDepth:      DefaultMaxDepth,
			MaxPages:      DefaultMaxPages,
			RequestDelay:  Duration(DefaultRequestDelay),
			Timeout:       Duration(DefaultTimeout),
			UserAgent:     DefaultUserAgent,
			RespectRobots: true,
		},
		Content: Content{
			MinContentLength: DefaultMinContentLength,
		},
		Filters: Filters{
			SkipExtensions: []string{
				".pdf", ".zip", ".tar", ".gz", ".jpg", ".jpeg", ".png",
				".gif", ".svg", ".ico", ".css", ".js", ".woff", ".woff2",
				".mp4", ".webm", ".mp3",
			},
			MaxURLLength: DefaultMaxURLLength,
		},
		PathScoping: PathScoping{
			Enabled:           true,
			AllowParentLevels: DefaultAllowParentLevels,
			AllowHomepage:     true,
			AllowSiblings:     true,
			NavigationPolicy:  NavigationPolicyLimited,
			MaxExternalDepth:  DefaultMaxExternalDepth,
		},
		Cache: Cache{
			Compression:   Compression{Enabled: true, Level: gzip.DefaultCompression},
			MaxAgeDays:    DefaultMaxAgeDays,
			KeepCompleted: DefaultKeepCompleted,
		},
	}
}

// SessionsDir returns the session store root: the configured directory,
// or the XDG data directory when unset.
// On Linux: ~/.local/share/docscope/sessions
func (c *Config) SessionsDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(xdg.DataHome, AppName, "sessions")
}

// HistoryDBDir returns the directory for the crawl history database.
// On Linux: ~/.local/share/docscope
func HistoryDBDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flags and file are merged, before any crawling.
func (c *Config) Validate() error {
	if c.Crawling.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.Crawling.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.Crawling.RequestDelay < 0 {
		return ErrInvalidRequestDelay
	}
	if time.Duration(c.Crawling.Timeout) <= 0 {
		return ErrInvalidTimeout
	}
	if c.Content.MinContentLength < 0 {
		return ErrInvalidMinContentLength
	}
	if c.PathScoping.AllowParentLevels < 0 {
		return ErrInvalidParentLevels
	}
	if c.PathScoping.MaxExternalDepth < 0 {
		return ErrInvalidExternalDepth
	}
	switch c.PathScoping.NavigationPolicy {
	case NavigationPolicyNone, NavigationPolicyStrict, NavigationPolicyLimited:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidNavigationPolicy, c.PathScoping.NavigationPolicy)
	}
	return nil
}

// hashSubset is the configuration slice that determines whether two runs
// produce compatible crawl results. It deliberately includes
// crawling.max_depth and max_pages: tuning those invalidates session
// compatibility even though previously cached pages remain valid content.
// This conservative behavior is intentional; see Hash.
type hashSubset struct {
	Crawling    Crawling    `json:"crawling"`
	Content     Content     `json:"content"`
	Filters     Filters     `json:"filters"`
	PathScoping PathScoping `json:"path_scoping"`
}

// Hash returns the hex SHA-256 digest of the hash-relevant configuration
// subset. Session IDs embed its first 8 characters, and resume only
// matches sessions with an identical full hash.
func (c *Config) Hash() string {
	subset := hashSubset{
		Crawling:    c.Crawling,
		Content:     c.Content,
		Filters:     c.Filters,
		PathScoping: c.PathScoping,
	}

	// Struct marshaling has a stable field order, so the digest is
	// deterministic across runs.
	data, err := json.Marshal(subset)
	if err != nil {
		// Marshal of a plain struct cannot fail; keep the signature simple.
		return ""
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 8 characters of Hash, the form embedded in
// session IDs.
func (c *Config) ShortHash() string {
	h := c.Hash()
	if len(h) < 8 {
		return h
	}
	return h[:8]
}
