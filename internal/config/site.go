package config

// Site holds per-host overrides. This allows customizing crawl behavior
// for individual sites in one config file, e.g. tighter exclude patterns
// for a wiki and a session cookie for a protected docs portal.
type Site struct {
	// Cookie is an HTTP Cookie header value for this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers for requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxDepth overrides crawling.max_depth for this site when non-zero.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// RequestDelay overrides crawling.request_delay when non-zero.
	RequestDelay Duration `yaml:"request_delay,omitempty"`

	// ExcludePatterns replace filters.exclude_patterns for this site
	// when non-empty.
	ExcludePatterns []string `yaml:"exclude_patterns,omitempty"`
}

// SiteFor returns the effective site configuration for a host, merging
// the host-specific entry over Defaults field by field.
func (c *Config) SiteFor(host string) Site {
	result := c.Defaults

	site, ok := c.Sites[host]
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.MaxDepth != 0 {
		result.MaxDepth = site.MaxDepth
	}
	if site.RequestDelay != 0 {
		result.RequestDelay = site.RequestDelay
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	if len(site.ExcludePatterns) > 0 {
		result.ExcludePatterns = site.ExcludePatterns
	}

	return result
}

// ApplySite folds a site override into the config, returning a copy with
// the site's depth, delay, exclude patterns, and auth material applied.
// The receiver is not modified.
func (c *Config) ApplySite(host string) *Config {
	site := c.SiteFor(host)

	merged := *c
	if site.MaxDepth != 0 {
		merged.Crawling.MaxDepth = site.MaxDepth
	}
	if site.RequestDelay != 0 {
		merged.Crawling.RequestDelay = site.RequestDelay
	}
	if len(site.ExcludePatterns) > 0 {
		merged.Filters.ExcludePatterns = site.ExcludePatterns
	}
	if site.Cookie != "" {
		merged.Auth.Enabled = true
		merged.Auth.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		merged.Auth.Enabled = true
		if merged.Auth.Headers == nil {
			merged.Auth.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			merged.Auth.Headers[k] = v
		}
	}

	return &merged
}
