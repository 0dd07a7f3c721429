package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Link is one hyperlink found on a page, with the markup context it was
// found in. Context distinguishes navigation chrome (menus, headers)
// from in-content links so scope rules can treat them differently.
type Link struct {
	// URL is the absolute, fragment-stripped link target.
	URL string

	// Context names the nearest enclosing structural element
	// ("nav", "header", "footer", "aside") or is empty for links found
	// in page content.
	Context string
}

// LinkParser extracts links and the page title from HTML.
//
// Design decision: We use golang.org/x/net/html rather than regex
// because:
//  1. It correctly handles malformed HTML common on the web
//  2. Tracking the enclosing element for link context needs a real
//     tree walk, not pattern matching
type LinkParser struct {
	// baseURL resolves relative hrefs.
	baseURL *url.URL
}

// ParseResult is what one parsing pass produces.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links are the same-page-resolved hyperlinks, deduplicated in
	// document order.
	Links []Link
}

// NewLinkParser creates a parser resolving links against baseURL.
func NewLinkParser(baseURL string) (*LinkParser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &LinkParser{baseURL: u}, nil
}

// navContexts are the structural elements whose descendants count as
// navigation links.
var navContexts = map[string]struct{}{
	"nav":    {},
	"header": {},
	"footer": {},
	"aside":  {},
}

// Parse walks the HTML tree collecting the title and all resolvable
// links. Each link carries the nearest enclosing navigation context, if
// any.
func (p *LinkParser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{Links: make([]Link, 0)}
	seen := make(map[string]struct{})

	var walk func(n *html.Node, context string)
	walk = func(n *html.Node, context string) {
		if n.Type == html.ElementNode {
			if _, ok := navContexts[n.Data]; ok {
				context = n.Data
			}

			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if resolved := p.resolveURL(getAttr(n, "href")); resolved != "" {
					if _, ok := seen[resolved]; !ok {
						seen[resolved] = struct{}{}
						result.Links = append(result.Links, Link{URL: resolved, Context: context})
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, context)
		}
	}
	walk(doc, "")

	return result, nil
}

// resolveURL resolves an href against the base URL and normalizes it:
// non-HTTP schemes and pure fragments yield empty, fragments are
// stripped so the same document never appears twice.
func (p *LinkParser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
