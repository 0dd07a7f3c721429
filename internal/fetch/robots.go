package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsGate answers whether URLs may be crawled according to the
// target site's robots.txt. Robots data is fetched once per host and
// cached for the life of the gate.
//
// Unreachable or unparseable robots.txt allows everything: absence of
// robots rules means no restrictions, and a broken robots file should
// not block a crawl the site never forbade.
type RobotsGate struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	hosts map[string]*robotstxt.Group
}

// NewRobotsGate creates a robots.txt gate using the given client.
func NewRobotsGate(client *http.Client, userAgent string) *RobotsGate {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsGate{
		client:    client,
		userAgent: userAgent,
		hosts:     make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether the URL may be fetched under the host's
// robots.txt rules.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse URL: %w", err)
	}

	group, err := g.groupFor(ctx, u)
	if err != nil {
		return false, err
	}
	if group == nil {
		return true, nil
	}
	return group.Test(u.Path), nil
}

// groupFor returns the cached robots group for the URL's host, fetching
// robots.txt on first use. A nil group means no restrictions.
func (g *RobotsGate) groupFor(ctx context.Context, u *url.URL) (*robotstxt.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := u.Scheme + "://" + u.Host
	if group, ok := g.hosts[key]; ok {
		return group, nil
	}

	group := g.fetchGroup(ctx, key+"/robots.txt")
	g.hosts[key] = group
	return group, nil
}

func (g *RobotsGate) fetchGroup(ctx context.Context, robotsURL string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}

	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return robots.FindGroup(g.userAgent)
}
