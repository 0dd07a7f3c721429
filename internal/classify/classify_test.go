package classify

import (
	"testing"

	"github.com/docscope/docscope/internal/model"
)

func TestClassifier_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want model.ContentType
	}{
		{
			name: "docs section",
			url:  "https://example.com/docs/install",
			want: model.ContentTypeDocumentation,
		},
		{
			name: "guide section",
			url:  "https://example.com/guides/deploy",
			want: model.ContentTypeDocumentation,
		},
		{
			name: "api reference",
			url:  "https://example.com/api-reference/v2/users",
			want: model.ContentTypeDocumentation,
		},
		{
			name: "getting started",
			url:  "https://example.com/getting-started",
			want: model.ContentTypeDocumentation,
		},
		{
			name: "blog post",
			url:  "https://example.com/blog/2024/release",
			want: model.ContentTypeContent,
		},
		{
			name: "site root",
			url:  "https://example.com/",
			want: model.ContentTypeNavigation,
		},
		{
			name: "empty path",
			url:  "https://example.com",
			want: model.ContentTypeNavigation,
		},
		{
			name: "sitemap",
			url:  "https://example.com/sitemap",
			want: model.ContentTypeNavigation,
		},
		{
			name: "changelog",
			url:  "https://example.com/changelog",
			want: model.ContentTypeTechnical,
		},
		{
			name: "release notes",
			url:  "https://example.com/release-notes/v3",
			want: model.ContentTypeTechnical,
		},
		{
			name: "machine readable file",
			url:  "https://example.com/feed.xml",
			want: model.ContentTypeTechnical,
		},
		{
			name: "login page",
			url:  "https://example.com/login",
			want: model.ContentTypeExcluded,
		},
		{
			name: "search under docs is still noise",
			url:  "https://example.com/docs/search?q=install",
			want: model.ContentTypeExcluded,
		},
		{
			name: "tag cloud",
			url:  "https://example.com/tags/golang",
			want: model.ContentTypeExcluded,
		},
		{
			name: "unmatched path defaults to content",
			url:  "https://example.com/pricing",
			want: model.ContentTypeContent,
		},
		{
			name: "case insensitive",
			url:  "https://example.com/Docs/Install",
			want: model.ContentTypeDocumentation,
		},
		{
			name: "unparseable URL defaults to content",
			url:  "http://[::1]:bad",
			want: model.ContentTypeContent,
		},
		{
			name: "query string does not affect classification",
			url:  "https://example.com/pricing?ref=docs",
			want: model.ContentTypeContent,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := New()
			if got := c.Classify(tt.url); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestClassifier_Memoization(t *testing.T) {
	t.Parallel()

	c := New()
	const url = "https://example.com/docs/install"

	first := c.Classify(url)
	second := c.Classify(url)
	if first != second {
		t.Errorf("memoized result differs: %q vs %q", first, second)
	}
	if first != model.ContentTypeDocumentation {
		t.Errorf("Classify() = %q, want documentation", first)
	}
}

func TestClassifier_ClassifyAll(t *testing.T) {
	t.Parallel()

	c := New()
	urls := []string{
		"https://example.com/docs/a",
		"https://example.com/blog/b",
		"https://example.com/login",
	}

	got := c.ClassifyAll(urls)
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if got[urls[0]] != model.ContentTypeDocumentation {
		t.Errorf("got[%q] = %q, want documentation", urls[0], got[urls[0]])
	}
	if got[urls[1]] != model.ContentTypeContent {
		t.Errorf("got[%q] = %q, want content", urls[1], got[urls[1]])
	}
	if got[urls[2]] != model.ContentTypeExcluded {
		t.Errorf("got[%q] = %q, want excluded", urls[2], got[urls[2]])
	}
}
