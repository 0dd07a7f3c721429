package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Extractor is the default HTML content extractor. It strips boilerplate
// elements and returns the readable text of a page.
type Extractor struct {
	// stripSelectors are removed from the document before text extraction.
	stripSelectors string
}

// New returns an extractor with the default boilerplate filter.
func New() *Extractor {
	return &Extractor{
		stripSelectors: "script,noscript,style,nav,header,footer,aside,form",
	}
}

// Result is the extracted content of one page.
type Result struct {
	// Title is the page title.
	Title string

	// Text is the readable body text with whitespace collapsed.
	Text string

	// WordCount is the number of words in Text.
	WordCount int

	// Metadata carries secondary fields: description, headings, language.
	Metadata map[string]string
}

// Extract parses HTML and returns the page's readable content.
// Boilerplate elements (navigation, headers, footers, scripts) are
// removed so the duplicate-content guard compares article text, not
// shared chrome.
func (e *Extractor) Extract(htmlContent string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	doc.Find(e.stripSelectors).Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	metadata := map[string]string{}
	if desc := strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", "")); desc != "" {
		metadata["description"] = desc
	}
	if lang := strings.TrimSpace(doc.Find("html").AttrOr("lang", "")); lang != "" {
		metadata["language"] = lang
	}

	var headings []string
	doc.Find("h1,h2,h3").Each(func(_ int, s *goquery.Selection) {
		if h := strings.TrimSpace(s.Text()); h != "" {
			headings = append(headings, h)
		}
	})
	if len(headings) > 0 {
		metadata["headings"] = strings.Join(headings, " | ")
	}

	// Prefer a semantic content container when the page has one; fall
	// back to the whole body for pages without semantic markup.
	container := doc.Find("main,article").First()
	if container.Length() == 0 {
		container = doc.Find("body").First()
	}
	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(container.Text(), " "))

	result := &Result{
		Title:    title,
		Text:     text,
		Metadata: metadata,
	}
	if text != "" {
		result.WordCount = len(strings.Fields(text))
	}
	return result, nil
}
