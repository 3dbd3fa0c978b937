package render

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// nonContentSelectors lists elements stripped before extracting body text.
const nonContentSelectors = "script, style, noscript, nav, header, footer"

var blankLines = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)

// HTML extracts readable text from an HTML document. Readability runs first;
// when it yields nothing the document body is flattened with goquery.
type HTML struct{}

// Render implements Renderer.
func (HTML) Render(identifier, content string, width int) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil
	}

	title, text := readable(identifier, content)
	if text == "" {
		var err error
		title, text, err = flatten(content)
		if err != nil {
			return "", err
		}
	}

	text = tidy(text)
	if title != "" && !strings.HasPrefix(text, title) {
		text = title + "\n\n" + text
	}
	return wrap(text, width), nil
}

func readable(identifier, content string) (title, text string) {
	// Relative links need some base; identifiers are not always URLs.
	base, err := url.Parse(identifier)
	if err != nil || !base.IsAbs() {
		base = &url.URL{Scheme: "http", Host: "localhost"}
	}
	article, err := readability.FromReader(strings.NewReader(content), base)
	if err != nil {
		return "", ""
	}
	return strings.TrimSpace(article.Title), strings.TrimSpace(article.TextContent)
}

func flatten(content string) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", "", err
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())

	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}
	body.Find(nonContentSelectors).Remove()
	body.Find("br").ReplaceWithHtml("\n")
	body.Find("p, div, li, h1, h2, h3, h4, h5, h6, pre, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return title, strings.TrimSpace(body.Text()), nil
}

func tidy(s string) string {
	s = normalize(s)
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
