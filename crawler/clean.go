package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// sanitizePolicy keeps document structure and anchors but nothing else:
// no attributes besides href, and no script/style/image content.
var sanitizePolicy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"html", "head", "title", "body",
		"header", "nav", "main", "section", "article", "aside", "footer",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"div", "span", "p", "br", "blockquote", "address", "pre",
		"ul", "ol", "li", "dl", "dt", "dd",
		"table", "thead", "tbody", "tfoot", "tr", "td", "th", "caption",
		"a", "strong", "em", "b", "i", "u", "small", "sub", "sup",
		"figure", "figcaption", "label", "button",
	)
	p.AllowAttrs("href").OnElements("a")
	p.SkipElementsContent("script", "style", "noscript", "iframe", "svg", "object", "template")
	return p
}

// CleanHTML reduces raw HTML to the text and link structure a model can
// work with: scripts, styles and images are removed together with every
// attribute except href, elements carrying no visible text are dropped,
// and all hrefs are resolved against base. Non-ASCII text passes through
// untouched.
func CleanHTML(rawHTML string, base *url.URL) (string, error) {
	sanitized := sanitizePolicy.Sanitize(rawHTML)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitized))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	// Drop elements that contain no visible text anywhere below them.
	// Children are inspected through Text(), so a wrapper around a single
	// text node survives while decorative empty markup goes away.
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" {
			s.Remove()
		}
	})

	if base != nil {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			ref, err := url.Parse(strings.TrimSpace(href))
			if err != nil {
				return
			}
			s.SetAttr("href", base.ResolveReference(ref).String())
		})
	}

	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render cleaned page: %w", err)
	}
	return cleaned, nil
}

// Link pairs an anchor's visible text with its target.
type Link struct {
	Text string
	Href string
}

// FindLinks returns the href of every anchor in cleanedHTML whose target
// matches pattern. A nil pattern matches all links.
func FindLinks(cleanedHTML string, pattern *regexp.Regexp) ([]string, error) {
	links, err := FindLinksWithText(cleanedHTML, pattern)
	if err != nil {
		return nil, err
	}
	hrefs := make([]string, len(links))
	for i, l := range links {
		hrefs[i] = l.Href
	}
	return hrefs, nil
}

// FindLinksWithText returns text/target pairs for every anchor in
// cleanedHTML whose target matches pattern. A nil pattern matches all
// links.
func FindLinksWithText(cleanedHTML string, pattern *regexp.Regexp) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleanedHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	var links []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if pattern != nil && !pattern.MatchString(href) {
			return
		}
		links = append(links, Link{
			Text: strings.TrimSpace(s.Text()),
			Href: href,
		})
	})
	return links, nil
}
