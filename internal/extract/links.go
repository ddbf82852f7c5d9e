package extract

import (
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ResolveURL resolves href against base. Anchors, javascript: and mailto:
// links and non-http schemes yield "".
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := parsed
	if base != nil {
		resolved = base.ResolveReference(parsed)
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// Links collects the resolved href of every anchor in sel, deduplicated,
// in document order
func Links(sel *goquery.Selection, pageURL string) []string {
	base, _ := url.Parse(pageURL)

	seen := make(map[string]bool)
	var links []string
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link := ResolveURL(base, href)
		if link == "" || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})
	return links
}

// SortedLinks is Links in lexical order
func SortedLinks(sel *goquery.Selection, pageURL string) []string {
	links := Links(sel, pageURL)
	slices.Sort(links)
	return links
}

// LinksOf collects the sorted, deduplicated links under every element
// matching selector. Links for which skip returns true are dropped.
func LinksOf(selector, pageURL string, skip func(string) bool) Strategy[[]string] {
	return func(doc *goquery.Document) Outcome[[]string] {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			return Missing[[]string]()
		}
		links := SortedLinks(sel, pageURL)
		if skip != nil {
			links = slices.DeleteFunc(links, skip)
		}
		return Found(links)
	}
}
