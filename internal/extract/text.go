package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var quoteReplacer = strings.NewReplacer(
	"“", "", "”", "", "‘", "'", "’", "'", `"`, "",
)

// CleanString applies NFKC normalization, removes double quotes and
// collapses runs of whitespace to single spaces
func CleanString(s string) string {
	s = norm.NFKC.String(s)
	s = quoteReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// BodyText returns the visible text under the first element matching
// selector. Scripts, styles and anything matching exclude are skipped.
func BodyText(doc *goquery.Document, selector string, exclude ...string) string {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}

	sel = sel.Clone()
	for _, ex := range exclude {
		sel.Find(ex).Remove()
	}

	return strings.Join(strings.Fields(visibleText(sel.Nodes[0])), " ")
}

// visibleText collects text nodes, skipping scripts/styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

// BodyOf is BodyText as a strategy
func BodyOf(selector string, exclude ...string) Strategy[string] {
	return func(doc *goquery.Document) Outcome[string] {
		if doc.Find(selector).Length() == 0 {
			return Missing[string]()
		}
		return Found(BodyText(doc, selector, exclude...))
	}
}
