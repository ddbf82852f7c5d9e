package extract

import (
	"net/url"
	"strings"
	"testing"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base     string
		href     string
		expected string
		desc     string
	}{
		{"https://example.com/page", "https://external.com/link", "https://external.com/link", "Absolute URL unchanged"},
		{"https://example.com/page", "http://external.com/link", "http://external.com/link", "HTTP absolute URL unchanged"},
		{"https://example.com/path/page.html", "/absolute/path", "https://example.com/absolute/path", "Absolute path"},
		{"https://example.com/path/page.html", "relative.html", "https://example.com/path/relative.html", "Relative path"},
		{"https://example.com/path/page.html", "../parent.html", "https://example.com/parent.html", "Parent directory"},
		{"https://example.com/page", "#anchor", "", "Skip anchor"},
		{"https://example.com/page", "javascript:void(0)", "", "Skip javascript:"},
		{"https://example.com/page", "mailto:user@example.com", "", "Skip mailto:"},
		{"https://example.com/page", "ftp://example.com/file", "", "Skip non-http/https schemes"},
		{"https://example.com/page", "   ", "", "Skip blank"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			base, _ := url.Parse(tt.base)
			if got := ResolveURL(base, tt.href); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestLinks_DedupeAndOrder(t *testing.T) {
	doc := mustParse(t, `
	<article>
		<a href="https://z.example.com/">z</a>
		<a href="/local">local</a>
		<a href="#top">top</a>
		<a href="https://z.example.com/">z again</a>
		<a href="https://a.example.com/">a</a>
	</article>`)

	got := Links(doc.Find("article"), "https://site.example.com/review")
	expected := []string{"https://z.example.com/", "https://site.example.com/local", "https://a.example.com/"}
	if len(got) != len(expected) {
		t.Fatalf("Expected %d links, got %v", len(expected), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Expected %s at %d, got %s", expected[i], i, got[i])
		}
	}

	sorted := SortedLinks(doc.Find("article"), "https://site.example.com/review")
	if sorted[0] != "https://a.example.com/" || sorted[2] != "https://z.example.com/" {
		t.Errorf("Expected lexical order, got %v", sorted)
	}
}

func TestLinksOf(t *testing.T) {
	doc := mustParse(t, `
	<article class="body"><a href="https://b.example.com/">b</a><a href="https://www.facebook.com/sharer/x">share</a></article>
	<section class="related"><a href="/related">r</a></section>`)

	skip := func(link string) bool { return strings.Contains(link, "facebook.com/sharer") }
	out := LinksOf("article.body, section.related", "https://site.example.com/", skip)(doc)
	if out.Status != StatusFound {
		t.Fatalf("Expected found, got %s", out.Status)
	}
	expected := []string{"https://b.example.com/", "https://site.example.com/related"}
	if len(out.Value) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, out.Value)
	}
	for i := range expected {
		if out.Value[i] != expected[i] {
			t.Errorf("Expected %s at %d, got %s", expected[i], i, out.Value[i])
		}
	}

	if missing := LinksOf("nav", "https://site.example.com/", nil)(doc); missing.Status != StatusMissing {
		t.Errorf("Expected missing, got %s", missing.Status)
	}
}
