package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/claimharvest/internal/cache"
	"github.com/ppiankov/claimharvest/internal/extract"
	"github.com/ppiankov/claimharvest/internal/extract/adapters"
	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/store"
)

// fakeFetcher serves pages from a map and counts requests per URL
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: make(map[string]int)}
}

func (f *fakeFetcher) Get(_ context.Context, rawURL string, _ map[string]string, _ time.Duration) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[rawURL]++
	page, ok := f.pages[rawURL]
	return page, ok
}

func (f *fakeFetcher) count(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[rawURL]
}

func (f *fakeFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// recordingSink keeps every written claim
type recordingSink struct {
	claims []model.Claim
	err    error
}

func (s *recordingSink) Write(_ context.Context, claim model.Claim) error {
	if s.err != nil {
		return s.err
	}
	s.claims = append(s.claims, claim)
	return nil
}

func (s *recordingSink) Close() error { return nil }

// testSite lists every <a href> of a listing page. Detail pages carry the
// title in <h1> and the rating in <span class="rating">; a page whose
// title is "boom" panics.
type testSite struct {
	sources []adapters.Source
	err     error
}

func (s *testSite) Name() string                      { return "test" }
func (s *testSite) CanHandle(rawURL string) bool      { return strings.HasPrefix(rawURL, "https://test.example/") }
func (s *testSite) ListingSources() []adapters.Source { return s.sources }

func (s *testSite) ExtractURLs(doc *goquery.Document, _ string) []string {
	var urls []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		urls = append(urls, a.AttrOr("href", ""))
	})
	return urls
}

func (s *testSite) ExtractClaimAndReview(_ context.Context, doc *goquery.Document, pageURL string) ([]model.Claim, error) {
	if s.err != nil {
		return nil, s.err
	}
	claim := model.Claim{Source: s.Name(), URL: pageURL}
	claim.SetTitle(extract.Text(doc, "title", extract.TextOf("h1")))
	if claim.Title == "boom" {
		panic("broken page")
	}
	claim.SetRating(extract.Text(doc, "rating", extract.TextOf("span.rating")))
	return []model.Claim{claim}, nil
}

// countedSite adds a fixed page-count bound
type countedSite struct {
	testSite
	pages    int
	countErr error
}

func (s *countedSite) PageCount(*goquery.Document) (int, error) {
	return s.pages, s.countErr
}

var errPageCount = errors.New("no paginator")

func listingPage(urls ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, u := range urls {
		fmt.Fprintf(&b, `<a href="%s">x</a>`, u)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func detailPage(title, rating string) string {
	page := "<html><body><h1>" + title + "</h1>"
	if rating != "" {
		page += `<span class="rating">` + rating + "</span>"
	}
	return page + "</body></html>"
}

func listingFormat(page int) string {
	return fmt.Sprintf("https://test.example/list?page=%d", page)
}

func detailURL(n int) string {
	return fmt.Sprintf("https://test.example/claim/%d", n)
}

func newClaimCache() *cache.ClaimCache {
	return cache.NewClaimCache(store.NewMemoryStore(), nil)
}
