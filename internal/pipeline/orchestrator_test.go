package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ppiankov/claimharvest/internal/cache"
	"github.com/ppiankov/claimharvest/internal/extract/adapters"
	"github.com/ppiankov/claimharvest/internal/model"
)

func detailPages() map[string]string {
	return map[string]string{
		detailURL(1): detailPage("One", "False"),
		detailURL(2): detailPage("Two", "True"),
		detailURL(3): detailPage("Three", "Mostly True"),
	}
}

func urlsOf(claims []model.Claim) []string {
	var urls []string
	for _, c := range claims {
		urls = append(urls, c.URL)
	}
	return urls
}

func TestOrchestrator_Run(t *testing.T) {
	fetch := newFakeFetcher(detailPages())
	out := &recordingSink{}
	o := NewOrchestrator(fetch, newClaimCache(), out, Options{}, nil)
	stats := &Stats{}

	if err := o.Run(context.Background(), &testSite{}, []string{detailURL(1), detailURL(2), detailURL(3)}, stats); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(out.claims) != 3 {
		t.Fatalf("Expected 3 claims, got %d", len(out.claims))
	}
	if out.claims[0].Title != "One" || out.claims[0].Rating != "False" {
		t.Errorf("Unexpected first claim %+v", out.claims[0])
	}
	if stats.Fetched != 3 || stats.Emitted != 3 || stats.Cached != 0 {
		t.Errorf("Unexpected stats %s", stats)
	}
}

func TestOrchestrator_FetchErrorIsolation(t *testing.T) {
	pages := detailPages()
	delete(pages, detailURL(2))
	fetch := newFakeFetcher(pages)
	out := &recordingSink{}
	stats := &Stats{}

	o := NewOrchestrator(fetch, newClaimCache(), out, Options{}, nil)
	if err := o.Run(context.Background(), &testSite{}, []string{detailURL(1), detailURL(2), detailURL(3)}, stats); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	expected := []string{detailURL(1), detailURL(3)}
	if diff := cmp.Diff(expected, urlsOf(out.claims)); diff != "" {
		t.Errorf("Unexpected claims (-want +got):\n%s", diff)
	}
	if stats.Skipped != 1 {
		t.Errorf("Expected 1 skipped, got %d", stats.Skipped)
	}
}

func TestOrchestrator_NotFoundPageSkipped(t *testing.T) {
	pages := detailPages()
	pages[detailURL(2)] = cache.NotFoundPage
	out := &recordingSink{}
	stats := &Stats{}

	o := NewOrchestrator(newFakeFetcher(pages), newClaimCache(), out, Options{}, nil)
	if err := o.Run(context.Background(), &testSite{}, []string{detailURL(1), detailURL(2)}, stats); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(out.claims) != 1 || stats.Skipped != 1 {
		t.Errorf("Expected 1 claim and 1 skip, got %d claims, %s", len(out.claims), stats)
	}
}

func TestOrchestrator_PanicIsolation(t *testing.T) {
	pages := detailPages()
	pages[detailURL(2)] = detailPage("boom", "True")
	out := &recordingSink{}
	stats := &Stats{}

	o := NewOrchestrator(newFakeFetcher(pages), newClaimCache(), out, Options{}, nil)
	if err := o.Run(context.Background(), &testSite{}, []string{detailURL(1), detailURL(2), detailURL(3)}, stats); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	expected := []string{detailURL(1), detailURL(3)}
	if diff := cmp.Diff(expected, urlsOf(out.claims)); diff != "" {
		t.Errorf("Unexpected claims (-want +got):\n%s", diff)
	}
	if stats.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", stats.Errors)
	}
}

func TestOrchestrator_ExtractionError(t *testing.T) {
	out := &recordingSink{}
	stats := &Stats{}
	site := &testSite{err: errors.New("layout changed")}

	o := NewOrchestrator(newFakeFetcher(detailPages()), newClaimCache(), out, Options{}, nil)
	if err := o.Run(context.Background(), site, []string{detailURL(1)}, stats); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(out.claims) != 0 || stats.Errors != 1 {
		t.Errorf("Expected no claims and 1 error, got %d claims, %s", len(out.claims), stats)
	}
}

func TestOrchestrator_RejectsClaimsWithoutRating(t *testing.T) {
	pages := map[string]string{
		detailURL(1): detailPage("Rated", "False"),
		detailURL(2): detailPage("Unrated", ""),
	}
	claims := newClaimCache()
	out := &recordingSink{}
	stats := &Stats{}

	o := NewOrchestrator(newFakeFetcher(pages), claims, out, Options{}, nil)
	if err := o.Run(context.Background(), &testSite{}, []string{detailURL(1), detailURL(2)}, stats); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(out.claims) != 1 || out.claims[0].URL != detailURL(1) {
		t.Errorf("Expected only the rated claim, got %v", urlsOf(out.claims))
	}
	if stats.Rejected != 1 {
		t.Errorf("Expected 1 rejected, got %d", stats.Rejected)
	}
	if cached := claims.GetPage(context.Background(), detailURL(2)); len(cached) != 0 {
		t.Errorf("Expected rejected claim not cached, got %v", cached)
	}
}

func TestOrchestrator_Idempotent(t *testing.T) {
	fetch := newFakeFetcher(detailPages())
	claims := newClaimCache()
	urls := []string{detailURL(1), detailURL(2), detailURL(3)}

	first := &recordingSink{}
	o := NewOrchestrator(fetch, claims, first, Options{}, nil)
	if err := o.Run(context.Background(), &testSite{}, urls, &Stats{}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	fetched := fetch.total()

	second := &recordingSink{}
	stats := &Stats{}
	o = NewOrchestrator(fetch, claims, second, Options{}, nil)
	if err := o.Run(context.Background(), &testSite{}, urls, stats); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if n := fetch.total() - fetched; n != 0 {
		t.Errorf("Expected no fetches on the second run, got %d", n)
	}
	if stats.Cached != 3 || stats.Fetched != 0 {
		t.Errorf("Expected 3 cache hits, got %s", stats)
	}
	if diff := cmp.Diff(first.claims, second.claims, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Claims differ between runs (-first +second):\n%s", diff)
	}
}

// canonicalSite reports a canonical claim URL that differs from the detail URL
type canonicalSite struct {
	testSite
}

func (s *canonicalSite) ExtractClaimAndReview(ctx context.Context, doc *goquery.Document, pageURL string) ([]model.Claim, error) {
	claims, err := s.testSite.ExtractClaimAndReview(ctx, doc, pageURL)
	for i := range claims {
		claims[i].URL = strings.TrimSuffix(pageURL, "?ref=list")
	}
	return claims, err
}

func TestOrchestrator_CanonicalURLStillHitsCache(t *testing.T) {
	pageURL := detailURL(1) + "?ref=list"
	fetch := newFakeFetcher(map[string]string{pageURL: detailPage("One", "False")})
	claims := newClaimCache()
	site := &canonicalSite{}

	if err := NewOrchestrator(fetch, claims, &recordingSink{}, Options{}, nil).Run(context.Background(), site, []string{pageURL}, &Stats{}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	out := &recordingSink{}
	stats := &Stats{}
	if err := NewOrchestrator(fetch, claims, out, Options{}, nil).Run(context.Background(), site, []string{pageURL}, stats); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if n := fetch.count(pageURL); n != 1 {
		t.Errorf("Expected the detail page fetched once, got %d", n)
	}
	if stats.Cached != 1 || len(out.claims) != 1 || out.claims[0].URL != detailURL(1) {
		t.Errorf("Expected a cache hit carrying the canonical URL, got %s %v", stats, urlsOf(out.claims))
	}
	if c := claims.Get(context.Background(), detailURL(1)); c == nil {
		t.Error("Expected the claim to be reachable by its canonical URL")
	}
}

// tagEnricher appends a tag so the test can see enrichment ran
type tagEnricher struct{ tag string }

func (e tagEnricher) Enrich(_ context.Context, claim *model.Claim) {
	claim.Tags = append(claim.Tags, e.tag)
}

func TestOrchestrator_EnrichersRunBeforeCaching(t *testing.T) {
	claims := newClaimCache()
	out := &recordingSink{}

	o := NewOrchestrator(newFakeFetcher(detailPages()), claims, out, Options{}, nil, tagEnricher{"a"}, tagEnricher{"b"})
	if err := o.Run(context.Background(), &testSite{}, []string{detailURL(1)}, &Stats{}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b"}, out.claims[0].Tags); diff != "" {
		t.Errorf("Unexpected tags (-want +got):\n%s", diff)
	}
	cached := claims.GetPage(context.Background(), detailURL(1))
	if len(cached) != 1 || strings.Join(cached[0].Tags, ",") != "a,b" {
		t.Errorf("Expected enriched claim cached, got %+v", cached)
	}
}

func TestOrchestrator_SinkErrorCounted(t *testing.T) {
	out := &recordingSink{err: errors.New("disk full")}
	stats := &Stats{}

	o := NewOrchestrator(newFakeFetcher(detailPages()), newClaimCache(), out, Options{}, nil)
	if err := o.Run(context.Background(), &testSite{}, []string{detailURL(1), detailURL(2)}, stats); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if stats.Errors != 2 || stats.Emitted != 0 {
		t.Errorf("Expected 2 sink errors, got %s", stats)
	}
}

func TestOrchestrator_Cancelled(t *testing.T) {
	fetch := newFakeFetcher(detailPages())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(fetch, newClaimCache(), nil, Options{}, nil)
	err := o.Run(ctx, &testSite{}, []string{detailURL(1)}, &Stats{})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if fetch.total() != 0 {
		t.Errorf("Expected no fetches, got %d", fetch.total())
	}
}

func TestOrchestrator_RunEach(t *testing.T) {
	site := &testSite{}
	pick := func(u string) adapters.Adapter {
		if site.CanHandle(u) {
			return site
		}
		return nil
	}
	out := &recordingSink{}
	stats := &Stats{}

	o := NewOrchestrator(newFakeFetcher(detailPages()), newClaimCache(), out, Options{}, nil)
	if err := o.RunEach(context.Background(), pick, []string{detailURL(1), "https://other.example/x"}, stats); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(out.claims) != 1 || stats.Skipped != 1 {
		t.Errorf("Expected 1 claim and 1 skip, got %d claims, %s", len(out.claims), stats)
	}
}
