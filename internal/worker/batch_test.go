package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/claimharvest/internal/extract/adapters"
	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/pipeline"
)

// mockSite is an adapter that only carries a name
type mockSite struct{ name string }

func (s mockSite) Name() string                                   { return s.name }
func (s mockSite) CanHandle(string) bool                          { return false }
func (s mockSite) ListingSources() []adapters.Source              { return nil }
func (s mockSite) ExtractURLs(*goquery.Document, string) []string { return nil }
func (s mockSite) ExtractClaimAndReview(context.Context, *goquery.Document, string) ([]model.Claim, error) {
	return nil, nil
}

// MockCrawler implements SiteCrawler
type MockCrawler struct {
	FailSite  string
	PanicSite string
	calls     atomic.Int32
}

func (m *MockCrawler) CrawlSite(ctx context.Context, site adapters.Adapter) (*pipeline.Stats, error) {
	m.calls.Add(1)
	time.Sleep(10 * time.Millisecond) // Simulate work
	switch site.Name() {
	case m.PanicSite:
		panic("crawler bug")
	case m.FailSite:
		return &pipeline.Stats{Site: site.Name()}, errors.New("crawl error")
	}
	return &pipeline.Stats{Site: site.Name(), Emitted: 1}, nil
}

func sites(names ...string) []adapters.Adapter {
	out := make([]adapters.Adapter, 0, len(names))
	for _, n := range names {
		out = append(out, mockSite{name: n})
	}
	return out
}

func TestBatchProcessor_ProcessSites(t *testing.T) {
	crawler := &MockCrawler{}
	processor := NewBatchProcessor(crawler, 2)

	results := processor.ProcessSites(context.Background(), sites("politifact", "afpfactcheck", "fullfact"))

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	expected := []string{"afpfactcheck", "fullfact", "politifact"}
	for i, res := range results {
		if res.Site != expected[i] {
			t.Errorf("expected site %s at index %d, got %s", expected[i], i, res.Site)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Site, res.Error)
		}
		if res.Stats == nil || res.Stats.Emitted != 1 {
			t.Errorf("expected stats for %s, got %+v", res.Site, res.Stats)
		}
	}
	if n := crawler.calls.Load(); n != 3 {
		t.Errorf("expected 3 crawls, got %d", n)
	}
}

func TestBatchProcessor_ProcessSites_Error(t *testing.T) {
	crawler := &MockCrawler{FailSite: "fullfact"}
	processor := NewBatchProcessor(crawler, 2)

	results := processor.ProcessSites(context.Background(), sites("fullfact", "politifact"))

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error for fullfact, got nil")
	}
	if results[0].Stats == nil {
		t.Error("expected partial stats on error")
	}
	if results[1].Error != nil {
		t.Errorf("unexpected error for politifact: %v", results[1].Error)
	}
}

func TestBatchProcessor_ProcessSites_Panic(t *testing.T) {
	crawler := &MockCrawler{PanicSite: "eufactcheck"}
	processor := NewBatchProcessor(crawler, 2)

	results := processor.ProcessSites(context.Background(), sites("eufactcheck", "politifact"))

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Site != "eufactcheck" || results[0].Error == nil {
		t.Errorf("expected panic reported for eufactcheck, got %+v", results[0])
	}
	if results[1].Error != nil {
		t.Errorf("unexpected error for politifact: %v", results[1].Error)
	}
}

func TestBatchProcessor_ProcessSites_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockCrawler{}, 2)

	results := processor.ProcessSites(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadURLsFromFile(t *testing.T) {
	content := `http://example.com
# comment
https://google.com
   
http://example.com
http://bing.com   `

	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	expected := []string{"http://example.com", "https://google.com", "http://bing.com"}
	if len(urls) != len(expected) {
		t.Fatalf("expected %d URLs, got %d", len(expected), len(urls))
	}

	for i, url := range urls {
		if url != expected[i] {
			t.Errorf("expected URL %s at index %d, got %s", expected[i], i, url)
		}
	}
}

func TestReadURLsFromFile_NonExistent(t *testing.T) {
	_, err := ReadURLsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestSiteResult_GetError(t *testing.T) {
	ok := &SiteResult{Site: "politifact"}
	if ok.GetError() != nil {
		t.Errorf("expected nil error, got %v", ok.GetError())
	}

	failed := &SiteResult{Site: "politifact", Error: errors.New("boom")}
	if failed.GetError() == nil {
		t.Error("expected error, got nil")
	}
}
