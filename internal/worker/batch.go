package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ppiankov/claimharvest/internal/extract/adapters"
	"github.com/ppiankov/claimharvest/internal/pipeline"
)

// SiteCrawler crawls one site end to end
type SiteCrawler interface {
	CrawlSite(ctx context.Context, site adapters.Adapter) (*pipeline.Stats, error)
}

// SiteJob represents the crawl of one site
type SiteJob struct {
	Site    adapters.Adapter
	Crawler SiteCrawler
}

// Execute executes the crawl
func (j *SiteJob) Execute(ctx context.Context) Result {
	stats, err := j.Crawler.CrawlSite(ctx, j.Site)
	return &SiteResult{
		Site:  j.Site.Name(),
		Stats: stats,
		Error: err,
	}
}

// SiteResult represents the result of a site crawl
type SiteResult struct {
	Site  string
	Stats *pipeline.Stats
	Error error
}

// GetError returns the error from the site result
func (r *SiteResult) GetError() error {
	return r.Error
}

// BatchProcessor crawls several sites concurrently, each site sequentially
type BatchProcessor struct {
	crawler     SiteCrawler
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(crawler SiteCrawler, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		crawler:     crawler,
		concurrency: concurrency,
	}
}

// ProcessSites crawls every site and returns one result per site, in
// site-name order
func (b *BatchProcessor) ProcessSites(ctx context.Context, sites []adapters.Adapter) []*SiteResult {
	if len(sites) == 0 {
		return []*SiteResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, site := range sites {
		pool.Submit(&SiteJob{Site: site, Crawler: b.crawler})
	}

	results := make([]*SiteResult, 0, len(sites))
	for _, result := range pool.Wait() {
		results = append(results, toSiteResult(result))
	}

	slices.SortFunc(results, func(a, b *SiteResult) int { return strings.Compare(a.Site, b.Site) })
	return results
}

func toSiteResult(result Result) *SiteResult {
	switch r := result.(type) {
	case *SiteResult:
		return r
	case *PanicResult:
		name := "unknown"
		if job, ok := r.Job.(*SiteJob); ok {
			name = job.Site.Name()
		}
		return &SiteResult{Site: name, Error: r.GetError()}
	default:
		return &SiteResult{Site: "unknown", Error: result.GetError()}
	}
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
