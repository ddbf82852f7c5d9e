package pipeline

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/cache"
	"github.com/ppiankov/claimharvest/internal/extract"
	"github.com/ppiankov/claimharvest/internal/extract/adapters"
)

// Fetcher returns page bodies; (_, false) means the page is unavailable
type Fetcher interface {
	Get(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (string, bool)
}

// Paginator walks a site's listing pages and collects detail URLs
type Paginator struct {
	fetch     Fetcher
	headers   map[string]string
	timeout   time.Duration
	maxClaims int
	avoid     map[string]struct{}
	log       *zap.Logger
}

// NewPaginator creates a paginator. maxClaims 0 means unlimited.
func NewPaginator(fetch Fetcher, opts Options, log *zap.Logger) *Paginator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Paginator{
		fetch:     fetch,
		headers:   opts.Headers,
		timeout:   opts.Timeout,
		maxClaims: opts.MaxClaims,
		avoid:     opts.Avoid,
		log:       log,
	}
}

// Collect returns the detail URLs of every listing sequence of site in
// page-then-position order, without avoided URLs and at most maxClaims of
// them. A sequence ends at its page-count bound, at the first page that
// cannot be fetched or at the first page without URLs.
func (p *Paginator) Collect(ctx context.Context, site adapters.Adapter) []string {
	var urls []string

	for _, src := range site.ListingSources() {
		if p.full(urls) || ctx.Err() != nil {
			break
		}
		urls = p.walk(ctx, site, src, urls)
	}

	if p.maxClaims > 0 && len(urls) > p.maxClaims {
		urls = urls[:p.maxClaims]
	}
	return urls
}

func (p *Paginator) full(urls []string) bool {
	return p.maxClaims > 0 && len(urls) >= p.maxClaims
}

func (p *Paginator) walk(ctx context.Context, site adapters.Adapter, src adapters.Source, urls []string) []string {
	bound := 0 // unknown

	for page := 1; bound == 0 || page <= bound; page++ {
		// Checked before every fetch so no page past the limit is requested
		if p.full(urls) || ctx.Err() != nil {
			return urls
		}

		pageURL := sourcePage(src, page)
		if pageURL == "" {
			return urls
		}

		doc, ok := p.listing(ctx, pageURL)
		if !ok {
			p.log.Debug("Listing ended", zap.String("site", site.Name()), zap.String("url", pageURL))
			return urls
		}

		if page == 1 {
			if counter, ok := site.(adapters.PageCounter); ok {
				n, err := counter.PageCount(doc)
				if err != nil {
					p.log.Warn("Page count unavailable", zap.String("site", site.Name()), zap.Error(err))
				} else {
					bound = max(n, 1)
				}
			}
		}

		found := site.ExtractURLs(doc, pageURL)
		if len(found) == 0 {
			return urls
		}
		for _, u := range found {
			if _, skip := p.avoid[u]; skip {
				continue
			}
			urls = append(urls, u)
		}
	}
	return urls
}

func (p *Paginator) listing(ctx context.Context, pageURL string) (*goquery.Document, bool) {
	page, ok := p.fetch.Get(ctx, pageURL, p.headers, p.timeout)
	if !ok || page == cache.NotFoundPage {
		return nil, false
	}
	doc, err := extract.Parse(page)
	if err != nil {
		p.log.Warn("Listing page unparseable", zap.String("url", pageURL), zap.Error(err))
		return nil, false
	}
	return doc, true
}

// sourcePage returns the URL of page n (1-based) of src, or "" past its end
func sourcePage(src adapters.Source, n int) string {
	if n <= len(src.Static) {
		return src.Static[n-1]
	}
	if src.Format != nil {
		return src.Format(n)
	}
	return ""
}
