package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/cache"
	"github.com/ppiankov/claimharvest/internal/extract"
	"github.com/ppiankov/claimharvest/internal/extract/adapters"
	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/sink"
)

// ClaimStore persists claims per detail page. Claims are keyed by the
// detail-page URL they were extracted from, which is the URL the paginator
// produced and the one looked up on the next run, even when an adapter
// reports a different canonical URL on the claim.
type ClaimStore interface {
	GetPage(ctx context.Context, url string) []model.Claim
	PutPage(ctx context.Context, url string, claims []model.Claim) error
}

// Enricher adds derived fields to a claim before it is stored
type Enricher interface {
	Enrich(ctx context.Context, claim *model.Claim)
}

// Orchestrator turns detail URLs into claims
type Orchestrator struct {
	fetch     Fetcher
	claims    ClaimStore
	out       sink.Sink
	enrichers []Enricher
	headers   map[string]string
	timeout   time.Duration
	log       *zap.Logger
}

// NewOrchestrator creates an orchestrator writing to out
func NewOrchestrator(fetch Fetcher, claims ClaimStore, out sink.Sink, opts Options, log *zap.Logger, enrichers ...Enricher) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = sink.Discard{}
	}
	return &Orchestrator{
		fetch:     fetch,
		claims:    claims,
		out:       out,
		enrichers: enrichers,
		headers:   opts.Headers,
		timeout:   opts.Timeout,
		log:       log,
	}
}

// Run processes urls in order with site and adds the outcome to stats.
// It stops between URLs when ctx is done.
func (o *Orchestrator) Run(ctx context.Context, site adapters.Adapter, urls []string, stats *Stats) error {
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("crawl %s interrupted: %w", site.Name(), err)
		}
		o.process(ctx, site, u, stats)
	}
	return nil
}

// RunEach is Run with the site chosen per URL by pick. URLs with no site are skipped.
func (o *Orchestrator) RunEach(ctx context.Context, pick func(string) adapters.Adapter, urls []string, stats *Stats) error {
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extract interrupted: %w", err)
		}
		site := pick(u)
		if site == nil {
			o.log.Warn("No site handles URL", zap.String("url", u))
			stats.Skipped++
			continue
		}
		o.process(ctx, site, u, stats)
	}
	return nil
}

func (o *Orchestrator) process(ctx context.Context, site adapters.Adapter, pageURL string, stats *Stats) {
	log := o.log.With(zap.String("site", site.Name()), zap.String("url", pageURL))

	defer func() {
		if r := recover(); r != nil {
			stats.Errors++
			log.Error("Extraction panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		}
	}()

	if cached := o.claims.GetPage(ctx, pageURL); len(cached) > 0 {
		stats.Cached++
		log.Debug("Claim cache hit", zap.Int("claims", len(cached)))
		o.emit(ctx, log, cached, stats)
		return
	}

	page, ok := o.fetch.Get(ctx, pageURL, o.headers, o.timeout)
	if !ok || page == cache.NotFoundPage {
		stats.Skipped++
		log.Debug("Detail page unavailable")
		return
	}

	doc, err := extract.Parse(page)
	if err != nil {
		stats.Errors++
		log.Warn("Detail page unparseable", zap.Error(err))
		return
	}

	found, err := site.ExtractClaimAndReview(ctx, doc, pageURL)
	if err != nil {
		stats.Errors++
		log.Warn("Extraction failed", zap.Error(err))
		return
	}
	stats.Fetched++

	claims := make([]model.Claim, 0, len(found))
	for _, c := range found {
		if !c.HasRating() {
			stats.Rejected++
			log.Debug("Claim rejected without rating", zap.String("rating", c.Rating))
			continue
		}
		if c.URL == "" {
			c.URL = pageURL
		}
		for _, e := range o.enrichers {
			e.Enrich(ctx, &c)
		}
		claims = append(claims, c)
	}
	if len(claims) == 0 {
		return
	}

	if err := o.claims.PutPage(ctx, pageURL, claims); err != nil {
		log.Warn("Claim cache write failed", zap.Error(err))
	}
	o.emit(ctx, log, claims, stats)
}

func (o *Orchestrator) emit(ctx context.Context, log *zap.Logger, claims []model.Claim, stats *Stats) {
	for _, c := range claims {
		if err := o.out.Write(ctx, c); err != nil {
			stats.Errors++
			log.Error("Sink write failed", zap.Error(err))
			continue
		}
		stats.Emitted++
	}
}
