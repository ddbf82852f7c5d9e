package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/extract/adapters"
	"github.com/ppiankov/claimharvest/internal/sink"
)

// Options are the per-run crawl parameters
type Options struct {
	RunID     string              // generated when empty
	MaxClaims int                 // 0 = unlimited
	Avoid     map[string]struct{} // detail URLs never listed
	Headers   map[string]string   // sent with every fetch
	Timeout   time.Duration       // per fetch
}

// Pipeline crawls sites: paginate, then extract each listed URL
type Pipeline struct {
	runID     string
	paginator *Paginator
	orch      *Orchestrator
	log       *zap.Logger
}

// New creates a pipeline. Every crawl made through it shares one run ID.
func New(fetch Fetcher, claims ClaimStore, out sink.Sink, opts Options, log *zap.Logger, enrichers ...Enricher) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Pipeline{
		runID:     opts.RunID,
		paginator: NewPaginator(fetch, opts, log),
		orch:      NewOrchestrator(fetch, claims, out, opts, log, enrichers...),
		log:       log,
	}
}

// RunID identifies this pipeline's run in logs and sinks
func (p *Pipeline) RunID() string {
	return p.runID
}

// CrawlSite lists and extracts one site. Stats are returned even when the
// crawl is interrupted.
func (p *Pipeline) CrawlSite(ctx context.Context, site adapters.Adapter) (*Stats, error) {
	stats := &Stats{RunID: p.runID, Site: site.Name(), Started: time.Now()}
	log := p.log.With(zap.String("site", site.Name()), zap.String("run_id", p.runID))

	log.Info("Listing site")
	urls := p.paginator.Collect(ctx, site)
	stats.Listed = len(urls)
	log.Info("Listed detail pages", zap.Int("urls", len(urls)))

	err := p.orch.Run(ctx, site, urls, stats)
	stats.Finished = time.Now()
	logStats(log, "Site finished", stats)
	return stats, err
}

// ExtractURLs extracts claims from known detail URLs, choosing each URL's
// site from registry (its generic fallback when no plugin matches)
func (p *Pipeline) ExtractURLs(ctx context.Context, registry *adapters.Registry, urls []string) (*Stats, error) {
	stats := &Stats{RunID: p.runID, Listed: len(urls), Started: time.Now()}
	err := p.orch.RunEach(ctx, registry.FindAdapter, urls, stats)
	stats.Finished = time.Now()
	logStats(p.log.With(zap.String("run_id", p.runID)), "Extraction finished", stats)
	return stats, err
}
