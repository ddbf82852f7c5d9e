package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/annotate"
	"github.com/ppiankov/claimharvest/internal/cache"
	"github.com/ppiankov/claimharvest/internal/extract/adapters"
	"github.com/ppiankov/claimharvest/internal/llm"
	"github.com/ppiankov/claimharvest/internal/logging"
	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/pipeline"
	"github.com/ppiankov/claimharvest/internal/rating"
	"github.com/ppiankov/claimharvest/internal/sink"
	"github.com/ppiankov/claimharvest/internal/store"
	"github.com/ppiankov/claimharvest/internal/util"
	"github.com/ppiankov/claimharvest/internal/validate"
	"github.com/ppiankov/claimharvest/internal/verdict"
	"github.com/ppiankov/claimharvest/internal/worker"
)

// app holds the collaborators shared by the crawl and extract commands
type app struct {
	cfg       *model.Config
	log       *zap.Logger
	store     store.Store
	fetch     *cache.FetchCache
	claims    *cache.ClaimCache
	registry  *adapters.Registry
	enrichers []pipeline.Enricher
}

// newApp validates cfg and connects every backend it names
func newApp(ctx context.Context, cfg *model.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	s, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{cfg: cfg, log: log, store: s}
	a.fetch = cache.NewFetchCache(s, a.fetchOptions(), log.Named("fetch"))
	a.claims = cache.NewClaimCache(s, log.Named("claims"))

	classifier, err := verdict.New(llm.ConfigFromModel(cfg.Verdict.Provider, cfg.LLM), log.Named("verdict"))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.registry = adapters.NewRegistry(adapters.Deps{
		Ratings: rating.NewNormalizer(),
		Verdict: classifier,
		Log:     log.Named("adapters"),
	})

	annotator, err := annotate.New(cfg.Annotator, cfg.LLM, log.Named("annotate"))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if annotator != nil {
		a.enrichers = append(a.enrichers, annotate.NewEnricher(annotator, log.Named("annotate")))
	}
	if cfg.Crawl.ResolveLinks {
		a.enrichers = append(a.enrichers,
			validate.NewLinkResolver(a.fetch, cfg.HTTP.Timeout(), cfg.Crawl.ResolveWorkers, log.Named("links")))
	}

	return a, nil
}

func (a *app) fetchOptions() cache.FetchOptions {
	cfg := a.cfg
	proxy := util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	opts := cache.FetchOptions{
		Timeout:          cfg.HTTP.Timeout(),
		UserAgent:        cfg.HTTP.UserAgent,
		Headers:          cfg.HTTP.Headers,
		MaxBytes:         cfg.HTTP.MaxBodyBytes,
		ForbiddenBackoff: cfg.HTTP.ForbiddenBackoff(),
		Proxy:            proxy,
		Limiter:          worker.NewLimiter(cfg.Crawl.RequestsPerSecond, cfg.Crawl.Burst),
	}
	if cfg.Crawl.RespectRobots {
		opts.Robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout(), proxy)
	}
	return opts
}

// pipelineOptions turns the crawl config into per-run options
func (a *app) pipelineOptions() (pipeline.Options, error) {
	avoid, err := loadAvoid(a.cfg.Crawl)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		RunID:     uuid.NewString(),
		MaxClaims: a.cfg.Crawl.MaxClaims,
		Avoid:     avoid,
		Timeout:   a.cfg.HTTP.Timeout(),
	}, nil
}

// openSink opens every configured output. runID tags database documents.
func (a *app) openSink(ctx context.Context, runID string) (sink.Sink, error) {
	var sinks sink.Multi

	if path := a.cfg.Sink.CSVPath; path != "" {
		out, err := fileSink(path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, out)
	}

	if a.cfg.Sink.MongoURI != "" {
		out, err := sink.NewMongoSink(ctx, a.cfg.Sink.MongoURI, a.cfg.Sink.MongoDatabase, a.cfg.Sink.MongoCollection, runID, a.log.Named("mongo"))
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, out)
	}

	if len(sinks) == 0 {
		return sink.Discard{}, nil
	}
	return sinks, nil
}

// fileSink picks the output format from path: "-" is CSV on stdout, a
// .jsonl or .ndjson suffix writes one JSON document per line and anything
// else is CSV.
func fileSink(path string) (sink.Sink, error) {
	var (
		out sink.Sink
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case path == "-":
		// Hide Close so stdout stays open
		out, err = sink.NewCSVSink(struct{ io.Writer }{os.Stdout})
	case ext == ".jsonl" || ext == ".ndjson":
		out, err = sink.CreateJSONL(path)
	default:
		out, err = sink.CreateCSV(path)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the store and flushes the logger
func (a *app) Close() error {
	err := a.store.Close()
	_ = a.log.Sync()
	return err
}

// loadAvoid merges avoid_urls with the URLs of avoid_file. A .csv file is
// read as a previous output (claimReview_url column), anything else as a
// plain URL list.
func loadAvoid(cfg model.CrawlConfig) (map[string]struct{}, error) {
	avoid := cfg.AvoidSet()
	if cfg.AvoidFile == "" {
		return avoid, nil
	}

	var (
		urls []string
		err  error
	)
	if strings.HasSuffix(strings.ToLower(cfg.AvoidFile), ".csv") {
		urls, err = sink.ReadCSVURLs(cfg.AvoidFile)
	} else {
		urls, err = worker.ReadURLsFromFile(cfg.AvoidFile)
	}
	if err != nil {
		return nil, fmt.Errorf("read avoid file: %w", err)
	}

	for _, u := range urls {
		avoid[u] = struct{}{}
	}
	return avoid, nil
}

// errUnknownSite is returned for a --website that no plugin answers to
var errUnknownSite = errors.New("unknown website")
