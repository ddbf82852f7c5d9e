package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/pipeline"
	"github.com/ppiankov/claimharvest/internal/worker"
)

var (
	website       string
	maxClaims     int
	outputPath    string
	mongoURI      string
	annotateWith  string
	annotationAPI string
	workers       int
	avoidFile     string
	since         string
	until         string
	storeBackend  string
	resolveLinks  bool
	respectRobots bool
	crawlTimeout  time.Duration
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl fact-checking sites and write their claims",
	Long: `Crawl walks the listing pages of one or every registered site:
- Collect review URLs page by page, in order
- Skip URLs already extracted (claim cache) or listed in --avoid
- Fetch each review once, extract it and normalize its rating
- Write claims with a rating to CSV and, optionally, MongoDB

Sites run in parallel (--workers); each site is crawled sequentially.

Example:
  claimharvest crawl --website politifact --maxclaims 100
  claimharvest crawl --output claims.csv --avoid previous.csv
  claimharvest crawl --output claims.jsonl
  claimharvest crawl --workers 4 --mongo-uri mongodb://localhost:27017`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	// Selection flags
	crawlCmd.Flags().StringVar(&website, "website", "", "site to crawl (default: all, see 'claimharvest sites')")
	crawlCmd.Flags().IntVar(&maxClaims, "maxclaims", 0, "max review URLs per site (0 = unlimited)")
	crawlCmd.Flags().StringVar(&avoidFile, "avoid", "", "file of URLs to skip (plain list or previous CSV output)")
	crawlCmd.Flags().StringVar(&since, "since", "", "earliest review date, YYYY-MM-DD (advisory)")
	crawlCmd.Flags().StringVar(&until, "until", "", "latest review date, YYYY-MM-DD (advisory)")

	// Output flags
	crawlCmd.Flags().StringVar(&outputPath, "output", "", "output path: .jsonl for JSON lines, - for CSV on stdout, CSV otherwise (default from config: output.csv)")
	crawlCmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "also upsert claims into MongoDB")

	// Enrichment flags
	crawlCmd.Flags().StringVar(&annotateWith, "annotate", "", "entity annotator (none, service, openai)")
	crawlCmd.Flags().StringVar(&annotationAPI, "annotation-api", "", "annotation service URI")
	crawlCmd.Flags().BoolVar(&resolveLinks, "resolve-links", false, "resolve redirects of referred links")

	// Runtime flags
	crawlCmd.Flags().IntVar(&workers, "workers", 0, "sites crawled in parallel")
	crawlCmd.Flags().StringVar(&storeBackend, "store", "", "cache backend (redis, memory, disk, layered)")
	crawlCmd.Flags().BoolVar(&respectRobots, "robots", false, "honor robots.txt")
	crawlCmd.Flags().DurationVar(&crawlTimeout, "timeout", 0, "overall crawl timeout (0 = none)")
}

// applyCrawlFlags overrides cfg with the flags given on the command line
func applyCrawlFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("website") {
		cfg.Crawl.Website = website
	}
	if flags.Changed("maxclaims") {
		cfg.Crawl.MaxClaims = maxClaims
	}
	if flags.Changed("avoid") {
		cfg.Crawl.AvoidFile = avoidFile
	}
	if flags.Changed("since") {
		cfg.Crawl.Since = since
	}
	if flags.Changed("until") {
		cfg.Crawl.Until = until
	}
	if flags.Changed("output") {
		cfg.Sink.CSVPath = outputPath
	}
	if flags.Changed("mongo-uri") {
		cfg.Sink.MongoURI = mongoURI
	}
	if flags.Changed("annotate") {
		cfg.Annotator.Provider = annotateWith
	}
	if flags.Changed("annotation-api") {
		cfg.Annotator.URI = annotationAPI
		if !flags.Changed("annotate") {
			cfg.Annotator.Provider = "service"
		}
	}
	if flags.Changed("resolve-links") {
		cfg.Crawl.ResolveLinks = resolveLinks
	}
	if flags.Changed("workers") {
		cfg.Crawl.Workers = workers
	}
	if flags.Changed("store") {
		cfg.Store.Backend = storeBackend
	}
	if flags.Changed("robots") {
		cfg.Crawl.RespectRobots = respectRobots
	}
}

// signalContext is cancelled on SIGINT/SIGTERM and after timeout (0 = never)
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCrawlFlags(cmd, cfg)

	ctx, cancel := signalContext(crawlTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	sites, ok := a.registry.Select(cfg.Crawl.Website)
	if !ok {
		return fmt.Errorf("%w: %s (available: %v)", errUnknownSite, cfg.Crawl.Website, a.registry.Names())
	}

	opts, err := a.pipelineOptions()
	if err != nil {
		return err
	}
	if cfg.Crawl.Since != "" || cfg.Crawl.Until != "" {
		a.log.Info("Date window is advisory, listings are not filtered",
			zap.String("since", cfg.Crawl.Since), zap.String("until", cfg.Crawl.Until))
	}

	out, err := a.openSink(ctx, opts.RunID)
	if err != nil {
		return err
	}
	p := pipeline.New(a.fetch, a.claims, out, opts, a.log, a.enrichers...)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  claimharvest crawl\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Run:        %s\n", p.RunID())
	fmt.Fprintf(os.Stderr, "  Sites:      %d\n", len(sites))
	fmt.Fprintf(os.Stderr, "  Workers:    %d\n", cfg.Crawl.Workers)
	fmt.Fprintf(os.Stderr, "  Max claims: %d\n", cfg.Crawl.MaxClaims)
	fmt.Fprintf(os.Stderr, "  Avoided:    %d URLs\n", len(opts.Avoid))
	fmt.Fprintf(os.Stderr, "  Store:      %s\n", cfg.Store.Backend)
	fmt.Fprintf(os.Stderr, "\n")

	results := worker.NewBatchProcessor(p, cfg.Crawl.Workers).ProcessSites(ctx, sites)

	closeErr := out.Close()

	total := &pipeline.Stats{RunID: p.RunID()}
	failures := 0
	for _, result := range results {
		total.Add(result.Stats)
		if result.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Site, result.Error)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s: %s\n", result.Site, result.Stats)
	}

	printSummary(total, len(results), failures)

	if closeErr != nil {
		return fmt.Errorf("close output: %w", closeErr)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("crawl interrupted: %w", err)
	}
	return nil
}

func printSummary(total *pipeline.Stats, sites, failures int) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Run Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	if sites > 0 {
		fmt.Fprintf(os.Stderr, "  Sites:     %d (%d failed)\n", sites, failures)
	}
	fmt.Fprintf(os.Stderr, "  Listed:    %d URLs\n", total.Listed)
	fmt.Fprintf(os.Stderr, "  Cached:    %d\n", total.Cached)
	fmt.Fprintf(os.Stderr, "  Fetched:   %d\n", total.Fetched)
	fmt.Fprintf(os.Stderr, "  Skipped:   %d\n", total.Skipped)
	fmt.Fprintf(os.Stderr, "  Rejected:  %d\n", total.Rejected)
	fmt.Fprintf(os.Stderr, "  Emitted:   %d claims\n", total.Emitted)
	fmt.Fprintf(os.Stderr, "  Errors:    %d\n", total.Errors)
	fmt.Fprintf(os.Stderr, "\n")
}
