package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimharvest/internal/pipeline"
	"github.com/ppiankov/claimharvest/internal/worker"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <urls-file>",
	Short: "Extract claims from a list of review URLs",
	Long: `Extract skips listing pages and processes known review URLs:
- Read URLs from the input file (one per line, # comments)
- Pick the site plugin by host; other hosts use schema.org ClaimReview markup
- Write claims with a rating to the configured outputs

Example:
  claimharvest extract urls.txt
  claimharvest extract urls.txt --output - > claims.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&outputPath, "output", "", "output path: .jsonl for JSON lines, - for CSV on stdout, CSV otherwise (default from config: output.csv)")
	extractCmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "also upsert claims into MongoDB")
	extractCmd.Flags().StringVar(&annotateWith, "annotate", "", "entity annotator (none, service, openai)")
	extractCmd.Flags().StringVar(&annotationAPI, "annotation-api", "", "annotation service URI")
	extractCmd.Flags().BoolVar(&resolveLinks, "resolve-links", false, "resolve redirects of referred links")
	extractCmd.Flags().StringVar(&storeBackend, "store", "", "cache backend (redis, memory, disk, layered)")
	extractCmd.Flags().BoolVar(&respectRobots, "robots", false, "honor robots.txt")
	extractCmd.Flags().DurationVar(&crawlTimeout, "timeout", 0, "overall timeout (0 = none)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	urls, err := worker.ReadURLsFromFile(args[0])
	if err != nil {
		return fmt.Errorf("read urls: %w", err)
	}

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

	opts, err := a.pipelineOptions()
	if err != nil {
		return err
	}
	out, err := a.openSink(ctx, opts.RunID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "⚙️  Extracting %d URLs...\n", len(urls))

	p := pipeline.New(a.fetch, a.claims, out, opts, a.log, a.enrichers...)
	stats, runErr := p.ExtractURLs(ctx, a.registry, urls)

	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	printSummary(stats, 0, 0)
	return runErr
}
