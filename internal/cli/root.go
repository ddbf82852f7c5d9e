package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimharvest/internal/model"
)

// version is set at build time via -ldflags
var version = "v0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimharvest",
	Short: "claimharvest - fact-check crawler and ClaimReview extractor",
	Long: `claimharvest crawls fact-checking websites and turns their reviews into
uniform claim records.

Listing pages are walked to collect review URLs, every page is fetched at
most once through a shared cache, and ratings from each site's vocabulary
are normalized into one verdict taxonomy.

Re-running a crawl against the same store only fetches what is new.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of claimharvest.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("claimharvest %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimharvest/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.claimharvest")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CLAIMHARVEST_*, with
	// nested keys joined by underscores (CLAIMHARVEST_STORE_BACKEND)
	viper.SetEnvPrefix("CLAIMHARVEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()

	// AutomaticEnv only answers for keys viper already knows about
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// configKeys are the settings that can come from CLAIMHARVEST_* variables
var configKeys = []string{
	"http.timeout_seconds", "http.user_agent", "http.http_proxy", "http.https_proxy", "http.no_proxy",
	"store.backend", "store.redis_addr", "store.redis_password", "store.redis_db", "store.disk_dir",
	"crawl.website", "crawl.max_claims", "crawl.workers", "crawl.requests_per_second", "crawl.respect_robots",
	"crawl.resolve_links", "crawl.avoid_file",
	"annotator.provider", "annotator.uri",
	"verdict.provider",
	"llm.model", "llm.api_key", "llm.base_url",
	"sink.csv_path", "sink.mongo_uri", "sink.mongo_database", "sink.mongo_collection",
	"log.level", "log.file",
}
