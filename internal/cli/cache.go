package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/claimharvest/internal/cache"
	"github.com/ppiankov/claimharvest/internal/store"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the shared page and claim cache",
	Long: `Inspect what a previous run stored.

Pages and claims live in the store selected by store.backend; these
commands read it without fetching anything.`,
}

var cacheClaimCmd = &cobra.Command{
	Use:   "claim <url>",
	Short: "Show the claims cached for a review URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		claims := cache.NewClaimCache(s, nil).GetPage(cmd.Context(), args[0])
		if len(claims) == 0 {
			return fmt.Errorf("no cached claim for %s", args[0])
		}

		records := make([]map[string]string, 0, len(claims))
		for _, c := range claims {
			records = append(records, c.Record())
		}
		yamlData, err := yaml.Marshal(records)
		if err != nil {
			return fmt.Errorf("error marshaling claims: %w", err)
		}
		fmt.Print(string(yamlData))
		return nil
	},
}

var cachePageCmd = &cobra.Command{
	Use:   "page <url>",
	Short: "Print the cached body of a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		page, ok, err := s.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("read page: %w", err)
		}
		if !ok {
			return fmt.Errorf("page not cached: %s", args[0])
		}
		if page == cache.NotFoundPage {
			fmt.Fprintf(os.Stderr, "%s answered 404\n", args[0])
			return nil
		}
		fmt.Println(page)
		return nil
	},
}

func openStore(cmd *cobra.Command) (store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Backend = storeBackend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return store.New(cmd.Context(), cfg.Store)
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClaimCmd)
	cacheCmd.AddCommand(cachePageCmd)
	cacheCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "cache backend (redis, memory, disk, layered)")
}
