package cli

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimharvest/internal/extract/adapters"
	"github.com/ppiankov/claimharvest/internal/rating"
)

// sitesCmd represents the sites command
var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the registered site plugins",
	Long: `List every site that 'claimharvest crawl --website' accepts, with its
listing entry points and whether a site rating table is loaded for it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		writeSites(os.Stdout, adapters.NewRegistry(adapters.Deps{Ratings: rating.NewNormalizer()}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

// writeSites prints one block per plugin: its name, a rating table marker
// and its listing pages. Rating tables with no plugin come last.
func writeSites(w io.Writer, registry *adapters.Registry) {
	tables := registry.Ratings().Sites()

	for _, site := range registry.All() {
		name := site.Name()
		if i := slices.Index(tables, name); i >= 0 {
			tables = slices.Delete(tables, i, i+1)
			fmt.Fprintf(w, "%s (rating table)\n", name)
		} else {
			fmt.Fprintln(w, name)
		}
		for _, src := range site.ListingSources() {
			for _, page := range src.Static {
				fmt.Fprintf(w, "  %s\n", page)
			}
			if src.Format != nil {
				fmt.Fprintf(w, "  %s ...\n", src.Format(len(src.Static)+1))
			}
		}
	}

	for _, name := range tables {
		fmt.Fprintf(w, "%s (rating table, no plugin)\n", name)
	}
}
