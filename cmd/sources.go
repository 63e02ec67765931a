package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/enrollment-cli/internal/model"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect the per-state source registry",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every state's projection source",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cfg)
		if err != nil {
			return eris.Wrap(err, "load source registry")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FIPS\tSTATE\tPUBLISHER\tGEO\tHORIZON\tFORMAT\tSTATUS")
		for _, rec := range reg.All() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				rec.FIPS, rec.Abbr, rec.Publisher, rec.GeoLevel,
				rec.Horizon.String(), rec.Format, rec.Status)
		}
		return w.Flush()
	},
}

var sourcesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Count states per source status",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cfg)
		if err != nil {
			return eris.Wrap(err, "load source registry")
		}

		counts := reg.Counts()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, status := range model.AllStatuses {
			if counts[status] == 0 {
				continue
			}
			fmt.Fprintf(w, "%s\t%d\n", status.Label(), counts[status])
		}
		fmt.Fprintf(w, "Total\t%d\n", len(reg.All()))
		return w.Flush()
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesStatusCmd)
	rootCmd.AddCommand(sourcesCmd)
}
