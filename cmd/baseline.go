package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/enrollment-cli/internal/baseline"
	"github.com/sells-group/enrollment-cli/internal/model"
)

var baselineState string

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Build and inspect the NCES baseline series",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(cfg.Baseline.Path)
		if err != nil {
			return eris.Wrapf(err, "open anchor table %s", cfg.Baseline.Path)
		}
		defer f.Close()

		anchors, err := baseline.ParseCSV(cmd.Context(), f)
		if err != nil {
			return err
		}
		series, errs := baseline.Build(anchors)

		if baselineState != "" {
			s, ok := series[baselineState]
			if !ok {
				if err := errs[baselineState]; err != nil {
					return err
				}
				return eris.Errorf("no baseline series for state %q", baselineState)
			}
			return printSeries(s)
		}

		abbrs := make([]string, 0, len(series))
		for abbr := range series {
			abbrs = append(abbrs, abbr)
		}
		sort.Strings(abbrs)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STATE\t2022\t2025\t2031\t2050\tSLOPE/YR")
		for _, abbr := range abbrs {
			s := series[abbr]
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%+.0f\n",
				abbr, s.Years[model.YearFirst], s.Years[model.AnchorNear],
				s.Years[model.AnchorFar], s.Years[model.YearLast], baseline.Slope(s))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		for abbr, err := range errs {
			fmt.Fprintf(os.Stderr, "%s: %v\n", abbr, err)
		}
		return nil
	},
}

func printSeries(s *model.BaselineSeries) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "State: %s (FIPS %s)\n", s.Abbr, s.FIPS)
	fmt.Fprintln(w, "YEAR\tENROLLMENT\tMETHOD")
	for year := model.YearFirst; year <= model.YearLast; year++ {
		v, ok := s.Value(year)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%d\t%d\t%s\n", year, v, s.MethodFor(year))
	}
	return w.Flush()
}

func init() {
	baselineCmd.Flags().StringVar(&baselineState, "state", "", "show the full series for one state (postal abbreviation)")
	rootCmd.AddCommand(baselineCmd)
}
