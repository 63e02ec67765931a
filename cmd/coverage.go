package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrollment-cli/internal/coverage"
	"github.com/sells-group/enrollment-cli/internal/model"
)

var coverageOut string

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Regenerate the coverage report from the latest stored run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reg, err := loadRegistry(cfg)
		if err != nil {
			return eris.Wrap(err, "load source registry")
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.LatestCoverage(ctx)
		if err != nil {
			return eris.Wrap(err, "load latest coverage")
		}

		results := make([]model.StateResult, 0, len(entries))
		for _, e := range entries {
			results = append(results, model.StateResult{
				FIPS:     e.FIPS,
				Abbr:     e.Abbr,
				Coverage: e,
			})
		}

		out := cfg.Report.OutPath
		if coverageOut != "" {
			out = coverageOut
		}
		report := coverage.Generate(reg, results, coverage.Options{})
		if err := os.WriteFile(out, []byte(report), 0o644); err != nil {
			return eris.Wrapf(err, "write report %s", out)
		}

		zap.L().Info("coverage report written",
			zap.String("path", out),
			zap.Int("states", len(results)),
		)
		return nil
	},
}

func init() {
	coverageCmd.Flags().StringVar(&coverageOut, "out", "", "report output path (default from config)")
	rootCmd.AddCommand(coverageCmd)
}
