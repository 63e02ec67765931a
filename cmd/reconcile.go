package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrollment-cli/internal/acs"
	"github.com/sells-group/enrollment-cli/internal/baseline"
	"github.com/sells-group/enrollment-cli/internal/coverage"
	"github.com/sells-group/enrollment-cli/internal/extract"
	"github.com/sells-group/enrollment-cli/internal/model"
	"github.com/sells-group/enrollment-cli/internal/reconcile"
)

var (
	reconcileWorkers int
	reconcileOut     string
	reconcileDataDir string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the full reconciliation pipeline",
	Long:  "Builds the NCES baseline, extracts every staged state source, reconciles baseline, allocation, and direct layers into a complete dataset, persists the run, and writes the coverage report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if reconcileWorkers > 0 {
			cfg.Reconcile.Workers = reconcileWorkers
		}
		if reconcileOut != "" {
			cfg.Report.OutPath = reconcileOut
		}
		if reconcileDataDir != "" {
			cfg.Extract.DataDir = reconcileDataDir
		}

		reg, err := loadRegistry(cfg)
		if err != nil {
			return eris.Wrap(err, "load source registry")
		}

		anchorFile, err := os.Open(cfg.Baseline.Path)
		if err != nil {
			return eris.Wrapf(err, "open anchor table %s", cfg.Baseline.Path)
		}
		anchors, err := baseline.ParseCSV(ctx, anchorFile)
		anchorFile.Close()
		if err != nil {
			return err
		}
		series, seriesErrs := baseline.Build(anchors)

		shares, err := acs.LoadFile(cfg.ACS.Path)
		if err != nil {
			return eris.Wrapf(err, "load county shares %s", cfg.ACS.Path)
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.CreateRun(ctx)
		if err != nil {
			return err
		}
		log := zap.L().With(zap.String("run_id", run.ID))
		log.Info("reconciliation run started", zap.Int("workers", cfg.Reconcile.Workers))

		engine := reconcile.NewEngine(reg, extract.NewRegistry(), series, seriesErrs, shares, reconcile.Options{
			Workers:     cfg.Reconcile.Workers,
			PreferLevel: model.GeoLevel(cfg.Reconcile.PreferLevel),
			RawFor:      stagedSource(cfg.Extract.DataDir),
		})
		results := engine.Run(ctx)

		var entries []model.CoverageEntry
		states, points := 0, 0
		for _, res := range results {
			entries = append(entries, res.Coverage)
			if res.Err != nil {
				log.Warn("state failed", zap.String("state", res.Abbr), zap.Error(res.Err))
				continue
			}
			if err := st.SaveProjections(ctx, run.ID, res.Points); err != nil {
				failErr := eris.Wrapf(err, "persist projections for %s", res.Abbr)
				_ = st.FailRun(ctx, run.ID, failErr)
				return failErr
			}
			states++
			points += len(res.Points)
		}
		if err := st.SaveCoverage(ctx, run.ID, entries); err != nil {
			_ = st.FailRun(ctx, run.ID, err)
			return err
		}
		if err := st.CompleteRun(ctx, run.ID, states, points); err != nil {
			return err
		}

		report := coverage.Generate(reg, results, coverage.Options{})
		if err := os.WriteFile(cfg.Report.OutPath, []byte(report), 0o644); err != nil {
			return eris.Wrapf(err, "write report %s", cfg.Report.OutPath)
		}

		log.Info("reconciliation run complete",
			zap.Int("states", states),
			zap.Int("points", points),
			zap.String("report", cfg.Report.OutPath),
		)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileWorkers, "workers", 0, "concurrent state tasks (default from config)")
	reconcileCmd.Flags().StringVar(&reconcileOut, "out", "", "coverage report output path")
	reconcileCmd.Flags().StringVar(&reconcileDataDir, "data-dir", "", "directory holding staged state files")
	rootCmd.AddCommand(reconcileCmd)
}
