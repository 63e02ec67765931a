package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrollment-cli/internal/config"
	"github.com/sells-group/enrollment-cli/internal/fetcher"
	"github.com/sells-group/enrollment-cli/internal/model"
)

var fetchDataDir string

var sourcesFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download staged source files from their publishing agencies",
	Long:  "Downloads the raw payload for every state with a registered extractor and a source URL into the extract data directory. Already-staged files are overwritten.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if fetchDataDir != "" {
			cfg.Extract.DataDir = fetchDataDir
		}

		reg, err := loadRegistry(cfg)
		if err != nil {
			return eris.Wrap(err, "load source registry")
		}
		if err := os.MkdirAll(cfg.Extract.DataDir, 0o755); err != nil {
			return eris.Wrapf(err, "create data dir %s", cfg.Extract.DataDir)
		}

		f := newHTTPFetcher(cfg)
		fetched, skipped, failures := fetchStagedSources(ctx, f, reg.All(), cfg.Extract.DataDir)

		for abbr, ferr := range failures {
			zap.L().Warn("source fetch failed", zap.String("state", abbr), zap.Error(ferr))
		}
		zap.L().Info("source fetch finished",
			zap.Int("fetched", fetched),
			zap.Int("skipped", skipped),
			zap.Int("failed", len(failures)),
		)
		if fetched == 0 && len(failures) > 0 {
			return eris.Errorf("every source fetch failed (%d states)", len(failures))
		}
		return nil
	},
}

func newHTTPFetcher(cfg *config.Config) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
		RatePerSec: cfg.Fetch.RatePerSec,
	})
}

// fetchStagedSources downloads each staged source's URL into dataDir under
// the filename its extractor expects. States without an extractor or a URL
// are skipped; one unreachable agency never blocks the rest.
func fetchStagedSources(ctx context.Context, f fetcher.Fetcher, recs []model.SourceRecord, dataDir string) (fetched, skipped int, failures map[string]error) {
	failures = make(map[string]error)
	for _, rec := range recs {
		staged, ok := stagedFiles[rec.Abbr]
		if !ok || rec.URL == "" {
			skipped++
			continue
		}

		path := filepath.Join(dataDir, staged.name)
		n, err := f.DownloadToFile(ctx, rec.URL, path)
		if err != nil {
			failures[rec.Abbr] = err
			continue
		}
		fetched++
		zap.L().Info("source fetched",
			zap.String("state", rec.Abbr),
			zap.String("path", path),
			zap.Int64("bytes", n),
		)
	}
	return fetched, skipped, failures
}

func init() {
	sourcesFetchCmd.Flags().StringVar(&fetchDataDir, "data-dir", "", "directory to stage downloads into (default from config)")
	sourcesCmd.AddCommand(sourcesFetchCmd)
}
