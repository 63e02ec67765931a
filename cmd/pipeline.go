package main

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrollment-cli/internal/config"
	"github.com/sells-group/enrollment-cli/internal/extract"
	"github.com/sells-group/enrollment-cli/internal/model"
	"github.com/sells-group/enrollment-cli/internal/registry"
	"github.com/sells-group/enrollment-cli/internal/store"
)

// stagedFiles maps state abbreviations to the staged payload under the data
// directory. States absent here have nothing to extract.
var stagedFiles = map[string]struct {
	name   string
	format model.Format
}{
	"CA": {"ca_county_projections.xlsx", model.FormatExcel},
	"IA": {"ia_district_projections.xlsx", model.FormatExcel},
	"MD": {"md_county_projections.xlsx", model.FormatExcel},
	"PA": {"pa_district_projections.xlsx", model.FormatExcel},
	"TX": {"tx_ada_projections.xlsx", model.FormatExcel},
	"VA": {"va_division_projections.xlsx", model.FormatExcel},
	"CO": {"co_population_by_age.csv", model.FormatCSV},
	"NC": {"nc_population_by_age.csv", model.FormatCSV},
}

// stagedSource resolves the raw payload handle for a source record.
func stagedSource(dataDir string) func(rec model.SourceRecord) extract.RawSource {
	return func(rec model.SourceRecord) extract.RawSource {
		staged, ok := stagedFiles[rec.Abbr]
		if !ok {
			return extract.RawSource{Format: model.FormatNone}
		}
		return extract.RawSource{
			Path:   filepath.Join(dataDir, staged.name),
			Format: staged.format,
		}
	}
}

func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	if cfg.Registry.Path != "" {
		return registry.LoadFile(cfg.Registry.Path)
	}
	return registry.Load()
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
