// Package registry holds the per-state source inventory that drives the
// pipeline: which agency publishes projections for each state, in what
// format, and how usable they are.
package registry

import (
	_ "embed"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/enrollment-cli/internal/model"
)

//go:embed sources.yaml
var embeddedSources []byte

// Registry is the immutable source inventory, one record per state plus DC.
type Registry struct {
	byFIPS map[string]model.SourceRecord
	order  []string // FIPS ascending
}

// Load parses the embedded source table.
func Load() (*Registry, error) {
	return parse(embeddedSources)
}

// LoadFile parses a source table from an external path, overriding the
// embedded inventory.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}
	return parse(data)
}

func parse(data []byte) (*Registry, error) {
	var doc struct {
		Sources []model.SourceRecord `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "registry: parse sources")
	}

	r := &Registry{byFIPS: make(map[string]model.SourceRecord, len(doc.Sources))}
	for _, rec := range doc.Sources {
		if err := validate(rec); err != nil {
			return nil, err
		}
		if _, dup := r.byFIPS[rec.FIPS]; dup {
			return nil, eris.Errorf("registry: duplicate FIPS %s", rec.FIPS)
		}
		r.byFIPS[rec.FIPS] = rec
		r.order = append(r.order, rec.FIPS)
	}
	sort.Strings(r.order)

	if len(r.byFIPS) != len(model.States) {
		return nil, eris.Errorf("registry: expected %d states, got %d", len(model.States), len(r.byFIPS))
	}
	return r, nil
}

func validate(rec model.SourceRecord) error {
	info, ok := model.States[rec.FIPS]
	if !ok {
		return eris.Errorf("registry: unknown state FIPS %q", rec.FIPS)
	}
	if rec.Abbr != info.Abbr {
		return eris.Errorf("registry: FIPS %s abbr mismatch: %q vs %q", rec.FIPS, rec.Abbr, info.Abbr)
	}
	if _, err := model.ParseGeoLevel(string(rec.GeoLevel)); err != nil {
		return eris.Wrapf(err, "registry: state %s", rec.Abbr)
	}
	if _, err := model.ParseFormat(string(rec.Format)); err != nil {
		return eris.Wrapf(err, "registry: state %s", rec.Abbr)
	}
	if _, err := model.ParseStatus(string(rec.Status)); err != nil {
		return eris.Wrapf(err, "registry: state %s", rec.Abbr)
	}
	if rec.Horizon.Start != nil && rec.Horizon.End != nil && *rec.Horizon.Start > *rec.Horizon.End {
		return eris.Errorf("registry: state %s horizon start %d after end %d", rec.Abbr, *rec.Horizon.Start, *rec.Horizon.End)
	}
	return nil
}

// All returns every record in FIPS order.
func (r *Registry) All() []model.SourceRecord {
	out := make([]model.SourceRecord, 0, len(r.order))
	for _, fips := range r.order {
		out = append(out, r.byFIPS[fips])
	}
	return out
}

// ByFIPS looks up a record by state FIPS code.
func (r *Registry) ByFIPS(fips string) (model.SourceRecord, error) {
	rec, ok := r.byFIPS[model.NormalizeStateFIPS(fips)]
	if !ok {
		return model.SourceRecord{}, eris.Errorf("registry: no source for FIPS %q", fips)
	}
	return rec, nil
}

// ByAbbr looks up a record by postal abbreviation.
func (r *Registry) ByAbbr(abbr string) (model.SourceRecord, error) {
	for _, fips := range r.order {
		if r.byFIPS[fips].Abbr == abbr {
			return r.byFIPS[fips], nil
		}
	}
	return model.SourceRecord{}, eris.Errorf("registry: no source for state %q", abbr)
}

// ByStatus returns all records with the given status, in FIPS order.
func (r *Registry) ByStatus(status model.Status) []model.SourceRecord {
	var out []model.SourceRecord
	for _, fips := range r.order {
		if r.byFIPS[fips].Status == status {
			out = append(out, r.byFIPS[fips])
		}
	}
	return out
}

// Counts returns the number of records per status.
func (r *Registry) Counts() map[model.Status]int {
	counts := make(map[model.Status]int)
	for _, rec := range r.byFIPS {
		counts[rec.Status]++
	}
	return counts
}
