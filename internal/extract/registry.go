package extract

import (
	"context"

	"github.com/sells-group/enrollment-cli/internal/model"
)

// Registry maps state FIPS codes to their direct-data extractors.
type Registry struct {
	extractors map[string]Extractor
	order      []string // registration order for deterministic iteration
}

// NewRegistry creates a registry populated with every state that has a
// working extractor: the six downloaded sources plus the two
// population-proxy states.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}

	r.Register(NewCalifornia())
	r.Register(NewIowa())
	r.Register(NewMaryland())
	r.Register(NewPennsylvania())
	r.Register(NewTexas())
	r.Register(NewVirginia())
	r.Register(NewColorado())
	r.Register(NewNorthCarolina())

	return r
}

// Register adds an extractor keyed by its state.
func (r *Registry) Register(e Extractor) {
	fips := e.StateFIPS()
	if _, dup := r.extractors[fips]; !dup {
		r.order = append(r.order, fips)
	}
	r.extractors[fips] = e
}

// ForState returns the extractor serving a source record. States without a
// registered extractor get the NoDirect fallback.
func (r *Registry) ForState(rec model.SourceRecord) Extractor {
	if e, ok := r.extractors[rec.FIPS]; ok {
		return e
	}
	return &NoDirect{rec: rec}
}

// Direct returns all registered direct extractors in registration order.
func (r *Registry) Direct() []Extractor {
	out := make([]Extractor, 0, len(r.order))
	for _, fips := range r.order {
		out = append(out, r.extractors[fips])
	}
	return out
}

// NoDirect is the fallback for states whose status yields no extractable
// rows (no_projections, historical_only, pdf_manual, dashboard_no_bulk,
// contract_basis, population_only without a proxy, limited_projections).
// It returns an empty point set, signalling baseline allocation.
type NoDirect struct {
	rec model.SourceRecord
}

func (n *NoDirect) Name() string             { return "no_direct" }
func (n *NoDirect) StateFIPS() string        { return n.rec.FIPS }
func (n *NoDirect) GeoLevel() model.GeoLevel { return model.GeoState }

func (n *NoDirect) Extract(ctx context.Context, raw RawSource) (*Result, error) {
	return &Result{}, nil
}
