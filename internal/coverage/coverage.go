// Package coverage renders the data-coverage report: which states have
// direct projection data, which fall back to baseline allocation, and where
// the gaps are.
package coverage

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/enrollment-cli/internal/model"
	"github.com/sells-group/enrollment-cli/internal/registry"
)

// Options controls report rendering.
type Options struct {
	// GeneratedAt stamps the report header. Zero means time.Now.
	GeneratedAt time.Time
}

// Generate renders the markdown coverage report from the source inventory
// and per-state reconciliation results. Iteration is FIPS-ordered, so the
// output is deterministic for a given input.
func Generate(reg *registry.Registry, results []model.StateResult, opts Options) string {
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	printer := message.NewPrinter(language.AmericanEnglish)

	byFIPS := make(map[string]model.StateResult, len(results))
	for _, res := range results {
		byFIPS[res.FIPS] = res
	}

	var b strings.Builder
	b.WriteString("# State K-12 Enrollment Projections: Data Coverage Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", generated.Format("2006-01-02"))
	fmt.Fprintf(&b, "Projection window: %d-%d\n\n", model.YearFirst, model.YearLast)

	writeSummary(&b, reg, results, printer)
	writeDetailTable(&b, reg)
	writeStatusSections(&b, reg, byFIPS)
	writeDegraded(&b, byFIPS, reg)

	return b.String()
}

func writeSummary(b *strings.Builder, reg *registry.Registry, results []model.StateResult, printer *message.Printer) {
	counts := reg.Counts()

	b.WriteString("## Summary\n\n")
	b.WriteString("| Category | States |\n")
	b.WriteString("|---|---|\n")
	for _, status := range model.AllStatuses {
		if counts[status] == 0 {
			continue
		}
		fmt.Fprintf(b, "| %s | %d |\n", status.Label(), counts[status])
	}
	fmt.Fprintf(b, "| Total | %d |\n\n", len(reg.All()))

	var points, direct, allocated int
	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		points += len(res.Points)
		direct += res.Coverage.DirectYears
		allocated += res.Coverage.AllocatedYears
	}
	fmt.Fprintf(b, "- Projection points produced: %s\n", printer.Sprintf("%d", points))
	fmt.Fprintf(b, "- State-years with direct source data: %s\n", printer.Sprintf("%d", direct))
	fmt.Fprintf(b, "- State-years covered by allocation: %s\n", printer.Sprintf("%d", allocated))
	if failed > 0 {
		fmt.Fprintf(b, "- States failed: %d\n", failed)
	}
	b.WriteString("\n")
}

func writeDetailTable(b *strings.Builder, reg *registry.Registry) {
	b.WriteString("## Source Detail\n\n")
	b.WriteString("| State | FIPS | Source | Geo Level | Horizon | Format | Status |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, rec := range reg.All() {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			rec.Name, rec.FIPS, rec.Publisher, rec.GeoLevel,
			rec.Horizon.String(), rec.Format, rec.Status)
	}
	b.WriteString("\n")
}

func writeStatusSections(b *strings.Builder, reg *registry.Registry, byFIPS map[string]model.StateResult) {
	for _, status := range model.AllStatuses {
		recs := reg.ByStatus(status)
		if len(recs) == 0 {
			continue
		}

		fmt.Fprintf(b, "## %s\n\n", status.Label())
		b.WriteString(statusNarrative(status))
		b.WriteString("\n\n")

		for _, rec := range recs {
			fmt.Fprintf(b, "- **%s** (%s)", rec.Name, rec.Abbr)
			if rec.Publisher != "" {
				fmt.Fprintf(b, ": %s", rec.Publisher)
			}
			if res, ok := byFIPS[rec.FIPS]; ok && res.Err == nil {
				cov := res.Coverage
				if cov.CountiesDirect > 0 {
					fmt.Fprintf(b, " (%d counties, %d years direct)", cov.CountiesDirect, cov.DirectYears)
				} else if cov.DirectYears > 0 {
					fmt.Fprintf(b, " (%d years direct, state level)", cov.DirectYears)
				}
			}
			if rec.Notes != "" {
				fmt.Fprintf(b, ". %s", rec.Notes)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}

func statusNarrative(status model.Status) string {
	switch status {
	case model.StatusDownloaded:
		return "Source files were downloaded and parsed; direct projections enter the dataset at the source's own geography."
	case model.StatusAvailable:
		return "Machine-readable files exist but have not been staged yet; these states currently use baseline allocation."
	case model.StatusPDFManual:
		return "Projections are published as PDF only. Until tables are transcribed, these states use baseline allocation."
	case model.StatusDashboardNoBulk:
		return "Projections live behind interactive dashboards with no bulk export; baseline allocation applies."
	case model.StatusContractBasis:
		return "Projections are produced under contract and not published; baseline allocation applies."
	case model.StatusHistoricalOnly:
		return "Only historical enrollment is published, with no forward-looking series; baseline allocation applies."
	case model.StatusNoProjections:
		return "No state-produced enrollment projections were found; baseline allocation applies."
	case model.StatusPopulationOnly:
		return "The state publishes population projections but not enrollment. Where a school-age series exists, it is converted through the population proxy; otherwise baseline allocation applies."
	case model.StatusLimitedProjections:
		return "Published projections cover too short a horizon or too narrow a geography to use directly; baseline allocation applies."
	default:
		return ""
	}
}

func writeDegraded(b *strings.Builder, byFIPS map[string]model.StateResult, reg *registry.Registry) {
	var degraded, failed []model.StateResult
	for _, rec := range reg.All() {
		res, ok := byFIPS[rec.FIPS]
		if !ok {
			continue
		}
		switch {
		case res.Err != nil:
			failed = append(failed, res)
		case res.Coverage.Degraded:
			degraded = append(degraded, res)
		}
	}
	if len(degraded) == 0 && len(failed) == 0 {
		return
	}

	b.WriteString("## Gaps and Degradations\n\n")
	for _, res := range failed {
		fmt.Fprintf(b, "- **%s**: FAILED: %v\n", res.Abbr, res.Err)
	}
	for _, res := range degraded {
		fmt.Fprintf(b, "- **%s**: %s\n", res.Abbr, res.Coverage.DegradedReason)
	}
	b.WriteString("\n")
}
