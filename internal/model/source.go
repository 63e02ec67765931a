package model

import (
	"fmt"
	"strings"
)

// Format identifies the publication format of a state's projection source.
type Format string

const (
	FormatExcel     Format = "excel"
	FormatCSV       Format = "csv"
	FormatPDF       Format = "pdf"
	FormatDashboard Format = "dashboard"
	FormatNone      Format = "none"
	FormatVaries    Format = "varies"
)

// ParseFormat converts a string into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatExcel:
		return FormatExcel, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatDashboard:
		return FormatDashboard, nil
	case FormatNone:
		return FormatNone, nil
	case FormatVaries:
		return FormatVaries, nil
	default:
		return "", fmt.Errorf("unknown source format %q", s)
	}
}

// Status classifies how usable a state's projection source is.
type Status string

const (
	StatusDownloaded         Status = "downloaded"
	StatusAvailable          Status = "available"
	StatusPDFManual          Status = "pdf_manual"
	StatusDashboardNoBulk    Status = "dashboard_no_bulk"
	StatusContractBasis      Status = "contract_basis"
	StatusHistoricalOnly     Status = "historical_only"
	StatusNoProjections      Status = "no_projections"
	StatusPopulationOnly     Status = "population_only"
	StatusLimitedProjections Status = "limited_projections"
)

// AllStatuses lists every status in report ordering.
var AllStatuses = []Status{
	StatusDownloaded,
	StatusAvailable,
	StatusPDFManual,
	StatusDashboardNoBulk,
	StatusContractBasis,
	StatusHistoricalOnly,
	StatusNoProjections,
	StatusPopulationOnly,
	StatusLimitedProjections,
}

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if Status(strings.ToLower(strings.TrimSpace(s))) == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown source status %q", s)
}

// Label returns the human-readable category name used in the coverage report.
func (s Status) Label() string {
	switch s {
	case StatusDownloaded:
		return "Downloaded & processed"
	case StatusAvailable:
		return "Available (downloadable Excel)"
	case StatusPDFManual:
		return "PDF (manual extraction needed)"
	case StatusDashboardNoBulk:
		return "Dashboard (no bulk download)"
	case StatusContractBasis:
		return "Contract/paid basis only"
	case StatusHistoricalOnly:
		return "Historical enrollment only"
	case StatusNoProjections:
		return "No projections found"
	case StatusPopulationOnly:
		return "Population projections only"
	case StatusLimitedProjections:
		return "Limited projections"
	default:
		return string(s)
	}
}

// HasDirectData reports whether a source with this status yields extractable
// projection rows. Everything else falls back to baseline allocation.
func (s Status) HasDirectData() bool {
	return s == StatusDownloaded
}

// Horizon is the projection year range a source covers. Both ends are nil
// when the source publishes no fixed horizon.
type Horizon struct {
	Start *int `yaml:"start" json:"start,omitempty"`
	End   *int `yaml:"end" json:"end,omitempty"`
}

// String renders the horizon for the report detail table.
func (h Horizon) String() string {
	if h.Start == nil || h.End == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d-%d", *h.Start, *h.End)
}

// SourceRecord describes one state's enrollment projection source.
// Records are immutable once the registry is loaded.
type SourceRecord struct {
	FIPS      string   `yaml:"fips" json:"fips"`
	Abbr      string   `yaml:"abbr" json:"abbr"`
	Name      string   `yaml:"name" json:"name"`
	Publisher string   `yaml:"publisher" json:"publisher"`
	GeoLevel  GeoLevel `yaml:"geo_level" json:"geo_level"`
	Horizon   Horizon  `yaml:"horizon" json:"horizon"`
	Format    Format   `yaml:"format" json:"format"`
	Status    Status   `yaml:"status" json:"status"`
	URL       string   `yaml:"url" json:"url,omitempty"`
	Notes     string   `yaml:"notes" json:"notes,omitempty"`
}
