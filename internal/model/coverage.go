package model

// CoverageEntry summarizes reconciliation coverage for one state.
type CoverageEntry struct {
	FIPS              string `json:"fips"`
	Abbr              string `json:"abbr"`
	Name              string `json:"name"`
	Status            Status `json:"status"`
	DirectYears       int    `json:"direct_years"`
	AllocatedYears    int    `json:"allocated_years"`
	CountiesDirect    int    `json:"counties_direct"`
	CountiesAllocated int    `json:"counties_allocated"`
	Degraded          bool   `json:"degraded"`
	DegradedReason    string `json:"degraded_reason,omitempty"`
}

// StateResult is the outcome of one state's reconciliation task.
// Err is set when the state's pipeline failed; other states are unaffected.
type StateResult struct {
	FIPS     string            `json:"fips"`
	Abbr     string            `json:"abbr"`
	Points   []ProjectionPoint `json:"points,omitempty"`
	Coverage CoverageEntry     `json:"coverage"`
	Err      error             `json:"-"`
}
