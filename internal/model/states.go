package model

import "sort"

// StateInfo pairs a state's FIPS code with its postal abbreviation and name.
type StateInfo struct {
	FIPS string
	Abbr string
	Name string
}

// States lists all 50 states plus DC, keyed by FIPS code.
var States = map[string]StateInfo{
	"01": {"01", "AL", "Alabama"},
	"02": {"02", "AK", "Alaska"},
	"04": {"04", "AZ", "Arizona"},
	"05": {"05", "AR", "Arkansas"},
	"06": {"06", "CA", "California"},
	"08": {"08", "CO", "Colorado"},
	"09": {"09", "CT", "Connecticut"},
	"10": {"10", "DE", "Delaware"},
	"11": {"11", "DC", "District of Columbia"},
	"12": {"12", "FL", "Florida"},
	"13": {"13", "GA", "Georgia"},
	"15": {"15", "HI", "Hawaii"},
	"16": {"16", "ID", "Idaho"},
	"17": {"17", "IL", "Illinois"},
	"18": {"18", "IN", "Indiana"},
	"19": {"19", "IA", "Iowa"},
	"20": {"20", "KS", "Kansas"},
	"21": {"21", "KY", "Kentucky"},
	"22": {"22", "LA", "Louisiana"},
	"23": {"23", "ME", "Maine"},
	"24": {"24", "MD", "Maryland"},
	"25": {"25", "MA", "Massachusetts"},
	"26": {"26", "MI", "Michigan"},
	"27": {"27", "MN", "Minnesota"},
	"28": {"28", "MS", "Mississippi"},
	"29": {"29", "MO", "Missouri"},
	"30": {"30", "MT", "Montana"},
	"31": {"31", "NE", "Nebraska"},
	"32": {"32", "NV", "Nevada"},
	"33": {"33", "NH", "New Hampshire"},
	"34": {"34", "NJ", "New Jersey"},
	"35": {"35", "NM", "New Mexico"},
	"36": {"36", "NY", "New York"},
	"37": {"37", "NC", "North Carolina"},
	"38": {"38", "ND", "North Dakota"},
	"39": {"39", "OH", "Ohio"},
	"40": {"40", "OK", "Oklahoma"},
	"41": {"41", "OR", "Oregon"},
	"42": {"42", "PA", "Pennsylvania"},
	"44": {"44", "RI", "Rhode Island"},
	"45": {"45", "SC", "South Carolina"},
	"46": {"46", "SD", "South Dakota"},
	"47": {"47", "TN", "Tennessee"},
	"48": {"48", "TX", "Texas"},
	"49": {"49", "UT", "Utah"},
	"50": {"50", "VT", "Vermont"},
	"51": {"51", "VA", "Virginia"},
	"53": {"53", "WA", "Washington"},
	"54": {"54", "WV", "West Virginia"},
	"55": {"55", "WI", "Wisconsin"},
	"56": {"56", "WY", "Wyoming"},
}

// StateByAbbr looks up a state by postal abbreviation.
func StateByAbbr(abbr string) (StateInfo, bool) {
	for _, s := range States {
		if s.Abbr == abbr {
			return s, true
		}
	}
	return StateInfo{}, false
}

// StateFIPSList returns all state FIPS codes in ascending order.
func StateFIPSList() []string {
	out := make([]string, 0, len(States))
	for fips := range States {
		out = append(out, fips)
	}
	sort.Strings(out)
	return out
}
