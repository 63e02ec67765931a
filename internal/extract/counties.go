package extract

import "fmt"

// caCountyFIPS maps California county names to 5-digit FIPS codes.
var caCountyFIPS = map[string]string{
	"Alameda": "06001", "Alpine": "06003", "Amador": "06005", "Butte": "06007",
	"Calaveras": "06009", "Colusa": "06011", "Contra Costa": "06013", "Del Norte": "06015",
	"El Dorado": "06017", "Fresno": "06019", "Glenn": "06021", "Humboldt": "06023",
	"Imperial": "06025", "Inyo": "06027", "Kern": "06029", "Kings": "06031",
	"Lake": "06033", "Lassen": "06035", "Los Angeles": "06037", "Madera": "06039",
	"Marin": "06041", "Mariposa": "06043", "Mendocino": "06045", "Merced": "06047",
	"Modoc": "06049", "Mono": "06051", "Monterey": "06053", "Napa": "06055",
	"Nevada": "06057", "Orange": "06059", "Placer": "06061", "Plumas": "06063",
	"Riverside": "06065", "Sacramento": "06067", "San Benito": "06069",
	"San Bernardino": "06071", "San Diego": "06073", "San Francisco": "06075",
	"San Joaquin": "06077", "San Luis Obispo": "06079", "San Mateo": "06081",
	"Santa Barbara": "06083", "Santa Clara": "06085", "Santa Cruz": "06087",
	"Shasta": "06089", "Sierra": "06091", "Siskiyou": "06093", "Solano": "06095",
	"Sonoma": "06097", "Stanislaus": "06099", "Sutter": "06101", "Tehama": "06103",
	"Trinity": "06105", "Tulare": "06107", "Tuolumne": "06109", "Ventura": "06111",
	"Yolo": "06113", "Yuba": "06115",
}

// mdCountyFIPS maps Maryland jurisdiction names to 5-digit FIPS codes.
// Baltimore City is a county-equivalent.
var mdCountyFIPS = map[string]string{
	"Allegany County": "24001", "Anne Arundel County": "24003",
	"Baltimore County": "24005", "Calvert County": "24009",
	"Caroline County": "24011", "Carroll County": "24013",
	"Cecil County": "24015", "Charles County": "24017",
	"Dorchester County": "24019", "Frederick County": "24021",
	"Garrett County": "24023", "Harford County": "24025",
	"Howard County": "24027", "Kent County": "24029",
	"Montgomery County": "24031", "Prince George's County": "24033",
	"Queen Anne's County": "24035", "St. Mary's County": "24037",
	"Somerset County": "24039", "Talbot County": "24041",
	"Washington County": "24043", "Wicomico County": "24045",
	"Worcester County": "24047", "Baltimore City": "24510",
}

// paCountyFIPS maps Pennsylvania county names to 5-digit FIPS codes.
var paCountyFIPS = map[string]string{
	"Adams": "42001", "Allegheny": "42003", "Armstrong": "42005", "Beaver": "42007",
	"Bedford": "42009", "Berks": "42011", "Blair": "42013", "Bradford": "42015",
	"Bucks": "42017", "Butler": "42019", "Cambria": "42021", "Cameron": "42023",
	"Carbon": "42025", "Centre": "42027", "Chester": "42029", "Clarion": "42031",
	"Clearfield": "42033", "Clinton": "42035", "Columbia": "42037", "Crawford": "42039",
	"Cumberland": "42041", "Dauphin": "42043", "Delaware": "42045", "Elk": "42047",
	"Erie": "42049", "Fayette": "42051", "Forest": "42053", "Franklin": "42055",
	"Fulton": "42057", "Greene": "42059", "Huntingdon": "42061", "Indiana": "42063",
	"Jefferson": "42065", "Juniata": "42067", "Lackawanna": "42069", "Lancaster": "42071",
	"Lawrence": "42073", "Lebanon": "42075", "Lehigh": "42077", "Luzerne": "42079",
	"Lycoming": "42081", "McKean": "42083", "Mercer": "42085", "Mifflin": "42087",
	"Monroe": "42089", "Montgomery": "42091", "Montour": "42093", "Northampton": "42095",
	"Northumberland": "42097", "Perry": "42099", "Philadelphia": "42101", "Pike": "42103",
	"Potter": "42105", "Schuylkill": "42107", "Snyder": "42109", "Somerset": "42111",
	"Sullivan": "42113", "Susquehanna": "42115", "Tioga": "42117", "Union": "42119",
	"Venango": "42121", "Warren": "42123", "Washington": "42125", "Wayne": "42127",
	"Westmoreland": "42129", "Wyoming": "42131", "York": "42133",
}

// iaCountyFIPS converts Iowa's 2-digit sequential county code to a 5-digit
// FIPS code. Iowa counties are numbered alphabetically, so county code N
// maps to FIPS 19000 + 2N - 1 (codes 01-99).
func iaCountyFIPS(code int) (string, bool) {
	if code < 1 || code > 99 {
		return "", false
	}
	return fmt.Sprintf("19%03d", 2*code-1), true
}
