package domain

import (
	"fmt"
	"sort"
)

// WildcardCountry is passed to the PSD API literally to request every country.
const WildcardCountry = "all"

// CommodityCoffee is the PSD commodity code for green coffee.
const CommodityCoffee = "0711100"

// Unit is the reporting unit shared by every coffee attribute.
const Unit = "1000 60 KG BAGS"

// attributeCatalog maps PSD attribute ids to their descriptions.
var attributeCatalog = map[int]string{
	29:  "Arabica Production",
	90:  "Bean Exports",
	58:  "Bean Imports",
	20:  "Beginning Stocks",
	125: "Domestic Consumption",
	176: "Ending Stocks",
	88:  "Exports",
	57:  "Imports",
	56:  "Other Production",
	28:  "Production",
	107: "Roast & Ground Exports",
	75:  "Roast & Ground Imports",
	53:  "Robusta Production",
	141: "Rst,Ground Dom. Consum",
	154: "Soluble Dom. Cons.",
	114: "Soluble Exports",
	82:  "Soluble Imports",
	178: "Total Distribution",
	86:  "Total Supply",
}

// countryCatalog maps PSD country codes to country names.
var countryCatalog = map[string]string{
	"AL": "Albania",
	"AG": "Algeria",
	"AO": "Angola",
	"AR": "Argentina",
	"AM": "Armenia",
	"AS": "Australia",
	"DM": "Benin",
	"BL": "Bolivia",
	"BK": "Bosnia and Herzegovina",
	"BR": "Brazil",
	"BY": "Burundi",
	"CM": "Cameroon",
	"CA": "Canada",
	"CT": "Central African Republic",
	"CI": "Chile",
	"CH": "China",
	"CO": "Colombia",
	"CF": "Congo (Brazzaville)",
	"CG": "Congo (Kinshasa)",
	"CS": "Costa Rica",
	"IV": "Cote d'Ivoire",
	"HR": "Croatia",
	"CU": "Cuba",
	"DR": "Dominican Republic",
	"EC": "Ecuador",
	"EG": "Egypt",
	"ES": "El Salvador",
	"EK": "Equatorial Guinea",
	"ET": "Ethiopia",
	"E4": "European Union",
	"GB": "Gabon",
	"GG": "Georgia",
	"GH": "Ghana",
	"GT": "Guatemala",
	"GU": "Guinea",
	"GY": "Guyana",
	"HA": "Haiti",
	"HO": "Honduras",
	"IN": "India",
	"ID": "Indonesia",
	"IR": "Iran",
	"JM": "Jamaica",
	"JA": "Japan",
	"JO": "Jordan",
	"KZ": "Kazakhstan",
	"KE": "Kenya",
	"KS": "Korea, South",
	"KV": "Kosovo",
	"LA": "Laos",
	"LI": "Liberia",
	"MA": "Madagascar",
	"MI": "Malawi",
	"MY": "Malaysia",
	"MX": "Mexico",
	"MJ": "Montenegro",
	"MO": "Morocco",
	"NC": "New Caledonia",
	"NZ": "New Zealand",
	"NU": "Nicaragua",
	"NI": "Nigeria",
	"MK": "North Macedonia",
	"NO": "Norway",
	"PN": "Panama",
	"PP": "Papua New Guinea",
	"PA": "Paraguay",
	"PE": "Peru",
	"RP": "Philippines",
	"RS": "Russia",
	"RW": "Rwanda",
	"SA": "Saudi Arabia",
	"SG": "Senegal",
	"RB": "Serbia",
	"SL": "Sierra Leone",
	"SN": "Singapore",
	"SF": "South Africa",
	"CE": "Sri Lanka",
	"SZ": "Switzerland",
	"TW": "Taiwan",
	"TZ": "Tanzania",
	"TH": "Thailand",
	"TO": "Togo",
	"TD": "Trinidad and Tobago",
	"TU": "Turkey",
	"UG": "Uganda",
	"UP": "Ukraine",
	"UK": "United Kingdom",
	"US": "United States",
	"UY": "Uruguay",
	"VE": "Venezuela",
	"VM": "Vietnam",
	"YM": "Yemen",
	"YE": "Yemen (Sanaa)",
	"ZA": "Zambia",
	"RH": "Zimbabwe",
}

// Country is one selectable entry of the country catalog.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// AttributeLabel returns the catalog description, or "Attribute <id>" for
// ids the catalog does not know.
func AttributeLabel(id int) string {
	if label, ok := attributeCatalog[id]; ok {
		return label
	}
	return fmt.Sprintf("Attribute %d", id)
}

// CountryName returns the display name for a country code. The wildcard
// renders as "All"; unknown codes are returned unchanged.
func CountryName(code string) string {
	if code == WildcardCountry {
		return "All"
	}
	if name, ok := countryCatalog[code]; ok {
		return name
	}
	return code
}

// KnownAttribute reports whether id is in the attribute catalog.
func KnownAttribute(id int) bool {
	_, ok := attributeCatalog[id]
	return ok
}

// KnownCountry reports whether code is a catalog key or the wildcard.
func KnownCountry(code string) bool {
	if code == WildcardCountry {
		return true
	}
	_, ok := countryCatalog[code]
	return ok
}

// Countries lists the wildcard first, then every catalog entry sorted by name.
func Countries() []Country {
	out := make([]Country, 0, len(countryCatalog)+1)
	for code, name := range countryCatalog {
		out = append(out, Country{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return append([]Country{{Code: WildcardCountry, Name: "All"}}, out...)
}
