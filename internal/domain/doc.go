// Package domain models USDA Production, Supply and Distribution (PSD) coffee
// statistics and the trend analysis computed over them.
//
// # Data Source
//
// Records come from the USDA Foreign Agricultural Service OpenData API:
//
//	GET /api/psd/commodity/0711100/country/{country}/year/{marketYear}
//
// 0711100 is the PSD commodity code for "Coffee, Green". Each response is a
// JSON array with one object per (country, attribute) observation for the
// requested market year. Passing the literal country token "all" returns
// every reporting country; the wildcard is never expanded client side.
//
// # PSD Data Conventions
//
// Units:
//
//	Coffee values are reported in thousands of 60 kg bags (unitId 2,
//	"1000 60 KG BAGS"). No unit conversion is performed.
//
// Numeric encoding:
//
//	The API serializes marketYear, calendarYear and month as JSON strings
//	("2024", "10") and attributeId, unitId and value as numbers. Decoding
//	accepts either form for every numeric field. See [Record.UnmarshalJSON].
//
// Attributes:
//
//	Each series ("Production", "Ending Stocks", ...) has a numeric id listed
//	in the attribute catalog; see [AttributeLabel] and [KnownAttribute].
//	Unknown ids are labelled "Attribute <id>".
//
// Country codes:
//
//	PSD uses its own two-character codes, which differ from ISO 3166
//	("BR" Brazil, but "VM" Vietnam and "E4" European Union). See
//	[Countries] and [KnownCountry].
//
// # Trend Model
//
// Totals per market year are fitted with ordinary least squares using the
// calendar year itself as the predictor. The intercept is therefore the
// extrapolated value at year zero and is usually a very large number; it is
// reported as-is. See [Fit].
package domain
