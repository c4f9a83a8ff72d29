package domain

import "sort"

// YearTotal is the summed value of one attribute for one market year.
type YearTotal struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
}

// GroupedSeries holds one YearTotal per distinct market year, ascending by year.
type GroupedSeries []YearTotal

// Years returns the market years of the series in order.
func (s GroupedSeries) Years() []int {
	years := make([]int, len(s))
	for i, p := range s {
		years[i] = p.Year
	}
	return years
}

// Totals returns the summed values of the series in year order.
func (s GroupedSeries) Totals() []float64 {
	totals := make([]float64, len(s))
	for i, p := range s {
		totals[i] = p.Total
	}
	return totals
}

// Last returns the latest entry of the series.
func (s GroupedSeries) Last() (YearTotal, bool) {
	if len(s) == 0 {
		return YearTotal{}, false
	}
	return s[len(s)-1], true
}

// FilterByAttribute keeps the records whose attribute id equals attributeID,
// preserving input order. Non-matching records are dropped silently.
func FilterByAttribute(records []Record, attributeID int) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.AttributeID == attributeID {
			out = append(out, r)
		}
	}
	return out
}

// Aggregate filters records to attributeID and sums Value per market year.
// Year-range filtering is the caller's job: only in-range years should be
// fetched in the first place. No matches yields an empty series.
func Aggregate(records []Record, attributeID int) GroupedSeries {
	totals := make(map[int]float64)
	for _, r := range records {
		if r.AttributeID != attributeID {
			continue
		}
		totals[r.MarketYear] += r.Value
	}

	series := make(GroupedSeries, 0, len(totals))
	for year, total := range totals {
		series = append(series, YearTotal{Year: year, Total: total})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Year < series[j].Year
	})
	return series
}

// SumValues adds up the Value field of every record.
func SumValues(records []Record) float64 {
	var total float64
	for _, r := range records {
		total += r.Value
	}
	return total
}

// Attributes returns the distinct attribute ids present in records, ascending.
func Attributes(records []Record) []int {
	seen := make(map[int]struct{})
	ids := make([]int, 0)
	for _, r := range records {
		if _, ok := seen[r.AttributeID]; ok {
			continue
		}
		seen[r.AttributeID] = struct{}{}
		ids = append(ids, r.AttributeID)
	}
	sort.Ints(ids)
	return ids
}
