package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one PSD observation for a (country, market year, attribute).
type Record struct {
	CommodityCode string  `json:"commodityCode"`
	CountryCode   string  `json:"countryCode"`
	MarketYear    int     `json:"marketYear"`
	CalendarYear  int     `json:"calendarYear"`
	Month         int     `json:"month"`
	AttributeID   int     `json:"attributeId"`
	UnitID        int     `json:"unitId"`
	Value         float64 `json:"value"`
}

// rawRecord mirrors the API payload; numeric fields may arrive as numbers or strings.
type rawRecord struct {
	CommodityCode string          `json:"commodityCode"`
	CountryCode   string          `json:"countryCode"`
	MarketYear    json.RawMessage `json:"marketYear"`
	CalendarYear  json.RawMessage `json:"calendarYear"`
	Month         json.RawMessage `json:"month"`
	AttributeID   json.RawMessage `json:"attributeId"`
	UnitID        json.RawMessage `json:"unitId"`
	Value         json.RawMessage `json:"value"`
}

// UnmarshalJSON decodes a PSD record, accepting numeric fields encoded either
// as JSON numbers or as numeric strings. Missing and empty fields decode to 0.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse psd record: %w", err)
	}

	ints := []struct {
		name string
		src  json.RawMessage
		dst  *int
	}{
		{"marketYear", raw.MarketYear, &r.MarketYear},
		{"calendarYear", raw.CalendarYear, &r.CalendarYear},
		{"month", raw.Month, &r.Month},
		{"attributeId", raw.AttributeID, &r.AttributeID},
		{"unitId", raw.UnitID, &r.UnitID},
	}
	for _, f := range ints {
		v, err := parseFlexInt(f.src)
		if err != nil {
			return fmt.Errorf("parse psd record %s: %w", f.name, err)
		}
		*f.dst = v
	}

	value, err := parseFlexFloat(raw.Value)
	if err != nil {
		return fmt.Errorf("parse psd record value: %w", err)
	}

	r.CommodityCode = raw.CommodityCode
	r.CountryCode = raw.CountryCode
	r.Value = value
	return nil
}

// flexLiteral strips surrounding quotes from a raw JSON scalar. It returns ""
// for missing, null and empty-string values.
func flexLiteral(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	return string(raw), nil
}

func parseFlexInt(raw json.RawMessage) (int, error) {
	s, err := flexLiteral(raw)
	if err != nil || s == "" {
		return 0, err
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	// Some payloads carry integral values as floats, e.g. 28.0.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%q out of range", s)
	}
	return int(f), nil
}

func parseFlexFloat(raw json.RawMessage) (float64, error) {
	s, err := flexLiteral(raw)
	if err != nil || s == "" {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}

// DecodeRecords parses a PSD API response body. A JSON null body decodes to
// an empty slice.
func DecodeRecords(body []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
