package psd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/coffee-trend-service/internal/domain"
)

// FixtureName is the file name a recorded response for (country, year) is stored under.
func FixtureName(countryCode string, year int) string {
	return fmt.Sprintf("psd_%s_%d.json", strings.ToLower(countryCode), year)
}

// FixtureSource serves records from PSD responses recorded as JSON files,
// one file per country and market year. A missing file is a transport failure.
type FixtureSource struct {
	dir string
}

// NewFixtureSource reads fixtures from dir.
func NewFixtureSource(dir string) *FixtureSource {
	return &FixtureSource{dir: dir}
}

// Fetch implements domain.RecordSource.
func (s *FixtureSource) Fetch(ctx context.Context, year int, countryCode string) ([]domain.Record, error) {
	if err := domain.ValidateFetch(year, countryCode); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := os.ReadFile(filepath.Join(s.dir, FixtureName(countryCode, year)))
	if err != nil {
		return nil, &domain.TransportError{Year: year, Country: countryCode, Err: err}
	}
	records, err := domain.DecodeRecords(body)
	if err != nil {
		return nil, &domain.TransportError{Year: year, Country: countryCode, Err: err}
	}
	return records, nil
}

// RecordingSource passes fetches through to inner and writes every
// successful response to dir in the FixtureSource layout.
type RecordingSource struct {
	inner domain.RecordSource
	dir   string
}

// NewRecordingSource wraps inner, recording into dir.
func NewRecordingSource(inner domain.RecordSource, dir string) *RecordingSource {
	return &RecordingSource{inner: inner, dir: dir}
}

// Fetch implements domain.RecordSource. A failure to write the fixture is
// returned as-is, not as a transport failure.
func (s *RecordingSource) Fetch(ctx context.Context, year int, countryCode string) ([]domain.Record, error) {
	records, err := s.inner.Fetch(ctx, year, countryCode)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal fixture: %w", err)
	}
	path := filepath.Join(s.dir, FixtureName(countryCode, year))
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return nil, fmt.Errorf("write fixture %s: %w", path, err)
	}
	return records, nil
}

// ParseFixtureName is the inverse of FixtureName. Country codes come back upper-case
// except the wildcard.
func ParseFixtureName(name string) (countryCode string, year int, ok bool) {
	rest, found := strings.CutPrefix(name, "psd_")
	if !found {
		return "", 0, false
	}
	rest, found = strings.CutSuffix(rest, ".json")
	if !found {
		return "", 0, false
	}
	i := strings.LastIndexByte(rest, '_')
	if i <= 0 {
		return "", 0, false
	}
	year, err := strconv.Atoi(rest[i+1:])
	if err != nil {
		return "", 0, false
	}
	countryCode = rest[:i]
	if countryCode != domain.WildcardCountry {
		countryCode = strings.ToUpper(countryCode)
	}
	return countryCode, year, true
}
