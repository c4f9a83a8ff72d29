// Command validate performs integrity checks on a directory of recorded PSD
// responses (as written by psdreport -record-dir): every file decodes, record
// fields agree with the file they were recorded under, and per-country
// responses are consistent with the "all" response for the same year.
//
// Usage:
//
//	go run ./cmd/validate -fixture-dir testdata/psd
//	go run ./cmd/validate -fixture-dir testdata/psd -commodity 0711100
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/coffee-trend-service/internal/adapter/psd"
	"github.com/couchcryptid/coffee-trend-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// fixture is one recorded response and the key it was recorded under.
type fixture struct {
	file    string
	country string
	year    int
	records []domain.Record
}

func main() {
	fixtureDir := flag.String("fixture-dir", "", "directory containing recorded PSD responses")
	commodity := flag.String("commodity", domain.CommodityCoffee, "expected PSD commodity code")
	flag.Parse()

	if *fixtureDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*fixtureDir, *commodity); code != 0 {
		os.Exit(code)
	}
}

func run(dir, commodity string) int {
	fmt.Println("=== PSD Fixture Integrity Validation ===")
	fmt.Println()

	fixtures, decode, err := loadFixtures(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixtures: %v\n", err)
		return 1
	}
	if len(fixtures) == 0 && decode.passed() {
		fmt.Fprintf(os.Stderr, "FATAL: no fixtures in %s\n", dir)
		return 1
	}

	phases := []*phase{
		decode,
		validateFields(fixtures, commodity),
		validateWildcardConsistency(fixtures),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Fixtures: %d files, %d records\n", len(fixtures), countRecords(fixtures))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// loadFixtures decodes every psd_*.json file in dir. Decode failures are
// reported through the returned phase rather than aborting the run.
func loadFixtures(dir string) ([]fixture, *phase, error) {
	p := &phase{name: "Phase 1: Fixture decoding"}

	paths, err := filepath.Glob(filepath.Join(dir, "psd_*.json"))
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(paths)

	var fixtures []fixture //nolint:prealloc // decode failures are skipped
	for _, path := range paths {
		name := filepath.Base(path)
		country, year, ok := psd.ParseFixtureName(name)
		if !ok {
			p.errorf("%s: unrecognized file name", name)
			continue
		}
		body, err := os.ReadFile(path) //nolint:gosec // path from Glob over the -fixture-dir flag
		if err != nil {
			return nil, nil, err
		}
		records, err := domain.DecodeRecords(body)
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		fixtures = append(fixtures, fixture{file: name, country: country, year: year, records: records})
		fmt.Printf("%s: %d records\n", name, len(records))
	}
	return fixtures, p, nil
}

func countRecords(fixtures []fixture) int {
	n := 0
	for _, f := range fixtures {
		n += len(f.records)
	}
	return n
}

// ── Phase 2: record fields match the recording key ──

func validateFields(fixtures []fixture, commodity string) *phase {
	p := &phase{name: "Phase 2: Record fields"}
	for _, f := range fixtures {
		if err := domain.ValidateFetch(f.year, f.country); err != nil {
			p.errorf("%s: %v", f.file, err)
		}
		for i, r := range f.records {
			pf := func(format string, args ...any) {
				p.errorf("%s[%d]: %s", f.file, i, fmt.Sprintf(format, args...))
			}
			if r.CommodityCode != commodity {
				pf("commodityCode is %q (expected %q)", r.CommodityCode, commodity)
			}
			if r.MarketYear != f.year {
				pf("marketYear is %d (expected %d)", r.MarketYear, f.year)
			}
			if f.country != domain.WildcardCountry && r.CountryCode != f.country {
				pf("countryCode is %q (expected %q)", r.CountryCode, f.country)
			}
			if r.CountryCode == "" {
				pf("countryCode is empty")
			}
			if !domain.KnownAttribute(r.AttributeID) {
				pf("attributeId %d not in catalog", r.AttributeID)
			}
			if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
				pf("value is not finite")
			}
		}
	}
	return p
}

// ── Phase 3: per-country responses agree with the "all" response ──

type recordKey struct {
	country   string
	attribute int
}

func validateWildcardConsistency(fixtures []fixture) *phase {
	p := &phase{name: "Phase 3: Country vs. all-countries totals"}

	wildcard := make(map[int]map[recordKey]float64)
	for _, f := range fixtures {
		if f.country == domain.WildcardCountry {
			wildcard[f.year] = sumByKey(f.records)
		}
	}

	for _, f := range fixtures {
		if f.country == domain.WildcardCountry {
			continue
		}
		all, ok := wildcard[f.year]
		if !ok {
			continue
		}
		for key, total := range sumByKey(f.records) {
			want, ok := all[key]
			if !ok {
				p.errorf("%s: %s attribute %d missing from %s", f.file, key.country, key.attribute,
					psd.FixtureName(domain.WildcardCountry, f.year))
				continue
			}
			if !floatEq(total, want) {
				p.errorf("%s: %s attribute %d total %.2f, all-countries response has %.2f",
					f.file, key.country, key.attribute, total, want)
			}
		}
	}
	return p
}

func sumByKey(records []domain.Record) map[recordKey]float64 {
	out := make(map[recordKey]float64)
	for _, r := range records {
		out[recordKey{country: r.CountryCode, attribute: r.AttributeID}] += r.Value
	}
	return out
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
