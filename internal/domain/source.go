package domain

import (
	"context"
	"fmt"
)

// MinMarketYear is the first market year published in the PSD coffee dataset.
const MinMarketYear = 1960

// RecordSource retrieves the PSD records for one market year and country.
// Implementations return a *TransportError for network-level failures so
// callers can degrade to "no data" for that year.
type RecordSource interface {
	Fetch(ctx context.Context, year int, countryCode string) ([]Record, error)
}

// MaxMarketYear is the latest market year accepted: PSD publishes
// projections for the year after the current one.
func MaxMarketYear() int {
	return Now().Year() + 1
}

// ValidateYear checks that year lies in the supported historical range.
func ValidateYear(year int) error {
	if year < MinMarketYear || year > MaxMarketYear() {
		return fmt.Errorf("%w: market year %d outside %d-%d", ErrInvalidQuery, year, MinMarketYear, MaxMarketYear())
	}
	return nil
}

// ValidateFetch checks the arguments of a RecordSource.Fetch call.
func ValidateFetch(year int, countryCode string) error {
	if err := ValidateYear(year); err != nil {
		return err
	}
	if !KnownCountry(countryCode) {
		return fmt.Errorf("%w: unknown country code %q", ErrInvalidQuery, countryCode)
	}
	return nil
}
