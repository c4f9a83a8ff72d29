package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportFailure marks a network error, timeout, non-200 status or
	// undecodable body from the PSD API. It is recovered as "no data".
	ErrTransportFailure = errors.New("psd transport failure")

	// ErrInsufficientData is returned by Fit for series with fewer than two years.
	ErrInsufficientData = errors.New("insufficient data for trend analysis")

	// ErrEmptyResult means no record matched the selected filters.
	ErrEmptyResult = errors.New("no data found for the selected filters")

	// ErrInvalidQuery is returned for out-of-range years, unknown countries
	// and other caller mistakes.
	ErrInvalidQuery = errors.New("invalid query")
)

// TransportError describes a failed fetch for one (year, country) pair.
// It matches both ErrTransportFailure and the underlying cause.
type TransportError struct {
	Year    int
	Country string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s/%d: %v", e.Country, e.Year, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransportFailure, e.Err}
}
