package pipeline

import (
	"fmt"
	"time"

	"github.com/couchcryptid/coffee-trend-service/internal/domain"
)

// Forecast horizon bounds, in years.
const (
	MinHorizon     = 1
	MaxHorizon     = 5
	DefaultHorizon = 3
)

// Warning flags a degraded but non-fatal analysis outcome.
type Warning string

const (
	// WarningEmptyResult means no record matched the filters across the range.
	WarningEmptyResult Warning = "empty_result"
	// WarningInsufficientData means fewer than two years were available to fit.
	WarningInsufficientData Warning = "insufficient_data"
)

// TrendQuery selects the data for a trend analysis.
type TrendQuery struct {
	Country     string `json:"country"`
	AttributeID int    `json:"attribute_id"`
	FromYear    int    `json:"from_year"`
	ToYear      int    `json:"to_year"`
	Horizon     int    `json:"horizon"`
}

// Validate checks the query against the supported years, countries and horizons.
func (q TrendQuery) Validate() error {
	if err := domain.ValidateFetch(q.FromYear, q.Country); err != nil {
		return err
	}
	if err := domain.ValidateYear(q.ToYear); err != nil {
		return err
	}
	if q.FromYear > q.ToYear {
		return fmt.Errorf("%w: from year %d after to year %d", domain.ErrInvalidQuery, q.FromYear, q.ToYear)
	}
	if q.AttributeID <= 0 {
		return fmt.Errorf("%w: attribute id %d", domain.ErrInvalidQuery, q.AttributeID)
	}
	if q.Horizon < MinHorizon || q.Horizon > MaxHorizon {
		return fmt.Errorf("%w: horizon %d outside %d-%d", domain.ErrInvalidQuery, q.Horizon, MinHorizon, MaxHorizon)
	}
	return nil
}

// Diagnostic reports a market year whose data could not be retrieved.
type Diagnostic struct {
	Year    int    `json:"year"`
	Country string `json:"country"`
	Message string `json:"message"`
}

// Analysis is the full result of a trend query.
type Analysis struct {
	ID             string     `json:"id"`
	GeneratedAt    time.Time  `json:"generated_at"`
	Query          TrendQuery `json:"query"`
	CountryName    string     `json:"country_name"`
	AttributeLabel string     `json:"attribute_label"`
	Unit           string     `json:"unit"`

	Series   domain.GroupedSeries `json:"series"`
	Model    *domain.TrendModel   `json:"model,omitempty"`
	Equation string               `json:"equation,omitempty"`
	Fitted   []domain.Prediction  `json:"fitted,omitempty"`
	Forecast []domain.Prediction  `json:"forecast,omitempty"`

	Records     []domain.Record `json:"records"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
	Warnings    []Warning       `json:"warnings,omitempty"`
}

// HasTrend reports whether a model was fitted.
func (a Analysis) HasTrend() bool {
	return a.Model != nil
}

// Title renders "Trend - <attribute> (<country>)".
func (a Analysis) Title() string {
	return fmt.Sprintf("Trend - %s (%s)", a.AttributeLabel, a.CountryName)
}

// SnapshotQuery selects one market year.
type SnapshotQuery struct {
	Year        int    `json:"year"`
	Country     string `json:"country"`
	AttributeID int    `json:"attribute_id"`
}

// Snapshot is the single-year view: total and matching records.
type Snapshot struct {
	Query          SnapshotQuery   `json:"query"`
	CountryName    string          `json:"country_name"`
	AttributeLabel string          `json:"attribute_label"`
	Unit           string          `json:"unit"`
	Total          float64         `json:"total"`
	RecordCount    int             `json:"record_count"`
	Records        []domain.Record `json:"records"`
	Diagnostics    []Diagnostic    `json:"diagnostics,omitempty"`
	Warnings       []Warning       `json:"warnings,omitempty"`
}

// AttributeOption is a selectable attribute with its display label.
type AttributeOption struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// AttributeListing lists the attributes reported for a country in a year.
type AttributeListing struct {
	Country     string            `json:"country"`
	Year        int               `json:"year"`
	Attributes  []AttributeOption `json:"attributes"`
	Diagnostics []Diagnostic      `json:"diagnostics,omitempty"`
}
