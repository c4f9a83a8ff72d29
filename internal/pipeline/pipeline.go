package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/coffee-trend-service/internal/domain"
	"github.com/couchcryptid/coffee-trend-service/internal/observability"
)

// Publisher delivers completed trend analyses downstream.
type Publisher interface {
	Publish(ctx context.Context, analysis Analysis) error
}

// Analyzer runs the fetch-aggregate-fit-forecast chain for a query.
type Analyzer struct {
	source        domain.RecordSource
	publisher     Publisher
	logger        *slog.Logger
	metrics       *observability.Metrics
	referenceYear int
	upstreamDown  atomic.Bool
}

// New creates an Analyzer. Pass a nil publisher to disable publishing.
// referenceYear is the market year used for attribute discovery when the
// caller does not pick one.
func New(source domain.RecordSource, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, referenceYear int) *Analyzer {
	return &Analyzer{
		source:        source,
		publisher:     publisher,
		logger:        logger,
		metrics:       metrics,
		referenceYear: referenceYear,
	}
}

// CheckReadiness returns an error while the most recent PSD request failed.
func (a *Analyzer) CheckReadiness(_ context.Context) error {
	if a.upstreamDown.Load() {
		return errors.New("psd API unavailable on last request")
	}
	return nil
}

// Trend fetches every year of the query's range in order, aggregates the
// selected attribute per year, and fits and extrapolates a trend line.
//
// Years that fail to load become diagnostics. No matching records yields
// WarningEmptyResult; fewer than two years yields WarningInsufficientData.
// Both return a nil error with the trend omitted. Only invalid queries and
// context cancellation are reported as errors.
func (a *Analyzer) Trend(ctx context.Context, q TrendQuery) (Analysis, error) {
	start := time.Now()
	if q.Horizon == 0 {
		q.Horizon = DefaultHorizon
	}
	if err := q.Validate(); err != nil {
		a.metrics.Analyses.WithLabelValues("trend", "invalid").Inc()
		return Analysis{}, err
	}

	records, diags, err := a.collect(ctx, q.Country, q.AttributeID, q.FromYear, q.ToYear)
	if err != nil {
		a.metrics.Analyses.WithLabelValues("trend", "cancelled").Inc()
		return Analysis{}, err
	}
	a.metrics.YearsFetched.Observe(float64(q.ToYear - q.FromYear + 1))

	analysis := Analysis{
		ID:             uuid.NewString(),
		GeneratedAt:    domain.Now(),
		Query:          q,
		CountryName:    domain.CountryName(q.Country),
		AttributeLabel: domain.AttributeLabel(q.AttributeID),
		Unit:           domain.Unit,
		Series:         domain.GroupedSeries{},
		Records:        records,
		Diagnostics:    diags,
	}
	defer func() {
		a.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	if len(records) == 0 {
		analysis.Warnings = append(analysis.Warnings, WarningEmptyResult)
		a.metrics.Analyses.WithLabelValues("trend", string(WarningEmptyResult)).Inc()
		a.logger.Info("trend analysis found no data",
			"country", q.Country, "attribute", q.AttributeID, "from", q.FromYear, "to", q.ToYear)
		return analysis, nil
	}

	analysis.Series = domain.Aggregate(records, q.AttributeID)

	model, err := domain.Fit(analysis.Series)
	if errors.Is(err, domain.ErrInsufficientData) {
		analysis.Warnings = append(analysis.Warnings, WarningInsufficientData)
		a.metrics.Analyses.WithLabelValues("trend", string(WarningInsufficientData)).Inc()
		return analysis, nil
	}
	if err != nil {
		return Analysis{}, fmt.Errorf("fit trend: %w", err)
	}

	last, _ := analysis.Series.Last()
	analysis.Model = &model
	analysis.Equation = model.Equation()
	analysis.Fitted = model.Fitted(analysis.Series)
	analysis.Forecast = domain.Forecast(model, last.Year, q.Horizon)
	a.metrics.Analyses.WithLabelValues("trend", "ok").Inc()

	a.publish(ctx, analysis)
	return analysis, nil
}

// Snapshot returns the total and matching records for a single market year.
func (a *Analyzer) Snapshot(ctx context.Context, q SnapshotQuery) (Snapshot, error) {
	if err := domain.ValidateFetch(q.Year, q.Country); err != nil {
		a.metrics.Analyses.WithLabelValues("snapshot", "invalid").Inc()
		return Snapshot{}, err
	}
	if q.AttributeID <= 0 {
		a.metrics.Analyses.WithLabelValues("snapshot", "invalid").Inc()
		return Snapshot{}, fmt.Errorf("%w: attribute id %d", domain.ErrInvalidQuery, q.AttributeID)
	}

	records, diags, err := a.collect(ctx, q.Country, q.AttributeID, q.Year, q.Year)
	if err != nil {
		a.metrics.Analyses.WithLabelValues("snapshot", "cancelled").Inc()
		return Snapshot{}, err
	}

	snap := Snapshot{
		Query:          q,
		CountryName:    domain.CountryName(q.Country),
		AttributeLabel: domain.AttributeLabel(q.AttributeID),
		Unit:           domain.Unit,
		Total:          domain.SumValues(records),
		RecordCount:    len(records),
		Records:        records,
		Diagnostics:    diags,
	}
	if len(records) == 0 {
		snap.Warnings = append(snap.Warnings, WarningEmptyResult)
		a.metrics.Analyses.WithLabelValues("snapshot", string(WarningEmptyResult)).Inc()
		return snap, nil
	}
	a.metrics.Analyses.WithLabelValues("snapshot", "ok").Inc()
	return snap, nil
}

// Attributes lists the attribute ids reported for country in year, labelled
// from the catalog. A zero year selects the reference year. A failed fetch
// yields an empty list with a diagnostic.
func (a *Analyzer) Attributes(ctx context.Context, country string, year int) (AttributeListing, error) {
	if year == 0 {
		year = a.referenceYear
	}
	if err := domain.ValidateFetch(year, country); err != nil {
		return AttributeListing{}, err
	}

	listing := AttributeListing{Country: country, Year: year, Attributes: []AttributeOption{}}

	records, err := a.fetch(ctx, year, country)
	if err != nil {
		if ctx.Err() != nil || !errors.Is(err, domain.ErrTransportFailure) {
			return AttributeListing{}, err
		}
		listing.Diagnostics = append(listing.Diagnostics, diagnostic(year, country, err))
		return listing, nil
	}

	for _, id := range domain.Attributes(records) {
		listing.Attributes = append(listing.Attributes, AttributeOption{ID: id, Label: domain.AttributeLabel(id)})
	}
	return listing, nil
}

// collect fetches each year in [from, to] sequentially and keeps the records
// matching attributeID. Transport failures are turned into diagnostics; the
// loop stops issuing requests as soon as ctx is done.
func (a *Analyzer) collect(ctx context.Context, country string, attributeID, from, to int) ([]domain.Record, []Diagnostic, error) {
	records := make([]domain.Record, 0)
	var diags []Diagnostic

	for year := from; year <= to; year++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		fetched, err := a.fetch(ctx, year, country)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			if !errors.Is(err, domain.ErrTransportFailure) {
				return nil, nil, err
			}
			diags = append(diags, diagnostic(year, country, err))
			continue
		}
		records = append(records, domain.FilterByAttribute(fetched, attributeID)...)
	}
	return records, diags, nil
}

func (a *Analyzer) fetch(ctx context.Context, year int, country string) ([]domain.Record, error) {
	records, err := a.source.Fetch(ctx, year, country)
	if err != nil {
		// The caller going away says nothing about the upstream.
		if ctx.Err() != nil {
			return nil, err
		}
		if errors.Is(err, domain.ErrTransportFailure) {
			a.upstreamDown.Store(true)
			a.logger.Warn("no data for market year", "year", year, "country", country, "error", err)
		}
		return nil, err
	}
	a.upstreamDown.Store(false)
	return records, nil
}

// publish hands the analysis to the publisher. Failures are logged and counted only.
func (a *Analyzer) publish(ctx context.Context, analysis Analysis) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ctx, analysis); err != nil {
		a.metrics.PublishErrors.Inc()
		a.logger.Warn("publish analysis failed", "analysis_id", analysis.ID, "error", err)
		return
	}
	a.metrics.AnalysesPublished.Inc()
}

func diagnostic(year int, country string, err error) Diagnostic {
	return Diagnostic{
		Year:    year,
		Country: country,
		Message: err.Error(),
	}
}
