package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coffee-trend-service/internal/adapter/psd"
	"github.com/couchcryptid/coffee-trend-service/internal/domain"
	"github.com/couchcryptid/coffee-trend-service/internal/observability"
	"github.com/couchcryptid/coffee-trend-service/internal/pipeline"
)

const (
	attrProduction = 28
	attrExports    = 88
)

// --- mocks ---

type fakeSource struct {
	mu      sync.Mutex
	data    map[int][]domain.Record // by market year
	fail    map[int]bool
	calls   []int
	onFetch func(year int)
}

func (f *fakeSource) Fetch(_ context.Context, year int, country string) ([]domain.Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, year)
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(year)
	}
	if f.fail[year] {
		return nil, &domain.TransportError{Year: year, Country: country, Err: errors.New("status 503")}
	}
	return f.data[year], nil
}

func (f *fakeSource) fetchedYears() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

type mockPublisher struct {
	published []pipeline.Analysis
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, a pipeline.Analysis) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, a)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAnalyzer(src domain.RecordSource, pub pipeline.Publisher) *pipeline.Analyzer {
	return pipeline.New(src, pub, discardLogger(), observability.NewMetricsForTesting(), 2024)
}

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

// linearSource returns production = 100 + 10*(year-2018) split across two
// records, plus one unrelated exports record per year.
func linearSource(from, to int) *fakeSource {
	src := &fakeSource{data: map[int][]domain.Record{}, fail: map[int]bool{}}
	for y := from; y <= to; y++ {
		total := 100 + 10*float64(y-2018)
		src.data[y] = []domain.Record{
			{CountryCode: "BR", MarketYear: y, AttributeID: attrProduction, Value: total - 5},
			{CountryCode: "BR", MarketYear: y, AttributeID: attrProduction, Value: 5},
			{CountryCode: "BR", MarketYear: y, AttributeID: attrExports, Value: 1_000},
		}
	}
	return src
}

func trendQuery(from, to int) pipeline.TrendQuery {
	return pipeline.TrendQuery{Country: "BR", AttributeID: attrProduction, FromYear: from, ToYear: to, Horizon: 3}
}

// --- tests ---

func TestAnalyzer_Trend_HappyPath(t *testing.T) {
	freezeClock(t)
	src := linearSource(2018, 2021)
	pub := &mockPublisher{}
	a := newAnalyzer(src, pub)

	got, err := a.Trend(context.Background(), trendQuery(2018, 2021))
	require.NoError(t, err)

	assert.Equal(t, []int{2018, 2019, 2020, 2021}, src.fetchedYears(), "years fetched in order")
	assert.Equal(t, domain.GroupedSeries{
		{Year: 2018, Total: 100}, {Year: 2019, Total: 110}, {Year: 2020, Total: 120}, {Year: 2021, Total: 130},
	}, got.Series)
	require.True(t, got.HasTrend())
	assert.InDelta(t, 10.0, got.Model.Slope, 1e-9)
	assert.InDelta(t, -20080.0, got.Model.Intercept, 1e-6)
	assert.InDelta(t, 1.0, got.Model.R2, 1e-9)
	assert.Equal(t, "y = 10.00x + -20080.00", got.Equation)

	require.Len(t, got.Forecast, 3)
	assert.Equal(t, 2022, got.Forecast[0].Year)
	assert.InDelta(t, 140.0, got.Forecast[0].Value, 1e-6)
	assert.Equal(t, 2024, got.Forecast[2].Year)
	require.Len(t, got.Fitted, 4)

	assert.Len(t, got.Records, 8, "only records of the selected attribute")
	assert.Empty(t, got.Warnings)
	assert.Empty(t, got.Diagnostics)
	assert.Equal(t, "Brazil", got.CountryName)
	assert.Equal(t, "Production", got.AttributeLabel)
	assert.Equal(t, "Trend - Production (Brazil)", got.Title())
	assert.Equal(t, domain.Unit, got.Unit)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC), got.GeneratedAt)

	require.Len(t, pub.published, 1)
	assert.Equal(t, got.ID, pub.published[0].ID)
}

func TestAnalyzer_Trend_DefaultHorizon(t *testing.T) {
	freezeClock(t)
	q := trendQuery(2018, 2020)
	q.Horizon = 0

	got, err := newAnalyzer(linearSource(2018, 2020), nil).Trend(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, pipeline.DefaultHorizon, got.Query.Horizon)
	assert.Len(t, got.Forecast, pipeline.DefaultHorizon)
}

func TestAnalyzer_Trend_ForecastFollowsLastObservedYear(t *testing.T) {
	freezeClock(t)
	src := linearSource(2018, 2020)
	q := trendQuery(2018, 2023) // 2021-2023 have no data

	got, err := newAnalyzer(src, nil).Trend(context.Background(), q)
	require.NoError(t, err)

	require.Len(t, got.Forecast, 3)
	assert.Equal(t, []int{2021, 2022, 2023}, []int{got.Forecast[0].Year, got.Forecast[1].Year, got.Forecast[2].Year})
}

func TestAnalyzer_Trend_TransportFailuresBecomeDiagnostics(t *testing.T) {
	freezeClock(t)
	src := linearSource(2018, 2021)
	src.fail[2019] = true
	a := newAnalyzer(src, nil)

	got, err := a.Trend(context.Background(), trendQuery(2018, 2021))
	require.NoError(t, err)

	assert.Equal(t, []int{2018, 2019, 2020, 2021}, src.fetchedYears())
	assert.Equal(t, []int{2018, 2020, 2021}, got.Series.Years())
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, 2019, got.Diagnostics[0].Year)
	assert.Equal(t, "BR", got.Diagnostics[0].Country)
	assert.Contains(t, got.Diagnostics[0].Message, "503")
	assert.True(t, got.HasTrend())
}

func TestAnalyzer_Trend_EmptyResult(t *testing.T) {
	freezeClock(t)
	src := linearSource(2018, 2021)
	q := trendQuery(2018, 2021)
	q.AttributeID = 176

	pub := &mockPublisher{}
	got, err := newAnalyzer(src, pub).Trend(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, []pipeline.Warning{pipeline.WarningEmptyResult}, got.Warnings)
	assert.Empty(t, got.Series)
	assert.Empty(t, got.Records)
	assert.False(t, got.HasTrend())
	assert.Empty(t, got.Forecast)
	assert.Empty(t, pub.published)
}

func TestAnalyzer_Trend_AllYearsFail(t *testing.T) {
	freezeClock(t)
	src := &fakeSource{fail: map[int]bool{2020: true, 2021: true}}
	a := newAnalyzer(src, nil)

	got, err := a.Trend(context.Background(), trendQuery(2020, 2021))
	require.NoError(t, err)

	assert.Len(t, got.Diagnostics, 2)
	assert.Equal(t, []pipeline.Warning{pipeline.WarningEmptyResult}, got.Warnings)
	assert.Error(t, a.CheckReadiness(context.Background()))
}

func TestAnalyzer_Trend_InsufficientData(t *testing.T) {
	freezeClock(t)
	src := linearSource(2020, 2020)

	got, err := newAnalyzer(src, nil).Trend(context.Background(), trendQuery(2020, 2020))
	require.NoError(t, err)

	assert.Equal(t, []pipeline.Warning{pipeline.WarningInsufficientData}, got.Warnings)
	assert.Equal(t, domain.GroupedSeries{{Year: 2020, Total: 120}}, got.Series)
	assert.False(t, got.HasTrend())
	assert.Nil(t, got.Model)
	assert.Empty(t, got.Forecast)
	assert.Empty(t, got.Equation)
}

func TestAnalyzer_Trend_InvalidQueries(t *testing.T) {
	freezeClock(t)
	cases := map[string]pipeline.TrendQuery{
		"unknown country":  {Country: "XX", AttributeID: attrProduction, FromYear: 2018, ToYear: 2020, Horizon: 3},
		"reversed range":   {Country: "BR", AttributeID: attrProduction, FromYear: 2021, ToYear: 2018, Horizon: 3},
		"year too early":   {Country: "BR", AttributeID: attrProduction, FromYear: 1900, ToYear: 2018, Horizon: 3},
		"year too late":    {Country: "BR", AttributeID: attrProduction, FromYear: 2018, ToYear: 2040, Horizon: 3},
		"horizon too long": {Country: "BR", AttributeID: attrProduction, FromYear: 2018, ToYear: 2020, Horizon: 6},
		"negative horizon": {Country: "BR", AttributeID: attrProduction, FromYear: 2018, ToYear: 2020, Horizon: -1},
		"missing attr":     {Country: "BR", FromYear: 2018, ToYear: 2020, Horizon: 3},
	}

	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			src := linearSource(2018, 2021)
			_, err := newAnalyzer(src, nil).Trend(context.Background(), q)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
			assert.Empty(t, src.fetchedYears())
		})
	}
}

func TestAnalyzer_Trend_CancellationStopsFetching(t *testing.T) {
	freezeClock(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := linearSource(2010, 2020)
	src.onFetch = func(year int) {
		if year == 2012 {
			cancel()
		}
	}

	_, err := newAnalyzer(src, nil).Trend(ctx, trendQuery(2010, 2020))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []int{2010, 2011, 2012}, src.fetchedYears())
}

func TestAnalyzer_Trend_PublishErrorIsNotFatal(t *testing.T) {
	freezeClock(t)
	pub := &mockPublisher{err: errors.New("broker unavailable")}
	metrics := observability.NewMetricsForTesting()
	a := pipeline.New(linearSource(2018, 2020), pub, discardLogger(), metrics, 2024)

	got, err := a.Trend(context.Background(), trendQuery(2018, 2020))
	require.NoError(t, err)
	assert.True(t, got.HasTrend())
}

func TestAnalyzer_Trend_Idempotent(t *testing.T) {
	freezeClock(t)
	a := newAnalyzer(linearSource(2014, 2024), nil)
	q := trendQuery(2014, 2024)
	q.Horizon = 5

	first, err := a.Trend(context.Background(), q)
	require.NoError(t, err)
	second, err := a.Trend(context.Background(), q)
	require.NoError(t, err)

	type outputs struct {
		Series   domain.GroupedSeries
		Model    domain.TrendModel
		Forecast []domain.Prediction
	}
	want := outputs{first.Series, *first.Model, first.Forecast}
	got := outputs{second.Series, *second.Model, second.Forecast}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("repeated analysis differs (-first +second):\n%s", diff)
	}
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAnalyzer_Snapshot(t *testing.T) {
	freezeClock(t)
	a := newAnalyzer(linearSource(2018, 2024), nil)

	snap, err := a.Snapshot(context.Background(), pipeline.SnapshotQuery{Year: 2024, Country: "BR", AttributeID: attrProduction})
	require.NoError(t, err)

	assert.Equal(t, 160.0, snap.Total)
	assert.Equal(t, 2, snap.RecordCount)
	assert.Len(t, snap.Records, 2)
	assert.Empty(t, snap.Warnings)
	assert.Equal(t, "Production", snap.AttributeLabel)
}

func TestAnalyzer_Snapshot_FailureAndInvalid(t *testing.T) {
	freezeClock(t)
	src := &fakeSource{fail: map[int]bool{2024: true}}
	a := newAnalyzer(src, nil)

	snap, err := a.Snapshot(context.Background(), pipeline.SnapshotQuery{Year: 2024, Country: "BR", AttributeID: attrProduction})
	require.NoError(t, err)
	assert.Zero(t, snap.Total)
	assert.Len(t, snap.Diagnostics, 1)
	assert.Equal(t, []pipeline.Warning{pipeline.WarningEmptyResult}, snap.Warnings)

	_, err = a.Snapshot(context.Background(), pipeline.SnapshotQuery{Year: 2024, Country: "BR"})
	assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
}

func TestAnalyzer_Attributes(t *testing.T) {
	freezeClock(t)
	src := &fakeSource{data: map[int][]domain.Record{
		2024: {
			{AttributeID: 176},
			{AttributeID: attrProduction},
			{AttributeID: 999},
			{AttributeID: attrProduction},
		},
	}}
	a := newAnalyzer(src, nil)

	listing, err := a.Attributes(context.Background(), domain.WildcardCountry, 0)
	require.NoError(t, err)

	assert.Equal(t, 2024, listing.Year, "defaults to the reference year")
	assert.Equal(t, []pipeline.AttributeOption{
		{ID: attrProduction, Label: "Production"},
		{ID: 176, Label: "Ending Stocks"},
		{ID: 999, Label: "Attribute 999"},
	}, listing.Attributes)
}

func TestAnalyzer_Attributes_FailureYieldsEmptyList(t *testing.T) {
	freezeClock(t)
	a := newAnalyzer(&fakeSource{fail: map[int]bool{2023: true}}, nil)

	listing, err := a.Attributes(context.Background(), "CO", 2023)
	require.NoError(t, err)
	assert.Empty(t, listing.Attributes)
	assert.NotNil(t, listing.Attributes)
	require.Len(t, listing.Diagnostics, 1)

	_, err = a.Attributes(context.Background(), "nope", 2023)
	assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
}

func TestAnalyzer_CheckReadiness_RecoversAfterSuccess(t *testing.T) {
	freezeClock(t)
	src := linearSource(2018, 2021)
	src.fail[2021] = true
	a := newAnalyzer(src, nil)

	require.NoError(t, a.CheckReadiness(context.Background()), "ready before any traffic")

	_, err := a.Trend(context.Background(), trendQuery(2018, 2021))
	require.NoError(t, err)
	assert.Error(t, a.CheckReadiness(context.Background()))

	_, err = a.Trend(context.Background(), trendQuery(2018, 2020))
	require.NoError(t, err)
	assert.NoError(t, a.CheckReadiness(context.Background()))
}

func TestAnalyzer_CheckReadiness_CallerDeadlineIsNotAnOutage(t *testing.T) {
	freezeClock(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	client := psd.NewClient(srv.URL, "test-key", domain.CommodityCoffee, 5*time.Second, metrics, discardLogger())

	sources := map[string]domain.RecordSource{
		"client": client,
		"cached": psd.NewCachedSource(client, 10, 0, nil, metrics),
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			a := pipeline.New(src, nil, discardLogger(), metrics, 2024)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err := a.Trend(ctx, trendQuery(2018, 2020))
			require.Error(t, err)
			assert.True(t, errors.Is(err, context.DeadlineExceeded))
			assert.NoError(t, a.CheckReadiness(context.Background()))
		})
	}
}

func ExampleAnalyzer_Trend() {
	src := linearSource(2018, 2021)
	a := newAnalyzer(src, nil)

	analysis, err := a.Trend(context.Background(), pipeline.TrendQuery{
		Country: "BR", AttributeID: attrProduction, FromYear: 2018, ToYear: 2021, Horizon: 2,
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(analysis.Equation)
	for _, p := range analysis.Forecast {
		fmt.Printf("%d %.0f\n", p.Year, p.Value)
	}
	// Output:
	// y = 10.00x + -20080.00
	// 2022 140
	// 2023 150
}
