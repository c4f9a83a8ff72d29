// Command psdreport runs one coffee trend analysis and writes the charts,
// the XLSX workbook and the analysis JSON to a directory. It can read PSD
// responses from recorded fixtures instead of the live API, and can record
// live responses as fixtures for later offline runs.
//
// Usage:
//
//	go run ./cmd/psdreport -country BR -attribute 28 -from 2014 -to 2024 -out report/
//	go run ./cmd/psdreport -attribute 28 -record-dir testdata/psd -out report/
//	go run ./cmd/psdreport -attribute 28 -fixture-dir testdata/psd -out report/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/coffee-trend-service/internal/adapter/psd"
	"github.com/couchcryptid/coffee-trend-service/internal/config"
	"github.com/couchcryptid/coffee-trend-service/internal/domain"
	"github.com/couchcryptid/coffee-trend-service/internal/observability"
	"github.com/couchcryptid/coffee-trend-service/internal/pipeline"
	"github.com/couchcryptid/coffee-trend-service/internal/report"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	country := flag.String("country", domain.WildcardCountry, "PSD country code, or \"all\"")
	attribute := flag.Int("attribute", 0, "PSD attribute id (e.g. 28 for Production)")
	from := flag.Int("from", 2014, "first market year")
	to := flag.Int("to", 2024, "last market year")
	horizon := flag.Int("horizon", pipeline.DefaultHorizon, "forecast horizon in years (1-5)")
	outDir := flag.String("out", "", "output directory for the report files")
	fixtureDir := flag.String("fixture-dir", "", "read PSD responses from recorded fixtures instead of the API")
	recordDir := flag.String("record-dir", "", "record live PSD responses as fixtures into this directory")
	flag.Parse()

	if *attribute == 0 || *outDir == "" {
		flag.Usage()
		return errors.New("missing required flags: -attribute, -out")
	}
	if *fixtureDir != "" && *recordDir != "" {
		return errors.New("-fixture-dir and -record-dir are mutually exclusive")
	}

	source, cfg, err := buildSource(*fixtureDir, *recordDir)
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	if cfg.PSDAPIKey != "" {
		client := psd.NewClient(cfg.PSDBaseURL, cfg.PSDAPIKey, cfg.PSDCommodityCode, cfg.PSDTimeout, metrics, logger)
		source = psd.NewCachedSource(client, cfg.PSDCacheSize, cfg.PSDCacheTTL, clockwork.NewRealClock(), metrics)
		if *recordDir != "" {
			source = psd.NewRecordingSource(source, *recordDir)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer := pipeline.New(source, nil, logger, metrics, cfg.PSDReferenceYear)
	analysis, err := analyzer.Trend(ctx, pipeline.TrendQuery{
		Country:     *country,
		AttributeID: *attribute,
		FromYear:    *from,
		ToYear:      *to,
		Horizon:     *horizon,
	})
	if err != nil {
		return fmt.Errorf("trend analysis: %w", err)
	}
	for _, d := range analysis.Diagnostics {
		log.Printf("warning: %d/%s: %s", d.Year, d.Country, d.Message)
	}
	for _, w := range analysis.Warnings {
		log.Printf("warning: %s", w)
	}

	if err := os.MkdirAll(*outDir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return writeReport(*outDir, analysis)
}

// buildSource returns the fixture-backed source in offline mode. In live mode
// it returns a nil source and the loaded config; the caller builds the client.
func buildSource(fixtureDir, recordDir string) (domain.RecordSource, *config.Config, error) {
	if fixtureDir != "" {
		cfg := &config.Config{LogLevel: "info", LogFormat: "text", PSDReferenceYear: 2024}
		return psd.NewFixtureSource(fixtureDir), cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if recordDir != "" {
		if err := os.MkdirAll(recordDir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create record dir: %w", err)
		}
	}
	return nil, cfg, nil
}

func writeReport(dir string, a pipeline.Analysis) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "analysis.json"), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}

	if err := writeFile(filepath.Join(dir, "trend.xlsx"), func(f *os.File) error {
		return report.WriteWorkbook(f, a)
	}); err != nil {
		return err
	}

	trend, err := report.TrendChart(a)
	switch {
	case errors.Is(err, report.ErrNoData):
		log.Printf("no data to chart")
		return nil
	case err != nil:
		return err
	}
	if err := writeFile(filepath.Join(dir, "trend.png"), func(f *os.File) error {
		return report.WriteChart(f, trend, "png")
	}); err != nil {
		return err
	}

	forecast, err := report.ForecastChart(a)
	if errors.Is(err, report.ErrNoData) {
		log.Printf("no trend fitted, skipping forecast chart")
		return nil
	}
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "forecast.png"), func(f *os.File) error {
		return report.WriteChart(f, forecast, "png")
	}); err != nil {
		return err
	}

	if a.HasTrend() {
		log.Printf("%s: %s (R² %.2f%%)", a.Title(), a.Equation, a.Model.R2*100)
		for _, p := range a.Forecast {
			log.Printf("  %d: %.2f", p.Year, p.Value)
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path) //nolint:gosec // path built from the -out flag
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	log.Printf("wrote %s", path)
	return nil
}
