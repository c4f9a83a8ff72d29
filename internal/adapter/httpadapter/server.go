// Package httpadapter serves the trend API.
//
//	@title			Coffee PSD Trend API
//	@version		1.0
//	@description	Yearly USDA PSD coffee totals, linear trends and forecasts.
//	@BasePath		/api/v1
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/couchcryptid/coffee-trend-service/docs" // registers the API description
	"github.com/couchcryptid/coffee-trend-service/internal/pipeline"
)

// Analyzer is the query surface the API routes delegate to.
type Analyzer interface {
	Trend(ctx context.Context, q pipeline.TrendQuery) (pipeline.Analysis, error)
	Snapshot(ctx context.Context, q pipeline.SnapshotQuery) (pipeline.Snapshot, error)
	Attributes(ctx context.Context, country string, year int) (pipeline.AttributeListing, error)
}

// Server exposes the trend API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, the
// /api/v1 routes and their Swagger UI under /swagger/.
func NewServer(addr string, ready sharedobs.ReadinessChecker, analyzer Analyzer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A trend request fetches one PSD response per year in the range.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/countries", s.handleCountries)
	mux.HandleFunc("GET /api/v1/attributes", s.handleAttributes)
	mux.HandleFunc("GET /api/v1/trend", s.handleTrend)
	mux.HandleFunc("GET /api/v1/trend/chart.png", s.handleTrendChart)
	mux.HandleFunc("GET /api/v1/trend/forecast.png", s.handleForecastChart)
	mux.HandleFunc("GET /api/v1/trend/export.xlsx", s.handleExport)
	mux.HandleFunc("GET /api/v1/snapshot", s.handleSnapshot)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
