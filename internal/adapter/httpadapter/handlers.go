package httpadapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"gonum.org/v1/plot"

	"github.com/couchcryptid/coffee-trend-service/internal/domain"
	"github.com/couchcryptid/coffee-trend-service/internal/pipeline"
	"github.com/couchcryptid/coffee-trend-service/internal/report"
)

// Query defaults applied when a parameter is omitted.
const (
	DefaultFromYear = 2014
	DefaultToYear   = 2024
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleCountries lists the country catalog.
// @Summary List countries
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.Country
// @Router /countries [get]
func (s *Server) handleCountries(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, domain.Countries())
}

// handleAttributes lists the attributes reported for a country.
// @Summary List attributes
// @Tags catalog
// @Produce json
// @Param country query string false "PSD country code or all" default(all)
// @Param year query int false "Market year, defaults to the reference year"
// @Success 200 {object} pipeline.AttributeListing
// @Failure 400 {object} errorResponse
// @Router /attributes [get]
func (s *Server) handleAttributes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := intParam(q, "year", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	listing, err := s.analyzer.Attributes(r.Context(), countryParam(q), year)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, listing)
}

// handleTrend runs a trend analysis.
// @Summary Run a trend analysis
// @Tags trend
// @Produce json
// @Param country query string false "PSD country code or all" default(all)
// @Param attribute query int true "PSD attribute id"
// @Param from query int false "First market year" default(2014)
// @Param to query int false "Last market year" default(2024)
// @Param horizon query int false "Forecast horizon in years (1-5)" default(3)
// @Success 200 {object} pipeline.Analysis
// @Failure 400 {object} errorResponse
// @Router /trend [get]
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	analysis, ok := s.runTrend(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, analysis)
}

// @Summary Trend chart
// @Tags trend
// @Produce png
// @Param attribute query int true "PSD attribute id"
// @Success 200 {file} file
// @Failure 422 {object} errorResponse
// @Router /trend/chart.png [get]
func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, report.TrendChart)
}

// @Summary Forecast chart
// @Tags trend
// @Produce png
// @Param attribute query int true "PSD attribute id"
// @Success 200 {file} file
// @Failure 422 {object} errorResponse
// @Router /trend/forecast.png [get]
func (s *Server) handleForecastChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, report.ForecastChart)
}

func (s *Server) serveChart(w http.ResponseWriter, r *http.Request, build func(pipeline.Analysis) (*plot.Plot, error)) {
	analysis, ok := s.runTrend(w, r)
	if !ok {
		return
	}

	p, err := build(analysis)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteChart(&buf, p, "png"); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

// handleExport streams the analysis as an XLSX workbook.
// @Summary Export a trend analysis
// @Tags trend
// @Param attribute query int true "PSD attribute id"
// @Success 200 {file} file
// @Failure 400 {object} errorResponse
// @Router /trend/export.xlsx [get]
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	analysis, ok := s.runTrend(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, analysis); err != nil {
		s.writeError(w, err)
		return
	}
	filename := fmt.Sprintf("coffee-trend-%s-%d-%d-%d.xlsx",
		strings.ToLower(analysis.Query.Country), analysis.Query.AttributeID, analysis.Query.FromYear, analysis.Query.ToYear)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

// handleSnapshot returns the single-year view.
// @Summary Single-year snapshot
// @Tags trend
// @Produce json
// @Param year query int false "Market year" default(2024)
// @Param country query string false "PSD country code or all" default(all)
// @Param attribute query int true "PSD attribute id"
// @Success 200 {object} pipeline.Snapshot
// @Failure 400 {object} errorResponse
// @Router /snapshot [get]
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := intParam(q, "year", DefaultToYear)
	if err != nil {
		s.writeError(w, err)
		return
	}
	attr, err := attributeParam(q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap, err := s.analyzer.Snapshot(r.Context(), pipeline.SnapshotQuery{
		Year:        year,
		Country:     countryParam(q),
		AttributeID: attr,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}

// runTrend parses the trend query and runs it, writing the error response
// itself when it returns false.
func (s *Server) runTrend(w http.ResponseWriter, r *http.Request) (pipeline.Analysis, bool) {
	q, err := parseTrendQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return pipeline.Analysis{}, false
	}
	analysis, err := s.analyzer.Trend(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return pipeline.Analysis{}, false
	}
	return analysis, true
}

func parseTrendQuery(v url.Values) (pipeline.TrendQuery, error) {
	attr, err := attributeParam(v)
	if err != nil {
		return pipeline.TrendQuery{}, err
	}
	from, err := intParam(v, "from", DefaultFromYear)
	if err != nil {
		return pipeline.TrendQuery{}, err
	}
	to, err := intParam(v, "to", DefaultToYear)
	if err != nil {
		return pipeline.TrendQuery{}, err
	}
	horizon, err := intParam(v, "horizon", pipeline.DefaultHorizon)
	if err != nil {
		return pipeline.TrendQuery{}, err
	}
	return pipeline.TrendQuery{
		Country:     countryParam(v),
		AttributeID: attr,
		FromYear:    from,
		ToYear:      to,
		Horizon:     horizon,
	}, nil
}

func countryParam(v url.Values) string {
	c := strings.TrimSpace(v.Get("country"))
	if c == "" || strings.EqualFold(c, domain.WildcardCountry) {
		return domain.WildcardCountry
	}
	return strings.ToUpper(c)
}

func attributeParam(v url.Values) (int, error) {
	if v.Get("attribute") == "" {
		return 0, fmt.Errorf("%w: attribute is required", domain.ErrInvalidQuery)
	}
	return intParam(v, "attribute", 0)
}

func intParam(v url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(v.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", domain.ErrInvalidQuery, name, raw)
	}
	return n, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		status = http.StatusBadRequest
	case errors.Is(err, report.ErrNoData):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("api request failed", "error", err, "status", status)
	}
	sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error()})
}
