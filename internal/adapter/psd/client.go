package psd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/coffee-trend-service/internal/domain"
	"github.com/couchcryptid/coffee-trend-service/internal/observability"
)

// maxBodyBytes caps how much of a response is read; an "all countries"
// year is well under 1 MiB.
const maxBodyBytes = 16 << 20

// Client implements domain.RecordSource using the USDA FAS PSD API.
type Client struct {
	apiKey        string
	commodityCode string
	httpClient    *http.Client
	baseURL       string
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewClient creates a PSD API client. Every request is bounded by timeout.
func NewClient(baseURL, apiKey, commodityCode string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:        apiKey,
		commodityCode: commodityCode,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch returns the records for one market year and country. Network errors,
// timeouts, non-200 statuses and malformed bodies come back as a
// *domain.TransportError; invalid arguments as domain.ErrInvalidQuery.
func (c *Client) Fetch(ctx context.Context, year int, countryCode string) ([]domain.Record, error) {
	if err := domain.ValidateFetch(year, countryCode); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/psd/commodity/%s/country/%s/year/%s",
		c.baseURL,
		url.PathEscape(c.commodityCode),
		url.PathEscape(countryCode),
		strconv.Itoa(year),
	)

	records, err := c.doRequest(ctx, u)
	if err != nil {
		c.logger.Warn("psd fetch failed", "year", year, "country", countryCode, "error", err)
		return nil, &domain.TransportError{Year: year, Country: countryCode, Err: err}
	}
	c.logger.Debug("psd fetch", "year", year, "country", countryCode, "records", len(records))
	return records, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.PSDAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.PSDRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("psd request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.PSDRequests.WithLabelValues("status").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("psd API error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.PSDRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	records, err := domain.DecodeRecords(body)
	if err != nil {
		c.metrics.PSDRequests.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.metrics.PSDRequests.WithLabelValues("success").Inc()
	return records, nil
}
