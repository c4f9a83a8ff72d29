package psd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coffee-trend-service/internal/domain"
	"github.com/couchcryptid/coffee-trend-service/internal/observability"
)

const (
	testAPIKey        = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:        testAPIKey,
		commodityCode: domain.CommodityCoffee,
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		metrics:       observability.NewMetricsForTesting(),
		logger:        discardLogger(),
	}
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/psd/commodity/0711100/country/BR/year/2024", r.URL.Path)
		assert.Equal(t, testAPIKey, r.Header.Get("X-Api-Key"))
		assert.Equal(t, contentTypeJSON, r.Header.Get("accept"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[
			{"commodityCode":"0711100","countryCode":"BR","marketYear":"2024","calendarYear":"2024","month":"06","attributeId":28,"unitId":2,"value":66400},
			{"commodityCode":"0711100","countryCode":"BR","marketYear":"2024","calendarYear":"2024","month":"06","attributeId":88,"unitId":2,"value":47000}
		]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	records, err := c.Fetch(context.Background(), 2024, "BR")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 2024, records[0].MarketYear)
	assert.Equal(t, 28, records[0].AttributeID)
	assert.Equal(t, 66400.0, records[0].Value)
	assert.Equal(t, 88, records[1].AttributeID)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.PSDRequests.WithLabelValues("success")), 1e-9)
}

func TestClient_Fetch_WildcardCountry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/psd/commodity/0711100/country/all/year/2020", r.URL.Path)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	records, err := testClient(srv.URL, 5*time.Second).Fetch(context.Background(), 2020, domain.WildcardCountry)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestClient_Fetch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"API_KEY_INVALID"}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	records, err := c.Fetch(context.Background(), 2024, "BR")
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, domain.ErrTransportFailure))
	assert.Contains(t, err.Error(), "403")

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 2024, te.Year)
	assert.Equal(t, "BR", te.Country)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.PSDRequests.WithLabelValues("status")), 1e-9)
}

func TestClient_Fetch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second).Fetch(context.Background(), 2024, "BR")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransportFailure))
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 50*time.Millisecond).Fetch(context.Background(), 2024, "BR")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransportFailure))
}

func TestClient_Fetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := testClient(url, time.Second).Fetch(context.Background(), 2024, "BR")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransportFailure))
}

func TestClient_Fetch_InvalidQueryNoRequest(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := testClient(srv.URL, time.Second)

	_, err := c.Fetch(context.Background(), 1800, "BR")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
	assert.False(t, errors.Is(err, domain.ErrTransportFailure))

	_, err = c.Fetch(context.Background(), 2020, "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidQuery))

	assert.Zero(t, calls)
}

func TestNewClient(t *testing.T) {
	c := NewClient("https://api.fas.usda.gov", testAPIKey, domain.CommodityCoffee, 15*time.Second, observability.NewMetricsForTesting(), discardLogger())
	assert.Equal(t, 15*time.Second, c.httpClient.Timeout)
	assert.Equal(t, "https://api.fas.usda.gov", c.baseURL)
}
