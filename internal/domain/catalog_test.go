package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeLabel(t *testing.T) {
	assert.Equal(t, "Production", AttributeLabel(28))
	assert.Equal(t, "Ending Stocks", AttributeLabel(176))
	assert.Equal(t, "Attribute 999", AttributeLabel(999))
}

func TestKnownAttribute(t *testing.T) {
	assert.True(t, KnownAttribute(28))
	assert.True(t, KnownAttribute(176))
	assert.False(t, KnownAttribute(0))
	assert.False(t, KnownAttribute(999))
}

func TestCatalogsAreNotShared(t *testing.T) {
	list := Countries()
	list[1].Name = "changed"
	assert.Equal(t, "Albania", Countries()[1].Name)
	assert.Equal(t, "Albania", CountryName(Countries()[1].Code))
}

func TestCountryName(t *testing.T) {
	assert.Equal(t, "All", CountryName(WildcardCountry))
	assert.Equal(t, "Brazil", CountryName("BR"))
	assert.Equal(t, "Vietnam", CountryName("VM"))
	assert.Equal(t, "ZZ", CountryName("ZZ"))
}

func TestCountries_WildcardFirstThenSortedByName(t *testing.T) {
	list := Countries()
	require.Len(t, list, len(countryCatalog)+1)
	assert.Equal(t, Country{Code: WildcardCountry, Name: "All"}, list[0])
	assert.Equal(t, "Albania", list[1].Name)
	for i := 2; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Name, list[i].Name)
	}
}

func TestValidateFetch(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	require.NoError(t, ValidateFetch(2024, "BR"))
	require.NoError(t, ValidateFetch(MinMarketYear, WildcardCountry))
	require.NoError(t, ValidateFetch(2026, "CO"))

	for _, tc := range []struct {
		year    int
		country string
	}{
		{1959, "BR"},
		{2027, "BR"},
		{2020, "XX"},
		{2020, ""},
	} {
		err := ValidateFetch(tc.year, tc.country)
		require.Error(t, err, "%d/%s", tc.year, tc.country)
		assert.True(t, errors.Is(err, ErrInvalidQuery))
	}
}

func TestTransportError_MatchesSentinelAndCause(t *testing.T) {
	err := error(&TransportError{Year: 2020, Country: "BR", Err: context.DeadlineExceeded})

	assert.True(t, errors.Is(err, ErrTransportFailure))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrInvalidQuery))
	assert.Equal(t, "fetch BR/2020: context deadline exceeded", err.Error())

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 2020, te.Year)
}
