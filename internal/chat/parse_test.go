package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var parseNow = time.Date(2025, time.October, 15, 12, 0, 0, 0, time.UTC)

func TestParseFullSentence(t *testing.T) {
	parsed := Parse("I rode a car 12.5 km today in Delhi", parseNow)

	require.Equal(t, "transport", parsed.Category)
	require.Equal(t, "car", parsed.Subcategory)
	require.NotNil(t, parsed.DistanceKm)
	require.InDelta(t, 12.5, *parsed.DistanceKm, 1e-9)
	require.Equal(t, "Delhi", parsed.City)
	require.Equal(t, "2025-10-15", parsed.Date)
}

func TestParseYesterday(t *testing.T) {
	parsed := Parse("I took the bus 8km yesterday", parseNow)

	require.Equal(t, "bus", parsed.Subcategory)
	require.Equal(t, "2025-10-14", parsed.Date)
}

func TestParseExplicitDate(t *testing.T) {
	parsed := Parse("log 10 km by train on 2025-09-20", parseNow)

	require.Equal(t, "train", parsed.Subcategory)
	require.Equal(t, "2025-09-20", parsed.Date)
}

func TestParseMilesConvertToKm(t *testing.T) {
	parsed := Parse("drove 10 miles today", parseNow)

	require.NotNil(t, parsed.DistanceKm)
	require.InDelta(t, 16.0934, *parsed.DistanceKm, 1e-9)
}

func TestParseBikeMeansMotorcycle(t *testing.T) {
	parsed := Parse("rode my bike 5 km today", parseNow)

	require.Equal(t, "motorcycle", parsed.Subcategory)
}

func TestParseBicycleKeyword(t *testing.T) {
	parsed := Parse("took the bicycle 5 km today", parseNow)

	require.Equal(t, "bicycle", parsed.Subcategory)
}

func TestParseAmount(t *testing.T) {
	parsed := Parse("add 2 kg of beef", parseNow)

	require.NotNil(t, parsed.Amount)
	require.InDelta(t, 2, *parsed.Amount, 1e-9)
	require.Nil(t, parsed.DistanceKm)
}

func TestParseKilometers(t *testing.T) {
	parsed := Parse("walked 3 kilometers today", parseNow)

	require.Equal(t, "walking", parsed.Subcategory)
	require.NotNil(t, parsed.DistanceKm)
	require.InDelta(t, 3, *parsed.DistanceKm, 1e-9)
}

func TestParseMissingFieldsStayZero(t *testing.T) {
	parsed := Parse("hello there", parseNow)

	require.Empty(t, parsed.Category)
	require.Empty(t, parsed.Subcategory)
	require.Nil(t, parsed.DistanceKm)
	require.Nil(t, parsed.Amount)
	require.Empty(t, parsed.City)
	require.Empty(t, parsed.Date)
}

func TestParseCityStopsAtPunctuation(t *testing.T) {
	parsed := Parse("I rode a car 5 km in Mumbai, it was hot", parseNow)

	require.Equal(t, "Mumbai", parsed.City)
}
