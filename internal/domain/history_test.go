package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustLog(t *testing.T, service *Service, userID string, input LogEntryInput) ActivityEntry {
	t.Helper()
	result, err := service.LogEntry(context.Background(), userID, input)
	require.NoError(t, err)
	return result.Entry
}

func seedTransportWeek(t *testing.T, service *Service) {
	t.Helper()
	mustLog(t, service, "user-1", LogEntryInput{
		Category: CategoryTransport, Subcategory: "car", DistanceKm: fptr(12.5), Date: "2025-10-01", City: "Delhi",
	})
	mustLog(t, service, "user-1", LogEntryInput{
		Category: CategoryTransport, Subcategory: "bus", DistanceKm: fptr(8), Date: "2025-10-02", City: "Bengaluru",
	})
}

func TestHistoryTotalsAndBreakdown(t *testing.T) {
	service, _ := newTestService()
	seedTransportWeek(t, service)

	history, err := service.History(context.Background(), "user-1", HistoryFilter{}, true)
	require.NoError(t, err)

	// 12.5*0.192 + 8*0.089 = 3.112, rounded to 3.11.
	require.InDelta(t, 3.11, history.TotalEmissionsKg, 1e-9)
	require.InDelta(t, 3.112, history.ByCategory[CategoryTransport], 1e-9)

	vehicles := history.DetailedBreakdown.Transport.Vehicles
	require.Len(t, vehicles, 2)
	// Car before bus: higher total km.
	require.Equal(t, "car", vehicles[0].Vehicle)
	require.Equal(t, "bus", vehicles[1].Vehicle)
	require.InDelta(t, 12.5, vehicles[0].TotalKm, 1e-9)
	require.Equal(t, 1, vehicles[0].Trips)
	require.InDelta(t, 12.5, vehicles[0].AvgKmPerTrip, 1e-9)
	require.InDelta(t, 20.5, history.DetailedBreakdown.Transport.TotalKm, 1e-9)
}

func TestHistorySortsByDateDescending(t *testing.T) {
	service, _ := newTestService()
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryTransport, Subcategory: "car", DistanceKm: fptr(1), Date: "2025-10-01"})
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryTransport, Subcategory: "bus", DistanceKm: fptr(2), Date: "2025-10-03"})
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryTransport, Subcategory: "train", DistanceKm: fptr(3), Date: "2025-10-03"})
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryTransport, Subcategory: "walk", DistanceKm: fptr(4), Date: "2025-10-02"})

	history, err := service.History(context.Background(), "user-1", HistoryFilter{}, false)
	require.NoError(t, err)

	dates := make([]string, 0, len(history.Entries))
	subcategories := make([]string, 0, len(history.Entries))
	for _, entry := range history.Entries {
		dates = append(dates, entry.Date)
		subcategories = append(subcategories, entry.Subcategory)
	}
	require.Equal(t, []string{"2025-10-03", "2025-10-03", "2025-10-02", "2025-10-01"}, dates)
	// Stable: the two 10-03 entries keep insertion order.
	require.Equal(t, []string{"bus", "train", "walk", "car"}, subcategories)
}

func TestHistoryFilters(t *testing.T) {
	service, _ := newTestService()
	seedTransportWeek(t, service)
	mustLog(t, service, "user-1", LogEntryInput{
		Category: CategoryFood, Subcategory: "beef", Amount: fptr(1), EmissionFactor: fptr(27), Date: "2025-10-05",
	})

	t.Run("date range is inclusive", func(t *testing.T) {
		history, err := service.History(context.Background(), "user-1",
			HistoryFilter{StartDate: "2025-10-02", EndDate: "2025-10-05"}, false)
		require.NoError(t, err)
		require.Len(t, history.Entries, 2)
	})

	t.Run("city filter normalizes the filter value", func(t *testing.T) {
		history, err := service.History(context.Background(), "user-1", HistoryFilter{City: "Bangalore"}, false)
		require.NoError(t, err)
		require.Len(t, history.Entries, 1)
		require.Equal(t, "bus", history.Entries[0].Subcategory)
	})

	t.Run("category filter", func(t *testing.T) {
		history, err := service.History(context.Background(), "user-1", HistoryFilter{Category: CategoryFood}, false)
		require.NoError(t, err)
		require.Len(t, history.Entries, 1)
		require.InDelta(t, 27, history.TotalEmissionsKg, 1e-9)
	})

	t.Run("unknown user yields empty result", func(t *testing.T) {
		history, err := service.History(context.Background(), "nobody", HistoryFilter{}, true)
		require.NoError(t, err)
		require.Empty(t, history.Entries)
		require.Zero(t, history.TotalEmissionsKg)
	})
}

func TestHistoryTimeseriesAscending(t *testing.T) {
	service, _ := newTestService()
	seedTransportWeek(t, service)
	mustLog(t, service, "user-1", LogEntryInput{
		Category: CategoryTransport, Subcategory: "car", DistanceKm: fptr(10), Date: "2025-10-01",
	})

	history, err := service.History(context.Background(), "user-1", HistoryFilter{}, false)
	require.NoError(t, err)

	points := history.ChartReady.Timeseries
	require.Len(t, points, 2)
	require.Equal(t, "2025-10-01", points[0].Date)
	require.Equal(t, "2025-10-02", points[1].Date)
	// Two car trips on the first day: 2.4 + 1.92.
	require.InDelta(t, 4.32, points[0].Kg, 1e-9)
}

func TestHistoryCategorySharesSumToHundred(t *testing.T) {
	service, _ := newTestService()
	seedTransportWeek(t, service)
	mustLog(t, service, "user-1", LogEntryInput{
		Category: CategoryFood, Subcategory: "beef", Amount: fptr(2), EmissionFactor: fptr(13.5), Date: "2025-10-04",
	})
	mustLog(t, service, "user-1", LogEntryInput{
		Category: CategoryEnergy, Subcategory: "electricity", Amount: fptr(50), EmissionFactor: fptr(0.82), Date: "2025-10-04",
	})

	history, err := service.History(context.Background(), "user-1", HistoryFilter{}, false)
	require.NoError(t, err)

	sum := 0.0
	for _, share := range history.ChartReady.CategoryBreakdown {
		sum += share.Percent
	}
	require.InDelta(t, 100, sum, 0.1)
}

func TestHistoryZeroTotalHasZeroPercents(t *testing.T) {
	service, _ := newTestService()
	mustLog(t, service, "user-1", LogEntryInput{
		Category: CategoryTransport, Subcategory: "bicycle", DistanceKm: fptr(15), Date: "2025-10-01",
	})

	history, err := service.History(context.Background(), "user-1", HistoryFilter{}, false)
	require.NoError(t, err)

	require.Zero(t, history.TotalEmissionsKg)
	require.Len(t, history.ChartReady.CategoryBreakdown, 1)
	require.Zero(t, history.ChartReady.CategoryBreakdown[0].Percent)
}

func TestHistoryIsIdempotent(t *testing.T) {
	service, _ := newTestService()
	seedTransportWeek(t, service)

	filter := HistoryFilter{StartDate: "2025-10-01", EndDate: "2025-10-31"}
	first, err := service.History(context.Background(), "user-1", filter, true)
	require.NoError(t, err)
	second, err := service.History(context.Background(), "user-1", filter, true)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestHistoryRepresentativeUnits(t *testing.T) {
	service, _ := newTestService()
	mustLog(t, service, "user-1", LogEntryInput{
		Category: CategoryFood, Subcategory: "beef", Amount: fptr(1), Units: "kg", EmissionFactor: fptr(27), Date: "2025-10-01",
	})
	mustLog(t, service, "user-1", LogEntryInput{
		Category: CategoryFood, Subcategory: "beef", Amount: fptr(2), Units: "servings", EmissionFactor: fptr(5), Date: "2025-10-02",
	})
	mustLog(t, service, "user-1", LogEntryInput{
		Category: CategoryEnergy, Subcategory: "electricity", Amount: fptr(10), Date: "2025-10-01",
	})

	history, err := service.History(context.Background(), "user-1", HistoryFilter{}, true)
	require.NoError(t, err)

	items := history.DetailedBreakdown.Food.Items
	require.Len(t, items, 1)
	require.InDelta(t, 3, items[0].TotalAmount, 1e-9)
	// First matching entry in filtered (date-descending) order labels the row.
	require.Equal(t, "servings", items[0].Units)

	types := history.DetailedBreakdown.Energy.Types
	require.Len(t, types, 1)
	require.Equal(t, "kWh", types[0].Units)
}
