package domain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// HistoryFilter restricts the aggregation window. Empty fields mean no
// restriction on that axis. Dates are inclusive YYYY-MM-DD bounds.
type HistoryFilter struct {
	StartDate string
	EndDate   string
	City      string
	Category  string
}

// VehicleBreakdown aggregates one transport subcategory.
type VehicleBreakdown struct {
	Vehicle          string  `json:"vehicle"`
	TotalKm          float64 `json:"total_km"`
	TotalEmissionsKg float64 `json:"total_emissions_kg"`
	Trips            int     `json:"trips"`
	AvgKmPerTrip     float64 `json:"avg_km_per_trip"`
}

// TransportBreakdown lists vehicles by total km descending.
type TransportBreakdown struct {
	Vehicles         []VehicleBreakdown `json:"vehicles"`
	TotalKm          float64            `json:"total_km"`
	TotalEmissionsKg float64            `json:"total_emissions_kg"`
}

// ItemBreakdown aggregates one food/shopping item or energy type. Units is
// the first matching entry's label, arbitrary when entries disagree.
type ItemBreakdown struct {
	Item             string  `json:"item"`
	TotalAmount      float64 `json:"total_amount"`
	TotalEmissionsKg float64 `json:"total_emissions_kg"`
	Units            string  `json:"units"`
}

// ItemCategoryBreakdown lists items by total amount descending.
type ItemCategoryBreakdown struct {
	Items            []ItemBreakdown `json:"items"`
	TotalEmissionsKg float64         `json:"total_emissions_kg"`
}

// EnergyTypeBreakdown aggregates one energy subcategory.
type EnergyTypeBreakdown struct {
	Type             string  `json:"type"`
	TotalAmount      float64 `json:"total_amount"`
	TotalEmissionsKg float64 `json:"total_emissions_kg"`
	Units            string  `json:"units"`
}

// EnergyBreakdown lists energy types by total amount descending.
type EnergyBreakdown struct {
	Types            []EnergyTypeBreakdown `json:"types"`
	TotalEmissionsKg float64               `json:"total_emissions_kg"`
}

// DetailedBreakdown groups the four specially-handled categories.
type DetailedBreakdown struct {
	Transport TransportBreakdown    `json:"transport"`
	Food      ItemCategoryBreakdown `json:"food"`
	Shopping  ItemCategoryBreakdown `json:"shopping"`
	Energy    EnergyBreakdown       `json:"energy"`
}

// TimeseriesPoint is one day's summed emissions.
type TimeseriesPoint struct {
	Date string  `json:"date"`
	Kg   float64 `json:"kg"`
}

// CategoryShare is one category's emissions and percent of the total.
type CategoryShare struct {
	Category string  `json:"category"`
	Kg       float64 `json:"kg"`
	Percent  float64 `json:"percent"`
}

// ChartData is the chart-ready projection of an aggregation.
type ChartData struct {
	Timeseries        []TimeseriesPoint `json:"timeseries"`
	CategoryBreakdown []CategoryShare   `json:"category_breakdown"`
}

// HistoryResult is the output of the aggregation engine.
type HistoryResult struct {
	Entries           []ActivityEntry    `json:"entries"`
	TotalEmissionsKg  float64            `json:"total_emissions_kg"`
	ByCategory        map[string]float64 `json:"by_category"`
	DetailedBreakdown *DetailedBreakdown `json:"detailed_breakdown,omitempty"`
	ChartReady        ChartData          `json:"chart_ready"`
	HumanMessage      string             `json:"-"`
}

// History filters the user's log and produces totals, per-category sums, the
// detailed breakdowns, a daily timeseries, and percent shares. It is a pure
// function of the store snapshot: identical filters with no intervening
// writes yield identical output.
func (s *Service) History(ctx context.Context, userID string, filter HistoryFilter, detailed bool) (*HistoryResult, error) {
	if userID == "" {
		userID = DefaultUserID
	}
	entries, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cityFilter := NormalizeCity(filter.City)
	filtered := make([]ActivityEntry, 0, len(entries))
	for _, entry := range entries {
		if filter.StartDate != "" && entry.Date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && entry.Date > filter.EndDate {
			continue
		}
		if cityFilter != "" && entry.City != cityFilter {
			continue
		}
		if filter.Category != "" && entry.Category != filter.Category {
			continue
		}
		filtered = append(filtered, entry)
	}

	// Newest first; entries sharing a date keep insertion order.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date > filtered[j].Date
	})

	total := 0.0
	byCategory := make(map[string]float64)
	categoryOrder := make([]string, 0, 4)
	for _, entry := range filtered {
		total += entry.EmissionsKg
		if _, seen := byCategory[entry.Category]; !seen {
			categoryOrder = append(categoryOrder, entry.Category)
		}
		byCategory[entry.Category] += entry.EmissionsKg
	}

	result := &HistoryResult{
		Entries:          filtered,
		TotalEmissionsKg: round2(total),
		ByCategory:       byCategory,
	}

	if detailed {
		result.DetailedBreakdown = &DetailedBreakdown{
			Transport: buildTransportBreakdown(filtered),
			Food:      buildItemBreakdown(filtered, CategoryFood, "items"),
			Shopping:  buildItemBreakdown(filtered, CategoryShopping, "items"),
			Energy:    buildEnergyBreakdown(filtered),
		}
	}

	result.ChartReady = ChartData{
		Timeseries:        buildTimeseries(filtered),
		CategoryBreakdown: buildCategoryShares(byCategory, categoryOrder, total),
	}

	result.HumanMessage = historyMessage(filter, filtered, result)
	return result, nil
}

func buildTransportBreakdown(entries []ActivityEntry) TransportBreakdown {
	type acc struct {
		km        float64
		emissions float64
		trips     int
	}
	order := make([]string, 0)
	byVehicle := make(map[string]*acc)

	for _, entry := range entries {
		if entry.Category != CategoryTransport || entry.DistanceKm == nil {
			continue
		}
		vehicle := entry.Subcategory
		if vehicle == "" {
			vehicle = "unknown"
		}
		a, ok := byVehicle[vehicle]
		if !ok {
			a = &acc{}
			byVehicle[vehicle] = a
			order = append(order, vehicle)
		}
		a.km += *entry.DistanceKm
		a.emissions += entry.EmissionsKg
		a.trips++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return byVehicle[order[i]].km > byVehicle[order[j]].km
	})

	out := TransportBreakdown{Vehicles: make([]VehicleBreakdown, 0, len(order))}
	for _, vehicle := range order {
		a := byVehicle[vehicle]
		avg := 0.0
		if a.trips > 0 {
			avg = a.km / float64(a.trips)
		}
		out.Vehicles = append(out.Vehicles, VehicleBreakdown{
			Vehicle:          vehicle,
			TotalKm:          round2(a.km),
			TotalEmissionsKg: round2(a.emissions),
			Trips:            a.trips,
			AvgKmPerTrip:     round2(avg),
		})
		out.TotalKm += a.km
		out.TotalEmissionsKg += a.emissions
	}
	out.TotalKm = round2(out.TotalKm)
	out.TotalEmissionsKg = round2(out.TotalEmissionsKg)
	return out
}

func buildItemBreakdown(entries []ActivityEntry, category, defaultUnits string) ItemCategoryBreakdown {
	type acc struct {
		amount    float64
		emissions float64
		units     string
		unitsSet  bool
	}
	order := make([]string, 0)
	byItem := make(map[string]*acc)

	for _, entry := range entries {
		if entry.Category != category {
			continue
		}
		item := entry.Subcategory
		if item == "" {
			item = "other"
		}
		a, ok := byItem[item]
		if !ok {
			a = &acc{units: defaultUnits}
			byItem[item] = a
			order = append(order, item)
		}
		if entry.Amount != nil {
			a.amount += *entry.Amount
		}
		a.emissions += entry.EmissionsKg
		// First matching entry's label wins; inconsistent units across
		// entries for one item are a documented limitation.
		if !a.unitsSet && entry.Units != "" {
			a.units = entry.Units
			a.unitsSet = true
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return byItem[order[i]].amount > byItem[order[j]].amount
	})

	out := ItemCategoryBreakdown{Items: make([]ItemBreakdown, 0, len(order))}
	for _, item := range order {
		a := byItem[item]
		out.Items = append(out.Items, ItemBreakdown{
			Item:             item,
			TotalAmount:      round2(a.amount),
			TotalEmissionsKg: round2(a.emissions),
			Units:            a.units,
		})
		out.TotalEmissionsKg += a.emissions
	}
	out.TotalEmissionsKg = round2(out.TotalEmissionsKg)
	return out
}

func buildEnergyBreakdown(entries []ActivityEntry) EnergyBreakdown {
	detail := buildItemBreakdown(entries, CategoryEnergy, "kWh")
	out := EnergyBreakdown{
		Types:            make([]EnergyTypeBreakdown, 0, len(detail.Items)),
		TotalEmissionsKg: detail.TotalEmissionsKg,
	}
	for _, item := range detail.Items {
		out.Types = append(out.Types, EnergyTypeBreakdown{
			Type:             item.Item,
			TotalAmount:      item.TotalAmount,
			TotalEmissionsKg: item.TotalEmissionsKg,
			Units:            item.Units,
		})
	}
	return out
}

func buildTimeseries(entries []ActivityEntry) []TimeseriesPoint {
	byDate := make(map[string]float64)
	for _, entry := range entries {
		byDate[entry.Date] += entry.EmissionsKg
	}
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]TimeseriesPoint, 0, len(dates))
	for _, date := range dates {
		points = append(points, TimeseriesPoint{Date: date, Kg: round2(byDate[date])})
	}
	return points
}

func buildCategoryShares(byCategory map[string]float64, order []string, total float64) []CategoryShare {
	shares := make([]CategoryShare, 0, len(order))
	for _, category := range order {
		kg := byCategory[category]
		percent := 0.0
		if total > 0 {
			percent = kg / total * 100
		}
		shares = append(shares, CategoryShare{
			Category: category,
			Kg:       round2(kg),
			Percent:  round1(percent),
		})
	}
	return shares
}

func historyMessage(filter HistoryFilter, filtered []ActivityEntry, result *HistoryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d entries", len(filtered))
	if filter.StartDate != "" || filter.EndDate != "" {
		fmt.Fprintf(&b, " from %s to %s", orDefault(filter.StartDate, "beginning"), orDefault(filter.EndDate, "now"))
	}
	fmt.Fprintf(&b, ". Total: %.2f kg CO₂e.", result.TotalEmissionsKg)

	if result.DetailedBreakdown != nil && len(result.DetailedBreakdown.Transport.Vehicles) > 0 {
		top := result.DetailedBreakdown.Transport.Vehicles[0]
		fmt.Fprintf(&b, " Top vehicle: %s (%.1f km).", top.Vehicle, top.TotalKm)
	}
	return b.String()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
