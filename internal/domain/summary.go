package domain

import (
	"context"
	"fmt"
	"strings"
)

// SummaryResult is the comprehensive report for a window: totals, shares,
// detailed breakdowns, top contributors, and reduction tips.
type SummaryResult struct {
	TotalEmissionsKg  float64            `json:"total_emissions_kg"`
	ByCategory        map[string]float64 `json:"by_category"`
	CategoryShares    map[string]float64 `json:"category_shares"`
	DetailedBreakdown *DetailedBreakdown `json:"detailed_breakdown"`
	TopContributors   []Contributor      `json:"top_3_contributors"`
	Tips              []string           `json:"tips"`
	ChartReady        ChartData          `json:"chart_ready"`
	HumanMessage      string             `json:"-"`
}

// Summary renders the full aggregation for the window as a report with tips
// keyed off the dominant category.
func (s *Service) Summary(ctx context.Context, userID, startDate, endDate string) (*SummaryResult, error) {
	history, err := s.History(ctx, userID, HistoryFilter{StartDate: startDate, EndDate: endDate}, true)
	if err != nil {
		return nil, err
	}

	shares := make(map[string]float64, len(history.ByCategory))
	for category, kg := range history.ByCategory {
		if history.TotalEmissionsKg > 0 {
			shares[category] = round1(kg / history.TotalEmissionsKg * 100)
		} else {
			shares[category] = 0
		}
	}

	topCategory := dominantCategory(history.ChartReady.CategoryBreakdown)
	tips := tipsForCategory(topCategory)

	result := &SummaryResult{
		TotalEmissionsKg:  history.TotalEmissionsKg,
		ByCategory:        history.ByCategory,
		CategoryShares:    shares,
		DetailedBreakdown: history.DetailedBreakdown,
		TopContributors:   topContributors(history.Entries, 3),
		Tips:              tips,
		ChartReady:        history.ChartReady,
	}
	result.HumanMessage = summaryMessage(result, topCategory, startDate, endDate)
	return result, nil
}

// dominantCategory picks the highest-emitting category; ties keep the first
// encountered.
func dominantCategory(shares []CategoryShare) string {
	top := ""
	best := 0.0
	for _, share := range shares {
		if top == "" || share.Kg > best {
			top = share.Category
			best = share.Kg
		}
	}
	return top
}

func tipsForCategory(category string) []string {
	switch category {
	case CategoryTransport:
		return []string{"Consider carpooling, using bus/train, or switching to e-bikes for short trips."}
	case CategoryEnergy:
		return []string{"Switch to renewable energy providers and use energy-efficient appliances."}
	case CategoryFood:
		return []string{"Reduce meat consumption, especially beef, and choose local/seasonal produce."}
	default:
		return []string{"Keep tracking your emissions to identify reduction opportunities."}
	}
}

func summaryMessage(result *SummaryResult, topCategory, startDate, endDate string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Summary: %.2f kg CO₂e total", result.TotalEmissionsKg)
	if startDate != "" || endDate != "" {
		fmt.Fprintf(&b, " from %s to %s", orDefault(startDate, "beginning"), orDefault(endDate, "now"))
	}
	fmt.Fprintf(&b, ". Top category: %s.", orDefault(topCategory, "none"))

	parts := summaryParts(result.DetailedBreakdown)
	if len(parts) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(parts, "\n"))
	}
	return b.String()
}

func summaryParts(detailed *DetailedBreakdown) []string {
	if detailed == nil {
		return nil
	}
	parts := make([]string, 0, 8)

	if transport := detailed.Transport; len(transport.Vehicles) > 0 {
		parts = append(parts, fmt.Sprintf("🚗 Transport: %.1f km across %d vehicle types (%.2f kg CO₂e)",
			transport.TotalKm, len(transport.Vehicles), transport.TotalEmissionsKg))
		top := transport.Vehicles[0]
		parts = append(parts, fmt.Sprintf("   → Top: %s (%.1f km, %d trips)", top.Vehicle, top.TotalKm, top.Trips))
	}
	if food := detailed.Food; len(food.Items) > 0 {
		parts = append(parts, fmt.Sprintf("🍽️ Food: %d item types (%.2f kg CO₂e)", len(food.Items), food.TotalEmissionsKg))
		top := food.Items[0]
		parts = append(parts, fmt.Sprintf("   → Top: %s (%.1f %s)", top.Item, top.TotalAmount, top.Units))
	}
	if shopping := detailed.Shopping; len(shopping.Items) > 0 {
		parts = append(parts, fmt.Sprintf("🛒 Shopping: %d item types (%.2f kg CO₂e)", len(shopping.Items), shopping.TotalEmissionsKg))
		top := shopping.Items[0]
		parts = append(parts, fmt.Sprintf("   → Top: %s (%.1f %s)", top.Item, top.TotalAmount, top.Units))
	}
	if energy := detailed.Energy; len(energy.Types) > 0 {
		parts = append(parts, fmt.Sprintf("⚡ Energy: %d types (%.2f kg CO₂e)", len(energy.Types), energy.TotalEmissionsKg))
	}
	return parts
}
