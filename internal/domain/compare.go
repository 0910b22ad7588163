package domain

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// PeriodTotals summarises one side of a period comparison.
type PeriodTotals struct {
	TotalEmissionsKg float64            `json:"total_emissions_kg"`
	Breakdown        map[string]float64 `json:"breakdown"`
	Period           string             `json:"period"`
}

// PeriodChange is the delta between two periods. Percent is nil when the
// base period has no emissions.
type PeriodChange struct {
	AbsoluteKg float64  `json:"absolute_kg"`
	Percent    *float64 `json:"percent"`
}

// PeriodComparison is the output of ComparePeriods.
type PeriodComparison struct {
	From         PeriodTotals `json:"from"`
	To           PeriodTotals `json:"to"`
	Change       PeriodChange `json:"change"`
	HumanMessage string       `json:"-"`
}

// Contributor is one subcategory's share of a total.
type Contributor struct {
	Subcategory string  `json:"subcategory"`
	Kg          float64 `json:"kg"`
}

// CityTotals summarises one side of a city comparison.
type CityTotals struct {
	Name             string        `json:"name"`
	TotalEmissionsKg float64       `json:"total_emissions_kg"`
	TopContributors  []Contributor `json:"top_contributors"`
}

// CityComparison is the output of CompareCities.
type CityComparison struct {
	CityA        CityTotals `json:"cityA"`
	CityB        CityTotals `json:"cityB"`
	DifferenceKg float64    `json:"difference_kg"`
	Conclusion   string     `json:"conclusion"`
	HumanMessage string     `json:"-"`
}

// ComparePeriods aggregates two date ranges independently and derives the
// absolute and percentage change, plus a transport-subcategory breakdown for
// each period.
func (s *Service) ComparePeriods(ctx context.Context, userID, fromStart, fromEnd, toStart, toEnd, category string) (*PeriodComparison, error) {
	fromHistory, err := s.History(ctx, userID, HistoryFilter{StartDate: fromStart, EndDate: fromEnd, Category: category}, true)
	if err != nil {
		return nil, err
	}
	toHistory, err := s.History(ctx, userID, HistoryFilter{StartDate: toStart, EndDate: toEnd, Category: category}, true)
	if err != nil {
		return nil, err
	}

	fromTotal := fromHistory.TotalEmissionsKg
	toTotal := toHistory.TotalEmissionsKg
	absolute := toTotal - fromTotal

	var percent *float64
	if fromTotal > 0 {
		p := round1(absolute / fromTotal * 100)
		percent = &p
	}

	cmp := &PeriodComparison{
		From: PeriodTotals{
			TotalEmissionsKg: fromTotal,
			Breakdown:        transportEmissionsBySubcategory(fromHistory.Entries),
			Period:           fmt.Sprintf("%s to %s", fromStart, fromEnd),
		},
		To: PeriodTotals{
			TotalEmissionsKg: toTotal,
			Breakdown:        transportEmissionsBySubcategory(toHistory.Entries),
			Period:           fmt.Sprintf("%s to %s", toStart, toEnd),
		},
		Change: PeriodChange{AbsoluteKg: round2(absolute), Percent: percent},
	}
	cmp.HumanMessage = periodMessage(cmp, toTotal)
	return cmp, nil
}

// CompareCities aggregates the same window once per normalized city filter
// and derives the difference plus the top three contributors per city.
func (s *Service) CompareCities(ctx context.Context, userID, cityA, cityB, startDate, endDate, category string) (*CityComparison, error) {
	historyA, err := s.History(ctx, userID, HistoryFilter{StartDate: startDate, EndDate: endDate, City: cityA, Category: category}, true)
	if err != nil {
		return nil, err
	}
	historyB, err := s.History(ctx, userID, HistoryFilter{StartDate: startDate, EndDate: endDate, City: cityB, Category: category}, true)
	if err != nil {
		return nil, err
	}

	nameA := orDefault(cityA, "City A")
	nameB := orDefault(cityB, "City B")
	totalA := historyA.TotalEmissionsKg
	totalB := historyB.TotalEmissionsKg
	difference := totalB - totalA

	var conclusion string
	switch {
	case difference > 0:
		conclusion = fmt.Sprintf("%s has %.2f kg more emissions than %s.", nameB, difference, nameA)
	case difference < 0:
		conclusion = fmt.Sprintf("%s has %.2f kg more emissions than %s.", nameA, math.Abs(difference), nameB)
	default:
		conclusion = "Both cities have similar emissions."
	}

	cmp := &CityComparison{
		CityA: CityTotals{
			Name:             nameA,
			TotalEmissionsKg: totalA,
			TopContributors:  topContributors(historyA.Entries, 3),
		},
		CityB: CityTotals{
			Name:             nameB,
			TotalEmissionsKg: totalB,
			TopContributors:  topContributors(historyB.Entries, 3),
		},
		DifferenceKg: round2(difference),
		Conclusion:   conclusion,
	}
	cmp.HumanMessage = fmt.Sprintf("%s: %.2f kg, %s: %.2f kg. %s", nameA, totalA, nameB, totalB, conclusion)
	return cmp, nil
}

func transportEmissionsBySubcategory(entries []ActivityEntry) map[string]float64 {
	breakdown := make(map[string]float64)
	for _, entry := range entries {
		if entry.Category != CategoryTransport {
			continue
		}
		subcategory := orDefault(entry.Subcategory, "unknown")
		breakdown[subcategory] += entry.EmissionsKg
	}
	return breakdown
}

// topContributors ranks subcategories (falling back to the category tag) by
// emissions descending; ties keep first-encountered order.
func topContributors(entries []ActivityEntry, limit int) []Contributor {
	order := make([]string, 0)
	totals := make(map[string]float64)
	for _, entry := range entries {
		key := entry.Subcategory
		if key == "" {
			key = orDefault(entry.Category, CategoryOther)
		}
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] += entry.EmissionsKg
	}

	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]] > totals[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	contributors := make([]Contributor, 0, len(order))
	for _, key := range order {
		contributors = append(contributors, Contributor{Subcategory: key, Kg: round2(totals[key])})
	}
	return contributors
}

func periodMessage(cmp *PeriodComparison, toTotal float64) string {
	if cmp.Change.Percent == nil {
		return fmt.Sprintf("Previous period had no emissions. Current period: %.2f kg CO₂e.", toTotal)
	}
	percent := *cmp.Change.Percent
	switch {
	case percent < 0:
		return fmt.Sprintf("Emissions decreased %.1f%% (%.2f kg) vs previous period.",
			math.Abs(percent), math.Abs(cmp.Change.AbsoluteKg))
	case percent > 0:
		return fmt.Sprintf("Emissions increased %.1f%% (+%.2f kg) vs previous period.",
			percent, cmp.Change.AbsoluteKg)
	default:
		return fmt.Sprintf("Emissions unchanged (%.2f kg).", toTotal)
	}
}
