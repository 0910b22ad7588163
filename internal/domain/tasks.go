package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Task is one reduction recommendation with an estimated saving.
type Task struct {
	ID                 string  `json:"id"`
	Category           string  `json:"category"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Impact             string  `json:"impact"`
	Difficulty         string  `json:"difficulty"`
	EstimatedSavingsKg float64 `json:"estimated_savings_kg"`
}

// TaskList is the ranked recommendation set for a window.
type TaskList struct {
	Tasks                   []Task            `json:"tasks"`
	TotalTasks              int               `json:"total_tasks"`
	TotalPotentialSavingsKg float64           `json:"total_potential_savings_kg"`
	ByCategory              map[string][]Task `json:"by_category"`
	HumanMessage            string            `json:"-"`
}

var taskCategories = []string{CategoryTransport, CategoryFood, CategoryShopping, CategoryEnergy, "general"}

// GenerateTasks inspects the window's detailed breakdown and emits a ranked
// list of reduction tasks, capped at ten, with savings estimated as fixed
// fractions of the relevant sub-totals.
func (s *Service) GenerateTasks(ctx context.Context, userID, startDate, endDate string) (*TaskList, error) {
	history, err := s.History(ctx, userID, HistoryFilter{StartDate: startDate, EndDate: endDate}, true)
	if err != nil {
		return nil, err
	}
	detailed := history.DetailedBreakdown

	tasks := make([]Task, 0, 16)
	tasks = append(tasks, transportTasks(detailed.Transport)...)
	tasks = append(tasks, shoppingTasks(detailed.Shopping)...)
	tasks = append(tasks, foodTasks(detailed.Food)...)
	tasks = append(tasks, energyTasks(history.ByCategory[CategoryEnergy])...)

	tasks = append(tasks, Task{
		ID:          "task_general_track",
		Category:    "general",
		Title:       "Continue Tracking Your Carbon Footprint",
		Description: "Keep logging your activities to monitor progress and identify new reduction opportunities.",
		Impact:      "Helps identify patterns and areas for improvement",
		Difficulty:  "easy",
	})

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].EstimatedSavingsKg > tasks[j].EstimatedSavingsKg
	})
	if len(tasks) > 10 {
		tasks = tasks[:10]
	}

	total := 0.0
	byCategory := make(map[string][]Task, len(taskCategories))
	for _, category := range taskCategories {
		byCategory[category] = []Task{}
	}
	for _, task := range tasks {
		total += task.EstimatedSavingsKg
		byCategory[task.Category] = append(byCategory[task.Category], task)
	}

	list := &TaskList{
		Tasks:                   tasks,
		TotalTasks:              len(tasks),
		TotalPotentialSavingsKg: round2(total),
		ByCategory:              byCategory,
	}
	list.HumanMessage = taskMessage(list)
	return list, nil
}

func transportTasks(transport TransportBreakdown) []Task {
	if len(transport.Vehicles) == 0 {
		return nil
	}
	var car, bus, bike *VehicleBreakdown
	for i := range transport.Vehicles {
		v := &transport.Vehicles[i]
		switch v.Vehicle {
		case "car":
			car = v
		case "bus":
			bus = v
		case "bicycle", "bike":
			if bike == nil {
				bike = v
			}
		}
	}

	tasks := make([]Task, 0, 4)
	if car != nil && car.TotalKm > 50 {
		savings := round2(car.TotalEmissionsKg * 0.2)
		tasks = append(tasks, Task{
			ID:       "task_transport_car_reduce",
			Category: CategoryTransport,
			Title:    "Reduce Car Travel by 20%",
			Description: fmt.Sprintf("You've traveled %.1f km by car. Try carpooling, using public transport, or cycling for short trips.",
				car.TotalKm),
			Impact:             fmt.Sprintf("Potential reduction: ~%.2f kg CO₂e", car.TotalEmissionsKg*0.2),
			Difficulty:         "medium",
			EstimatedSavingsKg: savings,
		})
	}
	if car != nil && car.TotalKm > 100 {
		tasks = append(tasks, Task{
			ID:                 "task_transport_public",
			Category:           CategoryTransport,
			Title:              "Switch to Public Transport",
			Description:        "Try using bus or train for your daily commute. It can reduce emissions by 50-70% compared to cars.",
			Impact:             fmt.Sprintf("Potential reduction: ~%.2f kg CO₂e", car.TotalEmissionsKg*0.6),
			Difficulty:         "easy",
			EstimatedSavingsKg: round2(car.TotalEmissionsKg * 0.6),
		})
	}
	if car != nil && (bus == nil || bus.TotalKm < car.TotalKm*0.3) {
		tasks = append(tasks, Task{
			ID:                 "task_transport_bus",
			Category:           CategoryTransport,
			Title:              "Use Bus for Short Trips",
			Description:        "Try taking the bus for trips under 5 km. Buses are much more efficient per passenger.",
			Impact:             "Potential reduction: ~2-5 kg CO₂e per month",
			Difficulty:         "easy",
			EstimatedSavingsKg: 3.0,
		})
	}
	if bike == nil || bike.TotalKm < 10 {
		tasks = append(tasks, Task{
			ID:                 "task_transport_bike",
			Category:           CategoryTransport,
			Title:              "Cycle or Walk for Short Distances",
			Description:        "For trips under 3 km, consider cycling or walking. Zero emissions and great for health!",
			Impact:             "Potential reduction: ~1-3 kg CO₂e per month",
			Difficulty:         "easy",
			EstimatedSavingsKg: 2.0,
		})
	}
	return tasks
}

func shoppingTasks(shopping ItemCategoryBreakdown) []Task {
	if len(shopping.Items) == 0 {
		return nil
	}
	return []Task{
		{
			ID:                 "task_shopping_bag",
			Category:           CategoryShopping,
			Title:              "Carry Reusable Shopping Bags",
			Description:        "Bring your own reusable bags when shopping. Plastic bags contribute to waste emissions.",
			Impact:             "Potential reduction: ~0.5-1 kg CO₂e per month",
			Difficulty:         "easy",
			EstimatedSavingsKg: 0.75,
		},
		{
			ID:                 "task_shopping_bulk",
			Category:           CategoryShopping,
			Title:              "Buy in Bulk to Reduce Packaging",
			Description:        "Purchase items in larger quantities to reduce packaging waste and trips to the store.",
			Impact:             "Potential reduction: ~1-2 kg CO₂e per month",
			Difficulty:         "easy",
			EstimatedSavingsKg: 1.5,
		},
		{
			ID:                 "task_shopping_local",
			Category:           CategoryShopping,
			Title:              "Buy Local and Seasonal Products",
			Description:        "Choose locally produced items to reduce transportation emissions from shipping.",
			Impact:             "Potential reduction: ~2-4 kg CO₂e per month",
			Difficulty:         "medium",
			EstimatedSavingsKg: 3.0,
		},
		{
			ID:                 "task_shopping_secondhand",
			Category:           CategoryShopping,
			Title:              "Buy Secondhand or Refurbished Items",
			Description:        "Consider buying secondhand clothing, electronics, or furniture. Reduces manufacturing emissions.",
			Impact:             "Potential reduction: ~5-10 kg CO₂e per item",
			Difficulty:         "medium",
			EstimatedSavingsKg: 7.5,
		},
	}
}

var meatKeywords = []string{"meat", "beef", "chicken"}

func foodTasks(food ItemCategoryBreakdown) []Task {
	if len(food.Items) == 0 {
		return nil
	}

	meatEmissions := 0.0
	meatAmount := 0.0
	hasMeat := false
	for _, item := range food.Items {
		name := strings.ToLower(item.Item)
		for _, keyword := range meatKeywords {
			if strings.Contains(name, keyword) {
				hasMeat = true
				meatEmissions += item.TotalEmissionsKg
				meatAmount += item.TotalAmount
				break
			}
		}
	}

	tasks := make([]Task, 0, 4)
	if hasMeat {
		tasks = append(tasks, Task{
			ID:       "task_food_reduce_meat",
			Category: CategoryFood,
			Title:    "Reduce Meat Consumption",
			Description: fmt.Sprintf("You consume %.1f servings of meat. Try having 2-3 meat-free days per week.",
				meatAmount),
			Impact:             fmt.Sprintf("Potential reduction: ~%.2f kg CO₂e per month", meatEmissions*0.3),
			Difficulty:         "medium",
			EstimatedSavingsKg: round2(meatEmissions * 0.3),
		})
		tasks = append(tasks, Task{
			ID:                 "task_food_plant_based",
			Category:           CategoryFood,
			Title:              "Try Plant-Based Alternatives",
			Description:        "Replace one meat meal per week with plant-based options. Beans, lentils, and tofu have much lower emissions.",
			Impact:             fmt.Sprintf("Potential reduction: ~%.2f kg CO₂e per month", meatEmissions*0.15),
			Difficulty:         "easy",
			EstimatedSavingsKg: round2(meatEmissions * 0.15),
		})
	}
	tasks = append(tasks, Task{
		ID:                 "task_food_waste",
		Category:           CategoryFood,
		Title:              "Reduce Food Waste",
		Description:        "Plan meals, use leftovers, and compost food scraps. Food waste contributes significantly to emissions.",
		Impact:             "Potential reduction: ~3-5 kg CO₂e per month",
		Difficulty:         "medium",
		EstimatedSavingsKg: 4.0,
	})
	tasks = append(tasks, Task{
		ID:                 "task_food_local",
		Category:           CategoryFood,
		Title:              "Buy Local and Seasonal Produce",
		Description:        "Choose locally grown, seasonal fruits and vegetables to reduce transportation emissions.",
		Impact:             "Potential reduction: ~1-2 kg CO₂e per month",
		Difficulty:         "easy",
		EstimatedSavingsKg: 1.5,
	})
	return tasks
}

func energyTasks(energyKg float64) []Task {
	if energyKg <= 0 {
		return nil
	}
	return []Task{
		{
			ID:                 "task_energy_switch",
			Category:           CategoryEnergy,
			Title:              "Switch to Renewable Energy",
			Description:        "Switch to a renewable energy provider or install solar panels if possible.",
			Impact:             fmt.Sprintf("Potential reduction: ~%.2f kg CO₂e", energyKg*0.5),
			Difficulty:         "hard",
			EstimatedSavingsKg: round2(energyKg * 0.5),
		},
		{
			ID:                 "task_energy_efficient",
			Category:           CategoryEnergy,
			Title:              "Use Energy-Efficient Appliances",
			Description:        "Replace old appliances with energy-efficient models and use LED bulbs.",
			Impact:             "Potential reduction: ~2-4 kg CO₂e per month",
			Difficulty:         "medium",
			EstimatedSavingsKg: 3.0,
		},
		{
			ID:                 "task_energy_unplug",
			Category:           CategoryEnergy,
			Title:              "Unplug Electronics When Not in Use",
			Description:        "Turn off and unplug devices when not in use to reduce phantom power consumption.",
			Impact:             "Potential reduction: ~1-2 kg CO₂e per month",
			Difficulty:         "easy",
			EstimatedSavingsKg: 1.5,
		},
	}
}

func taskMessage(list *TaskList) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Generated %d personalized tasks to reduce your carbon footprint!\n\n", len(list.Tasks))
	fmt.Fprintf(&b, "💡 Potential total reduction: %.2f kg CO₂e\n\n", list.TotalPotentialSavingsKg)
	b.WriteString("Top recommendations:\n")
	for i, task := range list.Tasks {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, task.Title, task.Impact)
	}
	return b.String()
}
