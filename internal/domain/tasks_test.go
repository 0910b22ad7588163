package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func taskIDs(tasks []Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestGenerateTasksEmptyWindow(t *testing.T) {
	service, _ := newTestService()

	list, err := service.GenerateTasks(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	require.Equal(t, []string{"task_general_track"}, taskIDs(list.Tasks))
	require.Equal(t, 1, list.TotalTasks)
	require.Zero(t, list.TotalPotentialSavingsKg)
	for _, category := range []string{CategoryTransport, CategoryFood, CategoryShopping, CategoryEnergy, "general"} {
		require.NotNil(t, list.ByCategory[category])
	}
	require.Empty(t, list.ByCategory[CategoryTransport])
	require.Len(t, list.ByCategory["general"], 1)
}

func TestGenerateTasksHeavyCarUse(t *testing.T) {
	service, _ := newTestService()
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryTransport, Subcategory: "car", DistanceKm: fptr(120), Date: "2025-10-01"})

	list, err := service.GenerateTasks(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	ids := taskIDs(list.Tasks)

	// 120 km by car: reduce 20%, switch to public transport, and both the
	// bus and bike nudges since neither mode appears.
	require.Contains(t, ids, "task_transport_car_reduce")
	require.Contains(t, ids, "task_transport_public")
	require.Contains(t, ids, "task_transport_bus")
	require.Contains(t, ids, "task_transport_bike")

	// Savings are fractions of car emissions (120*0.192 = 23.04 kg).
	byID := make(map[string]Task)
	for _, task := range list.Tasks {
		byID[task.ID] = task
	}
	require.InDelta(t, 4.61, byID["task_transport_car_reduce"].EstimatedSavingsKg, 1e-9)
	require.InDelta(t, 13.82, byID["task_transport_public"].EstimatedSavingsKg, 1e-9)

	// Ranked by savings descending.
	require.Equal(t, "task_transport_public", ids[0])
	require.Equal(t, "task_transport_car_reduce", ids[1])
}

func TestGenerateTasksBusNudgeSkippedWhenBusShareHigh(t *testing.T) {
	service, _ := newTestService()
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryTransport, Subcategory: "car", DistanceKm: fptr(40), Date: "2025-10-01"})
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryTransport, Subcategory: "bus", DistanceKm: fptr(20), Date: "2025-10-02"})

	list, err := service.GenerateTasks(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	ids := taskIDs(list.Tasks)

	// Bus usage already above 30% of car km.
	require.NotContains(t, ids, "task_transport_bus")
	require.NotContains(t, ids, "task_transport_car_reduce")
	require.Contains(t, ids, "task_transport_bike")
}

func TestGenerateTasksBikeNudgeSkippedWhenCyclingEnough(t *testing.T) {
	service, _ := newTestService()
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryTransport, Subcategory: "bicycle", DistanceKm: fptr(15), Date: "2025-10-01"})

	list, err := service.GenerateTasks(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	require.NotContains(t, taskIDs(list.Tasks), "task_transport_bike")
}

func TestGenerateTasksFood(t *testing.T) {
	service, _ := newTestService()
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryFood, Subcategory: "beef curry", Amount: fptr(2), EmissionFactor: fptr(10), Date: "2025-10-01"})

	list, err := service.GenerateTasks(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	ids := taskIDs(list.Tasks)

	require.Contains(t, ids, "task_food_reduce_meat")
	require.Contains(t, ids, "task_food_plant_based")
	require.Contains(t, ids, "task_food_waste")
	require.Contains(t, ids, "task_food_local")

	byID := make(map[string]Task)
	for _, task := range list.Tasks {
		byID[task.ID] = task
	}
	// 20 kg of meat emissions: 30% and 15% reduction estimates.
	require.InDelta(t, 6, byID["task_food_reduce_meat"].EstimatedSavingsKg, 1e-9)
	require.InDelta(t, 3, byID["task_food_plant_based"].EstimatedSavingsKg, 1e-9)
}

func TestGenerateTasksNoMeatSkipsMeatTasks(t *testing.T) {
	service, _ := newTestService()
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryFood, Subcategory: "vegetables", Amount: fptr(3), EmissionFactor: fptr(0.5), Date: "2025-10-01"})

	list, err := service.GenerateTasks(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	ids := taskIDs(list.Tasks)

	require.NotContains(t, ids, "task_food_reduce_meat")
	require.Contains(t, ids, "task_food_waste")
}

func TestGenerateTasksCapAndTotals(t *testing.T) {
	service, _ := newTestService()
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryTransport, Subcategory: "car", DistanceKm: fptr(150), Date: "2025-10-01"})
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryFood, Subcategory: "chicken", Amount: fptr(4), EmissionFactor: fptr(6.9), Date: "2025-10-02"})
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryShopping, Subcategory: "clothes", Amount: fptr(2), EmissionFactor: fptr(10), Date: "2025-10-03"})
	mustLog(t, service, "user-1", LogEntryInput{Category: CategoryEnergy, Subcategory: "electricity", Amount: fptr(100), EmissionFactor: fptr(0.82), Date: "2025-10-04"})

	list, err := service.GenerateTasks(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	// 4 transport + 4 shopping + 4 food + 3 energy + 1 general = 16 candidates.
	require.Len(t, list.Tasks, 10)
	require.Equal(t, 10, list.TotalTasks)

	sum := 0.0
	for _, task := range list.Tasks {
		sum += task.EstimatedSavingsKg
	}
	require.InDelta(t, sum, list.TotalPotentialSavingsKg, 0.01)

	for i := 1; i < len(list.Tasks); i++ {
		require.GreaterOrEqual(t, list.Tasks[i-1].EstimatedSavingsKg, list.Tasks[i].EstimatedSavingsKg)
	}
	require.Contains(t, list.HumanMessage, "Generated 10 personalized tasks")
}
