package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tamatar-api/pkg/logging"
)

// WeeklyMeta carries the aggregate statistics for the reporting window.
type WeeklyMeta struct {
	Model             string `json:"model"`
	GeneratedAt       string `json:"generated_at"`
	MealCount         int    `json:"meal_count"`
	UniqueDishes      int    `json:"unique_dishes"`
	AvgCaloriesPerDay int    `json:"avg_calories_per_day"`
	DaysInRange       int    `json:"days_in_range"`
	MostConsumedDish  string `json:"most_consumed_dish"`
	MostConsumedCount int    `json:"most_consumed_count"`
}

// WeeklyResponse is the weekly snapshot payload.
type WeeklyResponse struct {
	TotalCalories int               `json:"total_calories"`
	ChartURL      string            `json:"chart_url"`
	Summary       string            `json:"summary"`
	DateRange     map[string]string `json:"date_range"`
	Meta          WeeklyMeta        `json:"meta"`
}

// Weekly handles GET /api/weekly?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) Weekly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)

	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be a YYYY-MM-DD date")
		return
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be a YYYY-MM-DD date")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end must not be before start")
		return
	}

	days := int(end.Sub(start).Hours()/24) + 1

	// End of range is inclusive, so query up to the next midnight.
	meals, err := h.Meals.ListRange(ctx, start, end.AddDate(0, 0, 1))
	if err != nil {
		logger.Error("meal range query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load meal history")
		return
	}

	totalCalories := 0
	dishCounts := make(map[string]int)
	var mostConsumed string
	for _, meal := range meals {
		totalCalories += meal.Calories
		dishCounts[meal.DishName]++
		// earliest-logged dish wins ties
		if dishCounts[meal.DishName] > dishCounts[mostConsumed] || mostConsumed == "" {
			mostConsumed = meal.DishName
		}
	}
	avgPerDay := totalCalories / days

	chartURL, err := h.Chart.Weekly(meals, start, end)
	if err != nil {
		logger.Error("weekly chart failed", zap.Error(err))
		chartURL = ""
	}

	dateRange := fmt.Sprintf("%s to %s", startStr, endStr)
	summary := h.Gen.WeeklySummary(ctx, totalCalories, dateRange, avgPerDay)

	logger.Info("weekly snapshot served",
		zap.String("start", startStr),
		zap.String("end", endStr),
		zap.Int("total_calories", totalCalories),
		zap.Int("meal_count", len(meals)),
	)
	writeJSON(w, http.StatusOK, WeeklyResponse{
		TotalCalories: totalCalories,
		ChartURL:      chartURL,
		Summary:       summary,
		DateRange:     map[string]string{"start": startStr, "end": endStr},
		Meta: WeeklyMeta{
			Model:             chartModelName,
			GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
			MealCount:         len(meals),
			UniqueDishes:      len(dishCounts),
			AvgCaloriesPerDay: avgPerDay,
			DaysInRange:       days,
			MostConsumedDish:  mostConsumed,
			MostConsumedCount: dishCounts[mostConsumed],
		},
	})
}
