package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"tamatar-api/internal/mealstore"
	"tamatar-api/pkg/logging"
)

type dishEntry struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Calories    int    `json:"calories"`
	MealType    string `json:"meal_type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Dishes handles GET /api/dishes, listing the reference table.
func (h *Handler) Dishes(w http.ResponseWriter, r *http.Request) {
	records := h.Resolver.All()

	dishes := make([]dishEntry, len(records))
	for i, rec := range records {
		dishes[i] = dishEntry{
			ID:          i + 1,
			Name:        rec.Name,
			Calories:    rec.Calories,
			MealType:    rec.MealType,
			Description: rec.Description,
		}
	}

	writeJSON(w, http.StatusOK, dishes)
}

// SearchDishes handles GET /api/dishes/search?q=...&limit=N.
func (h *Handler) SearchDishes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results := h.Resolver.Search(q, limit, 0)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   q,
		"count":   len(results),
		"results": results,
	})
}

// ListMeals handles GET /api/meals, newest first.
func (h *Handler) ListMeals(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	meals, err := h.Meals.List(r.Context(), limit)
	if err != nil {
		logging.L(r.Context()).Error("meal list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load meals")
		return
	}
	if meals == nil {
		meals = []*mealstore.Meal{} // JSON [] rather than null
	}
	writeJSON(w, http.StatusOK, meals)
}
