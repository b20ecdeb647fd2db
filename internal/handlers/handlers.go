package handlers

import (
	"encoding/json"
	"net/http"

	"tamatar-api/internal/cache"
	"tamatar-api/internal/chart"
	"tamatar-api/internal/generate"
	"tamatar-api/internal/mealstore"
	"tamatar-api/internal/nutrition"
)

// textModelName tags generated text in response metadata.
const textModelName = "openai-gpt-4o-mini"

// chartModelName tags rendered charts in response metadata.
const chartModelName = "gonum-plot"

// Handler holds dependencies shared by all API endpoints.
type Handler struct {
	Resolver *nutrition.Resolver
	Cache    *cache.ContentCache
	Gen      *generate.Manager
	Meals    *mealstore.SQLiteStore
	Chart    *chart.Renderer

	// MatchThreshold overrides the resolver default when positive.
	MatchThreshold int
}

func New(resolver *nutrition.Resolver, contentCache *cache.ContentCache, gen *generate.Manager,
	meals *mealstore.SQLiteStore, renderer *chart.Renderer) *Handler {
	return &Handler{
		Resolver: resolver,
		Cache:    contentCache,
		Gen:      gen,
		Meals:    meals,
		Chart:    renderer,
	}
}

// writeJSON is a small helper to send JSON responses consistently.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

var validMealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}
