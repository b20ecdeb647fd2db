package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"tamatar-api/internal/cache"
	"tamatar-api/pkg/logging"
)

type invalidateRequest struct {
	Dish string `json:"dish"`
	Kind string `json:"kind"`
}

// InvalidateCache handles POST /admin/cache/invalidate.
// An empty kind clears every cached artifact for the dish.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)

	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Dish == "" {
		writeError(w, http.StatusBadRequest, "dish is required")
		return
	}

	kind := cache.Kind(req.Kind)
	switch kind {
	case cache.KindAny, cache.KindPreview, cache.KindImage, cache.KindCaptions:
	default:
		writeError(w, http.StatusBadRequest, "kind must be preview, image, captions or empty")
		return
	}

	removed := h.Cache.Invalidate(ctx, req.Dish, kind)
	logger.Info("cache invalidated",
		zap.String("dish", req.Dish),
		zap.String("kind", req.Kind),
		zap.Int("removed", removed),
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dish":    req.Dish,
		"kind":    req.Kind,
		"removed": removed,
	})
}

// SweepCache handles POST /admin/cache/sweep.
func (h *Handler) SweepCache(w http.ResponseWriter, r *http.Request) {
	removed := h.Cache.SweepExpired(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// ReloadNutrition handles POST /admin/nutrition/reload, re-reading the
// reference dataset from disk.
func (h *Handler) ReloadNutrition(w http.ResponseWriter, r *http.Request) {
	logger := logging.L(r.Context())

	if err := h.Resolver.Reload(); err != nil {
		logger.Error("nutrition reload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to reload nutrition data")
		return
	}

	logger.Info("nutrition data reloaded", zap.Int("dishes", h.Resolver.Len()))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"dishes": h.Resolver.Len(),
	})
}
