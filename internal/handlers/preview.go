package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"tamatar-api/internal/cache"
	"tamatar-api/internal/nutrition"
	"tamatar-api/pkg/logging"
)

// PreviewRequest asks for a full preview of one dish.
type PreviewRequest struct {
	Dish string `json:"dish"`
	Meal string `json:"meal"`
}

// Captions is the cached caption pair for a dish.
type Captions struct {
	Bhai   string `json:"bhai"`
	Formal string `json:"formal"`
}

// PreviewMeta describes how the preview was produced.
type PreviewMeta struct {
	Model       string `json:"model"`
	GeneratedAt string `json:"generated_at"`
	MatchedDish string `json:"matched_dish"`
	Confidence  int    `json:"confidence"`
}

// PreviewResponse is the full preview payload, also the cached preview shape.
type PreviewResponse struct {
	Dish     string      `json:"dish"`
	Calories int         `json:"calories"`
	ImageURL string      `json:"image_url"`
	Captions Captions    `json:"captions"`
	Meta     PreviewMeta `json:"meta"`
}

// Preview handles POST /api/preview.
//
// A cached preview short-circuits everything, including the meal record.
// Otherwise the image and captions are resolved independently through the
// cache, the assembled preview is cached, and the meal is logged.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	meal := strings.ToLower(strings.TrimSpace(req.Meal))
	if meal == "" {
		meal = "snack"
	}
	if !validMealTypes[meal] {
		writeError(w, http.StatusBadRequest, "meal must be one of breakfast, lunch, dinner, snack")
		return
	}

	// ---- Tier 1: full preview cache ----
	cacheLookupStart := time.Now()
	var cached PreviewResponse
	if h.Cache.Get(ctx, req.Dish, cache.KindPreview, &cached) {
		logger.Info("preview served",
			zap.String("dish", req.Dish),
			zap.Bool("cache_hit", true),
			zap.Duration("cache_lookup_latency_ms", time.Since(cacheLookupStart)),
			zap.Duration("total_latency_ms", time.Since(start)),
		)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	resolved, err := h.Resolver.Resolve(req.Dish, h.MatchThreshold)
	if err != nil {
		if errors.Is(err, nutrition.ErrInvalidQuery) {
			writeError(w, http.StatusBadRequest, "dish name must not be empty")
			return
		}
		logger.Error("dish resolution failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate preview")
		return
	}

	// ---- Image: cached per dish, independent of the preview entry ----
	var imageURL string
	if !h.Cache.Get(ctx, req.Dish, cache.KindImage, &imageURL) {
		imageURL = h.Gen.DishImage(ctx, req.Dish)
		h.Cache.Put(ctx, req.Dish, cache.KindImage, imageURL, h.Cache.TTLFor(cache.KindImage))
	}

	// ---- Captions: both styles generated and cached together ----
	var captions Captions
	if !h.Cache.Get(ctx, req.Dish, cache.KindCaptions, &captions) {
		captions = Captions{
			Bhai:   h.Gen.BhaiCaption(ctx, req.Dish, resolved.Calories),
			Formal: h.Gen.FormalCaption(ctx, req.Dish, resolved.Calories),
		}
		h.Cache.Put(ctx, req.Dish, cache.KindCaptions, captions, h.Cache.TTLFor(cache.KindCaptions))
	}

	resp := PreviewResponse{
		Dish:     req.Dish,
		Calories: resolved.Calories,
		ImageURL: imageURL,
		Captions: captions,
		Meta: PreviewMeta{
			Model:       textModelName,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			MatchedDish: resolved.MatchedName,
			Confidence:  resolved.Confidence,
		},
	}

	h.Cache.Put(ctx, req.Dish, cache.KindPreview, resp, h.Cache.TTLFor(cache.KindPreview))

	// Meal logging is best-effort; the preview is already assembled.
	if _, err := h.Meals.Add(ctx, req.Dish, meal, resolved.Calories, time.Time{}); err != nil {
		logger.Error("meal record failed", zap.String("dish", req.Dish), zap.Error(err))
	}

	logger.Info("preview served",
		zap.String("dish", req.Dish),
		zap.Int("calories", resolved.Calories),
		zap.Int("confidence", resolved.Confidence),
		zap.Bool("cache_hit", false),
		zap.Duration("total_latency_ms", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, resp)
}
