package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tamatar-api/internal/nutrition"
	"tamatar-api/pkg/logging"
)

// CompareRequest names the two dishes to compare.
type CompareRequest struct {
	DishA string `json:"dishA"`
	DishB string `json:"dishB"`
}

// CompareDish is one side of a comparison.
type CompareDish struct {
	Name        string   `json:"name"`
	Calories    int      `json:"calories"`
	MatchedName string   `json:"matched_name"`
	Confidence  int      `json:"confidence"`
	ProteinG    *float64 `json:"protein_g"`
	CarbsG      *float64 `json:"carbs_g"`
	FatG        *float64 `json:"fat_g"`
}

// CompareMeta describes the comparison outcome.
type CompareMeta struct {
	Model             string `json:"model"`
	GeneratedAt       string `json:"generated_at"`
	CalorieDifference int    `json:"calorie_difference"`
	LighterDish       string `json:"lighter_dish"`
}

// CompareResponse is the full comparison payload.
type CompareResponse struct {
	DishA      CompareDish `json:"dishA"`
	DishB      CompareDish `json:"dishB"`
	Suggestion string      `json:"suggestion"`
	Meta       CompareMeta `json:"meta"`
}

// Compare handles POST /api/compare. Comparisons are never cached; the
// suggestion depends on both dishes and is cheap to regenerate.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	dishA, err := h.Resolver.Resolve(req.DishA, h.MatchThreshold)
	if err == nil {
		var dishB nutrition.ResolvedDish
		dishB, err = h.Resolver.Resolve(req.DishB, h.MatchThreshold)
		if err == nil {
			suggestion := h.Gen.ComparisonSuggestion(ctx, req.DishA, req.DishB, dishA.Calories, dishB.Calories)

			lighter := req.DishB
			if dishA.Calories < dishB.Calories {
				lighter = req.DishA
			}
			diff := dishA.Calories - dishB.Calories
			if diff < 0 {
				diff = -diff
			}

			logger.Info("dishes compared",
				zap.String("dish_a", req.DishA),
				zap.Int("calories_a", dishA.Calories),
				zap.String("dish_b", req.DishB),
				zap.Int("calories_b", dishB.Calories),
			)
			writeJSON(w, http.StatusOK, CompareResponse{
				DishA:      toCompareDish(req.DishA, dishA),
				DishB:      toCompareDish(req.DishB, dishB),
				Suggestion: suggestion,
				Meta: CompareMeta{
					Model:             textModelName,
					GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
					CalorieDifference: diff,
					LighterDish:       lighter,
				},
			})
			return
		}
	}

	if errors.Is(err, nutrition.ErrInvalidQuery) {
		writeError(w, http.StatusBadRequest, "both dish names must be non-empty")
		return
	}
	logger.Error("comparison failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to compare dishes")
}

func toCompareDish(query string, d nutrition.ResolvedDish) CompareDish {
	return CompareDish{
		Name:        query,
		Calories:    d.Calories,
		MatchedName: d.MatchedName,
		Confidence:  d.Confidence,
		ProteinG:    d.ProteinG,
		CarbsG:      d.CarbsG,
		FatG:        d.FatG,
	}
}
