package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tamatar-api/internal/cache"
	"tamatar-api/internal/chart"
	"tamatar-api/internal/generate"
	"tamatar-api/internal/mealstore"
	"tamatar-api/internal/nutrition"
)

const testCSV = `dish_name,calories,meal_type,protein_g,carbs_g,fat_g,description
Aloo Paratha,320,breakfast,8,45,12,Stuffed flatbread with spiced potatoes
Rajma,245,lunch,15,35,8,Red kidney beans in spiced tomato gravy
Dal Tadka,180,lunch,12,28,4,Tempered yellow lentils
`

// fakeText counts calls so tests can tell cache hits from regeneration.
type fakeText struct {
	calls int64
}

func (f *fakeText) BhaiCaption(_ context.Context, dish string, calories int) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	return "bhai caption for " + dish, nil
}

func (f *fakeText) FormalCaption(_ context.Context, dish string, calories int) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	return "formal caption for " + dish, nil
}

func (f *fakeText) ComparisonSuggestion(_ context.Context, dishA, dishB string, _, _ int) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	return "suggestion for " + dishA + " vs " + dishB, nil
}

func (f *fakeText) WeeklySummary(_ context.Context, _ int, _ string, _ int) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	return "weekly summary", nil
}

type fakeImage struct {
	calls int64
}

func (f *fakeImage) DishImage(_ context.Context, dish string) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	return "/data/images/" + strings.ToLower(dish) + ".png", nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeText, *fakeImage) {
	t.Helper()

	dir := t.TempDir()

	csvPath := filepath.Join(dir, "nutrition_lookup.csv")
	if err := os.WriteFile(csvPath, []byte(testCSV), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	resolver := nutrition.NewResolver(csvPath, nil)

	store := cache.NewMemoryStore(time.Hour)
	t.Cleanup(func() { store.Close() })

	meals, err := mealstore.New(filepath.Join(dir, "meals.db"))
	if err != nil {
		t.Fatalf("open meal store: %v", err)
	}
	t.Cleanup(func() { meals.Close() })

	renderer, err := chart.NewRenderer(dir, "/data/images", nil)
	if err != nil {
		t.Fatalf("create renderer: %v", err)
	}

	text := &fakeText{}
	image := &fakeImage{}
	gen := generate.NewManager(text, image, nil)

	return New(resolver, cache.New(store, time.Hour), gen, meals, renderer), text, image
}

func doPreview(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Preview(rec, req)
	return rec
}

func TestPreview_GeneratesAndCaches(t *testing.T) {
	h, text, image := newTestHandler(t)

	rec := doPreview(t, h, `{"dish":"Aloo Paratha","meal":"breakfast"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp PreviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Calories != 320 {
		t.Fatalf("expected 320 calories, got %d", resp.Calories)
	}
	if resp.Meta.MatchedDish != "Aloo Paratha" || resp.Meta.Confidence != 100 {
		t.Fatalf("unexpected meta: %+v", resp.Meta)
	}
	if resp.Captions.Bhai == "" || resp.Captions.Formal == "" {
		t.Fatalf("expected both captions, got %+v", resp.Captions)
	}
	if image.calls != 1 {
		t.Fatalf("expected 1 image generation, got %d", image.calls)
	}

	textCallsAfterFirst := atomic.LoadInt64(&text.calls)

	// second request must come entirely from the cache
	rec = doPreview(t, h, `{"dish":"aloo paratha","meal":"lunch"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on cached preview, got %d", rec.Code)
	}
	if atomic.LoadInt64(&text.calls) != textCallsAfterFirst {
		t.Fatalf("cached preview must not regenerate captions")
	}
	if atomic.LoadInt64(&image.calls) != 1 {
		t.Fatalf("cached preview must not regenerate the image")
	}

	var cached PreviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cached); err != nil {
		t.Fatalf("decode cached response: %v", err)
	}
	if cached.Meta.GeneratedAt != resp.Meta.GeneratedAt {
		t.Fatalf("cached preview must be the stored payload")
	}
}

func TestPreview_RecordsMealOnlyOnGeneration(t *testing.T) {
	h, _, _ := newTestHandler(t)

	doPreview(t, h, `{"dish":"Rajma","meal":"lunch"}`)
	doPreview(t, h, `{"dish":"Rajma","meal":"dinner"}`) // cache hit, not logged

	meals, err := h.Meals.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected 1 recorded meal, got %d", len(meals))
	}
	if meals[0].DishName != "Rajma" || meals[0].MealType != "lunch" || meals[0].Calories != 245 {
		t.Fatalf("unexpected meal record: %+v", meals[0])
	}
}

func TestPreview_InvalidInput(t *testing.T) {
	h, _, _ := newTestHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"empty dish", `{"dish":"   ","meal":"lunch"}`},
		{"bad meal type", `{"dish":"Rajma","meal":"brunch"}`},
		{"broken json", `{"dish":`},
	}

	for _, tc := range cases {
		if rec := doPreview(t, h, tc.body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestPreview_UnknownDishEstimates(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := doPreview(t, h, `{"dish":"Mystery Chicken Dish","meal":"dinner"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp PreviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Meta.Confidence != 0 {
		t.Fatalf("expected confidence 0 for estimate, got %d", resp.Meta.Confidence)
	}
	if resp.Meta.MatchedDish != "Mystery Chicken Dish" {
		t.Fatalf("expected query echoed as matched dish, got %q", resp.Meta.MatchedDish)
	}
	if resp.Calories != 350 {
		t.Fatalf("expected meat-group estimate 350, got %d", resp.Calories)
	}
}
