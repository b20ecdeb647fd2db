package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type failingText struct{}

func (failingText) BhaiCaption(context.Context, string, int) (string, error) {
	return "", errors.New("upstream down")
}
func (failingText) FormalCaption(context.Context, string, int) (string, error) {
	return "", errors.New("upstream down")
}
func (failingText) ComparisonSuggestion(context.Context, string, string, int, int) (string, error) {
	return "", errors.New("upstream down")
}
func (failingText) WeeklySummary(context.Context, int, string, int) (string, error) {
	return "", errors.New("upstream down")
}

type failingImage struct{}

func (failingImage) DishImage(context.Context, string) (string, error) {
	return "", errors.New("upstream down")
}

func TestManager_NilGeneratorsUseFallbacks(t *testing.T) {
	m := NewManager(nil, nil, nil)
	ctx := context.Background()

	caption := m.BhaiCaption(ctx, "Aloo Paratha", 320)
	if caption == "" || !strings.Contains(caption, "320") {
		t.Fatalf("fallback caption should mention calories, got %q", caption)
	}

	// deterministic per dish
	if again := m.BhaiCaption(ctx, "Aloo Paratha", 320); again != caption {
		t.Fatalf("fallback caption must be stable for the same dish")
	}

	if url := m.DishImage(ctx, "Aloo Paratha"); url != PlaceholderImage {
		t.Fatalf("expected placeholder image, got %q", url)
	}

	formal := m.FormalCaption(ctx, "Rajma", 245)
	if !strings.Contains(formal, "Rajma") || !strings.Contains(formal, "245") {
		t.Fatalf("unexpected formal fallback: %q", formal)
	}
}

func TestManager_FailingGeneratorsUseFallbacks(t *testing.T) {
	m := NewManager(failingText{}, failingImage{}, nil)
	ctx := context.Background()

	if caption := m.BhaiCaption(ctx, "Poha", 180); caption == "" {
		t.Fatalf("expected fallback caption on generator failure")
	}
	if url := m.DishImage(ctx, "Poha"); url != PlaceholderImage {
		t.Fatalf("expected placeholder on generator failure, got %q", url)
	}
	if s := m.WeeklySummary(ctx, 1400, "2025-03-03 to 2025-03-09", 200); !strings.Contains(s, "1400") {
		t.Fatalf("unexpected summary fallback: %q", s)
	}
}

func TestFallbackComparison(t *testing.T) {
	if got := fallbackComparison("Rajma", "Dal Tadka", 245, 180); !strings.Contains(got, "Dal Tadka is lighter") {
		t.Fatalf("expected lighter dish named, got %q", got)
	}
	if got := fallbackComparison("Rajma", "Dal Tadka", 180, 245); !strings.Contains(got, "Rajma is lighter") {
		t.Fatalf("expected lighter dish named, got %q", got)
	}
	if got := fallbackComparison("Rajma", "Dal Tadka", 200, 200); !strings.Contains(got, "similar") {
		t.Fatalf("expected tie wording, got %q", got)
	}
}
