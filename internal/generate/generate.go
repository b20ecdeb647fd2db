package generate

import "context"

// TextGenerator produces the caption/summary text the API serves. The core
// never calls this itself; results are cached by the orchestration layer.
type TextGenerator interface {
	BhaiCaption(ctx context.Context, dish string, calories int) (string, error)
	FormalCaption(ctx context.Context, dish string, calories int) (string, error)
	ComparisonSuggestion(ctx context.Context, dishA, dishB string, caloriesA, caloriesB int) (string, error)
	WeeklySummary(ctx context.Context, totalCalories int, dateRange string, avgPerDay int) (string, error)
}

// ImageGenerator produces a servable URL for a generated dish image.
type ImageGenerator interface {
	DishImage(ctx context.Context, dish string) (string, error)
}
