package generate

import (
	"context"
	"fmt"
	"hash/fnv"

	"go.uber.org/zap"

	"tamatar-api/internal/metrics"
)

// PlaceholderImage is served when image generation is unavailable or fails.
const PlaceholderImage = "/data/images/default_placeholder.png"

// Manager fronts the text and image generators with static fallbacks so that
// upstream outages never surface as request errors. Either generator may be
// nil when the corresponding API key is not configured.
type Manager struct {
	text   TextGenerator
	image  ImageGenerator
	logger *zap.Logger
}

// NewManager creates a manager. Nil generators are allowed and route every
// call straight to the fallback.
func NewManager(text TextGenerator, image ImageGenerator, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		text:   text,
		image:  image,
		logger: logger.Named("generate"),
	}
}

// Status reports which generators are wired.
func (m *Manager) Status() map[string]bool {
	return map[string]bool{
		"text":  m.text != nil,
		"image": m.image != nil,
	}
}

// BhaiCaption returns a casual Hinglish caption, falling back to one of a
// fixed set of templates chosen deterministically by dish name.
func (m *Manager) BhaiCaption(ctx context.Context, dish string, calories int) string {
	if m.text != nil {
		caption, err := m.text.BhaiCaption(ctx, dish, calories)
		if err == nil && caption != "" {
			return caption
		}
		m.logFallback("bhai_caption", err)
	} else {
		m.countFallback("bhai_caption")
	}
	return fallbackBhaiCaption(dish, calories)
}

// FormalCaption returns a professional caption with a static fallback.
func (m *Manager) FormalCaption(ctx context.Context, dish string, calories int) string {
	if m.text != nil {
		caption, err := m.text.FormalCaption(ctx, dish, calories)
		if err == nil && caption != "" {
			return caption
		}
		m.logFallback("formal_caption", err)
	} else {
		m.countFallback("formal_caption")
	}
	return fmt.Sprintf("%s provides %d calories per serving and offers a balanced "+
		"nutritional profile suitable for a complete meal.", dish, calories)
}

// DishImage returns a generated image URL or the placeholder.
func (m *Manager) DishImage(ctx context.Context, dish string) string {
	if m.image != nil {
		url, err := m.image.DishImage(ctx, dish)
		if err == nil && url != "" {
			return url
		}
		m.logFallback("dish_image", err)
	} else {
		m.countFallback("dish_image")
	}
	return PlaceholderImage
}

// ComparisonSuggestion returns a one-line recommendation between two dishes.
func (m *Manager) ComparisonSuggestion(ctx context.Context, dishA, dishB string, caloriesA, caloriesB int) string {
	if m.text != nil {
		suggestion, err := m.text.ComparisonSuggestion(ctx, dishA, dishB, caloriesA, caloriesB)
		if err == nil && suggestion != "" {
			return suggestion
		}
		m.logFallback("comparison", err)
	} else {
		m.countFallback("comparison")
	}
	return fallbackComparison(dishA, dishB, caloriesA, caloriesB)
}

// WeeklySummary returns a short narrative for a week of logged meals.
func (m *Manager) WeeklySummary(ctx context.Context, totalCalories int, dateRange string, avgPerDay int) string {
	if m.text != nil {
		summary, err := m.text.WeeklySummary(ctx, totalCalories, dateRange, avgPerDay)
		if err == nil && summary != "" {
			return summary
		}
		m.logFallback("weekly_summary", err)
	} else {
		m.countFallback("weekly_summary")
	}
	return fmt.Sprintf("Your weekly intake totaled %d calories with an average of %d "+
		"calories per day. This shows a consistent eating pattern with moderate caloric "+
		"consumption. Consider maintaining this balanced approach for optimal nutrition.",
		totalCalories, avgPerDay)
}

func (m *Manager) logFallback(generator string, err error) {
	m.logger.Warn("generator failed, using fallback",
		zap.String("generator", generator),
		zap.Error(err),
	)
	metrics.GeneratorFallbacksTotal.WithLabelValues(generator).Inc()
}

func (m *Manager) countFallback(generator string) {
	metrics.GeneratorFallbacksTotal.WithLabelValues(generator).Inc()
}

var bhaiTemplates = []string{
	"Bhai, %s looks solid - %d calories, not bad!",
	"Scene simple hai bhai: %s with %d calories, decent choice.",
	"Bhai, %s ka taste aur %d calories - balance theek hai!",
	"%s bhai - %d calories, mazedaar lagta hai!",
}

// fallbackBhaiCaption picks a template by hashing the dish name so the same
// dish always gets the same caption.
func fallbackBhaiCaption(dish string, calories int) string {
	h := fnv.New32a()
	h.Write([]byte(dish))
	tmpl := bhaiTemplates[h.Sum32()%uint32(len(bhaiTemplates))]
	return fmt.Sprintf(tmpl, dish, calories)
}

func fallbackComparison(dishA, dishB string, caloriesA, caloriesB int) string {
	switch {
	case caloriesA < caloriesB:
		return fmt.Sprintf("Bhai, %s is lighter at %d calories - better choice than %s!",
			dishA, caloriesA, dishB)
	case caloriesB < caloriesA:
		return fmt.Sprintf("Bhai, %s is lighter at %d calories - go for it over %s!",
			dishB, caloriesB, dishA)
	default:
		return fmt.Sprintf("Bhai, both %s and %s are similar at around %d calories - pick jo mann kare!",
			dishA, dishB, caloriesA)
	}
}
