package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"tamatar-api/internal/mealstore"
)

// Renderer draws weekly calorie charts as PNG files under the images
// directory and returns their servable URL paths.
type Renderer struct {
	chartsDir string
	urlPrefix string
	logger    *zap.Logger
}

// NewRenderer creates a chart renderer writing into chartsDir.
func NewRenderer(chartsDir, urlPrefix string, logger *zap.Logger) (*Renderer, error) {
	if chartsDir == "" {
		chartsDir = filepath.Join("data", "images")
	}
	if urlPrefix == "" {
		urlPrefix = "/data/images"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(chartsDir, 0o755); err != nil {
		return nil, fmt.Errorf("chart: create charts dir: %w", err)
	}

	return &Renderer{
		chartsDir: chartsDir,
		urlPrefix: urlPrefix,
		logger:    logger.Named("chart"),
	}, nil
}

// Weekly renders a bar chart of daily calorie totals for every day in
// [start, end] inclusive. Days without meals get a zero bar.
func (r *Renderer) Weekly(meals []*mealstore.Meal, start, end time.Time) (string, error) {
	start = start.Truncate(24 * time.Hour)
	end = end.Truncate(24 * time.Hour)

	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return "", fmt.Errorf("chart: invalid date range %s to %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	dailyTotals := make([]float64, days)
	dayLabels := make([]string, days)
	for i := 0; i < days; i++ {
		dayLabels[i] = start.AddDate(0, 0, i).Format("Mon")
	}
	for _, meal := range meals {
		day := int(meal.ConsumedAt.Truncate(24*time.Hour).Sub(start).Hours() / 24)
		if day >= 0 && day < days {
			dailyTotals[day] += float64(meal.Calories)
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Weekly Calorie Consumption\n%s to %s",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	p.X.Label.Text = "Day of Week"
	p.Y.Label.Text = "Calories"

	bars, err := plotter.NewBarChart(plotter.Values(dailyTotals), vg.Points(28))
	if err != nil {
		return "", fmt.Errorf("chart: build bar chart: %w", err)
	}
	bars.Color = color.RGBA{R: 0xff, G: 0x6b, B: 0x6b, A: 0xff}
	bars.LineStyle.Color = color.RGBA{R: 0xd6, G: 0x30, B: 0x31, A: 0xff}
	p.Add(bars)
	p.NominalX(dayLabels...)

	filename := fmt.Sprintf("weekly_chart_%s_%s_%d.png",
		start.Format("2006-01-02"), end.Format("2006-01-02"), time.Now().Unix())
	path := filepath.Join(r.chartsDir, filename)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("chart: save chart: %w", err)
	}

	url := r.urlPrefix + "/" + filename
	r.logger.Info("weekly chart generated",
		zap.String("url", url),
		zap.Int("days", days),
	)
	return url, nil
}
