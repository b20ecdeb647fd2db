package nutrition

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"go.uber.org/zap"
)

// Matching policy defaults; callers may override them per call.
const (
	DefaultThreshold   = 70
	DefaultSearchLimit = 10
	DefaultMinScore    = 50
)

// ErrInvalidQuery is returned when a query normalizes to the empty string.
var ErrInvalidQuery = errors.New("nutrition: invalid query")

// Record is one reference dish. Macro fields are nil when the dataset has
// no value for them.
type Record struct {
	Name        string   `json:"name"`
	Calories    int      `json:"calories"`
	MealType    string   `json:"meal_type,omitempty"`
	ProteinG    *float64 `json:"protein_g,omitempty"`
	CarbsG      *float64 `json:"carbs_g,omitempty"`
	FatG        *float64 `json:"fat_g,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ResolvedDish is the resolver's answer for one query. Confidence is 0 if
// and only if no reference dish cleared the threshold and the calories are
// a heuristic estimate.
type ResolvedDish struct {
	Query       string   `json:"original_query"`
	MatchedName string   `json:"matched_name"`
	Confidence  int      `json:"confidence"`
	Calories    int      `json:"calories"`
	MealType    string   `json:"meal_type"`
	ProteinG    *float64 `json:"protein_g,omitempty"`
	CarbsG      *float64 `json:"carbs_g,omitempty"`
	FatG        *float64 `json:"fat_g,omitempty"`
	Description string   `json:"description,omitempty"`
}

// SearchResult is one "did you mean" candidate from Search.
type SearchResult struct {
	Name        string `json:"name"`
	Score       int    `json:"match_score"`
	Calories    int    `json:"calories"`
	MealType    string `json:"meal_type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Resolver maps free-text dish names to nutrition facts, tolerating typos
// and regional-name variation. The reference table is loaded once at
// construction and is read-only afterwards, except through Reload.
type Resolver struct {
	path   string
	logger *zap.Logger

	mu        sync.RWMutex
	records   []Record
	scanNames []string // lowercased canonical names, table order
}

// NewResolver loads the reference CSV. An unreadable file is not fatal: the
// resolver still serves heuristic estimates for every query (degraded mode),
// logged once here.
func NewResolver(path string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Resolver{path: path, logger: logger}

	if err := r.Reload(); err != nil {
		logger.Warn("nutrition reference data unavailable, serving estimates only",
			zap.String("path", path),
			zap.Error(err),
		)
	}

	return r
}

// Reload re-reads the reference CSV, replacing the in-memory table.
func (r *Resolver) Reload() error {
	records, err := loadCSV(r.path)
	if err != nil {
		return err
	}

	scanNames := make([]string, len(records))
	for i, rec := range records {
		scanNames[i] = strings.ToLower(rec.Name)
	}

	r.mu.Lock()
	r.records = records
	r.scanNames = scanNames
	r.mu.Unlock()

	r.logger.Info("nutrition reference data loaded",
		zap.String("path", r.path),
		zap.Int("dishes", len(records)),
	)
	return nil
}

// Len reports how many reference dishes are loaded.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// All returns a copy of the reference table in original order.
func (r *Resolver) All() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Resolve maps query to the closest reference dish.
//
// The best whole-string similarity ratio over the table decides; ties keep
// the first occurrence in table order. Below threshold (or with no reference
// data at all) the result is a heuristic estimate with confidence 0 and the
// original query as matched name. A threshold outside 0-100 falls back to
// DefaultThreshold.
func (r *Resolver) Resolve(query string, threshold int) (ResolvedDish, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return ResolvedDish{}, ErrInvalidQuery
	}
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	bestIdx, bestScore := -1, -1
	for i, name := range r.scanNames {
		// strictly greater keeps the first occurrence on ties
		if score := fuzzy.Ratio(normalized, name); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	if bestIdx >= 0 && bestScore >= threshold {
		rec := r.records[bestIdx]
		return ResolvedDish{
			Query:       query,
			MatchedName: rec.Name,
			Confidence:  bestScore,
			Calories:    rec.Calories,
			MealType:    rec.MealType,
			ProteinG:    rec.ProteinG,
			CarbsG:      rec.CarbsG,
			FatG:        rec.FatG,
			Description: rec.Description,
		}, nil
	}

	return ResolvedDish{
		Query:       query,
		MatchedName: query,
		Confidence:  0,
		Calories:    estimateCalories(normalized),
		MealType:    "any",
		Description: fmt.Sprintf("Estimated nutritional information for %s", query),
	}, nil
}

// Search lists reference dishes similar to query for "did you mean" style
// listings, using partial (substring-tolerant) similarity. Results are
// ordered by descending score, ties in table order, capped at limit;
// entries below minScore are dropped. No heuristic fallback: an empty
// result is a valid answer.
func (r *Resolver) Search(query string, limit, minScore int) []SearchResult {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []SearchResult
	for i, name := range r.scanNames {
		score := fuzzy.PartialRatio(normalized, name)
		if score < minScore {
			continue
		}
		rec := r.records[i]
		results = append(results, SearchResult{
			Name:        rec.Name,
			Score:       score,
			Calories:    rec.Calories,
			MealType:    rec.MealType,
			Description: rec.Description,
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// loadCSV reads the reference dataset. Expected header:
// dish_name,calories,meal_type,protein_g,carbs_g,fat_g,description
func loadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"dish_name", "calories"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("reference csv missing %q column", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}

		name := field(row, "dish_name")
		calories, calErr := strconv.Atoi(field(row, "calories"))
		if name == "" || calErr != nil || calories <= 0 {
			// skip malformed rows rather than failing the whole load
			continue
		}

		records = append(records, Record{
			Name:        name,
			Calories:    calories,
			MealType:    field(row, "meal_type"),
			ProteinG:    parseOptionalFloat(field(row, "protein_g")),
			CarbsG:      parseOptionalFloat(field(row, "carbs_g")),
			FatG:        parseOptionalFloat(field(row, "fat_g")),
			Description: field(row, "description"),
		})
	}

	return records, nil
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
