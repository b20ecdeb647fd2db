package nutrition

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testCSV = `dish_name,calories,meal_type,protein_g,carbs_g,fat_g,description
Aloo Paratha,320,breakfast,8,45,12,Stuffed flatbread with spiced potatoes
Rajma,245,lunch,15,35,8,Red kidney beans in spiced tomato gravy
Dal Tadka,180,lunch,12,28,4,Tempered yellow lentils
Kada,100,snack,,,,
Kado,110,snack,,,,
`

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nutrition_lookup.csv")
	if err := os.WriteFile(path, []byte(testCSV), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r := NewResolver(path, nil)
	if r.Len() != 5 {
		t.Fatalf("expected 5 reference dishes, got %d", r.Len())
	}
	return r
}

func TestResolve_ExactMatch(t *testing.T) {
	r := newTestResolver(t)

	got, err := r.Resolve("Aloo Paratha", 0)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Confidence != 100 {
		t.Fatalf("expected confidence 100, got %d", got.Confidence)
	}
	if got.Calories != 320 {
		t.Fatalf("expected 320 calories, got %d", got.Calories)
	}
	if got.MatchedName != "Aloo Paratha" {
		t.Fatalf("expected stored-case name, got %q", got.MatchedName)
	}
	if got.ProteinG == nil || *got.ProteinG != 8 {
		t.Fatalf("expected protein 8, got %v", got.ProteinG)
	}
}

func TestResolve_TyposAndCase(t *testing.T) {
	r := newTestResolver(t)

	for _, query := range []string{"alu paratha", "ALOO PARATHA", "  aloo paratha  "} {
		got, err := r.Resolve(query, 0)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", query, err)
		}
		if got.MatchedName != "Aloo Paratha" {
			t.Fatalf("Resolve(%q): expected Aloo Paratha, got %q", query, got.MatchedName)
		}
		if got.Calories != 320 {
			t.Fatalf("Resolve(%q): expected 320 calories, got %d", query, got.Calories)
		}
		if got.Confidence < DefaultThreshold {
			t.Fatalf("Resolve(%q): confidence %d below threshold", query, got.Confidence)
		}
	}
}

func TestResolve_FallbackEstimate(t *testing.T) {
	r := newTestResolver(t)

	got, err := r.Resolve("  Mystery Space Food  ", 0)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Confidence != 0 {
		t.Fatalf("expected confidence 0 for estimate, got %d", got.Confidence)
	}
	// the original query, untrimmed, is echoed back as the matched name
	if got.MatchedName != "  Mystery Space Food  " {
		t.Fatalf("expected original query echoed, got %q", got.MatchedName)
	}
	if got.Calories != 250 {
		t.Fatalf("expected default estimate 250, got %d", got.Calories)
	}
	if got.MealType != "any" {
		t.Fatalf("expected meal type 'any', got %q", got.MealType)
	}
	if got.ProteinG != nil || got.CarbsG != nil || got.FatG != nil {
		t.Fatalf("estimates must not invent macros")
	}
}

func TestResolve_TieKeepsFirstOccurrence(t *testing.T) {
	r := newTestResolver(t)

	// "kad" is equidistant from Kada and Kado; table order decides
	got, err := r.Resolve("kad", 50)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.MatchedName != "Kada" {
		t.Fatalf("expected first occurrence Kada to win the tie, got %q", got.MatchedName)
	}
}

func TestResolve_EmptyQuery(t *testing.T) {
	r := newTestResolver(t)

	for _, query := range []string{"", "   ", "\t\n"} {
		if _, err := r.Resolve(query, 0); !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("Resolve(%q): expected ErrInvalidQuery, got %v", query, err)
		}
	}
}

func TestResolve_ThresholdOutOfRangeUsesDefault(t *testing.T) {
	r := newTestResolver(t)

	// at threshold 101 everything would be an estimate; the default applies instead
	got, err := r.Resolve("Rajma", 101)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Confidence != 100 || got.Calories != 245 {
		t.Fatalf("expected exact Rajma match, got %+v", got)
	}
}

func TestResolve_DegradedMode(t *testing.T) {
	r := NewResolver(filepath.Join(t.TempDir(), "missing.csv"), nil)
	if r.Len() != 0 {
		t.Fatalf("expected empty table, got %d", r.Len())
	}

	got, err := r.Resolve("chicken curry", 0)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Confidence != 0 {
		t.Fatalf("expected estimate in degraded mode, got confidence %d", got.Confidence)
	}
	if got.Calories != 350 {
		t.Fatalf("expected meat-group estimate 350, got %d", got.Calories)
	}
}

func TestEstimateCalories(t *testing.T) {
	cases := []struct {
		dish string
		want int
	}{
		{"random paratha thing", 300},
		{"veg biryani", 250},
		{"moong dal", 180},
		{"chicken wrap", 350},
		{"paneer roll", 280},
		{"mixed vegetable", 150},
		{"onion pakora", 200},
		{"gajar halwa", 400},
		// first matching group wins: bread beats meat
		{"chicken paratha", 300},
		{"completely unknown", 250},
	}

	for _, tc := range cases {
		if got := estimateCalories(tc.dish); got != tc.want {
			t.Errorf("estimateCalories(%q) = %d, want %d", tc.dish, got, tc.want)
		}
	}
}

func TestSearch(t *testing.T) {
	r := newTestResolver(t)

	results := r.Search("paratha", 0, 0)
	if len(results) == 0 {
		t.Fatalf("expected results for substring query")
	}
	if results[0].Name != "Aloo Paratha" || results[0].Score != 100 {
		t.Fatalf("expected Aloo Paratha with score 100 first, got %+v", results[0])
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not sorted by descending score")
		}
	}

	if got := r.Search("paratha", 1, 0); len(got) != 1 {
		t.Fatalf("expected limit to cap results, got %d", len(got))
	}

	if got := r.Search("   ", 0, 0); got != nil {
		t.Fatalf("blank query must return nil, got %v", got)
	}
}

func TestReload_MalformedRowsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nutrition_lookup.csv")
	csv := `dish_name,calories,meal_type,protein_g,carbs_g,fat_g,description
Good Dish,200,lunch,,,,
,300,lunch,,,,
Bad Calories,abc,lunch,,,,
Zero Calories,0,lunch,,,,
`
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r := NewResolver(path, nil)
	if r.Len() != 1 {
		t.Fatalf("expected only the valid row, got %d", r.Len())
	}
}
