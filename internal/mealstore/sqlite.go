package mealstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Meal is one logged consumption event.
type Meal struct {
	ID         int64     `json:"id"`
	DishName   string    `json:"dish_name"`
	MealType   string    `json:"meal_type"`
	Calories   int       `json:"calories"`
	ConsumedAt time.Time `json:"consumed_at"`
}

// SQLiteStore persists logged meals in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("mealstore: open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("mealstore: initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS user_meals (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        dish_name TEXT NOT NULL,
        meal_type TEXT NOT NULL,
        calories INTEGER NOT NULL,
        consumed_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_user_meals_consumed_at ON user_meals(consumed_at);
    CREATE INDEX IF NOT EXISTS idx_user_meals_dish_name ON user_meals(dish_name);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Add records a meal and returns it with the assigned ID.
func (s *SQLiteStore) Add(ctx context.Context, dishName, mealType string, calories int, consumedAt time.Time) (*Meal, error) {
	if consumedAt.IsZero() {
		consumedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO user_meals (dish_name, meal_type, calories, consumed_at) VALUES (?, ?, ?, ?)`,
		dishName, mealType, calories, consumedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("mealstore: insert meal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("mealstore: last insert id: %w", err)
	}

	return &Meal{
		ID:         id,
		DishName:   dishName,
		MealType:   mealType,
		Calories:   calories,
		ConsumedAt: consumedAt,
	}, nil
}

// List returns the most recent meals, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Meal, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dish_name, meal_type, calories, consumed_at
         FROM user_meals
         ORDER BY consumed_at DESC
         LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("mealstore: query meals: %w", err)
	}
	defer rows.Close()

	return scanMeals(rows)
}

// ListRange returns meals with consumed_at in [start, end), oldest first.
func (s *SQLiteStore) ListRange(ctx context.Context, start, end time.Time) ([]*Meal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dish_name, meal_type, calories, consumed_at
         FROM user_meals
         WHERE consumed_at >= ? AND consumed_at < ?
         ORDER BY consumed_at ASC`,
		start.Format(time.RFC3339), end.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("mealstore: query meal range: %w", err)
	}
	defer rows.Close()

	return scanMeals(rows)
}

func scanMeals(rows *sql.Rows) ([]*Meal, error) {
	var meals []*Meal
	for rows.Next() {
		meal := &Meal{}
		var consumedAtStr string

		if err := rows.Scan(&meal.ID, &meal.DishName, &meal.MealType, &meal.Calories, &consumedAtStr); err != nil {
			return nil, fmt.Errorf("mealstore: scan meal: %w", err)
		}

		consumedAt, err := time.Parse(time.RFC3339, consumedAtStr)
		if err != nil {
			return nil, fmt.Errorf("mealstore: parse consumed_at: %w", err)
		}
		meal.ConsumedAt = consumedAt

		meals = append(meals, meal)
	}

	return meals, rows.Err()
}
