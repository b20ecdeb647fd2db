package nutrition

import "strings"

// calorieGroup is one keyword category of the heuristic estimator.
type calorieGroup struct {
	keywords []string
	calories int
}

// Heuristic calorie table, checked in priority order; only the first group
// whose keyword appears as a substring of the query applies.
var calorieGroups = []calorieGroup{
	{[]string{"paratha", "naan", "kulcha", "bhatura"}, 300}, // bread items
	{[]string{"rice", "biryani", "pulao"}, 250},             // rice dishes
	{[]string{"dal", "lentil"}, 180},                        // lentil dishes
	{[]string{"chicken", "mutton", "meat"}, 350},            // meat dishes
	{[]string{"paneer", "cheese"}, 280},                     // paneer dishes
	{[]string{"sabzi", "vegetable", "curry"}, 150},          // vegetable dishes
	{[]string{"samosa", "pakora", "snack"}, 200},            // fried snacks
	{[]string{"sweet", "dessert", "halwa"}, 400},            // sweets
}

const defaultEstimate = 250

// estimateCalories guesses calories from dish-name patterns when no
// reference dish clears the match threshold. The input must already be
// lowercased.
func estimateCalories(dishLower string) int {
	for _, group := range calorieGroups {
		for _, kw := range group.keywords {
			if strings.Contains(dishLower, kw) {
				return group.calories
			}
		}
	}
	return defaultEstimate
}
