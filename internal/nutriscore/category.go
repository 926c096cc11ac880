package nutriscore

import (
	"fmt"

	"github.com/franckalain/nutritionscore/internal/models"
)

// Categorize maps a raw score to its letter grade. The first threshold the
// score does not exceed wins; above the last threshold the grade is E.
func (e *Engine) Categorize(score int, foodType models.FoodType) (string, error) {
	var thresholds []GradeThreshold

	switch foodType {
	case models.Water:
		return "A", nil
	case models.GeneralFood, models.RedMeat, models.Cheese:
		thresholds = e.tables.Grades.General
	case models.FatsOilsNutsSeeds:
		thresholds = e.tables.Grades.Fats
	case models.Beverages:
		thresholds = e.tables.Grades.Beverages
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, foodType)
	}

	for _, t := range thresholds {
		if score <= t.Max {
			return t.Grade, nil
		}
	}
	return "E", nil
}
