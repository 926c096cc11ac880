// Package nutriscore computes the raw Nutri-Score of a product, its letter
// grade and its position on the 0-100 scale.
//
// The Engine is immutable: every call receives all of its inputs and
// returns a fresh Result, so one Engine can serve concurrent callers.
package nutriscore

import (
	"errors"
	"fmt"

	"github.com/franckalain/nutritionscore/internal/models"
)

// ErrInvalidCategory is returned for a food type outside the supported set
var ErrInvalidCategory = errors.New("invalid food type")

// Component is the points earned by one nutrient
type Component struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Points    int     `json:"points"`
	MaxPoints int     `json:"max_points"`
	Negative  bool    `json:"negative"`
	Note      string  `json:"note,omitempty"`
}

// Result is the outcome of one engine evaluation
type Result struct {
	FoodType   models.FoodType `json:"food_type"`
	Negative   int             `json:"negative_points"`
	Positive   int             `json:"positive_points"`
	Score      int             `json:"score"`
	Grade      string          `json:"grade"`
	Components []Component     `json:"components,omitempty"`
}

// Engine scores nutritional values against one set of tables
type Engine struct {
	tables *Tables
}

// New creates an engine over t; nil selects DefaultTables
func New(t *Tables) *Engine {
	if t == nil {
		t = DefaultTables()
	}
	return &Engine{tables: t}
}

// Calculate returns the signed raw score for values rated as foodType
func (e *Engine) Calculate(values models.NutritionalValues, foodType models.FoodType, profile models.NutrientProfile) (int, error) {
	res, err := e.Evaluate(values, foodType, profile)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// CalculateCategory returns the letter grade for values rated as foodType
func (e *Engine) CalculateCategory(values models.NutritionalValues, foodType models.FoodType, profile models.NutrientProfile) (string, error) {
	res, err := e.Evaluate(values, foodType, profile)
	if err != nil {
		return "", err
	}
	return res.Grade, nil
}

// Evaluate computes the full breakdown: negative and positive points, the
// raw score and its grade. Water always scores 0 and grade A.
func (e *Engine) Evaluate(values models.NutritionalValues, foodType models.FoodType, profile models.NutrientProfile) (Result, error) {
	if !foodType.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidCategory, foodType)
	}
	if foodType == models.Water {
		return Result{FoodType: foodType, Grade: "A"}, nil
	}

	v := profile.Apply(values)
	res := Result{FoodType: foodType}

	negative, components := e.negativePoints(v, foodType)
	res.Negative = negative
	res.Components = components

	positive, components := e.positivePoints(v, foodType, negative)
	res.Positive = positive
	res.Components = append(res.Components, components...)

	res.Score = res.Negative - res.Positive

	grade, err := e.Categorize(res.Score, foodType)
	if err != nil {
		return Result{}, err
	}
	res.Grade = grade
	return res, nil
}

func (e *Engine) negativePoints(v models.NutritionalValues, foodType models.FoodType) (int, []Component) {
	neg := e.tables.Negative
	var specs []componentSpec

	switch foodType {
	case models.GeneralFood, models.RedMeat, models.Cheese:
		specs = []componentSpec{
			{"energy", v.Energy, neg.Energy},
			{"saturated_fat", v.SaturatedFat, neg.SaturatedFat},
			{"sugars", v.Sugars, neg.Sugars},
			{"sodium", v.Sodium, neg.Sodium},
		}
	case models.FatsOilsNutsSeeds:
		// rated by fat-normalized proxies instead of raw energy and saturated fat
		specs = []componentSpec{
			{"energy_from_saturates", v.EnergyFromSaturates, neg.EnergyFromSaturates},
			{"saturates_over_total_fat", v.SaturatesOverTotalFat, neg.SaturatesOverTotalFat},
			{"sugars", v.Sugars, neg.Sugars},
			{"sodium", v.Sodium, neg.Sodium},
		}
	case models.Beverages:
		specs = []componentSpec{
			{"energy", v.Energy, neg.EnergyBeverages},
			{"saturated_fat", v.SaturatedFat, neg.SaturatedFat},
			{"sugars", v.Sugars, neg.SugarsBeverages},
			{"sodium", v.Sodium, neg.Sodium},
		}
	}

	total, components := scoreComponents(specs, true)

	if foodType == models.Beverages {
		sweetener := Component{
			Name:      "non_nutritive_sweeteners",
			MaxPoints: e.tables.Rules.SweetenerPoints,
			Negative:  true,
		}
		if v.NonNutritiveSweeteners {
			sweetener.Value = 1
			sweetener.Points = e.tables.Rules.SweetenerPoints
		}
		total += sweetener.Points
		components = append(components, sweetener)
	}

	return total, components
}

func (e *Engine) positivePoints(v models.NutritionalValues, foodType models.FoodType, negative int) (int, []Component) {
	pos := e.tables.Positive
	rules := e.tables.Rules

	proteinTable, fruitTable := pos.Protein, pos.Fruit
	if foodType == models.Beverages {
		proteinTable, fruitTable = pos.ProteinBeverages, pos.FruitBeverages
	}

	protein := newComponent("protein", v.Protein, proteinTable, false)
	fiber := newComponent("fiber", v.Fiber, pos.Fiber, false)
	fruit := newComponent("fruit_vegetables_legumes_percentage", v.FruitPercentage, fruitTable, false)

	switch foodType {
	case models.GeneralFood, models.RedMeat, models.Cheese:
		if foodType == models.RedMeat && protein.Points > rules.RedMeatProteinCap {
			protein.Points = rules.RedMeatProteinCap
			protein.Note = fmt.Sprintf("capped at %d for red meat", rules.RedMeatProteinCap)
		}
		if foodType != models.Cheese && negative >= rules.ProteinExclusion {
			protein.Points = 0
			protein.Note = fmt.Sprintf("excluded: negative points >= %d", rules.ProteinExclusion)
		}
	case models.FatsOilsNutsSeeds:
		if negative >= rules.FatsProteinExclusion {
			protein.Points = 0
			protein.Note = fmt.Sprintf("excluded: negative points >= %d", rules.FatsProteinExclusion)
		}
	}

	components := []Component{protein, fiber, fruit}
	return protein.Points + fiber.Points + fruit.Points, components
}

type componentSpec struct {
	name        string
	value       float64
	breakpoints []float64
}

func newComponent(name string, value float64, breakpoints []float64, negative bool) Component {
	return Component{
		Name:      name,
		Value:     value,
		Points:    Points(value, breakpoints),
		MaxPoints: len(breakpoints),
		Negative:  negative,
	}
}

func scoreComponents(specs []componentSpec, negative bool) (int, []Component) {
	var total int
	components := make([]Component, 0, len(specs))
	for _, s := range specs {
		c := newComponent(s.name, s.value, s.breakpoints, negative)
		total += c.Points
		components = append(components, c)
	}
	return total, components
}
