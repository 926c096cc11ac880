package nutriscore

import (
	"github.com/franckalain/nutritionscore/internal/models"
)

// IsSolid reports whether a food type is converted on the solid scale.
// Everything except beverages is solid.
func IsSolid(foodType models.FoodType) bool {
	return foodType != models.Beverages
}

// ToScale100 maps a raw score onto 0-100, clamping outside the table range
func (e *Engine) ToScale100(raw int, solid bool) int {
	d := e.tables.Scale.Liquid
	if solid {
		d = e.tables.Scale.Solid
	}

	switch {
	case raw < d.Lower:
		return d.Below
	case raw >= d.Upper:
		return d.Above
	default:
		return d.Values[raw]
	}
}

// Scale converts a raw score of foodType. Water is always rated at the
// configured water value.
func (e *Engine) Scale(raw int, foodType models.FoodType) int {
	if foodType == models.Water {
		return e.tables.Scale.Water
	}
	return e.ToScale100(raw, IsSolid(foodType))
}
