package models

import (
	"fmt"
)

// FoodType is the food category a product is rated under
type FoodType string

const (
	GeneralFood       FoodType = "general_food"
	RedMeat           FoodType = "red_meat"
	Cheese            FoodType = "cheese"
	FatsOilsNutsSeeds FoodType = "fats_oils_nuts_seeds"
	Beverages         FoodType = "beverages"
	Water             FoodType = "water"
)

// FoodTypes lists every supported category
var FoodTypes = []FoodType{GeneralFood, RedMeat, Cheese, FatsOilsNutsSeeds, Beverages, Water}

// Valid reports whether t is one of the supported categories
func (t FoodType) Valid() bool {
	for _, ft := range FoodTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// ParseFoodType converts a string into a FoodType. Empty input means general food.
func ParseFoodType(s string) (FoodType, error) {
	if s == "" {
		return GeneralFood, nil
	}
	t := FoodType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown food type %q", s)
	}
	return t, nil
}

// NutritionalValues holds the per-100g (or per-100ml) inputs of the nutri-score
type NutritionalValues struct {
	// Negative components
	Energy                 float64 `json:"energy"`                // kJ
	EnergyFromSaturates    float64 `json:"energy_from_saturates"` // kJ
	SaturatedFat           float64 `json:"saturated_fat"`         // grams
	SaturatesOverTotalFat  float64 `json:"saturates_over_total_fat"`
	Sugars                 float64 `json:"sugars"` // grams
	NonNutritiveSweeteners bool    `json:"non_nutritive_sweeteners"`
	Sodium                 float64 `json:"sodium"` // grams

	// Positive components
	Protein         float64 `json:"protein"` // grams
	Fiber           float64 `json:"fiber"`   // grams
	FruitPercentage float64 `json:"fruit_vegetables_legumes_percentage"`
}

// SaturatesOverTotalFat returns the saturated share of total fat in percent.
// A zero total yields 0.
func SaturatesOverTotalFat(saturatedFat, totalFat float64) float64 {
	if totalFat <= 0 {
		return 0
	}
	return saturatedFat / totalFat * 100
}

// NutrientProfile scales the negative components before scoring.
// Factors above 1 make the score stricter, below 1 more lenient.
type NutrientProfile struct {
	Energy       float64 `json:"energy"`
	SaturatedFat float64 `json:"saturated_fat"`
	Sugars       float64 `json:"sugars"`
	Sodium       float64 `json:"sodium"`
}

// DefaultProfile applies no scaling
func DefaultProfile() NutrientProfile {
	return NutrientProfile{Energy: 1, SaturatedFat: 1, Sugars: 1, Sodium: 1}
}

// Apply returns a copy of v with the profile factors applied.
// Protein, fiber, fruit percentage and the sweetener flag are left untouched.
func (p NutrientProfile) Apply(v NutritionalValues) NutritionalValues {
	v.Energy *= p.Energy
	v.EnergyFromSaturates *= p.Energy
	v.SaturatedFat *= p.SaturatedFat
	v.SaturatesOverTotalFat *= p.SaturatedFat
	v.Sugars *= p.Sugars
	v.Sodium *= p.Sodium
	return v
}
