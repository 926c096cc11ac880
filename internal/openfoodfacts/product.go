// Package openfoodfacts maps an already fetched Open Food Facts product
// record onto scoring inputs. It performs no network access.
package openfoodfacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/franckalain/nutritionscore/internal/models"
)

// NutriScoreVersion is the algorithm version the mapping reads
const NutriScoreVersion = "2023"

// ErrProductNotFound is returned when a response carries no product
var ErrProductNotFound = errors.New("product not found")

// Product is the subset of an Open Food Facts product used for scoring
type Product struct {
	Code            string                     `json:"code"`
	ProductName     string                     `json:"product_name"`
	Brands          string                     `json:"brands"`
	ImageURL        string                     `json:"image_url"`
	IngredientsText string                     `json:"ingredients_text"`
	AdditivesTags   []string                   `json:"additives_tags"`
	LabelsTags      []string                   `json:"labels_tags"`
	NutriScore      map[string]NutriScoreEntry `json:"nutriscore"`
}

// NutriScoreEntry is one algorithm version of the nutriscore block
type NutriScoreEntry struct {
	Data NutriScoreData `json:"data"`
}

// NutriScoreData holds the inputs OFF computed for a nutri-score version.
// Newer records list them under Components, older ones as flat keys.
type NutriScoreData struct {
	Components Components `json:"components"`

	IsBeverage        Flag `json:"is_beverage"`
	IsCheese          Flag `json:"is_cheese"`
	IsFatOilNutsSeeds Flag `json:"is_fat_oil_nuts_seeds"`
	IsRedMeatProduct  Flag `json:"is_red_meat_product"`
	IsWater           Flag `json:"is_water"`

	Energy                  *float64 `json:"energy"`
	EnergyFromSaturatedFat  *float64 `json:"energy_from_saturated_fat"`
	SaturatedFat            *float64 `json:"saturated_fat"`
	SaturatedFatRatio       *float64 `json:"saturated_fat_ratio"`
	Fat                     *float64 `json:"fat"`
	Sugars                  *float64 `json:"sugars"`
	NonNutritiveSweeteners  *float64 `json:"non_nutritive_sweeteners"`
	Salt                    *float64 `json:"salt"`
	Proteins                *float64 `json:"proteins"`
	Fiber                   *float64 `json:"fiber"`
	FruitsVegetablesLegumes *float64 `json:"fruits_vegetables_legumes"`
}

// Components lists the negative and positive nutri-score inputs
type Components struct {
	Negative []Component `json:"negative"`
	Positive []Component `json:"positive"`
}

// Component is a single nutri-score input; Value may be null
type Component struct {
	ID    string   `json:"id"`
	Value *float64 `json:"value"`
}

// Flag decodes the 0/1, boolean and string forms OFF uses for flags
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = false
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = n != 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.ToLower(strings.TrimSpace(s))
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			*f = parsed != 0
			return nil
		}
		*f = s == "true" || s == "yes"
		return nil
	}
	return fmt.Errorf("invalid flag value %s", data)
}

// Decode reads a bare product record
func Decode(r io.Reader) (*Product, error) {
	var p Product
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &p, nil
}

// DecodeResponse reads an API response envelope of the form {"product": {...}}
func DecodeResponse(r io.Reader) (*Product, error) {
	var envelope struct {
		Status  int      `json:"status"`
		Product *Product `json:"product"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode product response: %w", err)
	}
	if envelope.Product == nil || envelope.Product.empty() {
		return nil, ErrProductNotFound
	}
	return envelope.Product, nil
}

func (p *Product) empty() bool {
	return p.Code == "" && p.ProductName == "" && len(p.NutriScore) == 0
}

func (p *Product) data() NutriScoreData {
	return p.NutriScore[NutriScoreVersion].Data
}

// Values maps the product's nutri-score inputs. The "salt" component is
// read into Sodium, which the tables rate in grams of salt. Without a
// saturated fat ratio, the ratio is derived from the "fat" total.
func (p *Product) Values() models.NutritionalValues {
	d := p.data()
	var v models.NutritionalValues
	var hasRatio bool

	if len(d.Components.Negative) > 0 {
		for _, c := range d.Components.Negative {
			switch c.ID {
			case "energy":
				v.Energy = value(c.Value)
			case "energy_from_saturated_fat":
				v.EnergyFromSaturates = value(c.Value)
			case "saturated_fat":
				v.SaturatedFat = value(c.Value)
			case "saturated_fat_ratio":
				v.SaturatesOverTotalFat = value(c.Value)
				hasRatio = c.Value != nil
			case "sugars":
				v.Sugars = value(c.Value)
			case "non_nutritive_sweeteners":
				v.NonNutritiveSweeteners = value(c.Value) > 0
			case "salt":
				v.Sodium = value(c.Value)
			}
		}
	} else {
		v.Energy = value(d.Energy)
		v.EnergyFromSaturates = value(d.EnergyFromSaturatedFat)
		v.SaturatedFat = value(d.SaturatedFat)
		v.SaturatesOverTotalFat = value(d.SaturatedFatRatio)
		hasRatio = d.SaturatedFatRatio != nil
		v.Sugars = value(d.Sugars)
		v.NonNutritiveSweeteners = value(d.NonNutritiveSweeteners) > 0
		v.Sodium = value(d.Salt)
	}

	if len(d.Components.Positive) > 0 {
		for _, c := range d.Components.Positive {
			switch c.ID {
			case "proteins":
				v.Protein = value(c.Value)
			case "fiber":
				v.Fiber = value(c.Value)
			case "fruits_vegetables_legumes":
				v.FruitPercentage = value(c.Value)
			}
		}
	} else {
		v.Protein = value(d.Proteins)
		v.Fiber = value(d.Fiber)
		v.FruitPercentage = value(d.FruitsVegetablesLegumes)
	}

	if !hasRatio && d.Fat != nil {
		v.SaturatesOverTotalFat = models.SaturatesOverTotalFat(v.SaturatedFat, value(d.Fat))
	}
	return v
}

// FoodType derives the category from the product flags. Red meat wins over
// cheese, then fats, beverages and water; anything else is general food.
func (p *Product) FoodType() models.FoodType {
	d := p.data()
	switch {
	case bool(d.IsRedMeatProduct):
		return models.RedMeat
	case bool(d.IsCheese):
		return models.Cheese
	case bool(d.IsFatOilNutsSeeds):
		return models.FatsOilsNutsSeeds
	case bool(d.IsBeverage):
		return models.Beverages
	case bool(d.IsWater):
		return models.Water
	default:
		return models.GeneralFood
	}
}

// AdditiveIDs returns the additive tags without their language prefix
func (p *Product) AdditiveIDs() []string {
	ids := make([]string, 0, len(p.AdditivesTags))
	for _, tag := range p.AdditivesTags {
		ids = append(ids, strings.TrimPrefix(tag, "en:"))
	}
	return ids
}

// Organic reports whether the product carries the organic label
func (p *Product) Organic() bool {
	return slices.Contains(p.LabelsTags, "en:organic")
}

// value treats null and negative inputs as 0
func value(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
