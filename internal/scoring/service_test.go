package scoring

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franckalain/nutritionscore/internal/additives"
	"github.com/franckalain/nutritionscore/internal/models"
	"github.com/franckalain/nutritionscore/internal/nutriscore"
	"github.com/franckalain/nutritionscore/internal/openfoodfacts"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	reg, err := additives.Default()
	require.NoError(t, err)
	return NewService(nutriscore.New(nil), reg, additives.MatchExact, DefaultSettings())
}

func ptr[T any](v T) *T {
	return &v
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name              string
		scaled            int
		additivePenalty   int
		organic           bool
		nonOrganicPenalty int
		want              int
	}{
		{"non organic", 88, 10, false, 10, 68},
		{"organic skips penalty", 88, 10, true, 10, 78},
		{"floored at zero", 5, 40, false, 10, 0},
		{"nothing to subtract", 100, 0, true, 10, 100},
		{"zero non organic penalty", 60, 0, false, 0, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Finalize(tt.scaled, tt.additivePenalty, tt.organic, tt.nonOrganicPenalty))
		})
	}
}

func TestOptionsResolve(t *testing.T) {
	t.Run("defaults when unset", func(t *testing.T) {
		s, err := Options{}.Resolve(DefaultSettings())
		require.NoError(t, err)
		assert.Equal(t, DefaultSettings(), s)
		assert.Equal(t, 50, s.MaxAdditivesPenalty)
		assert.Equal(t, 10, s.NonOrganicPenalty)
		assert.Equal(t, models.DefaultProfile(), s.Profile)
	})

	t.Run("overrides", func(t *testing.T) {
		s, err := Options{
			EnergyProfileFactor:     ptr(0.25),
			SaturationProfileFactor: ptr(0.5),
			SugarsProfileFactor:     ptr(1.5),
			SodiumProfileFactor:     ptr(2.0),
			MaxAdditivesPenalty:     ptr(30),
			NonOrganicPenalty:       ptr(0),
		}.Resolve(DefaultSettings())
		require.NoError(t, err)
		assert.Equal(t, models.NutrientProfile{Energy: 0.25, SaturatedFat: 0.5, Sugars: 1.5, Sodium: 2}, s.Profile)
		assert.Equal(t, 30, s.MaxAdditivesPenalty)
		assert.Equal(t, 0, s.NonOrganicPenalty)
	})

	invalid := map[string]Options{
		"zero factor":      {SugarsProfileFactor: ptr(0.0)},
		"negative factor":  {EnergyProfileFactor: ptr(-1.0)},
		"negative cap":     {MaxAdditivesPenalty: ptr(-5)},
		"negative organic": {NonOrganicPenalty: ptr(-1)},
	}
	for name, opts := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := opts.Resolve(DefaultSettings())
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestServiceScore(t *testing.T) {
	svc := newTestService(t)

	example := models.NutritionalValues{
		Energy:       1700,
		SaturatedFat: 4,
		Sugars:       20,
		Sodium:       1.0,
		Fiber:        4.5,
		Protein:      10,
	}

	tests := []struct {
		name          string
		in            Input
		wantRaw       int
		wantGrade     string
		wantScaled    int
		wantAdditives int
		wantOrganic   int
		wantFinal     int
	}{
		{
			name:       "general food organic without additives",
			in:         Input{FoodType: models.GeneralFood, Values: example, Organic: true},
			wantRaw:    15,
			wantGrade:  "D",
			wantScaled: 18,
			wantFinal:  18,
		},
		{
			name:        "general food non organic",
			in:          Input{FoodType: models.GeneralFood, Values: example},
			wantRaw:     15,
			wantGrade:   "D",
			wantScaled:  18,
			wantOrganic: 10,
			wantFinal:   8,
		},
		{
			name:          "additives floor the final score",
			in:            Input{FoodType: models.GeneralFood, Values: example, Additives: []string{"e202", "e250"}},
			wantRaw:       15,
			wantGrade:     "D",
			wantScaled:    18,
			wantAdditives: 42,
			wantOrganic:   10,
			wantFinal:     0,
		},
		{
			name:          "water is maximal before penalties",
			in:            Input{FoodType: models.Water, Values: example, Additives: []string{"e102"}},
			wantRaw:       0,
			wantGrade:     "A",
			wantScaled:    100,
			wantAdditives: 40,
			wantOrganic:   10,
			wantFinal:     50,
		},
		{
			name:       "beverage on the liquid scale",
			in:         Input{FoodType: models.Beverages, Values: models.NutritionalValues{Energy: 100, Sugars: 4}, Organic: true},
			wantRaw:    5,
			wantGrade:  "C",
			wantScaled: 31,
			wantFinal:  31,
		},
		{
			name:       "organic status unknown",
			in:         Input{FoodType: models.Beverages, Values: models.NutritionalValues{Energy: 100, Sugars: 4}, SkipOrganicPenalty: true},
			wantRaw:    5,
			wantGrade:  "C",
			wantScaled: 31,
			wantFinal:  31,
		},
		{
			name: "request cap and penalty override defaults",
			in: Input{
				FoodType:  models.Water,
				Additives: []string{"e250"},
				Options:   Options{MaxAdditivesPenalty: ptr(5), NonOrganicPenalty: ptr(20)},
			},
			wantRaw:       0,
			wantGrade:     "A",
			wantScaled:    100,
			wantAdditives: 5,
			wantOrganic:   20,
			wantFinal:     75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Score(tt.in)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRaw, got.NutriScore, "raw")
			assert.Equal(t, tt.wantGrade, got.NutriScoreGrade, "grade")
			assert.Equal(t, tt.wantScaled, got.Scaled100, "scaled")
			assert.Equal(t, tt.wantAdditives, got.AdditivesRisk, "additives")
			assert.Equal(t, tt.wantOrganic, got.OrganicPenalty, "organic penalty")
			assert.Equal(t, tt.wantFinal, got.FinalScore, "final")
			assert.Equal(t, tt.in.FoodType, got.FoodType)
			assert.Equal(t, tt.in.Values, got.NutritionalValues)
			assert.NotNil(t, got.Additives)
		})
	}
}

func TestServiceScore_Errors(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.Score(Input{FoodType: "snack"})
	require.ErrorIs(t, err, nutriscore.ErrInvalidCategory)
	assert.Nil(t, got)

	got, err = svc.Score(Input{FoodType: models.Cheese, Options: Options{SodiumProfileFactor: ptr(0.0)}})
	require.ErrorIs(t, err, ErrInvalidOptions)
	assert.Nil(t, got)
}

func TestServiceScore_TotalFat(t *testing.T) {
	svc := newTestService(t)
	values := models.NutritionalValues{EnergyFromSaturates: 500, SaturatedFat: 4, Protein: 10}

	tests := []struct {
		name       string
		values     models.NutritionalValues
		totalFat   *float64
		wantRatio  float64
		wantRaw    int
		wantGrade  string
		wantScaled int
	}{
		{
			// 4 + 3 negative points exclude protein
			name:       "ratio derived from total fat",
			values:     values,
			totalFat:   ptr(16.0),
			wantRatio:  25,
			wantRaw:    7,
			wantGrade:  "C",
			wantScaled: 55,
		},
		{
			name:       "no total fat",
			values:     values,
			wantRatio:  0,
			wantRaw:    0,
			wantGrade:  "B",
			wantScaled: 88,
		},
		{
			name:       "zero total fat",
			values:     values,
			totalFat:   ptr(0.0),
			wantRatio:  0,
			wantRaw:    0,
			wantGrade:  "B",
			wantScaled: 88,
		},
		{
			name: "given ratio wins",
			values: models.NutritionalValues{
				EnergyFromSaturates: 500, SaturatedFat: 4, SaturatesOverTotalFat: 12, Protein: 10,
			},
			totalFat:   ptr(16.0),
			wantRatio:  12,
			wantRaw:    1,
			wantGrade:  "B",
			wantScaled: 84,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Score(Input{
				FoodType: models.FatsOilsNutsSeeds,
				Values:   tt.values,
				TotalFat: tt.totalFat,
				Organic:  true,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantRatio, got.SaturatesOverTotalFat, "ratio")
			assert.Equal(t, tt.wantRaw, got.NutriScore, "raw")
			assert.Equal(t, tt.wantGrade, got.NutriScoreGrade, "grade")
			assert.Equal(t, tt.wantScaled, got.Scaled100, "scaled")
			assert.Equal(t, tt.wantScaled, got.FinalScore, "final")
		})
	}
}

func TestServiceScore_EmptyFoodTypeIsGeneralFood(t *testing.T) {
	svc := newTestService(t)
	values := models.NutritionalValues{Energy: 1700, SaturatedFat: 4, Sugars: 20, Sodium: 1.0, Fiber: 4.5, Protein: 10}

	got, err := svc.Score(Input{Values: values, Organic: true})
	require.NoError(t, err)
	assert.Equal(t, models.GeneralFood, got.FoodType)
	assert.Equal(t, 15, got.NutriScore)
	assert.Equal(t, 18, got.FinalScore)
}

func TestServiceScoreProduct(t *testing.T) {
	svc := newTestService(t)

	p, err := openfoodfacts.Decode(strings.NewReader(`{
		"product_name": "Multigrain bread",
		"additives_tags": ["en:e282", "en:e471"],
		"labels_tags": ["en:organic"],
		"nutriscore": {"2023": {"data": {
			"components": {
				"negative": [
					{"id": "energy", "value": 1100},
					{"id": "sugars", "value": 4.5},
					{"id": "saturated_fat", "value": 0.8},
					{"id": "salt", "value": 1.1}
				],
				"positive": [
					{"id": "fiber", "value": 6.1},
					{"id": "proteins", "value": 10},
					{"id": "fruits_vegetables_legumes", "value": 0}
				]
			}
		}}}
	}`))
	require.NoError(t, err)

	got, err := svc.ScoreProduct(p, Options{})
	require.NoError(t, err)

	// negative 3+1+0+5, positive 4+3+0
	assert.Equal(t, 2, got.NutriScore)
	assert.Equal(t, "B", got.NutriScoreGrade)
	assert.Equal(t, 80, got.Scaled100)
	// two low-risk additives plus one low presence penalty
	assert.Equal(t, 2+2+5, got.AdditivesRisk)
	assert.Len(t, got.Additives, 2)
	assert.True(t, got.Organic)
	assert.Equal(t, 71, got.FinalScore)

	_, err = svc.ScoreProduct(nil, Options{})
	assert.ErrorIs(t, err, openfoodfacts.ErrProductNotFound)
}

func TestServiceScore_Concurrent(t *testing.T) {
	svc := newTestService(t)
	in := Input{
		FoodType:  models.FatsOilsNutsSeeds,
		Values:    models.NutritionalValues{EnergyFromSaturates: 500, SaturatesOverTotalFat: 12, Protein: 10},
		Additives: []string{"e322", "e306"},
	}

	want, err := svc.Score(in)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*models.ScoreResult, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.Score(in)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
