// Package scoring combines the nutri-score, the additive penalty and the
// organic penalty into the final product score.
package scoring

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/franckalain/nutritionscore/internal/additives"
	"github.com/franckalain/nutritionscore/internal/models"
	"github.com/franckalain/nutritionscore/internal/nutriscore"
	"github.com/franckalain/nutritionscore/internal/openfoodfacts"
)

// Input is everything needed to score one product
type Input struct {
	FoodType  models.FoodType          `json:"food_type"`
	Values    models.NutritionalValues `json:"nutrients"`
	Additives []string                 `json:"additives"`
	Organic   bool                     `json:"organic"`
	Options   Options                  `json:"options"`

	// TotalFat in grams derives SaturatesOverTotalFat from SaturatedFat
	// when the ratio itself is not given.
	TotalFat *float64 `json:"total_fat,omitempty"`

	// SkipOrganicPenalty is set when the organic status is unknown, as for
	// values read from a label rather than a product record.
	SkipOrganicPenalty bool `json:"skip_organic_penalty"`
}

// Service scores products. It holds only read-only state and is safe for
// concurrent use.
type Service struct {
	engine    *nutriscore.Engine
	additives additives.Scorer
	defaults  Settings
}

// NewService creates a scoring service
func NewService(engine *nutriscore.Engine, registry *additives.Registry, rule additives.MatchRule, defaults Settings) *Service {
	if engine == nil {
		engine = nutriscore.New(nil)
	}
	return &Service{
		engine:    engine,
		additives: additives.Scorer{Registry: registry, Rule: rule},
		defaults:  defaults,
	}
}

// Registry returns the additive reference table
func (s *Service) Registry() *additives.Registry {
	return s.additives.Registry
}

// Score runs the full pipeline for one product. An empty food type is
// scored as general food.
func (s *Service) Score(in Input) (*models.ScoreResult, error) {
	settings, err := in.Options.Resolve(s.defaults)
	if err != nil {
		return nil, err
	}

	if in.FoodType == "" {
		in.FoodType = models.GeneralFood
	}
	values := in.Values
	if in.TotalFat != nil && values.SaturatesOverTotalFat == 0 {
		values.SaturatesOverTotalFat = models.SaturatesOverTotalFat(values.SaturatedFat, *in.TotalFat)
	}

	res, err := s.engine.Evaluate(values, in.FoodType, settings.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to compute nutri-score: %w", err)
	}
	scaled := s.engine.Scale(res.Score, in.FoodType)

	additivesRisk, details := s.additives.Score(in.Additives, settings.MaxAdditivesPenalty)

	organicPenalty := 0
	if !in.Organic && !in.SkipOrganicPenalty {
		organicPenalty = settings.NonOrganicPenalty
	}

	result := &models.ScoreResult{
		NutriScore:        res.Score,
		NutriScoreGrade:   res.Grade,
		Scaled100:         scaled,
		Additives:         details,
		AdditivesRisk:     additivesRisk,
		Organic:           in.Organic,
		OrganicPenalty:    organicPenalty,
		FinalScore:        Finalize(scaled, additivesRisk, in.Organic || in.SkipOrganicPenalty, settings.NonOrganicPenalty),
		FoodType:          in.FoodType,
		NutritionalValues: values,
	}

	log.Debug().
		Str("food_type", string(in.FoodType)).
		Int("nutriscore", res.Score).
		Str("grade", res.Grade).
		Int("scaled", scaled).
		Int("additives_risk", additivesRisk).
		Int("organic_penalty", organicPenalty).
		Int("final_score", result.FinalScore).
		Msg("Scored product")

	return result, nil
}

// ScoreProduct scores an Open Food Facts product record
func (s *Service) ScoreProduct(p *openfoodfacts.Product, opts Options) (*models.ScoreResult, error) {
	if p == nil {
		return nil, openfoodfacts.ErrProductNotFound
	}
	return s.Score(Input{
		FoodType:  p.FoodType(),
		Values:    p.Values(),
		Additives: p.AdditiveIDs(),
		Organic:   p.Organic(),
		Options:   opts,
	})
}
