package scoring

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/franckalain/nutritionscore/internal/additives"
	"github.com/franckalain/nutritionscore/internal/models"
)

// Default option values
const (
	DefaultProfileFactor       = 1.0
	DefaultMaxAdditivesPenalty = additives.DefaultMaxPenalty
	DefaultNonOrganicPenalty   = 10
)

// ErrInvalidOptions is returned for explicitly provided but unusable options
var ErrInvalidOptions = errors.New("invalid scoring options")

// Options are the caller-tunable settings of one scoring request.
// A nil field falls back to the service defaults.
type Options struct {
	EnergyProfileFactor     *float64 `json:"energy_profile_factor,omitempty" mapstructure:"energy_profile_factor" validate:"omitnil,gt=0"`
	SaturationProfileFactor *float64 `json:"saturation_profile_factor,omitempty" mapstructure:"saturation_profile_factor" validate:"omitnil,gt=0"`
	SugarsProfileFactor     *float64 `json:"sugars_profile_factor,omitempty" mapstructure:"sugars_profile_factor" validate:"omitnil,gt=0"`
	SodiumProfileFactor     *float64 `json:"sodium_profile_factor,omitempty" mapstructure:"sodium_profile_factor" validate:"omitnil,gt=0"`
	MaxAdditivesPenalty     *int     `json:"max_additives_penalty,omitempty" mapstructure:"max_additives_penalty" validate:"omitnil,min=0"`
	NonOrganicPenalty       *int     `json:"non_organic_penalty,omitempty" mapstructure:"non_organic_penalty" validate:"omitnil,min=0"`
}

// Settings are fully resolved options
type Settings struct {
	Profile             models.NutrientProfile
	MaxAdditivesPenalty int
	NonOrganicPenalty   int
}

// DefaultSettings returns the built-in defaults
func DefaultSettings() Settings {
	return Settings{
		Profile:             models.DefaultProfile(),
		MaxAdditivesPenalty: DefaultMaxAdditivesPenalty,
		NonOrganicPenalty:   DefaultNonOrganicPenalty,
	}
}

var validate = validator.New()

// Validate rejects non-positive profile factors and negative penalties
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// Resolve validates o and fills every unset field from defaults
func (o Options) Resolve(defaults Settings) (Settings, error) {
	if err := o.Validate(); err != nil {
		return Settings{}, err
	}

	s := defaults
	if o.EnergyProfileFactor != nil {
		s.Profile.Energy = *o.EnergyProfileFactor
	}
	if o.SaturationProfileFactor != nil {
		s.Profile.SaturatedFat = *o.SaturationProfileFactor
	}
	if o.SugarsProfileFactor != nil {
		s.Profile.Sugars = *o.SugarsProfileFactor
	}
	if o.SodiumProfileFactor != nil {
		s.Profile.Sodium = *o.SodiumProfileFactor
	}
	if o.MaxAdditivesPenalty != nil {
		s.MaxAdditivesPenalty = *o.MaxAdditivesPenalty
	}
	if o.NonOrganicPenalty != nil {
		s.NonOrganicPenalty = *o.NonOrganicPenalty
	}
	return s, nil
}
