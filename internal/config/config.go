package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/franckalain/nutritionscore/internal/additives"
	"github.com/franckalain/nutritionscore/internal/models"
	"github.com/franckalain/nutritionscore/internal/scoring"
)

// EnvPrefix prefixes every environment override, e.g. NUTRISCORE_SERVER_PORT
const EnvPrefix = "NUTRISCORE"

// Config holds all application configuration
type Config struct {
	Server struct {
		Port      string  `mapstructure:"port" validate:"required"`
		StaticDir string  `mapstructure:"static_dir"`
		Debug     bool    `mapstructure:"debug"`
		RateLimit float64 `mapstructure:"rate_limit" validate:"min=0"`
		RateBurst int     `mapstructure:"rate_burst" validate:"min=0"`
	} `mapstructure:"server"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Scoring ScoringConfig `mapstructure:"scoring"`
}

// ScoringConfig holds the server-wide scoring defaults. Requests may
// override every field except the table version and match rule.
type ScoringConfig struct {
	TableVersion            string  `mapstructure:"table_version"`
	AdditiveMatch           string  `mapstructure:"additive_match" validate:"omitempty,oneof=exact contains"`
	EnergyProfileFactor     float64 `mapstructure:"energy_profile_factor" validate:"gt=0"`
	SaturationProfileFactor float64 `mapstructure:"saturation_profile_factor" validate:"gt=0"`
	SugarsProfileFactor     float64 `mapstructure:"sugars_profile_factor" validate:"gt=0"`
	SodiumProfileFactor     float64 `mapstructure:"sodium_profile_factor" validate:"gt=0"`
	MaxAdditivesPenalty     int     `mapstructure:"max_additives_penalty" validate:"min=0"`
	NonOrganicPenalty       int     `mapstructure:"non_organic_penalty" validate:"min=0"`
}

// Settings converts the defaults for the scoring service
func (c ScoringConfig) Settings() scoring.Settings {
	return scoring.Settings{
		Profile: models.NutrientProfile{
			Energy:       c.EnergyProfileFactor,
			SaturatedFat: c.SaturationProfileFactor,
			Sugars:       c.SugarsProfileFactor,
			Sodium:       c.SodiumProfileFactor,
		},
		MaxAdditivesPenalty: c.MaxAdditivesPenalty,
		NonOrganicPenalty:   c.NonOrganicPenalty,
	}
}

// MatchRule returns the configured additive match rule
func (c ScoringConfig) MatchRule() (additives.MatchRule, error) {
	return additives.ParseMatchRule(c.AdditiveMatch)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.static_dir", "./static")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("database.path", "nutritionscore.db")

	v.SetDefault("scoring.table_version", "2023")
	v.SetDefault("scoring.additive_match", string(additives.MatchExact))
	v.SetDefault("scoring.energy_profile_factor", scoring.DefaultProfileFactor)
	v.SetDefault("scoring.saturation_profile_factor", scoring.DefaultProfileFactor)
	v.SetDefault("scoring.sugars_profile_factor", scoring.DefaultProfileFactor)
	v.SetDefault("scoring.sodium_profile_factor", scoring.DefaultProfileFactor)
	v.SetDefault("scoring.max_additives_penalty", scoring.DefaultMaxAdditivesPenalty)
	v.SetDefault("scoring.non_organic_penalty", scoring.DefaultNonOrganicPenalty)
}

// LoadConfig loads configuration from a JSON file, environment variables and
// defaults, in that order of precedence after the environment. A missing
// file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	// First try environment variable
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	// Then try config directory
	configDir := "config"
	if _, err := os.Stat(configDir); err == nil {
		return filepath.Join(configDir, "config.json")
	}

	// Finally, try current directory
	return "config.json"
}
