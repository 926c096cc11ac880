package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franckalain/nutritionscore/internal/additives"
	"github.com/franckalain/nutritionscore/internal/scoring"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "./static", cfg.Server.StaticDir)
	assert.Equal(t, 20.0, cfg.Server.RateLimit)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.Equal(t, "nutritionscore.db", cfg.Database.Path)
	assert.Equal(t, "2023", cfg.Scoring.TableVersion)
	assert.Equal(t, scoring.DefaultSettings(), cfg.Scoring.Settings())

	rule, err := cfg.Scoring.MatchRule()
	require.NoError(t, err)
	assert.Equal(t, additives.MatchExact, rule)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": "9090", "debug": true},
		"database": {"path": "/tmp/additives.db"},
		"scoring": {
			"additive_match": "contains",
			"sugars_profile_factor": 1.5,
			"max_additives_penalty": 40,
			"non_organic_penalty": 0
		}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "./static", cfg.Server.StaticDir)
	assert.Equal(t, "/tmp/additives.db", cfg.Database.Path)

	s := cfg.Scoring.Settings()
	assert.Equal(t, 1.5, s.Profile.Sugars)
	assert.Equal(t, 1.0, s.Profile.Energy)
	assert.Equal(t, 40, s.MaxAdditivesPenalty)
	assert.Equal(t, 0, s.NonOrganicPenalty)

	rule, err := cfg.Scoring.MatchRule()
	require.NoError(t, err)
	assert.Equal(t, additives.MatchContains, rule)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, `{"server": {"port": "9090"}}`)
	t.Setenv("NUTRISCORE_SERVER_PORT", "7070")
	t.Setenv("NUTRISCORE_SCORING_NON_ORGANIC_PENALTY", "15")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 15, cfg.Scoring.NonOrganicPenalty)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad json":      `{"server": `,
		"unknown match": `{"scoring": {"additive_match": "fuzzy"}}`,
		"zero factor":   `{"scoring": {"energy_profile_factor": 0}}`,
		"negative cap":  `{"scoring": {"max_additives_penalty": -1}}`,
		"empty port":    `{"server": {"port": ""}}`,
		"negative rate": `{"server": {"rate_limit": -1}}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("NUTRISCORE_CONFIG", "/etc/nutritionscore.json")
	assert.Equal(t, "/etc/nutritionscore.json", GetConfigPath())
}
