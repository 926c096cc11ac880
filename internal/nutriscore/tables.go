package nutriscore

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml conversion/*.json
var tablesFS embed.FS

// DefaultVersion is the table version used when none is configured
const DefaultVersion = "2023"

// ErrInvalidTables is returned when a table file fails its load-time checks
var ErrInvalidTables = errors.New("invalid nutri-score tables")

// Tables is one versioned set of breakpoints, grade thresholds and scale
// conversions. It is read-only once loaded.
type Tables struct {
	Version     string         `yaml:"version"`
	Description string         `yaml:"description"`
	Negative    NegativeTables `yaml:"negative"`
	Positive    PositiveTables `yaml:"positive"`
	Rules       Rules          `yaml:"rules"`
	Grades      GradeTables    `yaml:"grades"`
	Scale       ScaleTables    `yaml:"scale"`
}

// NegativeTables holds breakpoints for the penalized components
type NegativeTables struct {
	Energy                []float64 `yaml:"energy"`
	EnergyFromSaturates   []float64 `yaml:"energy_from_saturates"`
	SaturatedFat          []float64 `yaml:"saturated_fat"`
	SaturatesOverTotalFat []float64 `yaml:"saturates_over_total_fat"`
	Sugars                []float64 `yaml:"sugars"`
	Sodium                []float64 `yaml:"sodium"`
	EnergyBeverages       []float64 `yaml:"energy_beverages"`
	SugarsBeverages       []float64 `yaml:"sugars_beverages"`
}

// PositiveTables holds breakpoints for the rewarded components
type PositiveTables struct {
	Protein          []float64 `yaml:"protein"`
	Fiber            []float64 `yaml:"fiber"`
	Fruit            []float64 `yaml:"fruit"`
	ProteinBeverages []float64 `yaml:"protein_beverages"`
	FruitBeverages   []float64 `yaml:"fruit_beverages"`
}

// Rules are the category-specific caps and exclusions
type Rules struct {
	SweetenerPoints      int `yaml:"sweetener_points"`
	RedMeatProteinCap    int `yaml:"red_meat_protein_cap"`
	ProteinExclusion     int `yaml:"protein_exclusion"`
	FatsProteinExclusion int `yaml:"fats_protein_exclusion"`
}

// GradeThreshold maps scores up to and including Max to Grade
type GradeThreshold struct {
	Max   int    `yaml:"max"`
	Grade string `yaml:"grade"`
}

// GradeTables holds the ascending thresholds per category group
type GradeTables struct {
	General   []GradeThreshold `yaml:"general"`
	Fats      []GradeThreshold `yaml:"fats"`
	Beverages []GradeThreshold `yaml:"beverages"`
}

// ScaleDomain converts raw scores of one physical state (solid or liquid).
// Scores below Lower map to Below, scores at or above Upper map to Above,
// everything in between is read from Values.
type ScaleDomain struct {
	Lower  int         `yaml:"lower"`
	Upper  int         `yaml:"upper"`
	Below  int         `yaml:"below"`
	Above  int         `yaml:"above"`
	Values map[int]int `yaml:"-"`
}

// ScaleTables groups both domains and the conversion file they are read from
type ScaleTables struct {
	Conversion string      `yaml:"conversion"`
	Water      int         `yaml:"water"`
	Solid      ScaleDomain `yaml:"solid"`
	Liquid     ScaleDomain `yaml:"liquid"`
}

type conversionEntry struct {
	Solid  int `json:"solid"`
	Liquid int `json:"liquid"`
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// DefaultTables returns the built-in tables of DefaultVersion.
// The embedded data is checked by tests, so a load failure panics.
func DefaultTables() *Tables {
	defaultOnce.Do(func() {
		t, err := LoadTables(DefaultVersion)
		if err != nil {
			panic(err)
		}
		defaultTables = t
	})
	return defaultTables
}

// Versions lists the embedded table versions
func Versions() ([]string, error) {
	entries, err := tablesFS.ReadDir("tables")
	if err != nil {
		return nil, err
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(versions)
	return versions, nil
}

// LoadTables loads and checks an embedded table version
func LoadTables(version string) (*Tables, error) {
	if version == "" {
		version = DefaultVersion
	}
	data, err := tablesFS.ReadFile("tables/" + version + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("nutriscore.LoadTables: unknown version %q: %w", version, err)
	}

	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("nutriscore.LoadTables: parse %q: %w", version, err)
	}

	if err := t.loadConversion(); err != nil {
		return nil, fmt.Errorf("nutriscore.LoadTables: %q: %w", version, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("nutriscore.LoadTables: %q: %w", version, err)
	}
	return &t, nil
}

func (t *Tables) loadConversion() error {
	data, err := tablesFS.ReadFile(t.Scale.Conversion)
	if err != nil {
		return fmt.Errorf("read conversion %q: %w", t.Scale.Conversion, err)
	}

	var raw map[string]conversionEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse conversion %q: %w", t.Scale.Conversion, err)
	}

	t.Scale.Solid.Values = make(map[int]int, len(raw))
	t.Scale.Liquid.Values = make(map[int]int, len(raw))
	for key, entry := range raw {
		score, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%w: conversion key %q is not an integer", ErrInvalidTables, key)
		}
		t.Scale.Solid.Values[score] = entry.Solid
		t.Scale.Liquid.Values[score] = entry.Liquid
	}
	return nil
}

// Validate checks that every breakpoint list is non-empty and ascending,
// grade thresholds are strictly ascending, and both scale domains are
// complete, bounded to 0-100 and monotonically non-increasing.
func (t *Tables) Validate() error {
	breakpoints := map[string][]float64{
		"negative.energy":                   t.Negative.Energy,
		"negative.energy_from_saturates":    t.Negative.EnergyFromSaturates,
		"negative.saturated_fat":            t.Negative.SaturatedFat,
		"negative.saturates_over_total_fat": t.Negative.SaturatesOverTotalFat,
		"negative.sugars":                   t.Negative.Sugars,
		"negative.sodium":                   t.Negative.Sodium,
		"negative.energy_beverages":         t.Negative.EnergyBeverages,
		"negative.sugars_beverages":         t.Negative.SugarsBeverages,
		"positive.protein":                  t.Positive.Protein,
		"positive.fiber":                    t.Positive.Fiber,
		"positive.fruit":                    t.Positive.Fruit,
		"positive.protein_beverages":        t.Positive.ProteinBeverages,
		"positive.fruit_beverages":          t.Positive.FruitBeverages,
	}
	for name, bp := range breakpoints {
		if len(bp) == 0 {
			return fmt.Errorf("%w: %s is empty", ErrInvalidTables, name)
		}
		if !sort.Float64sAreSorted(bp) {
			return fmt.Errorf("%w: %s is not ascending", ErrInvalidTables, name)
		}
	}

	grades := map[string][]GradeThreshold{
		"grades.general":   t.Grades.General,
		"grades.fats":      t.Grades.Fats,
		"grades.beverages": t.Grades.Beverages,
	}
	for name, g := range grades {
		if len(g) == 0 {
			return fmt.Errorf("%w: %s is empty", ErrInvalidTables, name)
		}
		for i := 1; i < len(g); i++ {
			if g[i].Max <= g[i-1].Max {
				return fmt.Errorf("%w: %s is not strictly ascending at %d", ErrInvalidTables, name, i)
			}
		}
	}

	if err := t.Scale.Solid.validate("solid"); err != nil {
		return err
	}
	if err := t.Scale.Liquid.validate("liquid"); err != nil {
		return err
	}
	if t.Scale.Water < 0 || t.Scale.Water > 100 {
		return fmt.Errorf("%w: scale.water %d out of range", ErrInvalidTables, t.Scale.Water)
	}
	return nil
}

func (d ScaleDomain) validate(name string) error {
	if d.Lower >= d.Upper {
		return fmt.Errorf("%w: scale.%s has empty interior [%d,%d)", ErrInvalidTables, name, d.Lower, d.Upper)
	}

	prev := d.Below
	for score := d.Lower; score < d.Upper; score++ {
		v, ok := d.Values[score]
		if !ok {
			return fmt.Errorf("%w: scale.%s missing raw score %d", ErrInvalidTables, name, score)
		}
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: scale.%s value %d for %d out of range", ErrInvalidTables, name, v, score)
		}
		if v > prev {
			return fmt.Errorf("%w: scale.%s increases at raw score %d", ErrInvalidTables, name, score)
		}
		prev = v
	}
	if d.Above > prev {
		return fmt.Errorf("%w: scale.%s clamp above %d exceeds last value", ErrInvalidTables, name, d.Above)
	}
	return nil
}
