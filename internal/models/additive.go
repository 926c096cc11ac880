package models

import (
	"encoding/json"
	"fmt"
)

// RiskLevel is the ordinal risk class of a food additive
type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskLow
	RiskModerate
	RiskHigh
)

// Valid reports whether r is one of the four known classes
func (r RiskLevel) Valid() bool {
	return r >= RiskNone && r <= RiskHigh
}

func (r RiskLevel) String() string {
	switch r {
	case RiskNone:
		return "none"
	case RiskLow:
		return "low"
	case RiskModerate:
		return "moderate"
	case RiskHigh:
		return "high"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(r))
	}
}

// AdditiveRecord is one entry of the additive reference data.
// EFSARisk is nil when no EFSA classification exists.
type AdditiveRecord struct {
	ENumber  string     `json:"e-number" validate:"required"`
	Name     string     `json:"name" validate:"required"`
	Type     string     `json:"type"`
	EFSARisk *RiskLevel `json:"efsa_risk,omitempty" validate:"omitempty,min=0,max=3"`
	Risk     RiskLevel  `json:"risk" validate:"min=0,max=3"`
}

// EffectiveRisk returns the EFSA classification when present and valid,
// the fallback classification otherwise.
func (a AdditiveRecord) EffectiveRisk() RiskLevel {
	if a.EFSARisk != nil && a.EFSARisk.Valid() {
		return *a.EFSARisk
	}
	return a.Risk
}

// UnmarshalJSON maps the -1 "unset" marker of efsa_risk to nil
func (a *AdditiveRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ENumber  string `json:"e-number"`
		Name     string `json:"name"`
		Type     string `json:"type"`
		EFSARisk *int   `json:"efsa_risk"`
		Risk     int    `json:"risk"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.ENumber = raw.ENumber
	a.Name = raw.Name
	a.Type = raw.Type
	a.Risk = RiskLevel(raw.Risk)
	a.EFSARisk = nil
	if raw.EFSARisk != nil && *raw.EFSARisk >= 0 {
		r := RiskLevel(*raw.EFSARisk)
		a.EFSARisk = &r
	}
	return nil
}

// AdditiveDetail is the display form of a matched additive
type AdditiveDetail struct {
	ENumber string    `json:"e-number"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Risk    RiskLevel `json:"risk"`
}
