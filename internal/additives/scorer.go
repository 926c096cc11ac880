package additives

import (
	"fmt"
	"strings"

	"github.com/franckalain/nutritionscore/internal/models"
)

// DefaultMaxPenalty caps the additive penalty when no cap is configured
const DefaultMaxPenalty = 50

// Penalty per matched additive and the one-off presence penalty, indexed by risk level
var (
	perAdditivePenalty = [...]int{0, 2, 5, 10}
	presencePenalty    = [...]int{0, 5, 15, 30}
)

// MatchRule decides whether a product identifier refers to a reference record
type MatchRule string

const (
	// MatchExact compares normalized identifiers for equality
	MatchExact MatchRule = "exact"
	// MatchContains accepts identifiers contained in the record's e-number
	MatchContains MatchRule = "contains"
)

// ParseMatchRule converts a configuration value; empty means MatchExact
func ParseMatchRule(s string) (MatchRule, error) {
	switch MatchRule(strings.ToLower(s)) {
	case "", MatchExact:
		return MatchExact, nil
	case MatchContains:
		return MatchContains, nil
	default:
		return "", fmt.Errorf("unknown additive match rule %q", s)
	}
}

func (m MatchRule) matches(eNumber, id string) bool {
	if id == "" {
		return false
	}
	if m == MatchContains {
		return strings.Contains(eNumber, id)
	}
	return eNumber == id
}

// Scorer computes additive penalties against a registry
type Scorer struct {
	Registry *Registry
	Rule     MatchRule
}

// Score returns the capped penalty for ids and the matched records.
// Each record counts at most once, in reference order. Every match adds
// its per-additive penalty; the highest risk level present adds one
// presence penalty on top.
func (s Scorer) Score(ids []string, maxPenalty int) (int, []models.AdditiveDetail) {
	if s.Registry == nil || len(ids) == 0 {
		return 0, []models.AdditiveDetail{}
	}

	normalized := make([]string, len(ids))
	for i, id := range ids {
		normalized[i] = NormalizeID(id)
	}

	var present [len(presencePenalty)]bool
	total := 0
	details := []models.AdditiveDetail{}

	for _, rec := range s.Registry.records {
		for _, id := range normalized {
			if !s.Rule.matches(rec.ENumber, id) {
				continue
			}
			risk := rec.EffectiveRisk()
			if !risk.Valid() {
				break
			}
			present[risk] = true
			total += perAdditivePenalty[risk]
			details = append(details, models.AdditiveDetail{
				ENumber: rec.ENumber,
				Name:    rec.Name,
				Type:    rec.Type,
				Risk:    risk,
			})
			break
		}
	}

	for level := len(present) - 1; level >= 0; level-- {
		if present[level] {
			total += presencePenalty[level]
			break
		}
	}

	if maxPenalty < 0 {
		maxPenalty = 0
	}
	return min(total, maxPenalty), details
}

// Score is Scorer.Score with exact matching
func Score(ids []string, reg *Registry, maxPenalty int) (int, []models.AdditiveDetail) {
	return Scorer{Registry: reg, Rule: MatchExact}.Score(ids, maxPenalty)
}
