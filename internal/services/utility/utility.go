// Package utility scores a settlement against each party's derived
// negotiating position: 0 is a total loss against the party's ideal,
// 100 an exact match, 50 a neutral "no stake" score.
package utility

import (
	"github.com/google/uuid"

	"parley/internal/domain/clause"
	"parley/internal/domain/negotiation"
	"parley/internal/domain/persona"
	"parley/internal/services/derivation"
	"parley/internal/services/policy"
)

const (
	// neutralScore applies when the persona has no ideal for a clause
	neutralScore = 50.0

	// mismatchScore is the partial credit a non-numeric clause earns
	// when it resolved against the party's ideal: having an agreed
	// term still beats having none
	mismatchScore = 30.0

	// defaultRange bounds the numeric distance when policy declares
	// no explicit bounds for a clause
	defaultRangeMax = 100.0
)

// ScoreClause rates one final clause value against a persona's ideal.
// No ideal: neutral 50. Numeric clause: linear distance on the primary
// field over the policy bound range. Non-numeric: exact match or the
// mismatch floor.
func ScoreClause(key clause.Key, actual clause.Value, p *persona.Persona, nctx *negotiation.Context) float64 {
	batna, err := p.Batna()
	if err != nil {
		return neutralScore
	}
	ideal, ok := batna[key]
	if !ok {
		return neutralScore
	}

	if !nctx.Units(key).Numeric() {
		if actual.Equal(ideal) {
			return 100
		}
		return mismatchScore
	}

	spec, _ := clause.SpecFor(key)
	actualField, okA := actual.Primary(spec)
	idealField, okI := ideal.Primary(spec)
	if !okA || !okI || actualField.Kind != clause.KindNumber || idealField.Kind != clause.KindNumber {
		return neutralScore
	}

	min, max := policy.Bounds(key, nctx)
	low, high := 0.0, defaultRangeMax
	if min != nil {
		low = *min
	}
	if max != nil {
		high = *max
	}
	span := high - low
	if span <= 0 {
		span = defaultRangeMax
	}

	distance := actualField.Num - idealField.Num
	if distance < 0 {
		distance = -distance
	}

	score := 100 * (1 - distance/span)
	if score < 0 {
		score = 0
	}
	return score
}

// ScoreAll rates a full settlement for one persona: the weighted mean
// of clause scores using the persona's derived weights, default weight
// 1.0 for clauses without one
func ScoreAll(terms map[clause.Key]clause.Value, p *persona.Persona, nctx *negotiation.Context) float64 {
	if len(terms) == 0 {
		return 0
	}

	weights, err := p.Weights()
	if err != nil {
		weights = nil
	}

	totalWeight := 0.0
	totalScore := 0.0
	for key, value := range terms {
		weight := 1.0
		if w, ok := weights[key]; ok && w > 0 {
			weight = w
		}
		totalWeight += weight
		totalScore += weight * ScoreClause(key, value, p, nctx)
	}

	if totalWeight <= 0 {
		return 0
	}
	return totalScore / totalWeight
}

// PartyScores is the per-party verdict of one settlement
type PartyScores struct {
	Company     float64
	Investor    float64
	PerInvestor map[uuid.UUID]float64
}

// ScoreBothParties rates a settlement for the company and for the
// ownership-weighted aggregate of all investors
func ScoreBothParties(terms map[clause.Key]clause.Value, nctx *negotiation.Context) PartyScores {
	scores := PartyScores{
		PerInvestor: make(map[uuid.UUID]float64, len(nctx.Investors)),
	}

	if nctx.Company != nil {
		scores.Company = ScoreAll(terms, nctx.Company, nctx)
	}

	for _, inv := range nctx.Investors {
		scores.PerInvestor[inv.ID] = ScoreAll(terms, inv, nctx)
	}
	scores.Investor = derivation.AggregateInvestorUtility(scores.PerInvestor, nctx.Investors)

	return scores
}

// NashProduct multiplies the two party utilities. Exposed for comparing
// compromise quality across candidate settlements; the solver itself is
// deterministic and does not search on it.
func NashProduct(companyUtility, investorUtility float64) float64 {
	return companyUtility * investorUtility
}
