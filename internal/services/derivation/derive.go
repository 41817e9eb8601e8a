package derivation

import (
	"parley/internal/domain/clause"
	"parley/internal/domain/persona"
)

// Leverage adjustment factors. Additive on a neutral 0.5 baseline,
// result clamped to [0,1].
const (
	baseline = 0.5

	companyRepeatFounderBonus = 0.2
	companyAltOffersBonus     = 0.15
	companyLongRunwayBonus    = 0.1
	companyShortRunwayMalus   = 0.2

	investorMarqueeBonus        = 0.2
	investorOwnershipBonus      = 0.1
	investorAcceleratedMalus    = 0.1
	investorOwnershipThreshold  = 0.15
	companyLongRunwayThreshold  = 6.0
	companyShortRunwayThreshold = 4.0
)

// DeriveLeverage computes a persona's negotiating strength from its
// raw attributes
func DeriveLeverage(kind persona.Kind, attrs persona.Attrs) float64 {
	score := baseline

	switch kind {
	case persona.KindCompany:
		if attrs.RepeatFounder {
			score += companyRepeatFounderBonus
		}
		if attrs.AltOffers > 0 {
			score += companyAltOffersBonus
		}
		if attrs.RunwayMonths != nil {
			if *attrs.RunwayMonths > companyLongRunwayThreshold {
				score += companyLongRunwayBonus
			}
			if *attrs.RunwayMonths < companyShortRunwayThreshold {
				score -= companyShortRunwayMalus
			}
		}
	case persona.KindInvestor:
		if attrs.Marquee {
			score += investorMarqueeBonus
		}
		if attrs.OwnershipTargetPct > investorOwnershipThreshold {
			score += investorOwnershipBonus
		}
		if attrs.DiligenceSpeed == persona.DiligenceAccelerated {
			score -= investorAcceleratedMalus
		}
	}

	return clamp01(score)
}

// Base clause weight tables. Weights are relative multipliers for the
// utility engine, deliberately not normalized.
var companyBaseWeights = map[clause.Key]float64{
	clause.Exclusivity:          0.5,
	clause.Vesting:              0.5,
	clause.PreemptionRights:     0.3,
	clause.TransferRestrictions: 0.3,
}

var investorBaseWeights = map[clause.Key]float64{
	clause.Exclusivity:          0.4,
	clause.Vesting:              0.7,
	clause.PreemptionRights:     0.6,
	clause.TransferRestrictions: 0.4,
}

// DeriveWeights computes per-clause importance for a persona.
// Each kind carries a single override rule on top of its base table.
func DeriveWeights(kind persona.Kind, attrs persona.Attrs) map[clause.Key]float64 {
	var base map[clause.Key]float64
	switch kind {
	case persona.KindCompany:
		base = companyBaseWeights
	default:
		base = investorBaseWeights
	}

	weights := make(map[clause.Key]float64, len(base))
	for key, w := range base {
		weights[key] = w
	}

	switch kind {
	case persona.KindCompany:
		// A company burning runway, or facing an accelerated process,
		// cares most about how long it is locked out of the market
		shortRunway := attrs.RunwayMonths != nil && *attrs.RunwayMonths < companyShortRunwayThreshold
		if shortRunway || attrs.DiligenceSpeed == persona.DiligenceAccelerated {
			weights[clause.Exclusivity] = 0.8
		}
	case persona.KindInvestor:
		if attrs.FundTier == "growth" {
			weights[clause.Vesting] = 0.9
		}
	}

	return weights
}

// Static ideal-value anchors. Independent of market data so scoring has
// a stable reference point regardless of what guidance says is typical.
func companyBatna() map[clause.Key]clause.Value {
	return map[clause.Key]clause.Value{
		clause.Exclusivity: {
			"period_days": clause.Int(30),
		},
		clause.Vesting: {
			"vesting_months": clause.Int(36),
			"cliff_months":   clause.Int(0),
		},
		clause.PreemptionRights: {
			"granted": clause.Bool(true),
			"scope":   clause.Text("major_investors"),
		},
		clause.TransferRestrictions: {
			"rofr":    clause.Bool(true),
			"co_sale": clause.Bool(false),
		},
	}
}

func investorBatna() map[clause.Key]clause.Value {
	return map[clause.Key]clause.Value{
		clause.Exclusivity: {
			"period_days": clause.Int(90),
		},
		clause.Vesting: {
			"vesting_months": clause.Int(48),
			"cliff_months":   clause.Int(12),
		},
		clause.PreemptionRights: {
			"granted": clause.Bool(true),
			"scope":   clause.Text("all_investors"),
		},
		clause.TransferRestrictions: {
			"rofr":    clause.Bool(true),
			"co_sale": clause.Bool(true),
		},
	}
}

// DeriveBatna returns the persona's ideal per-clause values
func DeriveBatna(kind persona.Kind) map[clause.Key]clause.Value {
	if kind == persona.KindCompany {
		return companyBatna()
	}
	return investorBatna()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
