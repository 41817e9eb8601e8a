package derivation

import (
	"github.com/google/uuid"

	"parley/internal/domain/persona"
)

// AnchorInvestor selects the investor whose persona drives proposal
// generation: the first marquee investor, else the investor with the
// highest ownership target, ties broken by list order.
func AnchorInvestor(investors []*persona.Persona) *persona.Persona {
	if len(investors) == 0 {
		return nil
	}

	var best *persona.Persona
	bestOwnership := -1.0

	for _, inv := range investors {
		attrs, err := inv.Attrs()
		if err != nil {
			continue
		}
		if attrs.Marquee {
			return inv
		}
		if attrs.OwnershipTargetPct > bestOwnership {
			best = inv
			bestOwnership = attrs.OwnershipTargetPct
		}
	}

	if best == nil {
		best = investors[0]
	}
	return best
}

// InvestorWeights returns the per-investor aggregation weights:
// ownership-proportional when any investor states a positive target,
// equal otherwise. Weights sum to 1.
func InvestorWeights(investors []*persona.Persona) map[uuid.UUID]float64 {
	weights := make(map[uuid.UUID]float64, len(investors))
	if len(investors) == 0 {
		return weights
	}

	total := 0.0
	ownership := make(map[uuid.UUID]float64, len(investors))
	for _, inv := range investors {
		attrs, err := inv.Attrs()
		if err == nil && attrs.OwnershipTargetPct > 0 {
			ownership[inv.ID] = attrs.OwnershipTargetPct
			total += attrs.OwnershipTargetPct
		}
	}

	if total <= 0 {
		equal := 1.0 / float64(len(investors))
		for _, inv := range investors {
			weights[inv.ID] = equal
		}
		return weights
	}

	for _, inv := range investors {
		weights[inv.ID] = ownership[inv.ID] / total
	}
	return weights
}

// AggregateInvestorUtility folds per-investor utilities into a single
// score using the investor weights
func AggregateInvestorUtility(utilities map[uuid.UUID]float64, investors []*persona.Persona) float64 {
	if len(investors) == 0 {
		return 0
	}

	weights := InvestorWeights(investors)
	sum := 0.0
	for id, w := range weights {
		sum += w * utilities[id]
	}
	return sum
}
