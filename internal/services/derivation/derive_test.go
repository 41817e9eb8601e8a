package derivation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/domain/clause"
	"parley/internal/domain/persona"
)

func months(v float64) *float64 { return &v }

func TestDeriveLeverage_Company(t *testing.T) {
	t.Run("neutral baseline with no signals", func(t *testing.T) {
		score := DeriveLeverage(persona.KindCompany, persona.Attrs{})
		assert.Equal(t, 0.5, score)
	})

	t.Run("repeat founder with offers and runway stacks bonuses", func(t *testing.T) {
		score := DeriveLeverage(persona.KindCompany, persona.Attrs{
			RepeatFounder: true,
			AltOffers:     2,
			RunwayMonths:  months(12),
		})
		assert.InDelta(t, 0.95, score, 1e-9)
	})

	t.Run("short runway weakens the company", func(t *testing.T) {
		score := DeriveLeverage(persona.KindCompany, persona.Attrs{
			RunwayMonths: months(3),
		})
		assert.InDelta(t, 0.3, score, 1e-9)
	})

	t.Run("clamps to the unit interval", func(t *testing.T) {
		score := DeriveLeverage(persona.KindCompany, persona.Attrs{
			RepeatFounder: true,
			AltOffers:     5,
			RunwayMonths:  months(24),
		})
		assert.LessOrEqual(t, score, 1.0)

		score = DeriveLeverage(persona.KindInvestor, persona.Attrs{
			DiligenceSpeed: persona.DiligenceAccelerated,
		})
		assert.GreaterOrEqual(t, score, 0.0)
	})
}

func TestDeriveLeverage_Investor(t *testing.T) {
	t.Run("marquee brand and large check add leverage", func(t *testing.T) {
		score := DeriveLeverage(persona.KindInvestor, persona.Attrs{
			Marquee:            true,
			OwnershipTargetPct: 0.20,
		})
		assert.InDelta(t, 0.8, score, 1e-9)
	})

	t.Run("accelerated diligence costs leverage", func(t *testing.T) {
		score := DeriveLeverage(persona.KindInvestor, persona.Attrs{
			DiligenceSpeed: persona.DiligenceAccelerated,
		})
		assert.InDelta(t, 0.4, score, 1e-9)
	})

	t.Run("ownership at the threshold earns nothing", func(t *testing.T) {
		score := DeriveLeverage(persona.KindInvestor, persona.Attrs{
			OwnershipTargetPct: 0.15,
		})
		assert.Equal(t, 0.5, score)
	})
}

func TestDeriveWeights(t *testing.T) {
	t.Run("company base table", func(t *testing.T) {
		w := DeriveWeights(persona.KindCompany, persona.Attrs{})
		assert.Equal(t, 0.5, w[clause.Exclusivity])
		assert.Equal(t, 0.5, w[clause.Vesting])
		assert.Equal(t, 0.3, w[clause.PreemptionRights])
		assert.Equal(t, 0.3, w[clause.TransferRestrictions])
	})

	t.Run("short runway raises exclusivity weight", func(t *testing.T) {
		w := DeriveWeights(persona.KindCompany, persona.Attrs{RunwayMonths: months(3)})
		assert.Equal(t, 0.8, w[clause.Exclusivity])
	})

	t.Run("growth fund raises vesting weight", func(t *testing.T) {
		w := DeriveWeights(persona.KindInvestor, persona.Attrs{FundTier: "growth"})
		assert.Equal(t, 0.9, w[clause.Vesting])
		assert.Equal(t, 0.4, w[clause.Exclusivity])
	})
}

func TestDeriveBatna(t *testing.T) {
	company := DeriveBatna(persona.KindCompany)
	investor := DeriveBatna(persona.KindInvestor)

	assert.Equal(t, 30.0, company[clause.Exclusivity]["period_days"].Num)
	assert.Equal(t, 90.0, investor[clause.Exclusivity]["period_days"].Num)

	assert.Equal(t, 0.0, company[clause.Vesting]["cliff_months"].Num)
	assert.Equal(t, 12.0, investor[clause.Vesting]["cliff_months"].Num)

	// Anchors exist for every registered clause on both sides
	for _, key := range clause.Keys() {
		assert.Contains(t, company, key)
		assert.Contains(t, investor, key)
	}
}

func newInvestor(t *testing.T, attrs persona.Attrs) *persona.Persona {
	t.Helper()
	p := &persona.Persona{ID: uuid.New(), Kind: persona.KindInvestor}
	require.NoError(t, p.SetAttrs(attrs))
	return p
}

func TestAnchorInvestor(t *testing.T) {
	t.Run("first marquee wins regardless of ownership", func(t *testing.T) {
		investors := []*persona.Persona{
			newInvestor(t, persona.Attrs{OwnershipTargetPct: 0.10}),
			newInvestor(t, persona.Attrs{Marquee: true, OwnershipTargetPct: 0.05}),
			newInvestor(t, persona.Attrs{OwnershipTargetPct: 0.20}),
		}

		anchor := AnchorInvestor(investors)
		require.NotNil(t, anchor)
		assert.Equal(t, investors[1].ID, anchor.ID)
	})

	t.Run("highest ownership when no marquee", func(t *testing.T) {
		investors := []*persona.Persona{
			newInvestor(t, persona.Attrs{OwnershipTargetPct: 0.10}),
			newInvestor(t, persona.Attrs{OwnershipTargetPct: 0.20}),
		}

		anchor := AnchorInvestor(investors)
		require.NotNil(t, anchor)
		assert.Equal(t, investors[1].ID, anchor.ID)
	})

	t.Run("ownership tie keeps list order", func(t *testing.T) {
		investors := []*persona.Persona{
			newInvestor(t, persona.Attrs{OwnershipTargetPct: 0.10}),
			newInvestor(t, persona.Attrs{OwnershipTargetPct: 0.10}),
		}

		anchor := AnchorInvestor(investors)
		require.NotNil(t, anchor)
		assert.Equal(t, investors[0].ID, anchor.ID)
	})

	t.Run("nil for empty list", func(t *testing.T) {
		assert.Nil(t, AnchorInvestor(nil))
	})
}

func TestInvestorWeights(t *testing.T) {
	t.Run("ownership proportional", func(t *testing.T) {
		investors := []*persona.Persona{
			newInvestor(t, persona.Attrs{OwnershipTargetPct: 0.15}),
			newInvestor(t, persona.Attrs{OwnershipTargetPct: 0.05}),
		}

		weights := InvestorWeights(investors)
		assert.InDelta(t, 0.75, weights[investors[0].ID], 1e-9)
		assert.InDelta(t, 0.25, weights[investors[1].ID], 1e-9)
	})

	t.Run("equal split when no ownership stated", func(t *testing.T) {
		investors := []*persona.Persona{
			newInvestor(t, persona.Attrs{}),
			newInvestor(t, persona.Attrs{}),
		}

		weights := InvestorWeights(investors)
		assert.InDelta(t, 0.5, weights[investors[0].ID], 1e-9)
		assert.InDelta(t, 0.5, weights[investors[1].ID], 1e-9)
	})
}

func TestAggregateInvestorUtility(t *testing.T) {
	investors := []*persona.Persona{
		newInvestor(t, persona.Attrs{OwnershipTargetPct: 0.15}),
		newInvestor(t, persona.Attrs{OwnershipTargetPct: 0.05}),
	}

	utilities := map[uuid.UUID]float64{
		investors[0].ID: 80,
		investors[1].ID: 40,
	}

	// 0.75*80 + 0.25*40
	assert.InDelta(t, 70.0, AggregateInvestorUtility(utilities, investors), 1e-9)
}
