package solver

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/domain/clause"
	"parley/internal/domain/negotiation"
)

func proposal(key clause.Key, value clause.Value) *negotiation.TermProposal {
	return &negotiation.TermProposal{ClauseKey: key, Value: value}
}

func exclusivityProposals(companyDays, investorDays int) (map[clause.Key]*negotiation.TermProposal, map[clause.Key]*negotiation.TermProposal) {
	company := map[clause.Key]*negotiation.TermProposal{
		clause.Exclusivity: proposal(clause.Exclusivity, clause.Value{"period_days": clause.Int(companyDays)}),
	}
	investor := map[clause.Key]*negotiation.TermProposal{
		clause.Exclusivity: proposal(clause.Exclusivity, clause.Value{"period_days": clause.Int(investorDays)}),
	}
	return company, investor
}

func TestNormalize(t *testing.T) {
	w := Normalize(0.7, 0.3)
	assert.InDelta(t, 0.7, w.Company, 1e-9)
	assert.InDelta(t, 0.3, w.Investor, 1e-9)

	w = Normalize(0, 0)
	assert.Equal(t, 0.5, w.Company)
	assert.Equal(t, 0.5, w.Investor)
}

func TestSolve_WeightedCompromise(t *testing.T) {
	nctx := &negotiation.Context{}

	t.Run("even split lands midway", func(t *testing.T) {
		company, investor := exclusivityProposals(30, 60)
		final := Solve(company, investor, Weights{Company: 0.5, Investor: 0.5}, nctx)

		require.Contains(t, final, clause.Exclusivity)
		assert.Equal(t, 45.0, final[clause.Exclusivity]["period_days"].Num)
	})

	t.Run("leverage pulls toward the stronger party", func(t *testing.T) {
		company, investor := exclusivityProposals(20, 60)
		final := Solve(company, investor, Weights{Company: 0.7, Investor: 0.3}, nctx)

		// round(0.7*20 + 0.3*60) = 32
		assert.Equal(t, 32.0, final[clause.Exclusivity]["period_days"].Num)
	})

	t.Run("integer positions settle on an integer", func(t *testing.T) {
		company, investor := exclusivityProposals(30, 61)
		final := Solve(company, investor, Weights{Company: 0.5, Investor: 0.5}, nctx)

		f := final[clause.Exclusivity]["period_days"]
		assert.True(t, f.Int)
		assert.Equal(t, 46.0, f.Num) // round(45.5)
	})

	t.Run("compromise respects policy bounds", func(t *testing.T) {
		company, investor := exclusivityProposals(150, 200)
		final := Solve(company, investor, Weights{Company: 0.5, Investor: 0.5}, nctx)

		assert.Equal(t, 120.0, final[clause.Exclusivity]["period_days"].Num)
	})
}

func TestSolve_EnumClauses(t *testing.T) {
	nctx := &negotiation.Context{}

	companyValue := clause.Value{
		"granted": clause.Bool(true),
		"scope":   clause.Text("major_investors"),
	}
	investorValue := clause.Value{
		"granted": clause.Bool(true),
		"scope":   clause.Text("all_investors"),
	}
	company := map[clause.Key]*negotiation.TermProposal{
		clause.PreemptionRights: proposal(clause.PreemptionRights, companyValue),
	}
	investor := map[clause.Key]*negotiation.TermProposal{
		clause.PreemptionRights: proposal(clause.PreemptionRights, investorValue),
	}

	t.Run("heavier side takes the whole value", func(t *testing.T) {
		final := Solve(company, investor, Weights{Company: 0.8, Investor: 0.2}, nctx)
		assert.True(t, final[clause.PreemptionRights].Equal(companyValue))
	})

	t.Run("weight tie resolves to the investor", func(t *testing.T) {
		final := Solve(company, investor, Weights{Company: 0.5, Investor: 0.5}, nctx)
		assert.True(t, final[clause.PreemptionRights].Equal(investorValue))
	})
}

func TestSolve_SingleSided(t *testing.T) {
	nctx := &negotiation.Context{}

	t.Run("company-only proposal is adopted clamped", func(t *testing.T) {
		company := map[clause.Key]*negotiation.TermProposal{
			clause.Exclusivity: proposal(clause.Exclusivity, clause.Value{"period_days": clause.Int(150)}),
		}
		final := Solve(company, nil, Weights{Company: 0.5, Investor: 0.5}, nctx)

		assert.Equal(t, 120.0, final[clause.Exclusivity]["period_days"].Num)
	})

	t.Run("investor-only proposal is adopted", func(t *testing.T) {
		investor := map[clause.Key]*negotiation.TermProposal{
			clause.Vesting: proposal(clause.Vesting, clause.Value{
				"vesting_months": clause.Int(48),
				"cliff_months":   clause.Int(12),
			}),
		}
		final := Solve(nil, investor, Weights{Company: 0.5, Investor: 0.5}, nctx)

		assert.Equal(t, 48.0, final[clause.Vesting]["vesting_months"].Num)
	})

	t.Run("absent clause is absent from the settlement", func(t *testing.T) {
		final := Solve(nil, nil, Weights{Company: 0.5, Investor: 0.5}, nctx)
		assert.Empty(t, final)
	})
}

func TestSolve_PinnedAndOverrides(t *testing.T) {
	pinner := uuid.New()
	pinnedTerm := &negotiation.SessionTerm{
		ClauseKey: clause.Exclusivity,
		PinnedBy:  &pinner,
	}
	require.NoError(t, pinnedTerm.SetValue(clause.Value{"period_days": clause.Int(75)}))

	t.Run("pinned term wins over both proposals", func(t *testing.T) {
		nctx := &negotiation.Context{
			Terms: map[clause.Key]*negotiation.SessionTerm{
				clause.Exclusivity: pinnedTerm,
			},
		}
		company, investor := exclusivityProposals(30, 60)
		final := Solve(company, investor, Weights{Company: 0.5, Investor: 0.5}, nctx)

		assert.Equal(t, 75.0, final[clause.Exclusivity]["period_days"].Num)
	})

	t.Run("pinned term appears even with no proposals", func(t *testing.T) {
		nctx := &negotiation.Context{
			Terms: map[clause.Key]*negotiation.SessionTerm{
				clause.Exclusivity: pinnedTerm,
			},
		}
		final := Solve(nil, nil, Weights{Company: 0.5, Investor: 0.5}, nctx)

		require.Contains(t, final, clause.Exclusivity)
		assert.Equal(t, 75.0, final[clause.Exclusivity]["period_days"].Num)
	})

	t.Run("override is applied verbatim, even out of bounds", func(t *testing.T) {
		nctx := &negotiation.Context{
			Overrides: map[clause.Key]clause.Value{
				clause.Exclusivity: {"period_days": clause.Int(300)},
			},
		}
		company, investor := exclusivityProposals(30, 60)
		final := Solve(company, investor, Weights{Company: 0.5, Investor: 0.5}, nctx)

		assert.Equal(t, 300.0, final[clause.Exclusivity]["period_days"].Num)
	})

	t.Run("pin beats override on the same clause", func(t *testing.T) {
		nctx := &negotiation.Context{
			Terms: map[clause.Key]*negotiation.SessionTerm{
				clause.Exclusivity: pinnedTerm,
			},
			Overrides: map[clause.Key]clause.Value{
				clause.Exclusivity: {"period_days": clause.Int(10)},
			},
		}
		final := Solve(nil, nil, Weights{Company: 0.5, Investor: 0.5}, nctx)

		assert.Equal(t, 75.0, final[clause.Exclusivity]["period_days"].Num)
	})
}

func TestSolve_DeterministicOrder(t *testing.T) {
	// Same inputs, same output, run a few times to shake out map
	// iteration order effects
	nctx := &negotiation.Context{}
	company, investor := exclusivityProposals(30, 60)

	first := Solve(company, investor, Weights{Company: 0.6, Investor: 0.4}, nctx)
	for i := 0; i < 10; i++ {
		again := Solve(company, investor, Weights{Company: 0.6, Investor: 0.4}, nctx)
		require.Equal(t, len(first), len(again))
		for key, value := range first {
			assert.True(t, value.Equal(again[key]))
		}
	}
}
