package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/domain/clause"
	"parley/internal/domain/negotiation"
	"parley/internal/domain/persona"
)

func dec(v float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(v), Valid: true}
}

func ctxWithGuidance(key clause.Key, min, max float64) *negotiation.Context {
	return &negotiation.Context{
		Guidance: map[clause.Key]*clause.Guidance{
			key: {ClauseKey: key, MinVal: dec(min), MaxVal: dec(max)},
		},
	}
}

func TestBounds(t *testing.T) {
	t.Run("guidance bounds take precedence", func(t *testing.T) {
		nctx := ctxWithGuidance(clause.Exclusivity, 10, 100)
		min, max := Bounds(clause.Exclusivity, nctx)
		require.NotNil(t, min)
		require.NotNil(t, max)
		assert.Equal(t, 10.0, *min)
		assert.Equal(t, 100.0, *max)
	})

	t.Run("constraint table fills missing bounds", func(t *testing.T) {
		nctx := &negotiation.Context{}
		min, max := Bounds(clause.Exclusivity, nctx)
		require.NotNil(t, min)
		require.NotNil(t, max)
		assert.Equal(t, 7.0, *min)
		assert.Equal(t, 120.0, *max)

		min, max = Bounds(clause.Vesting, nctx)
		assert.Equal(t, 0.0, *min)
		assert.Equal(t, 60.0, *max)
	})

	t.Run("enum clauses carry no numeric bounds", func(t *testing.T) {
		min, max := Bounds(clause.PreemptionRights, &negotiation.Context{})
		assert.Nil(t, min)
		assert.Nil(t, max)
	})
}

func TestClamp(t *testing.T) {
	nctx := &negotiation.Context{}

	t.Run("clamps numeric fields into bounds", func(t *testing.T) {
		out := Clamp(clause.Exclusivity, clause.Value{
			"period_days": clause.Int(365),
		}, nctx)
		assert.Equal(t, 120.0, out["period_days"].Num)

		out = Clamp(clause.Exclusivity, clause.Value{
			"period_days": clause.Int(1),
		}, nctx)
		assert.Equal(t, 7.0, out["period_days"].Num)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := Clamp(clause.Vesting, clause.Value{
			"vesting_months": clause.Int(72),
			"cliff_months":   clause.Int(12),
		}, nctx)
		twice := Clamp(clause.Vesting, once, nctx)
		assert.True(t, once.Equal(twice))
	})

	t.Run("leaves flags and text untouched", func(t *testing.T) {
		v := clause.Value{
			"granted": clause.Bool(true),
			"scope":   clause.Text("all_investors"),
		}
		out := Clamp(clause.PreemptionRights, v, nctx)
		assert.True(t, v.Equal(out))
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		v := clause.Value{"period_days": clause.Int(365)}
		Clamp(clause.Exclusivity, v, nctx)
		assert.Equal(t, 365.0, v["period_days"].Num)
	})
}

func TestValidate(t *testing.T) {
	nctx := &negotiation.Context{}

	t.Run("in-bounds value passes", func(t *testing.T) {
		ok, msg := Validate(clause.Exclusivity, clause.Value{
			"period_days": clause.Int(45),
		}, nctx)
		assert.True(t, ok)
		assert.Empty(t, msg)
	})

	t.Run("violation names the sub-field", func(t *testing.T) {
		ok, msg := Validate(clause.Exclusivity, clause.Value{
			"period_days": clause.Int(365),
		}, nctx)
		assert.False(t, ok)
		assert.Equal(t, "exclusivity.period_days=365 above maximum 120", msg)
	})

	t.Run("below minimum", func(t *testing.T) {
		ok, msg := Validate(clause.Exclusivity, clause.Value{
			"period_days": clause.Int(3),
		}, nctx)
		assert.False(t, ok)
		assert.Equal(t, "exclusivity.period_days=3 below minimum 7", msg)
	})

	t.Run("unbounded clause always passes", func(t *testing.T) {
		ok, _ := Validate(clause.PreemptionRights, clause.Value{
			"scope": clause.Text("nonsense"),
		}, nctx)
		assert.True(t, ok)
	})

	t.Run("guidance bounds override the static table", func(t *testing.T) {
		nctx := ctxWithGuidance(clause.Exclusivity, 14, 60)
		ok, _ := Validate(clause.Exclusivity, clause.Value{
			"period_days": clause.Int(90),
		}, nctx)
		assert.False(t, ok)
	})
}

func TestNonNegotiable(t *testing.T) {
	assert.True(t, NonNegotiable(clause.PreemptionRights, persona.KindInvestor))
	assert.False(t, NonNegotiable(clause.PreemptionRights, persona.KindCompany))

	assert.True(t, NonNegotiable(clause.TransferRestrictions, persona.KindCompany))
	assert.False(t, NonNegotiable(clause.TransferRestrictions, persona.KindInvestor))

	assert.False(t, NonNegotiable(clause.Exclusivity, persona.KindCompany))
}
