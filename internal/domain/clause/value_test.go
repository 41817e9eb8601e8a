package clause

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_JSONRoundTrip(t *testing.T) {
	t.Run("preserves integer fields as integers", func(t *testing.T) {
		v := Value{
			"period_days": Int(45),
		}

		data, err := json.Marshal(v)
		require.NoError(t, err)
		assert.JSONEq(t, `{"period_days": 45}`, string(data))

		var back Value
		require.NoError(t, json.Unmarshal(data, &back))

		f := back["period_days"]
		assert.Equal(t, KindNumber, f.Kind)
		assert.True(t, f.Int)
		assert.Equal(t, 45.0, f.Num)
	})

	t.Run("preserves fractional fields as floats", func(t *testing.T) {
		v := Value{"ownership": Number(0.15)}

		data, err := json.Marshal(v)
		require.NoError(t, err)

		var back Value
		require.NoError(t, json.Unmarshal(data, &back))

		f := back["ownership"]
		assert.Equal(t, KindNumber, f.Kind)
		assert.False(t, f.Int)
		assert.Equal(t, 0.15, f.Num)
	})

	t.Run("round-trips mixed field kinds", func(t *testing.T) {
		v := Value{
			"granted": Bool(true),
			"scope":   Text("major_investors"),
			"count":   Int(3),
		}

		data, err := json.Marshal(v)
		require.NoError(t, err)

		var back Value
		require.NoError(t, json.Unmarshal(data, &back))
		assert.True(t, v.Equal(back))
	})
}

func TestValue_Equal(t *testing.T) {
	a := Value{
		"rofr":    Bool(true),
		"co_sale": Bool(false),
	}

	assert.True(t, a.Equal(Value{"rofr": Bool(true), "co_sale": Bool(false)}))
	assert.False(t, a.Equal(Value{"rofr": Bool(true), "co_sale": Bool(true)}))
	assert.False(t, a.Equal(Value{"rofr": Bool(true)}))
}

func TestValue_Clone(t *testing.T) {
	orig := Value{"period_days": Int(30)}
	copied := orig.Clone()

	copied["period_days"] = Int(60)
	assert.Equal(t, 30.0, orig["period_days"].Num)
}

func TestValue_Primary(t *testing.T) {
	spec, ok := SpecFor(Vesting)
	require.True(t, ok)

	t.Run("returns the declared primary field", func(t *testing.T) {
		v := Value{
			"vesting_months": Int(48),
			"cliff_months":   Int(12),
		}
		f, ok := v.Primary(spec)
		require.True(t, ok)
		assert.Equal(t, 48.0, f.Num)
	})

	t.Run("falls back to first declared field present", func(t *testing.T) {
		v := Value{"cliff_months": Int(12)}
		f, ok := v.Primary(spec)
		require.True(t, ok)
		assert.Equal(t, 12.0, f.Num)
	})

	t.Run("reports absence", func(t *testing.T) {
		_, ok := Value{}.Primary(spec)
		assert.False(t, ok)
	})
}

func TestSpecRegistry(t *testing.T) {
	keys := Keys()
	assert.Equal(t, []Key{Exclusivity, Vesting, PreemptionRights, TransferRestrictions}, keys)

	for _, key := range keys {
		spec, ok := SpecFor(key)
		require.True(t, ok, "spec missing for %s", key)
		assert.Contains(t, spec.Fields, spec.Primary, "primary of %s must be a declared field", key)
	}

	assert.False(t, Known("liquidation_preference"))
}

func TestUnits_Numeric(t *testing.T) {
	assert.True(t, UnitsDays.Numeric())
	assert.True(t, UnitsNumber.Numeric())
	assert.True(t, UnitsPct.Numeric())
	assert.False(t, UnitsEnum.Numeric())
}
