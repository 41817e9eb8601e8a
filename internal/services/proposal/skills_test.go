package proposal

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/domain/clause"
	"parley/internal/domain/negotiation"
	"parley/internal/domain/persona"
	"parley/internal/domain/snippet"
	"parley/pkg/errors"
)

// mockSnippetRepository implements snippet.Repository for testing
type mockSnippetRepository struct {
	storeFunc    func(context.Context, *snippet.Snippet) error
	searchFunc   func(context.Context, snippet.SearchQuery) ([]*snippet.Snippet, error)
	getByIDsFunc func(context.Context, []uuid.UUID) ([]*snippet.Snippet, error)
}

func (m *mockSnippetRepository) Store(ctx context.Context, s *snippet.Snippet) error {
	if m.storeFunc != nil {
		return m.storeFunc(ctx, s)
	}
	return nil
}

func (m *mockSnippetRepository) Search(ctx context.Context, q snippet.SearchQuery) ([]*snippet.Snippet, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, q)
	}
	return []*snippet.Snippet{}, nil
}

func (m *mockSnippetRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*snippet.Snippet, error) {
	if m.getByIDsFunc != nil {
		return m.getByIDsFunc(ctx, ids)
	}
	return []*snippet.Snippet{}, nil
}

func dec(v float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(v), Valid: true}
}

func testContext(t *testing.T) *negotiation.Context {
	t.Helper()
	company := &persona.Persona{ID: uuid.New(), Kind: persona.KindCompany}
	require.NoError(t, company.SetAttrs(persona.Attrs{}))

	return &negotiation.Context{
		SessionID: uuid.New(),
		Stage:     "seed",
		Region:    "us",
		Company:   company,
		Guidance: map[clause.Key]*clause.Guidance{
			clause.Exclusivity: {
				ClauseKey:   clause.Exclusivity,
				DefaultLow:  dec(30),
				DefaultHigh: dec(60),
				Units:       clause.UnitsDays,
			},
			clause.Vesting: {
				ClauseKey:   clause.Vesting,
				DefaultLow:  dec(36),
				DefaultHigh: dec(48),
				Units:       clause.UnitsNumber,
			},
		},
	}
}

func TestExclusivitySkill(t *testing.T) {
	ctx := context.Background()
	skill := &exclusivitySkill{}

	t.Run("company skews below the market floor", func(t *testing.T) {
		p, err := skill.Company(ctx, testContext(t))
		require.NoError(t, err)

		// round(0.67 * 30) = 20
		assert.Equal(t, 20.0, p.Value["period_days"].Num)
		assert.True(t, p.Value["period_days"].Int)
		assert.NotEmpty(t, p.Rationale)
	})

	t.Run("investor asks for the ceiling", func(t *testing.T) {
		p, err := skill.Investor(ctx, testContext(t))
		require.NoError(t, err)

		assert.Equal(t, 60.0, p.Value["period_days"].Num)
	})

	t.Run("static anchors without market data", func(t *testing.T) {
		bare := &negotiation.Context{Company: testContext(t).Company}

		p, err := skill.Company(ctx, bare)
		require.NoError(t, err)
		assert.Equal(t, 30.0, p.Value["period_days"].Num)

		p, err = skill.Investor(ctx, bare)
		require.NoError(t, err)
		assert.Equal(t, 90.0, p.Value["period_days"].Num)
	})

	t.Run("skew is clamped into bounds", func(t *testing.T) {
		nctx := testContext(t)
		nctx.Guidance[clause.Exclusivity].DefaultLow = dec(18)

		p, err := skill.Company(ctx, nctx)
		require.NoError(t, err)

		// round(0.67*18) = 12, above the static floor of 7
		assert.GreaterOrEqual(t, p.Value["period_days"].Num, 7.0)
	})
}

func TestVestingSkill(t *testing.T) {
	ctx := context.Background()
	skill := &vestingSkill{}

	t.Run("company proposes the floor with no cliff", func(t *testing.T) {
		p, err := skill.Company(ctx, testContext(t))
		require.NoError(t, err)

		assert.Equal(t, 36.0, p.Value["vesting_months"].Num)
		assert.Equal(t, 0.0, p.Value["cliff_months"].Num)
	})

	t.Run("investor demands the ceiling with a cliff", func(t *testing.T) {
		p, err := skill.Investor(ctx, testContext(t))
		require.NoError(t, err)

		assert.Equal(t, 48.0, p.Value["vesting_months"].Num)
		assert.Equal(t, 12.0, p.Value["cliff_months"].Num)
	})

	t.Run("repeat founder earns a shorter cliff", func(t *testing.T) {
		nctx := testContext(t)
		require.NoError(t, nctx.Company.SetAttrs(persona.Attrs{RepeatFounder: true}))

		p, err := skill.Investor(ctx, nctx)
		require.NoError(t, err)
		assert.Equal(t, 6.0, p.Value["cliff_months"].Num)
	})
}

func TestEnumSkills(t *testing.T) {
	ctx := context.Background()
	nctx := testContext(t)

	t.Run("preemption stances oppose on scope", func(t *testing.T) {
		skill := &preemptionSkill{}

		cp, err := skill.Company(ctx, nctx)
		require.NoError(t, err)
		ip, err := skill.Investor(ctx, nctx)
		require.NoError(t, err)

		assert.Equal(t, "major_investors", cp.Value["scope"].Text)
		assert.Equal(t, "all_investors", ip.Value["scope"].Text)
	})

	t.Run("transfer stances oppose on co-sale", func(t *testing.T) {
		skill := &transferSkill{}

		cp, err := skill.Company(ctx, nctx)
		require.NoError(t, err)
		ip, err := skill.Investor(ctx, nctx)
		require.NoError(t, err)

		assert.False(t, cp.Value["co_sale"].Flag)
		assert.True(t, ip.Value["co_sale"].Flag)
		assert.True(t, cp.Value["rofr"].Flag)
		assert.True(t, ip.Value["rofr"].Flag)
	})
}

func TestRetriever_Citations(t *testing.T) {
	ctx := context.Background()

	t.Run("returns snippet ids from search", func(t *testing.T) {
		want := []uuid.UUID{uuid.New(), uuid.New()}
		repo := &mockSnippetRepository{
			searchFunc: func(ctx context.Context, q snippet.SearchQuery) ([]*snippet.Snippet, error) {
				assert.Equal(t, clause.Exclusivity, q.ClauseKey)
				assert.Equal(t, snippet.PerspectiveFounder, q.Perspective)
				return []*snippet.Snippet{{ID: want[0]}, {ID: want[1]}}, nil
			},
		}

		r := NewRetriever(repo, nil, 3, 0)
		ids := r.Citations(ctx, clause.Exclusivity, "seed", "us", snippet.PerspectiveFounder)
		assert.Equal(t, want, ids)
	})

	t.Run("store failure degrades to no citations", func(t *testing.T) {
		repo := &mockSnippetRepository{
			searchFunc: func(ctx context.Context, q snippet.SearchQuery) ([]*snippet.Snippet, error) {
				return nil, errors.ErrUnavailable
			},
		}

		r := NewRetriever(repo, nil, 3, 0)
		assert.Nil(t, r.Citations(ctx, clause.Exclusivity, "seed", "us", snippet.PerspectiveFounder))
	})

	t.Run("nil retriever yields no citations", func(t *testing.T) {
		var r *Retriever
		assert.Nil(t, r.Citations(ctx, clause.Exclusivity, "seed", "us", snippet.PerspectiveFounder))
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(nil)

	assert.Equal(t, clause.Keys(), r.Keys())

	for _, key := range clause.Keys() {
		skill, ok := r.Get(key)
		require.True(t, ok)
		assert.Equal(t, key, skill.Key())
	}

	_, ok := r.Get("liquidation_preference")
	assert.False(t, ok)
}
