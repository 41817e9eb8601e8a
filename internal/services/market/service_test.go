package market

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/domain/clause"
	"parley/pkg/errors"
)

// mockGuidanceRepository implements clause.GuidanceRepository for testing
type mockGuidanceRepository struct {
	getFunc  func(context.Context, clause.Key, string, string) (*clause.Guidance, error)
	listFunc func(context.Context, string, string) ([]*clause.Guidance, error)
}

func (m *mockGuidanceRepository) Get(ctx context.Context, key clause.Key, stage, region string) (*clause.Guidance, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key, stage, region)
	}
	return nil, errors.ErrNotFound
}

func (m *mockGuidanceRepository) List(ctx context.Context, stage, region string) ([]*clause.Guidance, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, stage, region)
	}
	return []*clause.Guidance{}, nil
}

// mockBenchmarkRepository implements clause.BenchmarkRepository for testing
type mockBenchmarkRepository struct {
	latestFunc    func(context.Context, clause.Key, string, string) (*clause.Benchmark, error)
	latestAllFunc func(context.Context, string, string) ([]*clause.Benchmark, error)
}

func (m *mockBenchmarkRepository) Latest(ctx context.Context, key clause.Key, stage, region string) (*clause.Benchmark, error) {
	if m.latestFunc != nil {
		return m.latestFunc(ctx, key, stage, region)
	}
	return nil, errors.ErrNotFound
}

func (m *mockBenchmarkRepository) LatestAll(ctx context.Context, stage, region string) ([]*clause.Benchmark, error) {
	if m.latestAllFunc != nil {
		return m.latestAllFunc(ctx, stage, region)
	}
	return []*clause.Benchmark{}, nil
}

func dec(v float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(v), Valid: true}
}

func TestService_DefaultRange(t *testing.T) {
	ctx := context.Background()

	t.Run("guidance wins over benchmarks", func(t *testing.T) {
		guidance := &mockGuidanceRepository{
			getFunc: func(ctx context.Context, key clause.Key, stage, region string) (*clause.Guidance, error) {
				return &clause.Guidance{
					ClauseKey:   key,
					DefaultLow:  dec(30),
					DefaultHigh: dec(60),
				}, nil
			},
		}
		benchmarks := &mockBenchmarkRepository{
			latestFunc: func(ctx context.Context, key clause.Key, stage, region string) (*clause.Benchmark, error) {
				t.Fatal("benchmarks must not be consulted when guidance resolves")
				return nil, nil
			},
		}

		svc := NewService(guidance, benchmarks)
		r, err := svc.DefaultRange(ctx, clause.Exclusivity, "seed", "us")
		require.NoError(t, err)
		require.NotNil(t, r.Low)
		require.NotNil(t, r.High)
		assert.Equal(t, 30.0, *r.Low)
		assert.Equal(t, 60.0, *r.High)
	})

	t.Run("benchmark percentiles when guidance is absent", func(t *testing.T) {
		benchmarks := &mockBenchmarkRepository{
			latestFunc: func(ctx context.Context, key clause.Key, stage, region string) (*clause.Benchmark, error) {
				return &clause.Benchmark{
					ClauseKey: key,
					P25:       decimal.NewFromInt(36),
					P75:       decimal.NewFromInt(48),
				}, nil
			},
		}

		svc := NewService(&mockGuidanceRepository{}, benchmarks)
		r, err := svc.DefaultRange(ctx, clause.Vesting, "seed", "us")
		require.NoError(t, err)
		require.NotNil(t, r.Low)
		assert.Equal(t, 36.0, *r.Low)
		assert.Equal(t, 48.0, *r.High)
	})

	t.Run("guidance without default range falls through to benchmarks", func(t *testing.T) {
		guidance := &mockGuidanceRepository{
			getFunc: func(ctx context.Context, key clause.Key, stage, region string) (*clause.Guidance, error) {
				// bounds only, no defaults
				return &clause.Guidance{ClauseKey: key, MinVal: dec(7), MaxVal: dec(120)}, nil
			},
		}
		benchmarks := &mockBenchmarkRepository{
			latestFunc: func(ctx context.Context, key clause.Key, stage, region string) (*clause.Benchmark, error) {
				return &clause.Benchmark{
					ClauseKey: key,
					P25:       decimal.NewFromInt(30),
					P75:       decimal.NewFromInt(60),
				}, nil
			},
		}

		svc := NewService(guidance, benchmarks)
		r, err := svc.DefaultRange(ctx, clause.Exclusivity, "seed", "us")
		require.NoError(t, err)
		require.NotNil(t, r.Low)
		assert.Equal(t, 30.0, *r.Low)
	})

	t.Run("empty range when nothing covers the clause", func(t *testing.T) {
		svc := NewService(&mockGuidanceRepository{}, &mockBenchmarkRepository{})
		r, err := svc.DefaultRange(ctx, clause.PreemptionRights, "seed", "us")
		require.NoError(t, err)
		assert.Nil(t, r.Low)
		assert.Nil(t, r.High)
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		guidance := &mockGuidanceRepository{
			getFunc: func(ctx context.Context, key clause.Key, stage, region string) (*clause.Guidance, error) {
				return nil, errors.ErrUnavailable
			},
		}

		svc := NewService(guidance, &mockBenchmarkRepository{})
		_, err := svc.DefaultRange(ctx, clause.Exclusivity, "seed", "us")
		assert.True(t, errors.Is(err, errors.ErrUnavailable))
	})
}

func TestService_BenchmarkMap(t *testing.T) {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	benchmarks := &mockBenchmarkRepository{
		latestAllFunc: func(ctx context.Context, stage, region string) ([]*clause.Benchmark, error) {
			return []*clause.Benchmark{
				{ClauseKey: clause.Exclusivity, AsOf: &older, P25: decimal.NewFromInt(20)},
				{ClauseKey: clause.Exclusivity, AsOf: &newer, P25: decimal.NewFromInt(30)},
				{ClauseKey: clause.Vesting, P25: decimal.NewFromInt(36)}, // undated
				{ClauseKey: clause.Vesting, AsOf: &older, P25: decimal.NewFromInt(40)},
			}, nil
		},
	}

	svc := NewService(&mockGuidanceRepository{}, benchmarks)
	out, err := svc.BenchmarkMap(context.Background(), "seed", "us")
	require.NoError(t, err)

	// Newest dated row wins; an undated row never beats a dated one
	assert.True(t, out[clause.Exclusivity].P25.Equal(decimal.NewFromInt(30)))
	assert.True(t, out[clause.Vesting].P25.Equal(decimal.NewFromInt(40)))
}

func TestRangeFrom(t *testing.T) {
	g := &clause.Guidance{DefaultLow: dec(30), DefaultHigh: dec(60)}
	b := &clause.Benchmark{P25: decimal.NewFromInt(20), P75: decimal.NewFromInt(50)}

	t.Run("guidance first", func(t *testing.T) {
		r, ok := RangeFrom(g, b)
		require.True(t, ok)
		assert.Equal(t, 30.0, *r.Low)
	})

	t.Run("benchmark fallback", func(t *testing.T) {
		r, ok := RangeFrom(nil, b)
		require.True(t, ok)
		assert.Equal(t, 20.0, *r.Low)
		assert.Equal(t, 50.0, *r.High)
	})

	t.Run("nothing resolves", func(t *testing.T) {
		_, ok := RangeFrom(nil, nil)
		assert.False(t, ok)
	})
}
