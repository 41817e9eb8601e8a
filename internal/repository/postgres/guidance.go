package postgres

import (
	"context"
	"database/sql"

	"parley/internal/domain/clause"
	"parley/pkg/errors"
)

// Compile-time checks
var (
	_ clause.GuidanceRepository  = (*GuidanceRepository)(nil)
	_ clause.BenchmarkRepository = (*BenchmarkRepository)(nil)
)

// GuidanceRepository implements clause.GuidanceRepository
type GuidanceRepository struct {
	db DBTX
}

// NewGuidanceRepository creates a new guidance repository
func NewGuidanceRepository(db DBTX) *GuidanceRepository {
	return &GuidanceRepository{db: db}
}

// Get retrieves the guidance row for one clause at a stage/region
func (r *GuidanceRepository) Get(ctx context.Context, key clause.Key, stage, region string) (*clause.Guidance, error) {
	query := `
		SELECT id, clause_key, stage, region,
		       default_low, default_high, min_val, max_val,
		       units, company_view, investor_view, created_at
		FROM clause_guidance
		WHERE clause_key = $1 AND stage = $2 AND region = $3
	`

	g := &clause.Guidance{}
	err := r.db.GetContext(ctx, g, query, key, stage, region)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get clause guidance")
	}
	return g, nil
}

// List retrieves all guidance rows for a stage/region
func (r *GuidanceRepository) List(ctx context.Context, stage, region string) ([]*clause.Guidance, error) {
	query := `
		SELECT id, clause_key, stage, region,
		       default_low, default_high, min_val, max_val,
		       units, company_view, investor_view, created_at
		FROM clause_guidance
		WHERE stage = $1 AND region = $2
		ORDER BY clause_key
	`

	var rows []*clause.Guidance
	if err := r.db.SelectContext(ctx, &rows, query, stage, region); err != nil {
		return nil, errors.Wrap(err, "list clause guidance")
	}
	return rows, nil
}

// BenchmarkRepository implements clause.BenchmarkRepository
type BenchmarkRepository struct {
	db DBTX
}

// NewBenchmarkRepository creates a new benchmark repository
func NewBenchmarkRepository(db DBTX) *BenchmarkRepository {
	return &BenchmarkRepository{db: db}
}

// Latest retrieves the most recent benchmark for one clause.
// NULLS LAST pushes undated rows behind every dated one.
func (r *BenchmarkRepository) Latest(ctx context.Context, key clause.Key, stage, region string) (*clause.Benchmark, error) {
	query := `
		SELECT id, clause_key, stage, region, asof_date, p25, p75, created_at
		FROM market_benchmarks
		WHERE clause_key = $1 AND stage = $2 AND region = $3
		ORDER BY asof_date DESC NULLS LAST, created_at DESC
		LIMIT 1
	`

	b := &clause.Benchmark{}
	err := r.db.GetContext(ctx, b, query, key, stage, region)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get latest benchmark")
	}
	return b, nil
}

// LatestAll retrieves the most recent benchmark per clause for a stage/region
func (r *BenchmarkRepository) LatestAll(ctx context.Context, stage, region string) ([]*clause.Benchmark, error) {
	query := `
		SELECT DISTINCT ON (clause_key)
		       id, clause_key, stage, region, asof_date, p25, p75, created_at
		FROM market_benchmarks
		WHERE stage = $1 AND region = $2
		ORDER BY clause_key, asof_date DESC NULLS LAST, created_at DESC
	`

	var rows []*clause.Benchmark
	if err := r.db.SelectContext(ctx, &rows, query, stage, region); err != nil {
		return nil, errors.Wrap(err, "list latest benchmarks")
	}
	return rows, nil
}
