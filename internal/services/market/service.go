package market

import (
	"context"

	"parley/internal/domain/clause"
	"parley/pkg/errors"
	"parley/pkg/logger"
)

// Range is a resolved default range for one clause. Either bound may be
// nil when neither guidance nor benchmarks cover the clause.
type Range struct {
	Low  *float64
	High *float64
}

// Service resolves default ranges for clauses with a guidance-first,
// benchmark-fallback chain
type Service struct {
	guidance   clause.GuidanceRepository
	benchmarks clause.BenchmarkRepository
	log        *logger.Logger
}

// NewService creates a new market lookup service
func NewService(guidance clause.GuidanceRepository, benchmarks clause.BenchmarkRepository) *Service {
	return &Service{
		guidance:   guidance,
		benchmarks: benchmarks,
		log:        logger.Get().With("component", "market_service"),
	}
}

// DefaultRange resolves the default (low, high) range for one clause.
// Priority: guidance default_low/high when a row exists with a non-null
// default_low; else the most recent benchmark p25/p75; else (nil, nil).
func (s *Service) DefaultRange(ctx context.Context, key clause.Key, stage, region string) (Range, error) {
	g, err := s.guidance.Get(ctx, key, stage, region)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return Range{}, errors.Wrap(err, "failed to load guidance")
	}

	if r, ok := RangeFrom(g, nil); ok {
		return r, nil
	}

	b, err := s.benchmarks.Latest(ctx, key, stage, region)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return Range{}, errors.Wrap(err, "failed to load benchmark")
	}

	if r, ok := RangeFrom(nil, b); ok {
		return r, nil
	}
	return Range{}, nil
}

// DefaultRanges resolves a list of clause keys in one pass over storage
func (s *Service) DefaultRanges(ctx context.Context, keys []clause.Key, stage, region string) (map[clause.Key]Range, error) {
	guidance, err := s.GuidanceMap(ctx, stage, region)
	if err != nil {
		return nil, err
	}
	benchmarks, err := s.BenchmarkMap(ctx, stage, region)
	if err != nil {
		return nil, err
	}

	out := make(map[clause.Key]Range, len(keys))
	for _, key := range keys {
		if r, ok := RangeFrom(guidance[key], benchmarks[key]); ok {
			out[key] = r
		} else {
			out[key] = Range{}
		}
	}
	return out, nil
}

// GuidanceMap loads all guidance rows for a stage/region keyed by clause
func (s *Service) GuidanceMap(ctx context.Context, stage, region string) (map[clause.Key]*clause.Guidance, error) {
	rows, err := s.guidance.List(ctx, stage, region)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list guidance")
	}
	out := make(map[clause.Key]*clause.Guidance, len(rows))
	for _, g := range rows {
		out[g.ClauseKey] = g
	}
	return out, nil
}

// BenchmarkMap loads the latest benchmark per clause for a stage/region
func (s *Service) BenchmarkMap(ctx context.Context, stage, region string) (map[clause.Key]*clause.Benchmark, error) {
	rows, err := s.benchmarks.LatestAll(ctx, stage, region)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list benchmarks")
	}
	out := make(map[clause.Key]*clause.Benchmark, len(rows))
	for _, b := range rows {
		// Repositories return one row per clause, but guard against
		// duplicates by keeping the newest
		if prev, ok := out[b.ClauseKey]; !ok || b.Newer(prev) {
			out[b.ClauseKey] = b
		}
	}
	return out, nil
}

// RangeFrom applies the fallback chain to already-loaded rows. Used by
// proposal skills so that mid-round resolution never touches storage.
func RangeFrom(g *clause.Guidance, b *clause.Benchmark) (Range, bool) {
	if g != nil && g.DefaultLow.Valid {
		return Range{Low: g.Low(), High: g.High()}, true
	}
	if b != nil {
		low, high := b.Range()
		return Range{Low: low, High: high}, true
	}
	return Range{}, false
}
