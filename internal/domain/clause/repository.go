package clause

import (
	"context"
)

// GuidanceRepository defines read access to clause guidance rows
type GuidanceRepository interface {
	// Get retrieves the guidance row for one clause at a stage/region
	Get(ctx context.Context, key Key, stage, region string) (*Guidance, error)

	// List retrieves all guidance rows for a stage/region
	List(ctx context.Context, stage, region string) ([]*Guidance, error)
}

// BenchmarkRepository defines read access to market benchmark rows
type BenchmarkRepository interface {
	// Latest retrieves the most recent benchmark for one clause,
	// null asof_date sorting oldest
	Latest(ctx context.Context, key Key, stage, region string) (*Benchmark, error)

	// LatestAll retrieves the most recent benchmark per clause for a stage/region
	LatestAll(ctx context.Context, stage, region string) ([]*Benchmark, error)
}
