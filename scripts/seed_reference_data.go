package main

// Script to create the schema and seed clause guidance and market
// benchmarks for a stage/region. Reference data is read-only at
// runtime, so seeding is idempotent and safe to re-run.
//
// Usage:
//   go run scripts/seed_reference_data.go --stage seed --region us

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"parley/internal/adapters/config"
	"parley/internal/adapters/postgres"
	"parley/internal/domain/clause"
)

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		stage TEXT NOT NULL,
		region TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS personas (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id),
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		attrs JSONB NOT NULL DEFAULT '{}',
		leverage_score DOUBLE PRECISION NOT NULL DEFAULT 0.5,
		weights JSONB NOT NULL DEFAULT '{}',
		batna JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS session_terms (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id),
		clause_key TEXT NOT NULL,
		value JSONB NOT NULL,
		source TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		pinned_by UUID,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (session_id, clause_key)
	)`,
	`CREATE TABLE IF NOT EXISTS negotiation_rounds (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id),
		round_no INT NOT NULL,
		company_proposals JSONB NOT NULL DEFAULT '[]',
		investor_proposals JSONB NOT NULL DEFAULT '[]',
		final_terms JSONB NOT NULL DEFAULT '{}',
		company_utility DOUBLE PRECISION NOT NULL DEFAULT 0,
		investor_utility DOUBLE PRECISION NOT NULL DEFAULT 0,
		rationale TEXT NOT NULL DEFAULT '',
		trace JSONB NOT NULL DEFAULT '[]',
		grading JSONB NOT NULL DEFAULT '{}',
		anchored_by UUID,
		investor_weights JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (session_id, round_no)
	)`,
	`CREATE TABLE IF NOT EXISTS clause_guidance (
		id UUID PRIMARY KEY,
		clause_key TEXT NOT NULL,
		stage TEXT NOT NULL,
		region TEXT NOT NULL,
		default_low NUMERIC,
		default_high NUMERIC,
		min_val NUMERIC,
		max_val NUMERIC,
		units TEXT NOT NULL,
		company_view TEXT NOT NULL DEFAULT '',
		investor_view TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (clause_key, stage, region)
	)`,
	`CREATE TABLE IF NOT EXISTS market_benchmarks (
		id UUID PRIMARY KEY,
		clause_key TEXT NOT NULL,
		stage TEXT NOT NULL,
		region TEXT NOT NULL,
		asof_date DATE,
		p25 NUMERIC NOT NULL,
		p75 NUMERIC NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS snippets (
		id UUID PRIMARY KEY,
		clause_key TEXT NOT NULL,
		stage TEXT NOT NULL,
		region TEXT NOT NULL,
		perspective TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0.5,
		embedding vector(1536),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snippets_lookup ON snippets (clause_key, stage, region)`,
}

type guidanceSeed struct {
	key          clause.Key
	low, high    *float64
	min, max     *float64
	units        clause.Units
	companyView  string
	investorView string
}

func f(v float64) *float64 { return &v }

var guidanceSeeds = []guidanceSeed{
	{
		key: clause.Exclusivity, low: f(30), high: f(60), min: f(7), max: f(120), units: clause.UnitsDays,
		companyView:  "Shorter exclusivity preserves optionality with other investors.",
		investorView: "Longer exclusivity protects diligence spend from being shopped.",
	},
	{
		key: clause.Vesting, low: f(36), high: f(48), min: f(0), max: f(60), units: clause.UnitsNumber,
		companyView:  "Founders already carry years of prior effort.",
		investorView: "Long vesting with a cliff keeps the team committed post-close.",
	},
	{
		key: clause.PreemptionRights, units: clause.UnitsEnum,
		companyView:  "Limit pro-rata rights to major investors to keep later rounds simple.",
		investorView: "Full pro-rata rights preserve ownership through future rounds.",
	},
	{
		key: clause.TransferRestrictions, units: clause.UnitsEnum,
		companyView:  "ROFR alone is enough; co-sale adds friction to secondaries.",
		investorView: "Co-sale alongside ROFR keeps founders aligned on any exit.",
	},
}

type benchmarkSeed struct {
	key      clause.Key
	p25, p75 float64
}

var benchmarkSeeds = []benchmarkSeed{
	{clause.Exclusivity, 30, 60},
	{clause.Vesting, 36, 48},
}

func main() {
	stage := flag.String("stage", "seed", "Funding stage to seed")
	region := flag.String("region", "us", "Region to seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: failed to load config: %v\n", err)
		return
	}

	client, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		fmt.Printf("Error: failed to connect to PostgreSQL: %v\n", err)
		return
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.DB()

	fmt.Println("Applying schema...")
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			fmt.Printf("Error: schema statement failed: %v\n", err)
			return
		}
	}

	fmt.Printf("Seeding guidance for stage=%s region=%s...\n", *stage, *region)
	for _, g := range guidanceSeeds {
		_, err := db.ExecContext(ctx, `
			INSERT INTO clause_guidance (
				id, clause_key, stage, region,
				default_low, default_high, min_val, max_val,
				units, company_view, investor_view
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (clause_key, stage, region) DO UPDATE
			SET default_low = EXCLUDED.default_low,
			    default_high = EXCLUDED.default_high,
			    min_val = EXCLUDED.min_val,
			    max_val = EXCLUDED.max_val,
			    units = EXCLUDED.units,
			    company_view = EXCLUDED.company_view,
			    investor_view = EXCLUDED.investor_view`,
			uuid.New(), g.key, *stage, *region,
			numeric(g.low), numeric(g.high), numeric(g.min), numeric(g.max),
			g.units, g.companyView, g.investorView,
		)
		if err != nil {
			fmt.Printf("Error: failed to seed guidance for %s: %v\n", g.key, err)
			return
		}
	}

	fmt.Println("Seeding benchmarks...")
	asof := time.Now().UTC().Truncate(24 * time.Hour)
	for _, b := range benchmarkSeeds {
		_, err := db.ExecContext(ctx, `
			INSERT INTO market_benchmarks (id, clause_key, stage, region, asof_date, p25, p75)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), b.key, *stage, *region, asof,
			decimal.NewFromFloat(b.p25), decimal.NewFromFloat(b.p75),
		)
		if err != nil {
			fmt.Printf("Error: failed to seed benchmark for %s: %v\n", b.key, err)
			return
		}
	}

	fmt.Println("Done")
}

func numeric(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*v), Valid: true}
}
