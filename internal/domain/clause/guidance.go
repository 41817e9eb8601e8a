package clause

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Guidance holds the reference default range and hard bounds for one
// clause at a given funding stage and region. Read-only reference data;
// never mutated by the engine. Reference values arrive from market data
// feeds as exact decimals and are converted to float64 at the lookup
// boundary.
type Guidance struct {
	ID           uuid.UUID           `db:"id"`
	ClauseKey    Key                 `db:"clause_key"`
	Stage        string              `db:"stage"`
	Region       string              `db:"region"`
	DefaultLow   decimal.NullDecimal `db:"default_low"`
	DefaultHigh  decimal.NullDecimal `db:"default_high"`
	MinVal       decimal.NullDecimal `db:"min_val"`
	MaxVal       decimal.NullDecimal `db:"max_val"`
	Units        Units               `db:"units"`
	CompanyView  string              `db:"company_view"`
	InvestorView string              `db:"investor_view"`
	CreatedAt    time.Time           `db:"created_at"`
}

// FloatPtr converts a nullable decimal column to *float64
func FloatPtr(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	v, _ := d.Decimal.Float64()
	return &v
}

// Low returns default_low as *float64
func (g *Guidance) Low() *float64 { return FloatPtr(g.DefaultLow) }

// High returns default_high as *float64
func (g *Guidance) High() *float64 { return FloatPtr(g.DefaultHigh) }

// Min returns min_val as *float64
func (g *Guidance) Min() *float64 { return FloatPtr(g.MinVal) }

// Max returns max_val as *float64
func (g *Guidance) Max() *float64 { return FloatPtr(g.MaxVal) }

// Benchmark holds percentile statistics observed in the market for one
// clause at a stage/region as of a date. Multiple rows may exist; only
// the most recent asof_date is consulted, null dates sorting oldest.
type Benchmark struct {
	ID        uuid.UUID       `db:"id"`
	ClauseKey Key             `db:"clause_key"`
	Stage     string          `db:"stage"`
	Region    string          `db:"region"`
	AsOf      *time.Time      `db:"asof_date"`
	P25       decimal.Decimal `db:"p25"`
	P75       decimal.Decimal `db:"p75"`
	CreatedAt time.Time       `db:"created_at"`
}

// Range returns (p25, p75) as float pointers
func (b *Benchmark) Range() (*float64, *float64) {
	low, _ := b.P25.Float64()
	high, _ := b.P75.Float64()
	return &low, &high
}

// Newer reports whether b is more recent than other.
// A dated row always beats an undated one.
func (b *Benchmark) Newer(other *Benchmark) bool {
	if other == nil {
		return true
	}
	if b.AsOf == nil {
		return false
	}
	if other.AsOf == nil {
		return true
	}
	return b.AsOf.After(*other.AsOf)
}
