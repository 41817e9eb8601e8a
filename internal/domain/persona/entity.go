package persona

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"parley/internal/domain/clause"
)

// Kind discriminates the negotiating side a persona represents
type Kind string

const (
	KindCompany  Kind = "company"
	KindInvestor Kind = "investor"
)

// DiligenceSpeed is an investor attribute describing diligence pace
type DiligenceSpeed string

const (
	DiligenceStandard    DiligenceSpeed = "standard"
	DiligenceAccelerated DiligenceSpeed = "accelerated"
)

// Attrs are the raw domain facts a persona's negotiating position is
// derived from. Company and investor personas populate different subsets.
type Attrs struct {
	// Company side
	RunwayMonths  *float64 `json:"runway_months,omitempty"`
	AltOffers     int      `json:"alt_offers,omitempty"`
	RepeatFounder bool     `json:"repeat_founder,omitempty"`

	// Investor side
	FundTier           string         `json:"fund_tier,omitempty"`
	Marquee            bool           `json:"marquee,omitempty"`
	OwnershipTargetPct float64        `json:"ownership_target_pct,omitempty"`
	DiligenceSpeed     DiligenceSpeed `json:"diligence_speed,omitempty"`
}

// Persona represents one negotiating party of a session.
// The derived triple (leverage, weights, batna) is recomputed whenever
// attrs change and persisted atomically with them, so readers never see
// a stale derivation.
type Persona struct {
	ID        uuid.UUID `db:"id"`
	SessionID uuid.UUID `db:"session_id"`
	Name      string    `db:"name"`
	Kind      Kind      `db:"kind"`

	// Raw attributes (JSONB)
	RawAttrs json.RawMessage `db:"attrs"`

	// Derived negotiating position
	LeverageScore float64         `db:"leverage_score"`
	RawWeights    json.RawMessage `db:"weights"`
	RawBatna      json.RawMessage `db:"batna"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Attrs parses the JSONB attributes
func (p *Persona) Attrs() (Attrs, error) {
	var attrs Attrs
	if len(p.RawAttrs) == 0 {
		return attrs, nil
	}
	if err := json.Unmarshal(p.RawAttrs, &attrs); err != nil {
		return Attrs{}, err
	}
	return attrs, nil
}

// SetAttrs encodes attributes to JSONB
func (p *Persona) SetAttrs(attrs Attrs) error {
	data, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	p.RawAttrs = data
	return nil
}

// Weights parses the derived clause weights
func (p *Persona) Weights() (map[clause.Key]float64, error) {
	weights := make(map[clause.Key]float64)
	if len(p.RawWeights) == 0 {
		return weights, nil
	}
	if err := json.Unmarshal(p.RawWeights, &weights); err != nil {
		return nil, err
	}
	return weights, nil
}

// SetWeights encodes clause weights to JSONB
func (p *Persona) SetWeights(weights map[clause.Key]float64) error {
	data, err := json.Marshal(weights)
	if err != nil {
		return err
	}
	p.RawWeights = data
	return nil
}

// Batna parses the derived per-clause ideal values
func (p *Persona) Batna() (map[clause.Key]clause.Value, error) {
	batna := make(map[clause.Key]clause.Value)
	if len(p.RawBatna) == 0 {
		return batna, nil
	}
	if err := json.Unmarshal(p.RawBatna, &batna); err != nil {
		return nil, err
	}
	return batna, nil
}

// SetBatna encodes per-clause ideal values to JSONB
func (p *Persona) SetBatna(batna map[clause.Key]clause.Value) error {
	data, err := json.Marshal(batna)
	if err != nil {
		return err
	}
	p.RawBatna = data
	return nil
}
