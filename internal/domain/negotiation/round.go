package negotiation

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"parley/internal/domain/clause"
)

// TermProposal is one party's proposed value for one clause, produced
// fresh each round and persisted only inside the round record
type TermProposal struct {
	ClauseKey clause.Key   `json:"clause_key"`
	Value     clause.Value `json:"value"`
	Rationale string       `json:"rationale"`
	Citations []uuid.UUID  `json:"citations,omitempty"`
}

// ClauseTrace is the per-clause audit entry of a round: what each side
// asked for, what the mediator settled on, and the supporting material
type ClauseTrace struct {
	ClauseKey     clause.Key   `json:"clause_key"`
	CompanyValue  clause.Value `json:"company_value,omitempty"`
	InvestorValue clause.Value `json:"investor_value,omitempty"`
	FinalValue    clause.Value `json:"final_value"`
	Rationale     string       `json:"rationale"`
	Citations     []uuid.UUID  `json:"citations,omitempty"`
	Pinned        bool         `json:"pinned,omitempty"`
	Overridden    bool         `json:"overridden,omitempty"`
}

// Grading is the policy-compliance verdict recorded with a round.
// A failing verdict does not block persistence; the round is saved with
// policy_ok=false so it stays visible for review.
type Grading struct {
	PolicyOK         bool     `json:"policy_ok"`
	Grounding        float64  `json:"grounding"`
	ValidationErrors []string `json:"validation_errors"`
}

// Round is the immutable audit record of one negotiation round.
// Rounds are append-only; round numbers are strictly increasing per
// session, assigned max(existing)+1 when not supplied.
type Round struct {
	ID        uuid.UUID `db:"id"`
	SessionID uuid.UUID `db:"session_id"`
	RoundNo   int       `db:"round_no"`

	CompanyProposals  json.RawMessage `db:"company_proposals"`
	InvestorProposals json.RawMessage `db:"investor_proposals"`
	FinalTerms        json.RawMessage `db:"final_terms"`

	CompanyUtility  float64 `db:"company_utility"`
	InvestorUtility float64 `db:"investor_utility"`

	Rationale string          `db:"rationale"`
	Trace     json.RawMessage `db:"trace"`
	Grading   json.RawMessage `db:"grading"`

	AnchoredBy      *uuid.UUID      `db:"anchored_by"`
	InvestorWeights json.RawMessage `db:"investor_weights"`

	CreatedAt time.Time `db:"created_at"`
}

// SetProposals encodes both proposal sets to JSONB
func (r *Round) SetProposals(company, investor []*TermProposal) error {
	c, err := json.Marshal(company)
	if err != nil {
		return err
	}
	i, err := json.Marshal(investor)
	if err != nil {
		return err
	}
	r.CompanyProposals = c
	r.InvestorProposals = i
	return nil
}

// SetFinalTerms encodes the mediator's settlement to JSONB
func (r *Round) SetFinalTerms(terms map[clause.Key]clause.Value) error {
	data, err := json.Marshal(terms)
	if err != nil {
		return err
	}
	r.FinalTerms = data
	return nil
}

// SetTrace encodes the per-clause trace to JSONB
func (r *Round) SetTrace(trace []ClauseTrace) error {
	data, err := json.Marshal(trace)
	if err != nil {
		return err
	}
	r.Trace = data
	return nil
}

// SetGrading encodes the grading verdict to JSONB
func (r *Round) SetGrading(g Grading) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	r.Grading = data
	return nil
}

// SetInvestorWeights encodes the aggregation weights to JSONB
func (r *Round) SetInvestorWeights(weights map[uuid.UUID]float64) error {
	data, err := json.Marshal(weights)
	if err != nil {
		return err
	}
	r.InvestorWeights = data
	return nil
}

// FinalTermsValue parses the settlement back into typed values
func (r *Round) FinalTermsValue() (map[clause.Key]clause.Value, error) {
	terms := make(map[clause.Key]clause.Value)
	if len(r.FinalTerms) == 0 {
		return terms, nil
	}
	if err := json.Unmarshal(r.FinalTerms, &terms); err != nil {
		return nil, err
	}
	return terms, nil
}
