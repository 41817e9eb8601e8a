package postgres

import (
	"context"

	"github.com/google/uuid"

	"parley/internal/domain/negotiation"
	"parley/pkg/errors"
)

// Compile-time check
var _ negotiation.RoundRepository = (*RoundRepository)(nil)

// RoundRepository implements negotiation.RoundRepository
type RoundRepository struct {
	db DBTX
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db DBTX) *RoundRepository {
	return &RoundRepository{db: db}
}

// Create appends a new round record
func (r *RoundRepository) Create(ctx context.Context, round *negotiation.Round) error {
	query := `
		INSERT INTO negotiation_rounds (
			id, session_id, round_no,
			company_proposals, investor_proposals, final_terms,
			company_utility, investor_utility,
			rationale, trace, grading,
			anchored_by, investor_weights
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		RETURNING created_at
	`

	return r.db.QueryRowContext(ctx, query,
		round.ID, round.SessionID, round.RoundNo,
		round.CompanyProposals, round.InvestorProposals, round.FinalTerms,
		round.CompanyUtility, round.InvestorUtility,
		round.Rationale, round.Trace, round.Grading,
		round.AnchoredBy, round.InvestorWeights,
	).Scan(&round.CreatedAt)
}

// MaxRoundNo returns the highest round number of a session, 0 when none
func (r *RoundRepository) MaxRoundNo(ctx context.Context, sessionID uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(MAX(round_no), 0)
		FROM negotiation_rounds
		WHERE session_id = $1
	`

	var maxNo int
	if err := r.db.GetContext(ctx, &maxNo, query, sessionID); err != nil {
		return 0, errors.Wrap(err, "max round number")
	}
	return maxNo, nil
}

// ListBySession retrieves all rounds of a session in round order
func (r *RoundRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*negotiation.Round, error) {
	query := `
		SELECT id, session_id, round_no,
		       company_proposals, investor_proposals, final_terms,
		       company_utility, investor_utility,
		       rationale, trace, grading,
		       anchored_by, investor_weights,
		       created_at
		FROM negotiation_rounds
		WHERE session_id = $1
		ORDER BY round_no
	`

	var rounds []*negotiation.Round
	if err := r.db.SelectContext(ctx, &rounds, query, sessionID); err != nil {
		return nil, errors.Wrap(err, "list rounds by session")
	}
	return rounds, nil
}
