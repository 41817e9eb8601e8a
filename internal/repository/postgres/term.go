package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"parley/internal/domain/clause"
	"parley/internal/domain/negotiation"
	"parley/pkg/errors"
)

// Compile-time check
var _ negotiation.TermRepository = (*TermRepository)(nil)

// TermRepository implements negotiation.TermRepository
type TermRepository struct {
	db DBTX
}

// NewTermRepository creates a new session term repository
func NewTermRepository(db DBTX) *TermRepository {
	return &TermRepository{db: db}
}

// Upsert inserts or replaces the term for (session, clause).
// The WHERE guard on the conflict branch keeps pinned terms untouched;
// a no-op update on a pinned row is not an error.
func (r *TermRepository) Upsert(ctx context.Context, term *negotiation.SessionTerm) error {
	query := `
		INSERT INTO session_terms (
			id, session_id, clause_key, value, source, confidence
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (session_id, clause_key) DO UPDATE
		SET value = EXCLUDED.value,
		    source = EXCLUDED.source,
		    confidence = EXCLUDED.confidence,
		    updated_at = NOW()
		WHERE session_terms.pinned_by IS NULL
	`

	_, err := r.db.ExecContext(ctx, query,
		term.ID, term.SessionID, term.ClauseKey, term.RawValue, term.Source, term.Confidence,
	)
	if err != nil {
		return errors.Wrap(err, "upsert session term")
	}
	return nil
}

// Get retrieves a single term
func (r *TermRepository) Get(ctx context.Context, sessionID uuid.UUID, key clause.Key) (*negotiation.SessionTerm, error) {
	query := `
		SELECT id, session_id, clause_key, value, source, confidence, pinned_by, updated_at
		FROM session_terms
		WHERE session_id = $1 AND clause_key = $2
	`

	term := &negotiation.SessionTerm{}
	err := r.db.GetContext(ctx, term, query, sessionID, key)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get session term")
	}
	return term, nil
}

// ListBySession retrieves all terms of a session
func (r *TermRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*negotiation.SessionTerm, error) {
	query := `
		SELECT id, session_id, clause_key, value, source, confidence, pinned_by, updated_at
		FROM session_terms
		WHERE session_id = $1
		ORDER BY clause_key
	`

	var terms []*negotiation.SessionTerm
	if err := r.db.SelectContext(ctx, &terms, query, sessionID); err != nil {
		return nil, errors.Wrap(err, "list session terms")
	}
	return terms, nil
}

// Pin locks a term against automated solving
func (r *TermRepository) Pin(ctx context.Context, sessionID uuid.UUID, key clause.Key, by uuid.UUID) error {
	query := `
		UPDATE session_terms
		SET pinned_by = $3, updated_at = NOW()
		WHERE session_id = $1 AND clause_key = $2
	`

	res, err := r.db.ExecContext(ctx, query, sessionID, key, by)
	if err != nil {
		return errors.Wrap(err, "pin session term")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// Unpin releases a pinned term
func (r *TermRepository) Unpin(ctx context.Context, sessionID uuid.UUID, key clause.Key) error {
	query := `
		UPDATE session_terms
		SET pinned_by = NULL, updated_at = NOW()
		WHERE session_id = $1 AND clause_key = $2
	`

	res, err := r.db.ExecContext(ctx, query, sessionID, key)
	if err != nil {
		return errors.Wrap(err, "unpin session term")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ErrNotFound
	}
	return nil
}
