package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"parley/internal/domain/persona"
	"parley/pkg/errors"
)

// Compile-time check
var _ persona.Repository = (*PersonaRepository)(nil)

// PersonaRepository implements persona.Repository
type PersonaRepository struct {
	db DBTX
}

// NewPersonaRepository creates a new persona repository
func NewPersonaRepository(db DBTX) *PersonaRepository {
	return &PersonaRepository{db: db}
}

// Create creates a new persona
func (r *PersonaRepository) Create(ctx context.Context, p *persona.Persona) error {
	query := `
		INSERT INTO personas (
			id, session_id, name, kind, attrs,
			leverage_score, weights, batna
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING created_at, updated_at
	`

	return r.db.QueryRowContext(ctx, query,
		p.ID, p.SessionID, p.Name, p.Kind, p.RawAttrs,
		p.LeverageScore, p.RawWeights, p.RawBatna,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID retrieves a persona by ID
func (r *PersonaRepository) GetByID(ctx context.Context, id uuid.UUID) (*persona.Persona, error) {
	query := `
		SELECT id, session_id, name, kind, attrs,
		       leverage_score, weights, batna,
		       created_at, updated_at
		FROM personas
		WHERE id = $1
	`

	p := &persona.Persona{}
	err := r.db.GetContext(ctx, p, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get persona by id")
	}
	return p, nil
}

// ListBySession retrieves all personas attached to a session.
// Order is stable by creation time, which fixes anchor tie-breaking.
func (r *PersonaRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*persona.Persona, error) {
	query := `
		SELECT id, session_id, name, kind, attrs,
		       leverage_score, weights, batna,
		       created_at, updated_at
		FROM personas
		WHERE session_id = $1
		ORDER BY created_at, id
	`

	var personas []*persona.Persona
	if err := r.db.SelectContext(ctx, &personas, query, sessionID); err != nil {
		return nil, errors.Wrap(err, "list personas by session")
	}
	return personas, nil
}

// UpdateDerived persists attrs and the derived triple in one statement
func (r *PersonaRepository) UpdateDerived(ctx context.Context, p *persona.Persona) error {
	query := `
		UPDATE personas
		SET attrs = $2,
		    leverage_score = $3,
		    weights = $4,
		    batna = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.RawAttrs, p.LeverageScore, p.RawWeights, p.RawBatna,
	).Scan(&p.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "update derived persona state")
	}
	return nil
}
