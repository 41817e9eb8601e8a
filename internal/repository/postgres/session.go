package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"parley/internal/domain/negotiation"
	"parley/pkg/errors"
)

// Compile-time check
var _ negotiation.SessionRepository = (*SessionRepository)(nil)

// SessionRepository implements negotiation.SessionRepository
type SessionRepository struct {
	db DBTX
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, sess *negotiation.Session) error {
	query := `
		INSERT INTO sessions (id, name, stage, region)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	return r.db.QueryRowContext(ctx, query,
		sess.ID, sess.Name, sess.Stage, sess.Region,
	).Scan(&sess.CreatedAt, &sess.UpdatedAt)
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*negotiation.Session, error) {
	query := `
		SELECT id, name, stage, region, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`

	sess := &negotiation.Session{}
	err := r.db.GetContext(ctx, sess, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get session by id")
	}
	return sess, nil
}

// List retrieves all sessions, newest first
func (r *SessionRepository) List(ctx context.Context) ([]*negotiation.Session, error) {
	query := `
		SELECT id, name, stage, region, created_at, updated_at
		FROM sessions
		ORDER BY created_at DESC
	`

	var sessions []*negotiation.Session
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}
	return sessions, nil
}
