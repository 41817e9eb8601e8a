package negotiation

import (
	"context"

	"github.com/google/uuid"

	"parley/internal/domain/clause"
)

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	// Create creates a new session
	Create(ctx context.Context, sess *Session) error

	// GetByID retrieves a session by primary key
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// List retrieves all sessions, newest first
	List(ctx context.Context) ([]*Session, error)
}

// TermRepository defines the interface for session term data access.
// Terms are unique per (session, clause); Upsert replaces the value in
// place but must never overwrite a pinned term.
type TermRepository interface {
	// Upsert inserts or replaces the term for (session, clause)
	Upsert(ctx context.Context, term *SessionTerm) error

	// Get retrieves a single term
	Get(ctx context.Context, sessionID uuid.UUID, key clause.Key) (*SessionTerm, error)

	// ListBySession retrieves all terms of a session
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*SessionTerm, error)

	// Pin locks a term against automated solving
	Pin(ctx context.Context, sessionID uuid.UUID, key clause.Key, by uuid.UUID) error

	// Unpin releases a pinned term
	Unpin(ctx context.Context, sessionID uuid.UUID, key clause.Key) error
}

// RoundRepository defines the interface for round data access.
// Rounds are append-only.
type RoundRepository interface {
	// Create appends a new round record
	Create(ctx context.Context, round *Round) error

	// MaxRoundNo returns the highest round number of a session,
	// 0 when the session has no rounds yet
	MaxRoundNo(ctx context.Context, sessionID uuid.UUID) (int, error)

	// ListBySession retrieves all rounds of a session in round order
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*Round, error)
}
