package persona

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for persona data access
type Repository interface {
	// Create creates a new persona
	Create(ctx context.Context, p *Persona) error

	// GetByID retrieves a persona by primary key
	GetByID(ctx context.Context, id uuid.UUID) (*Persona, error)

	// ListBySession retrieves all personas attached to a session
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*Persona, error)

	// UpdateDerived persists attrs together with the derived triple
	// (leverage, weights, batna) in one statement, so no reader can
	// observe attrs paired with a stale derivation
	UpdateDerived(ctx context.Context, p *Persona) error
}
