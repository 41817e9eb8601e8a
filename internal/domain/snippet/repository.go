package snippet

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"parley/internal/domain/clause"
)

// SearchQuery filters the snippet store. When Embedding is set, results
// are ranked by cosine similarity; otherwise by recency.
type SearchQuery struct {
	ClauseKey   clause.Key
	Stage       string
	Region      string
	Perspective Perspective
	Embedding   *pgvector.Vector
	Limit       int
}

// Repository defines the interface for snippet data access
type Repository interface {
	// Store inserts a new snippet
	Store(ctx context.Context, s *Snippet) error

	// Search returns an ordered, capped list of matching snippets
	Search(ctx context.Context, q SearchQuery) ([]*Snippet, error)

	// GetByIDs retrieves snippets by id, preserving input order
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Snippet, error)
}
