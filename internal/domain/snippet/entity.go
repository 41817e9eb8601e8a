package snippet

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"parley/internal/domain/clause"
)

// Perspective tags whose position a snippet supports
type Perspective string

const (
	PerspectiveFounder  Perspective = "founder"
	PerspectiveInvestor Perspective = "investor"
	PerspectiveNeutral  Perspective = "neutral"
)

// Snippet is one piece of supporting commentary (market notes, legal
// guidance, precedent language) that proposals cite. Confidence is the
// ingestion pipeline's 0-1 trust in the snippet and feeds the round's
// grounding score.
type Snippet struct {
	ID          uuid.UUID       `db:"id"`
	ClauseKey   clause.Key      `db:"clause_key"`
	Stage       string          `db:"stage"`
	Region      string          `db:"region"`
	Perspective Perspective     `db:"perspective"`
	Content     string          `db:"content"`
	Metadata    json.RawMessage `db:"metadata"`
	Confidence  float64         `db:"confidence"`
	Embedding   pgvector.Vector `db:"embedding"`
	CreatedAt   time.Time       `db:"created_at"`
}
