package negotiation

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"parley/internal/domain/clause"
)

// Session is one negotiation between a company and its investors over a
// term sheet at a given funding stage and region
type Session struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Stage     string    `db:"stage"`
	Region    string    `db:"region"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TermSource records how a session term got its current value
type TermSource string

const (
	SourceCopilot TermSource = "copilot"
	SourceManual  TermSource = "manual"
	SourceImport  TermSource = "import"
)

// SessionTerm is the durable, session-scoped value of one clause.
// A pinned term is immutable to the solver and stays the final value
// for its clause until un-pinned.
type SessionTerm struct {
	ID         uuid.UUID       `db:"id"`
	SessionID  uuid.UUID       `db:"session_id"`
	ClauseKey  clause.Key      `db:"clause_key"`
	RawValue   json.RawMessage `db:"value"`
	Source     TermSource      `db:"source"`
	Confidence float64         `db:"confidence"`
	PinnedBy   *uuid.UUID      `db:"pinned_by"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// Pinned reports whether the term is locked against automated solving
func (t *SessionTerm) Pinned() bool {
	return t.PinnedBy != nil
}

// Value parses the JSONB clause value
func (t *SessionTerm) Value() (clause.Value, error) {
	var v clause.Value
	if len(t.RawValue) == 0 {
		return clause.Value{}, nil
	}
	if err := json.Unmarshal(t.RawValue, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// SetValue encodes a clause value to JSONB
func (t *SessionTerm) SetValue(v clause.Value) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	t.RawValue = data
	return nil
}
