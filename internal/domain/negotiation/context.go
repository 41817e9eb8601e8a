package negotiation

import (
	"github.com/google/uuid"

	"parley/internal/domain/clause"
	"parley/internal/domain/persona"
)

// Context is the immutable input bundle for one negotiation round.
// Everything a skill, the solver, or the utility engine needs must
// resolve through it; no pipeline stage performs ad-hoc storage lookups
// mid-round.
type Context struct {
	SessionID uuid.UUID
	RoundNo   int
	Stage     string
	Region    string

	Company   *persona.Persona
	Investors []*persona.Persona

	Guidance   map[clause.Key]*clause.Guidance
	Benchmarks map[clause.Key]*clause.Benchmark

	// Existing session terms keyed by clause; pinned entries are
	// final for their clause
	Terms map[clause.Key]*SessionTerm

	// Caller-supplied values for this round only, trusted verbatim
	Overrides map[clause.Key]clause.Value
}

// GuidanceFor returns the guidance row for a clause, if loaded
func (c *Context) GuidanceFor(key clause.Key) *clause.Guidance {
	return c.Guidance[key]
}

// BenchmarkFor returns the latest benchmark for a clause, if loaded
func (c *Context) BenchmarkFor(key clause.Key) *clause.Benchmark {
	return c.Benchmarks[key]
}

// PinnedValue returns the pinned value for a clause, if any
func (c *Context) PinnedValue(key clause.Key) (clause.Value, bool) {
	term, ok := c.Terms[key]
	if !ok || !term.Pinned() {
		return nil, false
	}
	v, err := term.Value()
	if err != nil {
		return nil, false
	}
	return v, true
}

// OverrideValue returns the caller override for a clause, if any
func (c *Context) OverrideValue(key clause.Key) (clause.Value, bool) {
	v, ok := c.Overrides[key]
	return v, ok
}

// Skip reports whether proposal generation should skip a clause this
// round: pinned terms and caller overrides are used directly by the
// solver, no proposals are generated for them
func (c *Context) Skip(key clause.Key) bool {
	if _, ok := c.PinnedValue(key); ok {
		return true
	}
	_, ok := c.OverrideValue(key)
	return ok
}

// Units returns the guidance units for a clause, falling back to the
// registered spec when no guidance row is loaded
func (c *Context) Units(key clause.Key) clause.Units {
	if g := c.Guidance[key]; g != nil && g.Units != "" {
		return g.Units
	}
	if spec, ok := clause.SpecFor(key); ok {
		return spec.Units
	}
	return clause.UnitsEnum
}
