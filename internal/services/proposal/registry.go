package proposal

import (
	"context"

	"parley/internal/domain/clause"
	"parley/internal/domain/negotiation"
)

// Skill produces the two opposing proposals for one clause type. New
// clause types are added by registering a new Skill; the solver never
// changes.
type Skill interface {
	// Key returns the clause this skill negotiates
	Key() clause.Key

	// Company produces the founder-side proposal
	Company(ctx context.Context, nctx *negotiation.Context) (*negotiation.TermProposal, error)

	// Investor produces the investor-side proposal
	Investor(ctx context.Context, nctx *negotiation.Context) (*negotiation.TermProposal, error)
}

// Registry maps clause keys to their proposal skills
type Registry struct {
	skills map[clause.Key]Skill
	order  []clause.Key
}

// NewRegistry creates a registry with all built-in skills registered
func NewRegistry(retriever *Retriever) *Registry {
	r := &Registry{
		skills: make(map[clause.Key]Skill),
	}
	r.Register(&exclusivitySkill{retriever: retriever})
	r.Register(&vestingSkill{retriever: retriever})
	r.Register(&preemptionSkill{retriever: retriever})
	r.Register(&transferSkill{retriever: retriever})
	return r
}

// Register adds a skill, replacing any existing skill for the same key
func (r *Registry) Register(s Skill) {
	if _, exists := r.skills[s.Key()]; !exists {
		r.order = append(r.order, s.Key())
	}
	r.skills[s.Key()] = s
}

// Get returns the skill for a clause key
func (r *Registry) Get(key clause.Key) (Skill, bool) {
	s, ok := r.skills[key]
	return s, ok
}

// Keys returns registered clause keys in registration order
func (r *Registry) Keys() []clause.Key {
	out := make([]clause.Key, len(r.order))
	copy(out, r.order)
	return out
}
