// Package policy resolves hard bounds for clause values and enforces
// them by clamping and validation. Bounds come from guidance when a row
// declares them, falling back to the static clause-constraint table.
package policy

import (
	"fmt"
	"sort"

	"parley/internal/domain/clause"
	"parley/internal/domain/negotiation"
	"parley/internal/domain/persona"
)

// Bounds resolves the hard (min, max) bounds for a clause. Either bound
// may be nil when nothing declares it.
func Bounds(key clause.Key, nctx *negotiation.Context) (*float64, *float64) {
	var min, max *float64

	if g := nctx.GuidanceFor(key); g != nil {
		min = g.Min()
		max = g.Max()
	}

	if min == nil || max == nil {
		if c, ok := clause.ConstraintFor(key); ok {
			if min == nil {
				min = c.Min
			}
			if max == nil {
				max = c.Max
			}
		}
	}

	return min, max
}

// Clamp forces every numeric sub-field of a value into the resolved
// bounds. Flags and text fields pass through unchanged. Idempotent.
func Clamp(key clause.Key, value clause.Value, nctx *negotiation.Context) clause.Value {
	min, max := Bounds(key, nctx)
	if min == nil && max == nil {
		return value
	}

	out := value.Clone()
	for name, field := range out {
		if field.Kind != clause.KindNumber {
			continue
		}
		if min != nil && field.Num < *min {
			field.Num = *min
		}
		if max != nil && field.Num > *max {
			field.Num = *max
		}
		out[name] = field
	}
	return out
}

// Validate checks every numeric sub-field against the resolved bounds.
// Returns false plus a message naming the first violating sub-field.
// Validation is per-clause; one violating clause does not block
// evaluation of the others.
func Validate(key clause.Key, value clause.Value, nctx *negotiation.Context) (bool, string) {
	min, max := Bounds(key, nctx)
	if min == nil && max == nil {
		return true, ""
	}

	spec, _ := clause.SpecFor(key)
	for _, name := range fieldOrder(value, spec) {
		field := value[name]
		if field.Kind != clause.KindNumber {
			continue
		}
		if min != nil && field.Num < *min {
			return false, fmt.Sprintf("%s.%s=%v below minimum %v", key, name, field.Num, *min)
		}
		if max != nil && field.Num > *max {
			return false, fmt.Sprintf("%s.%s=%v above maximum %v", key, name, field.Num, *max)
		}
	}
	return true, ""
}

// NonNegotiable reports whether a party may not unilaterally reopen a
// clause. Advisory for callers; the solver does not enforce it.
func NonNegotiable(key clause.Key, party persona.Kind) bool {
	c, ok := clause.ConstraintFor(key)
	if !ok {
		return false
	}
	switch party {
	case persona.KindCompany:
		return c.CompanyFixed
	case persona.KindInvestor:
		return c.InvestorFixed
	default:
		return false
	}
}

// fieldOrder walks declared fields first so violation messages are
// deterministic, then any extra fields the value carries
func fieldOrder(value clause.Value, spec clause.Spec) []string {
	seen := make(map[string]bool, len(value))
	order := make([]string, 0, len(value))
	for _, name := range spec.Fields {
		if _, ok := value[name]; ok {
			order = append(order, name)
			seen[name] = true
		}
	}
	extras := make([]string, 0, len(value))
	for name := range value {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	return append(order, extras...)
}
