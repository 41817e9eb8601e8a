// Package solver combines the two sides' proposals into one
// leverage-weighted settlement per clause, honoring pinned and
// overridden terms and clamping every numeric field to policy bounds.
package solver

import (
	"math"
	"sort"

	"parley/internal/domain/clause"
	"parley/internal/domain/negotiation"
	"parley/internal/services/policy"
)

// Weights are the normalized per-side leverage weights of one round
type Weights struct {
	Company  float64
	Investor float64
}

// Normalize converts two leverage scores into blend weights, falling
// back to an even split when both are zero
func Normalize(company, investor float64) Weights {
	total := company + investor
	if total <= 0 {
		return Weights{Company: 0.5, Investor: 0.5}
	}
	return Weights{
		Company:  company / total,
		Investor: investor / total,
	}
}

// Solve resolves every clause appearing in either proposal set, in any
// pinned term, or in any caller override. Per clause, in priority
// order: pinned value verbatim, override verbatim, single-sided
// proposal clamped, or the weighted compromise clamped.
//
// A clause with no proposals, no pin, and no override never appears in
// the output.
func Solve(
	company map[clause.Key]*negotiation.TermProposal,
	investor map[clause.Key]*negotiation.TermProposal,
	w Weights,
	nctx *negotiation.Context,
) map[clause.Key]clause.Value {
	final := make(map[clause.Key]clause.Value)

	for _, key := range solveOrder(company, investor, nctx) {
		if pinned, ok := nctx.PinnedValue(key); ok {
			final[key] = pinned
			continue
		}
		if override, ok := nctx.OverrideValue(key); ok {
			final[key] = override
			continue
		}

		cp, hasCompany := company[key]
		ip, hasInvestor := investor[key]

		switch {
		case hasCompany && hasInvestor:
			final[key] = policy.Clamp(key, compromise(key, cp.Value, ip.Value, w, nctx), nctx)
		case hasCompany:
			final[key] = policy.Clamp(key, cp.Value, nctx)
		case hasInvestor:
			final[key] = policy.Clamp(key, ip.Value, nctx)
		}
	}

	return final
}

// compromise blends the two positions for one clause. Numeric clauses
// blend field-wise; non-numeric clauses are taken whole from the side
// with the larger weight. Weight ties resolve to the investor side,
// a documented rule, not an accident.
func compromise(key clause.Key, company, investor clause.Value, w Weights, nctx *negotiation.Context) clause.Value {
	if !nctx.Units(key).Numeric() {
		return dominant(company, investor, w)
	}

	out := make(clause.Value)
	for _, name := range fieldUnion(key, company, investor) {
		cf, hasC := company[name]
		inf, hasI := investor[name]

		if hasC && hasI && cf.Kind == clause.KindNumber && inf.Kind == clause.KindNumber {
			blended := w.Company*cf.Num + w.Investor*inf.Num
			if cf.Int && inf.Int {
				out[name] = clause.Int(int(math.Round(blended)))
			} else {
				out[name] = clause.Number(blended)
			}
			continue
		}

		// Numeric on one side only, or non-numeric: larger weight wins
		if w.Company > w.Investor {
			if hasC {
				out[name] = cf
			} else {
				out[name] = inf
			}
		} else {
			if hasI {
				out[name] = inf
			} else {
				out[name] = cf
			}
		}
	}
	return out
}

// dominant returns the whole value map of the heavier side
func dominant(company, investor clause.Value, w Weights) clause.Value {
	if w.Company > w.Investor {
		return company.Clone()
	}
	return investor.Clone()
}

// solveOrder yields the union of clause keys to resolve: registered
// keys first in vocabulary order, then any extras sorted, so output is
// deterministic
func solveOrder(
	company map[clause.Key]*negotiation.TermProposal,
	investor map[clause.Key]*negotiation.TermProposal,
	nctx *negotiation.Context,
) []clause.Key {
	seen := make(map[clause.Key]bool)
	mark := func(key clause.Key) {
		seen[key] = true
	}
	for key := range company {
		mark(key)
	}
	for key := range investor {
		mark(key)
	}
	for key, term := range nctx.Terms {
		if term.Pinned() {
			mark(key)
		}
	}
	for key := range nctx.Overrides {
		mark(key)
	}

	order := make([]clause.Key, 0, len(seen))
	for _, key := range clause.Keys() {
		if seen[key] {
			order = append(order, key)
			delete(seen, key)
		}
	}
	extras := make([]clause.Key, 0, len(seen))
	for key := range seen {
		extras = append(extras, key)
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	return append(order, extras...)
}

// fieldUnion yields declared fields first, then extras sorted
func fieldUnion(key clause.Key, a, b clause.Value) []string {
	spec, _ := clause.SpecFor(key)
	seen := make(map[string]bool)
	order := make([]string, 0, len(a)+len(b))

	for _, name := range spec.Fields {
		if _, ok := a[name]; ok {
			order = append(order, name)
			seen[name] = true
			continue
		}
		if _, ok := b[name]; ok {
			order = append(order, name)
			seen[name] = true
		}
	}

	extras := make([]string, 0)
	for name := range a {
		if !seen[name] {
			extras = append(extras, name)
			seen[name] = true
		}
	}
	for name := range b {
		if !seen[name] {
			extras = append(extras, name)
			seen[name] = true
		}
	}
	sort.Strings(extras)
	return append(order, extras...)
}
