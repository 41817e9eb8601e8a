package roundservice

import (
	"fmt"
	"sort"
	"strings"

	"parley/internal/domain/clause"
	"parley/internal/domain/negotiation"
	"parley/internal/services/solver"
)

// joinRationales merges both sides' narratives into one trace line
func joinRationales(rationales []string) string {
	parts := make([]string, 0, len(rationales))
	for _, r := range rationales {
		if r = strings.TrimSpace(r); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, " | ")
}

// renderRationale builds the human-readable markdown summary stored
// with the round record
func renderRationale(nctx *negotiation.Context, result *Result, weights solver.Weights) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Round %d\n\n", result.RoundNo)
	fmt.Fprintf(&b, "Leverage split: company %.2f / investor %.2f.\n", weights.Company, weights.Investor)
	fmt.Fprintf(&b, "Utility: company %.1f, investor %.1f.\n\n", result.Utilities.Company, result.Utilities.Investor)

	for _, entry := range result.Trace {
		fmt.Fprintf(&b, "### %s\n\n", clauseTitle(entry.ClauseKey))
		fmt.Fprintf(&b, "Settled: %s", formatValue(entry.FinalValue))
		switch {
		case entry.Pinned:
			b.WriteString(" (pinned)")
		case entry.Overridden:
			b.WriteString(" (override)")
		}
		b.WriteString("\n\n")

		if entry.CompanyValue != nil || entry.InvestorValue != nil {
			if entry.CompanyValue != nil {
				fmt.Fprintf(&b, "- Company asked: %s\n", formatValue(entry.CompanyValue))
			}
			if entry.InvestorValue != nil {
				fmt.Fprintf(&b, "- Investor asked: %s\n", formatValue(entry.InvestorValue))
			}
			b.WriteString("\n")
		}
		if entry.Rationale != "" {
			fmt.Fprintf(&b, "%s\n\n", entry.Rationale)
		}
	}

	if !result.Grading.PolicyOK {
		b.WriteString("### Policy review\n\n")
		for _, msg := range result.Grading.ValidationErrors {
			fmt.Fprintf(&b, "- %s\n", msg)
		}
		b.WriteString("\n")
	}

	if result.Decided {
		b.WriteString("All clauses are settled.\n")
	} else {
		b.WriteString("Open clauses remain for the next round.\n")
	}

	return b.String()
}

func clauseTitle(key clause.Key) string {
	words := strings.Split(string(key), "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// formatValue renders a clause value as "field=value" pairs in the
// declared field order
func formatValue(value clause.Value) string {
	if len(value) == 0 {
		return "n/a"
	}

	order := make([]string, 0, len(value))
	if spec, ok := clause.SpecFor(clauseKeyOf(value)); ok {
		for _, f := range spec.Fields {
			if _, present := value[f]; present {
				order = append(order, f)
			}
		}
	}
	extras := make([]string, 0)
	for name := range value {
		if !contains(order, name) {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	order = append(order, extras...)

	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, fmt.Sprintf("%s=%v", name, value[name].Interface()))
	}
	return strings.Join(parts, ", ")
}

// clauseKeyOf infers the clause by matching fields against the
// vocabulary. Used for display ordering only.
func clauseKeyOf(value clause.Value) clause.Key {
	for _, key := range clause.Keys() {
		spec, _ := clause.SpecFor(key)
		matched := 0
		for _, f := range spec.Fields {
			if _, ok := value[f]; ok {
				matched++
			}
		}
		if matched == len(value) && matched > 0 {
			return key
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
