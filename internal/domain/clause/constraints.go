package clause

// Constraint is the static fallback bound table for a clause, used when
// guidance carries no hard min/max. The per-party flags mark clauses a
// party may not unilaterally reopen.
type Constraint struct {
	Min *float64
	Max *float64

	CompanyFixed  bool
	InvestorFixed bool
}

func f(v float64) *float64 { return &v }

var constraints = map[Key]Constraint{
	Exclusivity: {
		Min: f(7),
		Max: f(120),
	},
	// Bounds cover every numeric sub-field of the clause, so the
	// vesting floor is 0 to admit a zero-month cliff
	Vesting: {
		Min: f(0),
		Max: f(60),
	},
	PreemptionRights: {
		// Flag/enum clause, no numeric bounds
		InvestorFixed: true,
	},
	TransferRestrictions: {
		CompanyFixed: true,
	},
}

// ConstraintFor returns the fallback constraint row for a clause
func ConstraintFor(key Key) (Constraint, bool) {
	c, ok := constraints[key]
	return c, ok
}
