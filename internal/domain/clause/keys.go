package clause

// Key identifies a single negotiable term-sheet provision
type Key string

// Registered clause vocabulary
// New clause types require a Spec entry here, a proposal skill,
// and guidance/constraint rows
const (
	Exclusivity          Key = "exclusivity"
	Vesting              Key = "vesting"
	PreemptionRights     Key = "preemption_rights"
	TransferRestrictions Key = "transfer_restrictions"
)

// Units describes how a clause value is measured
type Units string

const (
	UnitsDays   Units = "days"
	UnitsPct    Units = "pct"
	UnitsNumber Units = "number"
	UnitsEnum   Units = "enum"
)

// Numeric reports whether values in these units support weighted averaging
func (u Units) Numeric() bool {
	switch u {
	case UnitsDays, UnitsPct, UnitsNumber:
		return true
	default:
		return false
	}
}

// Spec declares the closed shape of a clause value: its units, the
// declared field order, and the primary field used for utility scoring.
// The primary field is explicit per clause so that multi-field clauses
// (vesting) score on a documented field rather than map iteration order.
type Spec struct {
	Key     Key
	Units   Units
	Fields  []string
	Primary string
}

var registry = map[Key]Spec{
	Exclusivity: {
		Key:     Exclusivity,
		Units:   UnitsDays,
		Fields:  []string{"period_days"},
		Primary: "period_days",
	},
	Vesting: {
		Key:     Vesting,
		Units:   UnitsNumber,
		Fields:  []string{"vesting_months", "cliff_months"},
		Primary: "vesting_months",
	},
	PreemptionRights: {
		Key:     PreemptionRights,
		Units:   UnitsEnum,
		Fields:  []string{"granted", "scope"},
		Primary: "scope",
	},
	TransferRestrictions: {
		Key:     TransferRestrictions,
		Units:   UnitsEnum,
		Fields:  []string{"rofr", "co_sale"},
		Primary: "co_sale",
	},
}

// keyOrder fixes deterministic iteration for the pipeline
var keyOrder = []Key{Exclusivity, Vesting, PreemptionRights, TransferRestrictions}

// SpecFor returns the registered spec for a clause key
func SpecFor(key Key) (Spec, bool) {
	spec, ok := registry[key]
	return spec, ok
}

// Keys returns all registered clause keys in stable order
func Keys() []Key {
	out := make([]Key, len(keyOrder))
	copy(out, keyOrder)
	return out
}

// Known reports whether the key belongs to the registered vocabulary
func Known(key Key) bool {
	_, ok := registry[key]
	return ok
}
