package clause

import (
	"encoding/json"
	"math"
	"strings"

	"parley/pkg/errors"
)

// FieldKind discriminates the scalar type of a value sub-field
type FieldKind int

const (
	KindNumber FieldKind = iota
	KindFlag
	KindText
)

// Field is one scalar sub-field of a clause value.
// Numeric fields remember whether they were supplied as integers so that
// compromises between two integer positions stay integral.
type Field struct {
	Kind FieldKind
	Num  float64
	Int  bool
	Flag bool
	Text string
}

// Number builds a fractional numeric field
func Number(v float64) Field {
	return Field{Kind: KindNumber, Num: v}
}

// Int builds an integer numeric field
func Int(v int) Field {
	return Field{Kind: KindNumber, Num: float64(v), Int: true}
}

// Bool builds a flag field
func Bool(v bool) Field {
	return Field{Kind: KindFlag, Flag: v}
}

// Text builds an enum/text field
func Text(v string) Field {
	return Field{Kind: KindText, Text: v}
}

// Equal compares two fields by kind and payload
func (f Field) Equal(other Field) bool {
	if f.Kind != other.Kind {
		return false
	}
	switch f.Kind {
	case KindNumber:
		return f.Num == other.Num
	case KindFlag:
		return f.Flag == other.Flag
	default:
		return f.Text == other.Text
	}
}

// Interface returns the field payload as a plain Go value
func (f Field) Interface() interface{} {
	switch f.Kind {
	case KindNumber:
		if f.Int {
			return int(math.Round(f.Num))
		}
		return f.Num
	case KindFlag:
		return f.Flag
	default:
		return f.Text
	}
}

// MarshalJSON renders the field as a bare JSON scalar
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case KindNumber:
		if f.Int {
			return json.Marshal(int64(math.Round(f.Num)))
		}
		return json.Marshal(f.Num)
	case KindFlag:
		return json.Marshal(f.Flag)
	default:
		return json.Marshal(f.Text)
	}
}

// UnmarshalJSON parses a bare JSON scalar, preserving integer-ness
func (f *Field) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "true" || raw == "false":
		f.Kind = KindFlag
		f.Flag = raw == "true"
		return nil
	case strings.HasPrefix(raw, `"`):
		f.Kind = KindText
		return json.Unmarshal(data, &f.Text)
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return errors.Wrapf(err, "unsupported field literal %q", raw)
		}
		f.Kind = KindNumber
		v, err := num.Float64()
		if err != nil {
			return err
		}
		f.Num = v
		f.Int = !strings.ContainsAny(num.String(), ".eE")
		return nil
	}
}

// Value is the full payload of one clause: named scalar sub-fields.
// It round-trips through JSON as a plain object, which is also the
// storage representation in the terms and rounds tables.
type Value map[string]Field

// Equal compares two values field-wise
func (v Value) Equal(other Value) bool {
	if len(v) != len(other) {
		return false
	}
	for name, f := range v {
		of, ok := other[name]
		if !ok || !f.Equal(of) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy
func (v Value) Clone() Value {
	out := make(Value, len(v))
	for name, f := range v {
		out[name] = f
	}
	return out
}

// Primary returns the clause's primary field per the registered spec,
// falling back to the first declared field that is present
func (v Value) Primary(spec Spec) (Field, bool) {
	if f, ok := v[spec.Primary]; ok {
		return f, true
	}
	for _, name := range spec.Fields {
		if f, ok := v[name]; ok {
			return f, true
		}
	}
	return Field{}, false
}
