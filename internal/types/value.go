// internal/types/value.go
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

/*
 * Scalar leaf values.
 *
 * Reports carry exactly four scalar kinds: string, number, boolean, null.
 * Value is the closed variant over those kinds; everything past the decode
 * boundary pattern-matches on Kind instead of type-switching on any.
 *
 * Numbers keep their source literal (json.Number) so re-emission is
 * byte-faithful: a counter reported as 1000 never comes back as 1e+03.
 *
 * Key functions:
 *   - ValueFromAny: classify a decoded JSON value, rejecting containers
 *   - MarshalJSON/UnmarshalJSON: the bare scalar, no envelope
 */

// ValueKind discriminates the scalar variant.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
)

// Value is one scalar leaf of a report.
// Exactly one of Str/Num/Bool is meaningful, selected by Kind.
type Value struct {
	Kind ValueKind
	Str  string
	Num  json.Number
	Bool bool
}

// StringValue returns a string-kind Value.
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// NumberValue returns a number-kind Value preserving the literal.
func NumberValue(n json.Number) Value { return Value{Kind: ValueNumber, Num: n} }

// BoolValue returns a boolean-kind Value.
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// NullValue returns the null Value.
func NullValue() Value { return Value{Kind: ValueNull} }

// ValueFromAny classifies a decoded JSON value into the scalar variant.
// Accepts nil, string, json.Number, float64 (decoders without UseNumber),
// and bool. Reports ok=false for containers and anything else.
func ValueFromAny(v any) (Value, bool) {
	switch t := v.(type) {
	case nil:
		return NullValue(), true
	case string:
		return StringValue(t), true
	case json.Number:
		return NumberValue(t), true
	case float64:
		return NumberValue(json.Number(strconv.FormatFloat(t, 'f', -1, 64))), true
	case bool:
		return BoolValue(t), true
	default:
		return Value{}, false
	}
}

// IsScalar reports whether a decoded JSON value is one of the four scalar
// kinds. Shorthand for the ValueFromAny ok result used by format detection.
func IsScalar(v any) bool {
	_, ok := ValueFromAny(v)
	return ok
}

// String returns the display form: the string verbatim, the number literal,
// "true"/"false", or "null". Used by renderers and log fields.
func (v Value) String() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return v.Num.String()
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	default:
		return "null"
	}
}

// Equal reports kind and payload equality. Numbers compare by literal; the
// decode pipeline never reformats literals, so "1000" and "1e3" are distinct
// on the wire and stay distinct here.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueString:
		return v.Str == o.Str
	case ValueNumber:
		return v.Num == o.Num
	case ValueBool:
		return v.Bool == o.Bool
	default:
		return true
	}
}

// MarshalJSON emits the bare scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueString:
		return json.Marshal(v.Str)
	case ValueNumber:
		if v.Num == "" {
			return []byte("0"), nil
		}
		return []byte(v.Num), nil
	case ValueBool:
		return []byte(strconv.FormatBool(v.Bool)), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON parses a bare scalar. Containers fail with ErrNotScalar.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := newNumberDecoder(data)
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, ok := ValueFromAny(raw)
	if !ok {
		return fmt.Errorf("value %.32q: %w", data, ErrNotScalar)
	}
	*v = parsed
	return nil
}

// newNumberDecoder returns a decoder that keeps number literals intact.
// Every decode path in this package goes through it; float64 conversion
// would destroy literal fidelity for 64-bit counters.
func newNumberDecoder(data []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec
}
