package types

import (
	"encoding/json"
	"errors"
	"testing"
)

// Test classification of decoded JSON values
func TestValueFromAny(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   Value
		wantOk bool
	}{
		{name: "string", input: "AC:DE:48:00:11:22", want: StringValue("AC:DE:48:00:11:22"), wantOk: true},
		{name: "json number", input: json.Number("1048576"), want: NumberValue("1048576"), wantOk: true},
		{name: "float64 from plain decoder", input: float64(-42.5), want: NumberValue("-42.5"), wantOk: true},
		{name: "bool", input: true, want: BoolValue(true), wantOk: true},
		{name: "nil", input: nil, want: NullValue(), wantOk: true},
		{name: "object rejected", input: map[string]any{"a": 1}, wantOk: false},
		{name: "array rejected", input: []any{1, 2}, wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ValueFromAny(tt.input)
			if ok != tt.wantOk {
				t.Fatalf("ValueFromAny(%v) ok = %v, want %v", tt.input, ok, tt.wantOk)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ValueFromAny(%v) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

// Test number literal fidelity through the JSON codec
func TestValueJSON_NumberFidelity(t *testing.T) {
	literals := []string{"1000", "0", "-7", "3.14", "1e3", "18446744073709551615"}

	for _, lit := range literals {
		t.Run(lit, func(t *testing.T) {
			var v Value
			if err := v.UnmarshalJSON([]byte(lit)); err != nil {
				t.Fatalf("UnmarshalJSON(%s) error = %v", lit, err)
			}
			if v.Kind != ValueNumber {
				t.Fatalf("Kind = %v, want ValueNumber", v.Kind)
			}
			out, err := v.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(out) != lit {
				t.Errorf("MarshalJSON() = %s, want literal %s", out, lit)
			}
		})
	}
}

// Test scalar codec round-trips and container rejection
func TestValueJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Value
		wantErr bool
	}{
		{name: "string", input: `"RT-AX88U"`, want: StringValue("RT-AX88U")},
		{name: "true", input: `true`, want: BoolValue(true)},
		{name: "false", input: `false`, want: BoolValue(false)},
		{name: "null", input: `null`, want: NullValue()},
		{name: "object rejected", input: `{"a":1}`, wantErr: true},
		{name: "array rejected", input: `[1]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			err := v.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrNotScalar) {
					t.Fatalf("UnmarshalJSON(%s) error = %v, want ErrNotScalar", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalJSON(%s) error = %v", tt.input, err)
			}
			if !v.Equal(tt.want) {
				t.Errorf("UnmarshalJSON(%s) = %+v, want %+v", tt.input, v, tt.want)
			}
		})
	}
}

// Test display form
func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{name: "string verbatim", v: StringValue("Up"), want: "Up"},
		{name: "number literal", v: NumberValue("250000"), want: "250000"},
		{name: "bool", v: BoolValue(false), want: "false"},
		{name: "null", v: NullValue(), want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("Value.String() = %q, want %q", got, tt.want)
			}
		})
	}
}
