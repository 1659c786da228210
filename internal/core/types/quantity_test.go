package types

import (
	"encoding/json"
	"testing"
)

func TestQuantity_Mul(t *testing.T) {
	tests := []struct {
		name string
		a, b Quantity
		want Quantity
	}{
		{"whole numbers", NewQuantityFromInt(2), NewQuantityFromInt(4), NewQuantityFromInt(8)},
		{"fractional per-unit", NewQuantityFromFloat64(0.5), NewQuantityFromInt(3), NewQuantityFromFloat64(1.5)},
		{"zero", NewQuantityFromInt(0), NewQuantityFromInt(7), 0},
		{"both fractional", NewQuantityFromFloat64(1.25), NewQuantityFromFloat64(0.4), NewQuantityFromFloat64(0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Mul(tt.b); got != tt.want {
				t.Errorf("Mul: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQuantity_String(t *testing.T) {
	tests := []struct {
		q    Quantity
		want string
	}{
		{NewQuantityFromInt(5), "5.0000"},
		{NewQuantityFromFloat64(2.5), "2.5000"},
		{NewQuantityFromFloat64(-1.25), "-1.2500"},
		{0, "0.0000"},
	}
	for _, tt := range tests {
		if got := tt.q.String(); got != tt.want {
			t.Errorf("String(%d): got %q, want %q", int64(tt.q), got, tt.want)
		}
	}
}

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Quantity
	}{
		{"number", `3.5`, NewQuantityFromFloat64(3.5)},
		{"string", `"3.5"`, NewQuantityFromFloat64(3.5)},
		{"integer", `12`, NewQuantityFromInt(12)},
		{"negative", `-0.25`, NewQuantityFromFloat64(-0.25)},
		{"extra digits truncated", `1.99999`, NewQuantityFromFloat64(1.9999)},
		{"null", `null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			if err := json.Unmarshal([]byte(tt.input), &q); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q != tt.want {
				t.Errorf("got %s, want %s", q, tt.want)
			}
		})
	}
}

func TestQuantity_MinNegAbs(t *testing.T) {
	a := NewQuantityFromInt(3)
	b := NewQuantityFromInt(7)
	if got := Min(a, b); got != a {
		t.Errorf("Min: got %s", got)
	}
	if got := a.Neg(); got != NewQuantityFromInt(-3) {
		t.Errorf("Neg: got %s", got)
	}
	if got := a.Neg().Abs(); got != a {
		t.Errorf("Abs: got %s", got)
	}
}
