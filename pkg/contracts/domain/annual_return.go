package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// AnnualReturn is an annual return in percent that may be absent. The zero
// value is "no value", which is distinct from a 0% return.
type AnnualReturn struct {
	pct   float64
	valid bool
}

// SomeReturn wraps a percentage. Non-finite inputs yield NoReturn.
func SomeReturn(pct float64) AnnualReturn {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return AnnualReturn{}
	}
	return AnnualReturn{pct: pct, valid: true}
}

// NoReturn is the explicit absent value.
func NoReturn() AnnualReturn {
	return AnnualReturn{}
}

// Pct returns the percentage and whether it is present.
func (a AnnualReturn) Pct() (float64, bool) {
	return a.pct, a.valid
}

// IsSet reports whether a value is present.
func (a AnnualReturn) IsSet() bool {
	return a.valid
}

// String renders the percentage with two decimals, or "n/a".
func (a AnnualReturn) String() string {
	if !a.valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", a.pct)
}

// MarshalJSON encodes the value as a number or null.
func (a AnnualReturn) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(a.pct, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a number or null.
func (a *AnnualReturn) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = AnnualReturn{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode annual return: %w", err)
	}
	*a = SomeReturn(v)
	return nil
}
