package utils

import (
	"strconv"
	"strings"
)

// ParseAmount converts a form-field string to a monetary value. Non-numeric or
// empty input coerces to 0 rather than erroring; data quality is the caller's
// concern upstream.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseCount converts a form-field string to a whole count (e.g. session count),
// with the same coerce-to-zero leniency as ParseAmount.
func ParseCount(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return int(ParseAmount(s))
	}
	return v
}

// FlexibleAmount is a monetary value in a JSON payload. It accepts a JSON number
// or a numeric string; null, empty, or non-numeric input unmarshals to 0.
type FlexibleAmount float64

// UnmarshalJSON implements the coerce-to-zero leniency for JSON bodies.
func (a *FlexibleAmount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*a = 0
		return nil
	}
	*a = FlexibleAmount(v)
	return nil
}

// Float64 returns the plain float value.
func (a FlexibleAmount) Float64() float64 {
	return float64(a)
}
