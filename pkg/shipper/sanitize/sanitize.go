// Package sanitize holds the small field cleaners shared by every carrier
// adapter: postal codes, lenient number parsing and unit canonicalization.
package sanitize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// PostalCode strips all whitespace and upper-cases the result.
// Canpar rejects postal codes that contain a space.
func PostalCode(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// Trim collapses runs of whitespace into single spaces and trims the ends.
func Trim(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Phone keeps digits and a leading plus sign.
func Phone(s string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		if unicode.IsDigit(r) || (i == 0 && r == '+') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Float parses v leniently. Anything that is not a finite number yields 0.
func Float(v any) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		s = strings.TrimPrefix(s, "$")
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case *float64:
		if t == nil {
			return 0
		}
		f = *t
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int parses v leniently, truncating fractional values.
func Int(v any) int {
	if s, ok := v.(string); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i
		}
	}
	return int(Float(v))
}

// Bool accepts booleans and the usual string spellings of true.
func Bool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "y":
			return true
		}
	}
	return false
}

// FloatOr returns def when v is zero after parsing.
func FloatOr(v any, def float64) float64 {
	if f := Float(v); f != 0 {
		return f
	}
	return def
}

// PositiveOr returns def unless f is strictly positive and finite.
func PositiveOr(f, def float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return def
	}
	return f
}

// WeightUnit canonicalizes a weight unit to "lb" or "kg".
// Unknown spellings fall back to pounds.
func WeightUnit(s string) string {
	switch strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), ".")) {
	case "kg", "kgs", "kilo", "kilos", "kilogram", "kilograms", "k":
		return "kg"
	default:
		return "lb"
	}
}

// DimensionUnit canonicalizes a length unit to "in" or "cm".
// Unknown spellings fall back to inches.
func DimensionUnit(s string) string {
	switch strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), ".")) {
	case "cm", "cms", "centimeter", "centimeters", "centimetre", "centimetres", "c":
		return "cm"
	default:
		return "in"
	}
}

// Number is a float64 that decodes from a JSON number, a numeric string or
// null. Malformed input decodes to 0 instead of failing the whole document.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		*n = 0
		return nil
	}
	*n = Number(Float(v))
	return nil
}

// Float64 returns n as a float64.
func (n Number) Float64() float64 {
	return float64(n)
}

// List decodes a JSON array, or a single value as a one-element array.
// null leaves the list nil; an empty array yields an empty, non-nil list.
type List[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (l *List[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '[':
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		if items == nil {
			items = []T{}
		}
		*l = items
		return nil
	}
	var item T
	if err := json.Unmarshal(b, &item); err != nil {
		return err
	}
	*l = List[T]{item}
	return nil
}
