package dta

import (
	"math"
	"strconv"
	"strings"
)

// SciNotation formats v the way Origin expects Gamry numbers: five decimals,
// an upper-case E and a zero-padded exponent sign group.
//
//	1.234567e-5 -> 1.23457E-005
//	-2          -> -2.00000E+000
//	1e-100      -> 1.00000E-0100
//
// Non-finite values are spelled the way strconv spells them (NaN, +Inf, -Inf).
func SciNotation(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	s := strconv.FormatFloat(v, 'e', 5, 64)
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 > len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 1)
	b.WriteString(s[:i])
	b.WriteByte('E')
	b.WriteByte(s[i+1]) // exponent sign
	b.WriteByte('0')
	b.WriteString(s[i+2:])
	return b.String()
}

// parseNumber accepts the same spellings Gamry writes (and surrounding blanks).
// Values beyond float64 range saturate to ±Inf instead of failing.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return v, true
		}
		return 0, false
	}
	return v, true
}
