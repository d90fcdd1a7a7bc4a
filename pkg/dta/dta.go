/*
Package dta converts Gamry potentiostat exports (.DTA, tab separated text) into
the two-column layout OriginLab imports.

Only table rows survive the conversion. A row is a line made of at least eight
tab-prefixed, non-empty fields; everything else (the TAG/LABEL preamble, notes,
blank lines) is dropped. From each row two columns are kept:

	CV (cyclic voltammetry)      column 3 (Vf, voltage) and column 4 (Im, current)
	CA (chronoamperometry)       column 2 (T, time)     and column 4 (Im, current)

Column indexes count the empty string before the leading tab as column 0.

The current is rescaled to the requested unit and written with SciNotation.
CV voltages are shifted and reformatted only when a shift is configured.
Rows whose values are not numeric are the table headers and are replaced by
Origin's long-name and unit rows:

	Vf ...   -> Voltage  Current        T ...  -> Time  Current
	V  ...   -> V        <unit>         s ...  -> s     <unit>

Basic usage:

	conv := dta.NewConverter(dta.Options{Unit: dta.UnitMicroAmp})
	stats, err := conv.Convert(ctx, dta.DetectKind(name), in, out)
*/
package dta

import (
	"regexp"
	"strings"
)

// Kind is the experiment type encoded in a Gamry file name
type Kind int

const (
	// KindOther covers every export that is neither CV nor CA
	KindOther Kind = iota
	// KindCV is a cyclic voltammetry export
	KindCV
	// KindCA is a chronoamperometry export
	KindCA
)

func (k Kind) String() string {
	switch k {
	case KindCV:
		return "CV"
	case KindCA:
		return "CA"
	default:
		return "other"
	}
}

// DetectKind classifies a file by name. The test is a case-sensitive substring
// match and CV takes precedence over CA.
func DetectKind(filename string) Kind {
	switch {
	case strings.Contains(filename, "CV"):
		return KindCV
	case strings.Contains(filename, "CA"):
		return KindCA
	default:
		return KindOther
	}
}

// OutputName returns the name a converted file is written under: the input
// name with the experiment kind appended ("run_CV.DTA" -> "run_CV.DTACV").
func OutputName(filename string) string {
	switch DetectKind(filename) {
	case KindCV:
		return filename + "CV"
	case KindCA:
		return filename + "CA"
	default:
		return filename
	}
}

var rowPattern = regexp.MustCompile(`\A(?:\t[^\t\n\r\f\v]+){8,}\n\z`)

// Matches reports whether line is a table row. The line must still carry its
// newline terminator.
func Matches(line string) bool {
	return rowPattern.MatchString(line)
}

// Options configures a Converter
type Options struct {
	// Unit the current column is converted to
	Unit Unit

	// Shift is added to CV voltages; nil leaves voltages untouched
	Shift *float64
}

// Converter rewrites Gamry rows. It holds no mutable state and may be shared
// between goroutines.
type Converter struct {
	unit   Unit
	factor float64
	shift  *float64
}

// NewConverter creates a converter. An empty unit means amperes.
func NewConverter(opts Options) *Converter {
	unit := opts.Unit
	if unit == "" {
		unit = UnitAmp
	}

	var shift *float64
	if opts.Shift != nil {
		s := *opts.Shift
		shift = &s
	}

	return &Converter{
		unit:   unit,
		factor: unit.Factor(),
		shift:  shift,
	}
}

// Unit returns the unit currents are written in
func (c *Converter) Unit() Unit {
	return c.unit
}

// Shift returns the configured voltage shift and whether one is set
func (c *Converter) Shift() (float64, bool) {
	if c.shift == nil {
		return 0, false
	}
	return *c.shift, true
}

// Line converts a single input line. The second result is false when the
// line is not a table row and must be dropped.
func (c *Converter) Line(kind Kind, line string) (string, bool) {
	out, _, ok := c.transform(kind, line)
	return out, ok
}

func (c *Converter) transform(kind Kind, line string) (out string, header bool, ok bool) {
	if !Matches(line) {
		return "", false, false
	}

	// rows of other experiments keep every field, framed like converted rows
	if kind == KindOther {
		return "\t" + line + "\n", false, true
	}

	fields := strings.Split(strings.TrimSuffix(line, "\n"), "\t")

	var first, second string
	if kind == KindCV {
		first, second = fields[3], fields[4]
	} else {
		first, second = fields[2], fields[4]
	}

	a, b, numeric := c.convertPair(kind, first, second)
	if !numeric {
		a, b = c.headerPair(kind, first)
		header = true
	}

	return "\t" + a + "\t" + b + "\n", header, true
}

// convertPair rescales the current and, for CV with a shift, moves the voltage.
// It reports false as soon as a value it has to touch is not a number.
func (c *Converter) convertPair(kind Kind, first, second string) (string, string, bool) {
	current, ok := parseNumber(second)
	if !ok {
		return "", "", false
	}
	b := SciNotation(current * c.factor)

	a := first
	if kind == KindCV && c.shift != nil {
		voltage, ok := parseNumber(first)
		if !ok {
			return "", "", false
		}
		a = SciNotation(voltage + *c.shift)
	}

	return a, b, true
}

func (c *Converter) headerPair(kind Kind, first string) (string, string) {
	if kind == KindCV {
		if first == "Vf" {
			return "Voltage", "Current"
		}
		return "V", c.unit.String()
	}

	if first == "T" {
		return "Time", "Current"
	}
	return "s", c.unit.String()
}
