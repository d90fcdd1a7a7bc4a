package dta

import (
	"errors"
	"fmt"
)

// Unit is the unit the current column is written in
type Unit string

const (
	UnitAmp      Unit = "A"
	UnitMilliAmp Unit = "mA"
	UnitMicroAmp Unit = "uA"
	UnitNanoAmp  Unit = "nA"
)

// ErrUnknownUnit is returned by ParseUnit for anything outside A, mA, uA and nA
var ErrUnknownUnit = errors.New("unknown current unit")

// Gamry exports current in amperes; the factor converts to the target unit.
var unitFactors = map[Unit]float64{
	UnitAmp:      1,
	UnitMilliAmp: 1e3,
	UnitMicroAmp: 1e6,
	UnitNanoAmp:  1e9,
}

// Units lists the supported units in increasing scale
func Units() []Unit {
	return []Unit{UnitAmp, UnitMilliAmp, UnitMicroAmp, UnitNanoAmp}
}

// ParseUnit validates a unit name. Matching is case-sensitive: "MA" is not "mA".
func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if _, ok := unitFactors[u]; !ok {
		return "", fmt.Errorf("%w: %q (choose from A, mA, uA, nA)", ErrUnknownUnit, s)
	}
	return u, nil
}

// Factor returns the multiplier from amperes to u. Unknown units scale by 1.
func (u Unit) Factor() float64 {
	if f, ok := unitFactors[u]; ok {
		return f
	}
	return 1
}

func (u Unit) String() string {
	return string(u)
}
