package source

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Unit selects how document characters are counted. Checker offsets, chunk
// lengths and cursor advances must all use the same unit.
type Unit uint8

const (
	// UnitCodepoint counts Unicode code points. Invalid UTF-8 bytes count as
	// one character each.
	UnitCodepoint Unit = iota
	// UnitUTF16 counts UTF-16 code units: astral code points count twice.
	UnitUTF16
)

func (u Unit) String() string {
	switch u {
	case UnitCodepoint:
		return "codepoint"
	case UnitUTF16:
		return "utf16"
	}
	return "unknown"
}

// ParseUnit converts a config value into a Unit. Empty means codepoint.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "codepoint", "char", "chars":
		return UnitCodepoint, nil
	case "utf16", "utf-16":
		return UnitUTF16, nil
	default:
		return UnitCodepoint, fmt.Errorf("invalid offset unit %q (expected codepoint|utf16)", s)
	}
}

// Width returns the number of units r occupies.
func (u Unit) Width(r rune) int {
	if u == UnitUTF16 {
		return utf16Width(r)
	}
	return 1
}

// Len returns the length of s in units.
func (u Unit) Len(s string) int {
	if u == UnitCodepoint {
		return utf8.RuneCountInString(s)
	}
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		n += utf16Width(r)
		s = s[size:]
	}
	return n
}

func utf16Width(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}
