package view

import (
	"strings"

	"golang.org/x/text/cases"
)

// Comparison selects how strings are compared.
type Comparison int

const (
	// Ordinal compares code units.
	Ordinal Comparison = iota
	// IgnoreCase compares the Unicode case-folded forms.
	IgnoreCase
)

func (c Comparison) String() string {
	if c == IgnoreCase {
		return "IgnoreCase"
	}
	return "Ordinal"
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func compareFolded(a, b string) int {
	return strings.Compare(fold(a), fold(b))
}
