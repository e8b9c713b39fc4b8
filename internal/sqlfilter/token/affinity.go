// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package token

import "fmt"

// Affinity is a total ordering on value domains, from most-generic to
// most-specific: NONE < BLOB < TEXT < NUMERIC < INTEGER < REAL. NUMERIC is
// the "any numeric" join of INTEGER and REAL and is never itself a concrete
// representation — only a requested affinity.
type Affinity int

// Affinity constants, in lattice order. Do not reorder: comparisons between
// Affinity values (e.g. "result must be >= NUMERIC") depend on this order.
const (
	None Affinity = iota
	Blob
	Text
	Numeric
	Integer
	Real
)

var affinityStrings = [...]string{
	None:    "NONE",
	Blob:    "BLOB",
	Text:    "TEXT",
	Numeric: "NUMERIC",
	Integer: "INTEGER",
	Real:    "REAL",
}

func (a Affinity) String() string {
	if a >= 0 && int(a) < len(affinityStrings) {
		return affinityStrings[a]
	}
	return fmt.Sprintf("Affinity(%d)", int(a))
}

// IsNumeric reports whether a is one of NUMERIC, INTEGER, or REAL.
func (a Affinity) IsNumeric() bool {
	return a >= Numeric
}

// Max returns the join (more-specific) of two affinities.
func Max(a, b Affinity) Affinity {
	if a > b {
		return a
	}
	return b
}

// Assoc is an operator's associativity.
type Assoc int

// Associativity constants.
const (
	AssocNone Assoc = iota
	AssocLeft
	AssocRight
)
