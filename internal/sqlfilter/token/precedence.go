// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package token

// Precedence, associativity, and result-affinity tables for every operator
// kind. Grounded directly on get_op_precedence/get_op_assoc/get_op_affinity
// in the original C implementation — values and groupings below must match
// that table exactly, since the parser's precedence-climbing algorithm and
// the testable precedence-soundness property (spec §8) depend on it.
var precedenceTable = map[Kind]int{
	DOT:     12,
	BITNOT:  11,
	COLLATE: 10,
	STAR:    9,
	SLASH:   9,
	REM:     9,
	UMINUS:  8,
	UPLUS:   8,
	PLUS:    7,
	MINUS:   7,
	BITAND:  6,
	BITOR:   6,
	LSHIFT:  6,
	RSHIFT:  6,
	ESCAPE:  5,
	GT:      4,
	LE:      4,
	LT:      4,
	GE:      4,
	LIKE:    3,
	BETWEEN: 3,
	NE:      3,
	EQ:      3,
	NOT:     2,
	AND:     1,
	OR:      0,
}

var assocTable = map[Kind]Assoc{
	UMINUS:  AssocRight,
	UPLUS:   AssocRight,
	BITNOT:  AssocRight,
	ESCAPE:  AssocRight,
	NOT:     AssocRight,
	COLLATE: AssocRight,
}

var affinityTable = map[Kind]Affinity{
	OR:     Numeric,
	AND:    Numeric,
	NOT:    Numeric,
	REM:    Numeric,
	PLUS:   Numeric,
	STAR:   Numeric,
	SLASH:  Numeric,
	MINUS:  Numeric,
	UMINUS: Numeric,
	UPLUS:  Numeric,

	BITOR:  Integer,
	RSHIFT: Integer,
	LSHIFT: Integer,
	BITAND: Integer,
	BITNOT: Integer,

	ESCAPE:  Text,
	LIKE:    Text,
	COLLATE: Text,

	EQ:      None,
	NE:      None,
	LT:      None,
	GT:      None,
	LE:      None,
	GE:      None,
	DOT:     None,
	BETWEEN: None,
}

// Precedence returns k's binding power (higher binds tighter), or -1 if k is
// not an operator kind.
func Precedence(k Kind) int {
	if p, ok := precedenceTable[k]; ok {
		return p
	}
	return -1
}

// AssocOf returns k's associativity; binary operators not listed in
// assocTable default to left-associative, matching the spec's "all other
// binary operators are left-associative" rule.
func AssocOf(k Kind) Assoc {
	if a, ok := assocTable[k]; ok {
		return a
	}
	if k.IsOperator() {
		return AssocLeft
	}
	return AssocNone
}

// OpAffinity returns the declared result/operand affinity of operator k.
// Comparison operators and DOT return NONE, matching the C table: their
// result affinity is determined dynamically from the operand values, not
// declared statically.
func OpAffinity(k Kind) Affinity {
	if a, ok := affinityTable[k]; ok {
		return a
	}
	return None
}
