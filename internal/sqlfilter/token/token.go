// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package token

// Token is the fundamental unit of both parsing and evaluation. It unifies
// literal values (int, real, text, blob, identifier) and operator metadata
// in one struct, mirroring dds_sql_token_t's int64/double union plus
// char* payload — here as a plain struct with both fields present, which
// costs a little memory per node but keeps the zero value useful and avoids
// unsafe unions.
type Token struct {
	Kind Kind
	Aff  Affinity

	// Prec/Assoc cache Precedence(Kind)/AssocOf(Kind) so hot paths (the
	// optimizer and evaluator) don't repeat the table lookup per node.
	Prec  int
	Assoc Assoc

	// I and F hold the numeric payload for INTEGER/FLOAT kinds.
	I int64
	F float64

	// S holds the byte payload for STRING/BLOB/ID kinds: decoded string
	// bytes, decoded blob bytes, or the identifier's (possibly dotted)
	// name with quotes already stripped.
	S []byte

	// IsConst marks a token that lives in a parameter or variable slot and
	// must never be mutated in place — evaluation duplicates it first. Set
	// on every slot Token; never set on a token owned solely by one tree
	// node.
	IsConst bool
}

// NewOp returns a zero-value operator Token of kind k with its precedence,
// associativity, and declared affinity filled in from the static tables.
func NewOp(k Kind) Token {
	return Token{
		Kind:  k,
		Aff:   OpAffinity(k),
		Prec:  Precedence(k),
		Assoc: AssocOf(k),
	}
}

// Int returns an INTEGER literal token.
func Int(v int64) Token {
	return Token{Kind: INTEGER, Aff: Integer, I: v}
}

// Float returns a FLOAT literal token.
func Float(v float64) Token {
	return Token{Kind: FLOAT, Aff: Real, F: v}
}

// Str returns a STRING literal token.
func Str(s []byte) Token {
	return Token{Kind: STRING, Aff: Text, S: s}
}

// BlobVal returns a BLOB literal token.
func BlobVal(b []byte) Token {
	return Token{Kind: BLOB, Aff: Blob, S: b}
}

// Ident returns an ID token (identifier/dotted-name), affinity NONE.
func Ident(name []byte) Token {
	return Token{Kind: ID, Aff: None, S: name}
}

// Truthy reports whether t, which must have affinity >= NUMERIC, is
// non-zero. Callers must check t.Aff.IsNumeric() first; Truthy panics
// otherwise, since a non-numeric top-level result is a caller bug (the
// optimizer/evaluator are specified to never produce one — see eval.Eval).
func (t Token) Truthy() bool {
	switch t.Aff {
	case Integer:
		return t.I != 0
	case Real:
		return t.F != 0
	default:
		panic("token: Truthy called on non-numeric affinity " + t.Aff.String())
	}
}

// Dup returns a shallow copy of t suitable for in-place mutation. Byte
// payloads are not copied (S is only ever read, never mutated, by the
// evaluator and optimizer) but the struct itself is, so mutating the copy's
// Kind/Aff/I/F never affects a shared parameter/variable slot.
func (t Token) Dup() Token {
	dup := t
	dup.IsConst = false
	return dup
}
