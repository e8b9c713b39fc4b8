// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Package lexer implements the byte-stream scanner for the content-filter
// expression language: given a position into a byte slice, it classifies
// and measures exactly one token without allocating.
package lexer

// class is the coarse byte classification used to dispatch Next. It is a
// 256-entry table indexed by byte value, matching the original
// implementation's classification strategy (spec §4.1) — punctuation and
// operator bytes are left as classOther and handled by a direct switch in
// Next, since most of them need one- or two-byte lookahead that a single
// class code cannot express.
type class uint8

const (
	classOther class = iota
	classSpace
	classDigit
	classAlpha // letters and '_' — identifier/keyword start and continuation
)

var classes = buildClassTable()

func buildClassTable() [256]class {
	var t [256]class
	for c := 0; c < 256; c++ {
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			t[c] = classSpace
		case c >= '0' && c <= '9':
			t[c] = classDigit
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
			t[c] = classAlpha
		default:
			t[c] = classOther
		}
	}
	return t
}

func isAlphaNum(b byte) bool {
	c := classes[b]
	return c == classAlpha || c == classDigit
}
