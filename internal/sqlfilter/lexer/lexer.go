// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package lexer

import "github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"

// Next advances by exactly one token starting at src[pos] and reports its
// kind and its byte length. It never allocates. For any non-empty position
// (pos < len(src)) the returned length is strictly positive — the lexer
// totality property required by spec §8 — even for malformed input, where
// Next returns ILLEGAL with the smallest reasonable length so the caller
// can report a stable error offset and resynchronize one byte at a time if
// it chooses to.
//
// Next does not itself materialize literal values; see MaterializeNumber
// and MaterializeString for that second pass, which is the only place this
// package allocates.
func Next(src []byte, pos int) (token.Kind, int) {
	if pos >= len(src) {
		return token.EOF, 0
	}

	b := src[pos]

	switch classes[b] {
	case classSpace:
		return token.WHITESPACE, scanWhitespace(src, pos)
	case classDigit:
		return scanNumber(src, pos)
	case classAlpha:
		return scanIdentOrKeyword(src, pos)
	}

	switch b {
	case '(':
		return token.LP, 1
	case ')':
		return token.RP, 1
	case ',':
		return token.COMMA, 1
	case '.':
		// A DOT immediately followed by a digit is the fractional part of a
		// float with no leading integer part (".5"); the spec's parser
		// error-offset scenario `.a` (offset 1) requires DOT-then-non-digit
		// to be a real DOT token, not folded into a number.
		if pos+1 < len(src) && classes[src[pos+1]] == classDigit {
			return scanNumber(src, pos)
		}
		return token.DOT, 1
	case '+':
		return token.PLUS, 1
	case '-':
		if pos+1 < len(src) && src[pos+1] == '-' {
			return token.COMMENT, scanLineComment(src, pos)
		}
		return token.MINUS, 1
	case '*':
		return token.STAR, 1
	case '/':
		if pos+1 < len(src) && src[pos+1] == '*' {
			length, ok := scanBlockComment(src, pos)
			if !ok {
				return token.ILLEGAL, length
			}
			return token.COMMENT, length
		}
		return token.SLASH, 1
	case '%':
		return token.REM, 1
	case '&':
		return token.BITAND, 1
	case '|':
		return token.BITOR, 1
	case '~':
		return token.BITNOT, 1
	case '<':
		if pos+1 < len(src) {
			switch src[pos+1] {
			case '<':
				return token.LSHIFT, 2
			case '=':
				return token.LE, 2
			case '>':
				return token.NE, 2
			}
		}
		return token.LT, 1
	case '>':
		if pos+1 < len(src) {
			switch src[pos+1] {
			case '>':
				return token.RSHIFT, 2
			case '=':
				return token.GE, 2
			}
		}
		return token.GT, 1
	case '=':
		if pos+1 < len(src) && src[pos+1] == '=' {
			return token.EQ, 2
		}
		return token.EQ, 1
	case '!':
		if pos+1 < len(src) && src[pos+1] == '=' {
			return token.NE, 2
		}
		return token.ILLEGAL, 1
	case '\'':
		return scanQuoted(src, pos, '\'', token.STRING)
	case '"':
		return scanQuoted(src, pos, '"', token.ID)
	case '`':
		return scanQuoted(src, pos, '`', token.ID)
	case '?':
		return scanParameter(src, pos)
	}

	return token.ILLEGAL, 1
}

func scanWhitespace(src []byte, pos int) int {
	start := pos
	for pos < len(src) && classes[src[pos]] == classSpace {
		pos++
	}
	return pos - start
}

func scanLineComment(src []byte, pos int) int {
	start := pos
	for pos < len(src) && src[pos] != '\n' {
		pos++
	}
	return pos - start
}

// scanBlockComment returns the comment's length and ok=false if it is
// unterminated (ILLEGAL, per spec §7 "Lexical" errors). The parser
// reports an ILLEGAL token at the offset one past its last byte, which for
// an unterminated comment is the end of the input.
func scanBlockComment(src []byte, pos int) (int, bool) {
	start := pos
	pos += 2 // consume "/*"
	for pos+1 < len(src) {
		if src[pos] == '*' && src[pos+1] == '/' {
			return pos + 2 - start, true
		}
		pos++
	}
	return len(src) - start, false
}

// scanNumber scans an integer, float, or QNUMBER literal: decimal or hex
// integers (0x...), optional fractional part and exponent for floats, and
// underscore digit separators that force the QNUMBER kind (re-tokenized
// later by MaterializeNumber once the separators are stripped).
func scanNumber(src []byte, pos int) (token.Kind, int) {
	start := pos
	hasSeparator := false
	kind := token.INTEGER

	if src[pos] == '0' && pos+1 < len(src) && (src[pos+1] == 'x' || src[pos+1] == 'X') {
		pos += 2
		for pos < len(src) && (isHexDigit(src[pos]) || src[pos] == '_') {
			if src[pos] == '_' {
				hasSeparator = true
			}
			pos++
		}
		if hasSeparator {
			return token.QNUMBER, pos - start
		}
		return token.INTEGER, pos - start
	}

	for pos < len(src) && (classes[src[pos]] == classDigit || src[pos] == '_') {
		if src[pos] == '_' {
			hasSeparator = true
		}
		pos++
	}

	if pos < len(src) && src[pos] == '.' {
		kind = token.FLOAT
		pos++
		for pos < len(src) && (classes[src[pos]] == classDigit || src[pos] == '_') {
			if src[pos] == '_' {
				hasSeparator = true
			}
			pos++
		}
	}

	if pos < len(src) && (src[pos] == 'e' || src[pos] == 'E') {
		save := pos
		p := pos + 1
		if p < len(src) && (src[p] == '+' || src[p] == '-') {
			p++
		}
		if p < len(src) && classes[src[p]] == classDigit {
			kind = token.FLOAT
			pos = p
			for pos < len(src) && classes[src[pos]] == classDigit {
				pos++
			}
		} else {
			pos = save
		}
	}

	// Trailing garbage directly after a numeric literal (e.g. "1abc") is a
	// lexical error per spec §7.
	if pos < len(src) && classes[src[pos]] == classAlpha {
		for pos < len(src) && isAlphaNum(src[pos]) {
			pos++
		}
		return token.ILLEGAL, pos - start
	}

	if hasSeparator {
		return token.QNUMBER, pos - start
	}
	return kind, pos - start
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// scanIdentOrKeyword scans a bare identifier, or a blob literal if it begins
// with x'...'/X'...'. Reserved-word recognition happens in the parser (via
// token.LookupReserved), not here, since the lexer itself only classifies.
func scanIdentOrKeyword(src []byte, pos int) (token.Kind, int) {
	if (src[pos] == 'x' || src[pos] == 'X') && pos+1 < len(src) && src[pos+1] == '\'' {
		return scanBlob(src, pos+1, pos)
	}

	start := pos
	for pos < len(src) && isAlphaNum(src[pos]) {
		pos++
	}
	return token.ID, pos - start
}

// scanQuoted scans a '...'-style string or "..."/`...`-style identifier. A
// doubled delimiter inside the quotes is an escaped literal delimiter
// (standard SQL quoting), matching the original's string materialization
// contract.
func scanQuoted(src []byte, pos int, delim byte, kind token.Kind) (token.Kind, int) {
	start := pos
	pos++ // opening delimiter
	for pos < len(src) {
		if src[pos] == delim {
			if pos+1 < len(src) && src[pos+1] == delim {
				pos += 2
				continue
			}
			return kind, pos + 1 - start
		}
		pos++
	}
	return token.ILLEGAL, pos - start // unterminated
}

// scanBlob scans x'HH...' starting at quotePos (the position of the opening
// quote); origStart is the position of the leading 'x'/'X'.
func scanBlob(src []byte, quotePos, origStart int) (token.Kind, int) {
	pos := quotePos + 1
	hexDigits := 0
	for pos < len(src) && src[pos] != '\'' {
		if !isHexDigit(src[pos]) {
			return token.ILLEGAL, pos - origStart
		}
		hexDigits++
		pos++
	}
	if pos >= len(src) {
		return token.ILLEGAL, pos - origStart // unterminated
	}
	if hexDigits%2 != 0 {
		return token.ILLEGAL, pos + 1 - origStart // odd-length blob hex
	}
	return token.BLOB, pos + 1 - origStart
}

// scanParameter scans a positional parameter "?N"; the digit run is
// mandatory, so a bare '?' or '?a' is ILLEGAL per spec §4.1.
func scanParameter(src []byte, pos int) (token.Kind, int) {
	start := pos
	pos++ // consume '?'
	digitStart := pos
	for pos < len(src) && classes[src[pos]] == classDigit {
		pos++
	}
	if pos == digitStart {
		return token.ILLEGAL, pos - start
	}
	return token.VARIABLE, pos - start
}
