// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package parser

import (
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/lexer"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
)

// unimplementedKeywords holds the reserved-but-not-implemented words: they
// lex as ordinary identifiers (the lexer only classifies bytes) but the
// parser must reject them explicitly rather than silently treat them as
// sample field names (spec §1 non-goals).
var unimplementedKeywords = map[string]token.Kind{
	"LIKE":    token.LIKE,
	"BETWEEN": token.BETWEEN,
	"ESCAPE":  token.ESCAPE,
	"COLLATE": token.COLLATE,
	"CAST":    token.CAST,
}

// scanToken scans one non-trivia token at src[pos:], skipping WHITESPACE
// and COMMENT, and returns its materialized Token, its start offset, and
// the offset one past its last byte (end). A reserved boolean connective
// or an unimplemented reserved word (LIKE/BETWEEN/ESCAPE/COLLATE/CAST) is
// recognized here, since only the lexer knows which ID tokens were bare
// (unquoted) and therefore keyword-eligible.
func scanToken(src []byte, pos int) (tok token.Token, start, end int, err error) {
	for {
		kind, length := lexer.Next(src, pos)
		switch kind {
		case token.WHITESPACE, token.COMMENT:
			pos += length
			continue
		case token.EOF:
			return token.Token{Kind: token.EOF}, pos, pos, nil
		case token.ILLEGAL:
			return token.Token{}, pos, pos + length, &ParseError{Offset: pos + length, Msg: "malformed token"}
		}

		start = pos
		end = pos + length
		raw := src[pos:end]

		switch kind {
		case token.INTEGER, token.FLOAT, token.QNUMBER:
			tok, err = lexer.MaterializeNumber(raw, kind)
		case token.STRING, token.BLOB:
			tok, err = lexer.MaterializeString(raw, kind)
		case token.ID:
			tok, err = scanIdentifier(raw)
		case token.VARIABLE:
			var n int
			n, err = lexer.MaterializeParameter(raw)
			tok = token.Token{Kind: token.VARIABLE, I: int64(n)}
		default:
			tok = token.NewOp(kind)
		}
		if err != nil {
			return token.Token{}, start, end, &ParseError{Offset: end, Msg: err.Error()}
		}
		return tok, start, end, nil
	}
}

// scanIdentifier materializes an ID token and promotes it to AND/OR/NOT or
// flags an unimplemented reserved word, but only when the raw slice was a
// bare (unquoted) identifier.
func scanIdentifier(raw []byte) (token.Token, error) {
	tok, err := lexer.MaterializeString(raw, token.ID)
	if err != nil {
		return token.Token{}, err
	}
	if isQuotedRaw(raw) {
		return tok, nil
	}
	name := string(tok.S)
	if k, ok := token.LookupReserved(name); ok {
		return token.NewOp(k), nil
	}
	if k, ok := unimplementedKeywords[name]; ok {
		return token.Token{Kind: k}, nil
	}
	return tok, nil
}

func isQuotedRaw(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case '\'', '"', '`':
		return true
	default:
		return false
	}
}
