// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Package value implements affinity coercion and representation casting
// for the four concrete token kinds an expression can hold at evaluation
// time: INTEGER, FLOAT, STRING, BLOB (spec §4.2).
package value

import (
	"fmt"
	"strconv"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
)

// Cast converts tok's representation to toKind. It refuses a same-kind
// cast by returning tok unchanged, matching the original's "don't waste
// resources" short-circuit. toKind must be one of INTEGER, FLOAT, STRING,
// BLOB.
func Cast(tok token.Token, toKind token.Kind) (token.Token, error) {
	if tok.Kind == toKind {
		return tok, nil
	}

	switch toKind {
	case token.STRING:
		return castToString(tok)
	case token.BLOB:
		return castToBlob(tok)
	case token.INTEGER, token.FLOAT:
		return castToNumeric(tok, toKind)
	default:
		return token.Token{}, fmt.Errorf("value: Cast called with non-concrete destination kind %s", toKind)
	}
}

func castToString(tok token.Token) (token.Token, error) {
	switch tok.Kind {
	case token.INTEGER:
		return token.Str([]byte(strconv.FormatInt(tok.I, 10))), nil
	case token.FLOAT:
		return token.Str([]byte(strconv.FormatFloat(tok.F, 'e', -1, 64))), nil
	case token.BLOB:
		return token.Str(append([]byte(nil), tok.S...)), nil
	default:
		return token.Token{}, fmt.Errorf("value: cannot cast %s to STRING", tok.Kind)
	}
}

func castToBlob(tok token.Token) (token.Token, error) {
	if tok.Kind == token.INTEGER || tok.Kind == token.FLOAT {
		asStr, err := castToString(tok)
		if err != nil {
			return token.Token{}, err
		}
		tok = asStr
	}
	if tok.Kind != token.STRING {
		return token.Token{}, fmt.Errorf("value: cannot cast %s to BLOB", tok.Kind)
	}
	return token.BlobVal(append([]byte(nil), tok.S...)), nil
}

// castToNumeric implements the original's cast() for STRING/BLOB/FLOAT/
// INTEGER pairwise conversions. A direct STRING-to-INTEGER or -FLOAT cast
// prefers the toKind reading and falls back to the other on failure; the
// TEXT->NUMERIC affinity path calls parseInt/parseFloat independently
// instead (see parseNumericTwin in affinity.go).
func castToNumeric(tok token.Token, toKind token.Kind) (token.Token, error) {
	switch tok.Kind {
	case token.STRING, token.BLOB:
		raw := tok.S
		if tok.Kind == token.BLOB {
			asStr, err := castToString(tok)
			if err != nil {
				return token.Token{}, err
			}
			raw = asStr.S
		}
		if toKind == token.INTEGER {
			if iv, ok := parseInt(raw); ok {
				return token.Int(iv), nil
			}
			fv, _ := parseFloat(raw)
			return token.Int(int64(fv)), nil
		}
		if fv, ok := parseFloat(raw); ok {
			return token.Float(fv), nil
		}
		iv, _ := parseInt(raw)
		return token.Float(float64(iv)), nil

	case token.INTEGER:
		if toKind == token.FLOAT {
			return token.Float(float64(tok.I)), nil
		}
		return tok, nil

	case token.FLOAT:
		if toKind == token.INTEGER {
			return token.Int(int64(tok.F)), nil
		}
		return tok, nil

	default:
		return token.Token{}, fmt.Errorf("value: cannot cast %s to numeric", tok.Kind)
	}
}

// parseInt reports whether raw parses in full as a base-10 int64.
func parseInt(raw []byte) (int64, bool) {
	iv, err := strconv.ParseInt(string(raw), 10, 64)
	return iv, err == nil
}

// parseFloat reports whether raw parses in full as a float64.
func parseFloat(raw []byte) (float64, bool) {
	fv, err := strconv.ParseFloat(string(raw), 64)
	return fv, err == nil
}
