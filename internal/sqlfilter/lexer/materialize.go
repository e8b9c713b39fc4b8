// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package lexer

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
)

// MaterializeNumber turns an INTEGER, FLOAT, or QNUMBER slice (as classified
// by Next) into a Token carrying the parsed int64 or float64. QNUMBER
// literals contain '_' digit separators; they are stripped into a fresh
// buffer and the result is re-classified to decide whether it promotes to
// INTEGER or FLOAT, matching dds_sql_get_numeric's two-pass strategy.
func MaterializeNumber(raw []byte, kind token.Kind) (token.Token, error) {
	if kind == token.QNUMBER {
		stripped := make([]byte, 0, len(raw))
		for _, b := range raw {
			if b != '_' {
				stripped = append(stripped, b)
			}
		}
		reKind, length := scanNumber(stripped, 0)
		if length != len(stripped) || reKind == token.ILLEGAL {
			return token.Token{}, fmt.Errorf("lexer: malformed digit-separated numeric literal %q", raw)
		}
		return MaterializeNumber(stripped, reKind)
	}

	if kind == token.FLOAT {
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return token.Token{}, fmt.Errorf("lexer: invalid float literal %q: %w", raw, err)
		}
		return token.Float(f), nil
	}

	if kind != token.INTEGER {
		return token.Token{}, fmt.Errorf("lexer: MaterializeNumber called with non-numeric kind %s", kind)
	}

	if len(raw) > 1 && raw[0] == '0' && (raw[1] == 'x' || raw[1] == 'X') {
		i, err := strconv.ParseInt(string(raw[2:]), 16, 64)
		if err != nil {
			return token.Token{}, fmt.Errorf("lexer: invalid hex literal %q: %w", raw, err)
		}
		return token.Int(i), nil
	}

	i, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return token.Token{}, fmt.Errorf("lexer: invalid integer literal %q: %w", raw, err)
	}
	return token.Int(i), nil
}

// MaterializeString turns a STRING, ID, or BLOB slice (including its
// delimiters, as returned by Next) into a Token with quotes stripped and,
// for BLOB, hex pairs decoded into raw bytes. Doubled quote delimiters
// inside a STRING/ID are collapsed to one literal delimiter byte.
func MaterializeString(raw []byte, kind token.Kind) (token.Token, error) {
	switch kind {
	case token.STRING, token.ID:
		if len(raw) >= 2 && isQuote(raw[0]) && raw[len(raw)-1] == raw[0] {
			unquoted := unescapeQuoted(raw[1:len(raw)-1], raw[0])
			if kind == token.STRING {
				return token.Str(unquoted), nil
			}
			return token.Ident(unquoted), nil
		}
		// Bare identifier: no delimiters to strip.
		return token.Ident(raw), nil

	case token.BLOB:
		if len(raw) < 3 || (raw[0] != 'x' && raw[0] != 'X') || raw[1] != '\'' || raw[len(raw)-1] != '\'' {
			return token.Token{}, fmt.Errorf("lexer: malformed blob literal %q", raw)
		}
		hexDigits := raw[2 : len(raw)-1]
		decoded := make([]byte, len(hexDigits)/2)
		if _, err := hex.Decode(decoded, hexDigits); err != nil {
			return token.Token{}, fmt.Errorf("lexer: invalid blob hex %q: %w", raw, err)
		}
		return token.BlobVal(decoded), nil

	default:
		return token.Token{}, fmt.Errorf("lexer: MaterializeString called with kind %s", kind)
	}
}

// MaterializeParameter extracts N from a "?N" VARIABLE slice.
func MaterializeParameter(raw []byte) (int, error) {
	if len(raw) < 2 || raw[0] != '?' {
		return 0, fmt.Errorf("lexer: malformed parameter token %q", raw)
	}
	n, err := strconv.Atoi(string(raw[1:]))
	if err != nil {
		return 0, fmt.Errorf("lexer: malformed parameter index %q: %w", raw, err)
	}
	return n, nil
}

func isQuote(b byte) bool {
	return b == '\'' || b == '"' || b == '`'
}

func unescapeQuoted(s []byte, delim byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == delim && i+1 < len(s) && s[i+1] == delim {
			out = append(out, delim)
			i++
			continue
		}
		out = append(out, s[i])
	}
	return out
}
