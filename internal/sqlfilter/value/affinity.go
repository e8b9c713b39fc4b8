// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package value

import (
	"errors"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
)

// ErrForbiddenDemotion is returned by ApplyAffinity when asked to coerce a
// REAL-affinity value down to INTEGER affinity. SQLite allows this
// truncation; spec §4.2 forbids it outright since it silently discards
// precision the expression author never asked to lose.
var ErrForbiddenDemotion = errors.New("value: REAL to INTEGER affinity demotion is forbidden")

// ErrUnresolvedVariable is returned by ApplyAffinity when called on a
// token whose affinity is still NONE (an unbound variable or parameter)
// with a non-NONE requested affinity.
var ErrUnresolvedVariable = errors.New("value: cannot apply affinity to an unresolved variable")

// ApplyAffinity coerces tok in place to at least the requested affinity
// and returns the resulting affinity, following SQLite's column-affinity
// rules with the strict-typed-constants deviation documented in spec
// §4.2. requested == NONE always succeeds as a no-op.
func ApplyAffinity(tok *token.Token, requested token.Affinity) (token.Affinity, error) {
	if requested == token.None || tok.Aff == requested {
		return tok.Aff, nil
	}
	if tok.Aff < requested {
		return applyPromote(tok, requested)
	}
	return applyDemote(tok, requested)
}

func applyPromote(tok *token.Token, requested token.Affinity) (token.Affinity, error) {
	if tok.Aff >= token.Numeric {
		// tok.Aff < requested and tok.Aff >= Numeric forces tok.Aff ==
		// Integer and requested == Real: widen int to float.
		cast, err := Cast(*tok, token.FLOAT)
		if err != nil {
			return 0, err
		}
		*tok = cast
		return token.Real, nil
	}

	if tok.Aff == token.None {
		return 0, ErrUnresolvedVariable
	}

	// tok.Aff is Blob or Text: blob always routes through string first.
	if tok.Aff == token.Blob {
		cast, err := Cast(*tok, token.STRING)
		if err != nil {
			return 0, err
		}
		*tok = cast
	}

	if requested == token.Text {
		tok.Aff = token.Text
		return token.Text, nil
	}

	if requested == token.Numeric {
		i, f, resultAff := parseNumericTwin(tok.S)
		if resultAff == token.Integer {
			*tok = token.Int(i)
		} else {
			*tok = token.Float(f)
		}
		return resultAff, nil
	}

	destKind := token.INTEGER
	if requested == token.Real {
		destKind = token.FLOAT
	}
	cast, err := Cast(*tok, destKind)
	if err != nil {
		return 0, err
	}
	*tok = cast
	return requested, nil
}

func applyDemote(tok *token.Token, requested token.Affinity) (token.Affinity, error) {
	if requested > token.Numeric {
		// tok.Aff > requested > Numeric forces tok.Aff == Real and
		// requested == Integer: the forbidden REAL->INTEGER narrowing.
		return 0, ErrForbiddenDemotion
	}
	if requested == token.Numeric {
		// Already at least as specific as NUMERIC; no conversion needed.
		return tok.Aff, nil
	}

	if tok.Aff > token.Numeric {
		cast, err := Cast(*tok, token.STRING)
		if err != nil {
			return 0, err
		}
		*tok = cast
	}

	if requested == token.Blob {
		cast, err := Cast(*tok, token.BLOB)
		if err != nil {
			return 0, err
		}
		*tok = cast
	}

	tok.Aff = requested
	return requested, nil
}

// parseNumericTwin parses raw independently as an integer and as a real,
// per spec §4.2's TEXT->NUMERIC rule (grounded on dds_sql_apply_affinity's
// parallel-parse tie-break): Integer affinity when the two readings agree,
// Real otherwise. An unparseable string yields numeric zero with Real
// affinity, matching CAST('' AS NUMERIC) in SQLite.
func parseNumericTwin(raw []byte) (i int64, f float64, aff token.Affinity) {
	iv, iOK := parseInt(raw)
	fv, fOK := parseFloat(raw)
	if !iOK && !fOK {
		return 0, 0, token.Real
	}
	if !iOK {
		iv = int64(fv)
	}
	if !fOK {
		fv = float64(iv)
	}
	if float64(iv) == fv {
		return iv, fv, token.Integer
	}
	return iv, fv, token.Real
}
