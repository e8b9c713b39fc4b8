// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package value

import (
	"bytes"
	"fmt"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
)

// Compare returns -1, 0, or 1 per the usual convention, comparing two
// tokens that already share a representation (same Kind, per the
// evaluator's max-affinity join in spec §4.5): INTEGER by signed 64-bit
// comparison, REAL by strict inequality with no epsilon, STRING/BLOB by
// length-then-lexicographic comparison with the shorter length as the
// prefix bound.
func Compare(a, b token.Token) (int, error) {
	if a.Kind != b.Kind {
		return 0, fmt.Errorf("value: Compare called on mismatched kinds %s and %s", a.Kind, b.Kind)
	}

	switch a.Kind {
	case token.INTEGER:
		switch {
		case a.I < b.I:
			return -1, nil
		case a.I > b.I:
			return 1, nil
		default:
			return 0, nil
		}

	case token.FLOAT:
		switch {
		case a.F < b.F:
			return -1, nil
		case a.F > b.F:
			return 1, nil
		default:
			return 0, nil
		}

	case token.STRING, token.BLOB, token.ID:
		n := len(a.S)
		if len(b.S) < n {
			n = len(b.S)
		}
		if c := bytes.Compare(a.S[:n], b.S[:n]); c != 0 {
			return c, nil
		}
		switch {
		case len(a.S) < len(b.S):
			return -1, nil
		case len(a.S) > len(b.S):
			return 1, nil
		default:
			return 0, nil
		}

	default:
		return 0, fmt.Errorf("value: Compare called on non-comparable kind %s", a.Kind)
	}
}
