// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Package eval implements the per-operator evaluation logic shared by the
// parser's parse-time constant folder, the optimizer's build-time folder,
// and the expression evaluator proper. Grounded on dds_sql_eval_op and the
// per-operator *_op_callback functions in dds_sql_expr.c (lines ~899-1393).
package eval

import (
	"errors"
	"fmt"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/value"
)

// ErrDivideByZero is returned by SLASH and REM when the right operand is
// numeric zero.
var ErrDivideByZero = errors.New("eval: division by zero")

// Apply computes the result of applying op to its operand(s). For a
// binary operator both lhs and rhs must be non-nil; for a unary operator
// (UPLUS, UMINUS, BITNOT, NOT) lhs is nil and rhs carries the operand.
//
// Per spec §4.5, Apply first applies op's declared target affinity to
// each operand, then (for binary operators without a fixed target
// affinity, i.e. the comparison family) joins both operands to their
// shared max affinity, and only then dispatches to the operator's
// concrete computation. lhs and rhs are never mutated: Apply works on
// copies, so a caller holding a shared parameter/variable slot does not
// need to Dup() before calling so long as it passes Token values rather
// than pointers into the slot. Apply allocates only when a cast actually
// changes representation (e.g. TEXT->NUMERIC).
func Apply(op token.Token, lhs, rhs *token.Token) (token.Token, error) {
	if !op.Kind.IsOperator() {
		return token.Token{}, fmt.Errorf("eval: Apply called with non-operator kind %s", op.Kind)
	}

	if lhs == nil {
		return applyUnary(op.Kind, *rhs)
	}
	return applyBinary(op.Kind, *lhs, *rhs)
}

func applyUnary(op token.Kind, rhs token.Token) (token.Token, error) {
	target := token.OpAffinity(op)
	if _, err := value.ApplyAffinity(&rhs, target); err != nil {
		return token.Token{}, fmt.Errorf("eval: %s operand: %w", op, err)
	}

	switch op {
	case token.UPLUS:
		return rhs, nil

	case token.UMINUS:
		if rhs.Aff == token.Integer {
			return token.Int(-rhs.I), nil
		}
		return token.Float(-rhs.F), nil

	case token.BITNOT:
		return token.Int(^rhs.I), nil

	case token.NOT:
		if rhs.Truthy() {
			return token.Int(0), nil
		}
		return token.Int(1), nil

	default:
		return token.Token{}, fmt.Errorf("eval: %s is not a unary operator", op)
	}
}

func applyBinary(op token.Kind, lhs, rhs token.Token) (token.Token, error) {
	if op == token.DOT {
		return applyDot(lhs, rhs)
	}

	target := token.OpAffinity(op)
	if _, err := value.ApplyAffinity(&lhs, target); err != nil {
		return token.Token{}, fmt.Errorf("eval: %s left operand: %w", op, err)
	}
	if _, err := value.ApplyAffinity(&rhs, target); err != nil {
		return token.Token{}, fmt.Errorf("eval: %s right operand: %w", op, err)
	}

	join := token.Max(lhs.Aff, rhs.Aff)
	if _, err := value.ApplyAffinity(&lhs, join); err != nil {
		return token.Token{}, fmt.Errorf("eval: %s left operand join: %w", op, err)
	}
	if _, err := value.ApplyAffinity(&rhs, join); err != nil {
		return token.Token{}, fmt.Errorf("eval: %s right operand join: %w", op, err)
	}

	switch op {
	case token.AND:
		if lhs.Truthy() && rhs.Truthy() {
			return token.Int(1), nil
		}
		return token.Int(0), nil

	case token.OR:
		if lhs.Truthy() || rhs.Truthy() {
			return token.Int(1), nil
		}
		return token.Int(0), nil

	case token.BITAND:
		return token.Int(lhs.I & rhs.I), nil
	case token.BITOR:
		return token.Int(lhs.I | rhs.I), nil
	case token.LSHIFT:
		return token.Int(lhs.I << uint64(rhs.I)), nil
	case token.RSHIFT:
		return token.Int(lhs.I >> uint64(rhs.I)), nil

	case token.PLUS:
		if lhs.Aff == token.Integer {
			return token.Int(lhs.I + rhs.I), nil
		}
		return token.Float(lhs.F + rhs.F), nil

	case token.MINUS:
		if lhs.Aff == token.Integer {
			return token.Int(lhs.I - rhs.I), nil
		}
		return token.Float(lhs.F - rhs.F), nil

	case token.STAR:
		if lhs.Aff == token.Integer {
			return token.Int(lhs.I * rhs.I), nil
		}
		return token.Float(lhs.F * rhs.F), nil

	case token.SLASH:
		if lhs.Aff == token.Integer {
			if rhs.I == 0 {
				return token.Token{}, ErrDivideByZero
			}
			return token.Int(lhs.I / rhs.I), nil
		}
		if rhs.F == 0 {
			return token.Token{}, ErrDivideByZero
		}
		return token.Float(lhs.F / rhs.F), nil

	case token.REM:
		if lhs.Aff == token.Integer {
			if rhs.I == 0 {
				return token.Token{}, ErrDivideByZero
			}
			return token.Int(lhs.I % rhs.I), nil
		}
		if rhs.F == 0 {
			return token.Token{}, ErrDivideByZero
		}
		quot := float64(int64(lhs.F / rhs.F))
		return token.Float(lhs.F - quot*rhs.F), nil

	case token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE:
		return applyComparison(op, lhs, rhs)

	default:
		return token.Token{}, fmt.Errorf("eval: %s is not a binary operator", op)
	}
}

func applyComparison(op token.Kind, lhs, rhs token.Token) (token.Token, error) {
	c, err := value.Compare(lhs, rhs)
	if err != nil {
		return token.Token{}, fmt.Errorf("eval: %s: %w", op, err)
	}

	var result bool
	switch op {
	case token.EQ:
		result = c == 0
	case token.NE:
		result = c != 0
	case token.LT:
		result = c < 0
	case token.LE:
		result = c <= 0
	case token.GT:
		result = c > 0
	case token.GE:
		result = c >= 0
	}

	if result {
		return token.Int(1), nil
	}
	return token.Int(0), nil
}

// applyDot is the defensive path described in spec §4.5: the parser
// flattens a.b.c into one ID token at parse time, so this only runs if a
// DOT node somehow survives to evaluation. It concatenates two identifier
// names with a '.' separator.
func applyDot(lhs, rhs token.Token) (token.Token, error) {
	if lhs.Kind != token.ID {
		return token.Token{}, fmt.Errorf("eval: DOT left operand must be an identifier, got %s", lhs.Kind)
	}
	if rhs.Kind != token.ID {
		return token.Token{}, fmt.Errorf("eval: DOT right operand must be an identifier, got %s", rhs.Kind)
	}
	name := make([]byte, 0, len(lhs.S)+1+len(rhs.S))
	name = append(name, lhs.S...)
	name = append(name, '.')
	name = append(name, rhs.S...)
	return token.Ident(name), nil
}
