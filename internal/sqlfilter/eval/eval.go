// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package eval

import (
	"errors"
	"fmt"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/ast"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
)

// ErrUnboundVariable is returned when the evaluator reaches a leaf whose
// affinity is still NONE — the façade is required to bind every surviving
// variable before calling Eval (spec §4.5).
var ErrUnboundVariable = errors.New("eval: unbound variable reached during evaluation")

// ErrNonNumericResult is returned when the expression's top-level result
// does not have affinity >= NUMERIC.
var ErrNonNumericResult = errors.New("eval: top-level result is not numeric")

// Eval walks tree from root, evaluating every node, and returns the
// resulting Token. Every variable/parameter slot referenced by an ID or
// VARIABLE leaf must already be bound in c (affinity != NONE) or Eval
// returns ErrUnboundVariable. The caller (the filter façade) is
// responsible for that binding step; Eval never mutates c's slots.
func Eval(tr *ast.Tree, root ast.NodeIndex, c *ast.Container) (token.Token, error) {
	result, err := evalNode(tr, root, c)
	if err != nil {
		return token.Token{}, err
	}
	if !result.Aff.IsNumeric() {
		return token.Token{}, fmt.Errorf("%w: got affinity %s", ErrNonNumericResult, result.Aff)
	}
	return result, nil
}

func evalNode(tr *ast.Tree, idx ast.NodeIndex, c *ast.Container) (token.Token, error) {
	if idx == ast.NoNode {
		return token.Token{}, fmt.Errorf("eval: evalNode called with NoNode")
	}

	n := tr.Node(idx)

	if !n.Tok.Kind.IsOperator() {
		return resolveLeaf(n.Tok, c)
	}

	if n.Left == ast.NoNode {
		rhs, err := evalNode(tr, n.Right, c)
		if err != nil {
			return token.Token{}, err
		}
		return Apply(n.Tok, nil, &rhs)
	}

	return evalBinaryNode(tr, n, c)
}

// evalBinaryNode visits the shorter subtree first (by cached height) and
// short-circuits AND/OR/STAR when the first result alone determines the
// outcome, mirroring the optimizer's short-circuit rule (spec §4.4/§4.5).
func evalBinaryNode(tr *ast.Tree, n *ast.Node, c *ast.Container) (token.Token, error) {
	leftFirst := tr.Node(n.Left).Height <= tr.Node(n.Right).Height

	var firstIdx, secondIdx ast.NodeIndex
	if leftFirst {
		firstIdx, secondIdx = n.Left, n.Right
	} else {
		firstIdx, secondIdx = n.Right, n.Left
	}

	first, err := evalNode(tr, firstIdx, c)
	if err != nil {
		return token.Token{}, err
	}

	if short, ok := shortCircuit(n.Tok.Kind, first); ok {
		return short, nil
	}

	second, err := evalNode(tr, secondIdx, c)
	if err != nil {
		return token.Token{}, err
	}

	if leftFirst {
		return Apply(n.Tok, &first, &second)
	}
	return Apply(n.Tok, &second, &first)
}

// shortCircuit reports whether operand alone (evaluated for op ∈
// {AND, OR, STAR}) determines the final result without evaluating the
// other operand: 0 AND x -> 0, 1 OR x -> 1, 0 * x -> 0.
func shortCircuit(op token.Kind, operand token.Token) (token.Token, bool) {
	switch op {
	case token.AND:
		if operand.Aff.IsNumeric() && !operand.Truthy() {
			return token.Int(0), true
		}
	case token.OR:
		if operand.Aff.IsNumeric() && operand.Truthy() {
			return token.Int(1), true
		}
	case token.STAR:
		if operand.Aff == token.Integer && operand.I == 0 {
			return token.Int(0), true
		}
	}
	return token.Token{}, false
}

// resolveLeaf returns a leaf's value, duplicating it first if it lives in
// a shared parameter/variable slot (IsConst) so the caller never mutates
// the slot in place.
func resolveLeaf(tok token.Token, c *ast.Container) (token.Token, error) {
	if tok.Kind == token.ID || tok.Kind == token.VARIABLE {
		return resolveSlot(tok, c)
	}
	if tok.IsConst {
		return tok.Dup(), nil
	}
	return tok, nil
}

func resolveSlot(tok token.Token, c *ast.Container) (token.Token, error) {
	var slot *ast.Slot
	if tok.Kind == token.ID {
		slot = c.VarSlot(string(tok.S))
	} else {
		n, err := slotIndex(tok)
		if err != nil {
			return token.Token{}, err
		}
		slot = c.ParamSlot(n)
	}
	if slot == nil || slot.Tok.Aff == token.None {
		return token.Token{}, ErrUnboundVariable
	}
	return slot.Tok.Dup(), nil
}

func slotIndex(tok token.Token) (int, error) {
	if tok.Kind != token.VARIABLE {
		return 0, fmt.Errorf("eval: expected VARIABLE token, got %s", tok.Kind)
	}
	return int(tok.I), nil
}
