// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Package optimize implements build: the step that turns a parsed,
// parameter-keyed expression into a variable-keyed one ready for repeated
// evaluation. Grounded on expr_pre_eval and expr_node_optimize in
// dds_sql_expr.c (lines ~1940-2127).
package optimize

import (
	"fmt"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/ast"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/eval"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
)

// Build performs the three-step algorithm described in spec §4.4 against
// tr/root/c in place: it defaults every unbound parameter to integer 0,
// constant-folds the tree bottom-up (short-circuiting AND/OR/* the same
// way the evaluator does, and folding both-literal subtrees), and interns
// every surviving free identifier into c as a variable. Build switches c's
// Mode to ast.VariableMode; callers must not reference c's parameter slots
// afterward. It returns the rewritten root index, which may differ from
// root if the whole tree folded to a single literal.
func Build(tr *ast.Tree, root ast.NodeIndex, c *ast.Container) (ast.NodeIndex, error) {
	defaultUnboundParams(c)

	newRoot, err := optimizeNode(tr, root, c)
	if err != nil {
		return ast.NoNode, err
	}

	c.Mode = ast.VariableMode
	tr.SetRoot(newRoot)
	return newRoot, nil
}

// defaultUnboundParams forces every interned parameter slot that the host
// never bound to integer 0 (spec §4.4: "variables must not be defaulted —
// that's a future key-resolution error", unlike parameters).
func defaultUnboundParams(c *ast.Container) {
	for _, n := range c.ParamIndices() {
		slot := c.ParamSlot(n)
		if slot.Tok.Aff == token.None {
			c.BindParam(n, token.Int(0))
		}
	}
}

// optimizeNode rewrites the subtree rooted at idx, returning the index of
// its replacement (idx itself if nothing folded away).
func optimizeNode(tr *ast.Tree, idx ast.NodeIndex, c *ast.Container) (ast.NodeIndex, error) {
	if idx == ast.NoNode {
		return ast.NoNode, nil
	}

	n := tr.Node(idx)

	if !n.Tok.Kind.IsOperator() {
		return internLeaf(tr, idx, c)
	}

	if n.Left == ast.NoNode {
		return optimizeUnary(tr, idx, c)
	}

	return optimizeBinary(tr, idx, c)
}

// internLeaf resolves a parameter leaf to its (now-defaulted) bound value,
// and interns a surviving ID leaf as a variable, rewriting its Token to
// reference the shared slot (IsConst true, affinity NONE until the façade
// binds sample data). Literal leaves pass through unchanged.
func internLeaf(tr *ast.Tree, idx ast.NodeIndex, c *ast.Container) (ast.NodeIndex, error) {
	n := tr.Node(idx)

	switch n.Tok.Kind {
	case token.VARIABLE:
		slot := c.ParamSlot(int(n.Tok.I))
		if slot == nil {
			return ast.NoNode, fmt.Errorf("optimize: parameter ?%d has no slot", n.Tok.I)
		}
		n.Tok = slot.Tok.Dup()
		return idx, nil

	case token.ID:
		c.InternVar(string(n.Tok.S))
		n.Tok = token.Ident(n.Tok.S)
		n.Tok.IsConst = true
		return idx, nil

	default:
		return idx, nil
	}
}

func optimizeUnary(tr *ast.Tree, idx ast.NodeIndex, c *ast.Container) (ast.NodeIndex, error) {
	// Copy the fields we need by value before recursing: optimizeNode may
	// append new nodes to tr's arena, which can reallocate its backing
	// slice and invalidate any *Node obtained beforehand.
	op := tr.Node(idx).Tok
	origRight := tr.Node(idx).Right

	childIdx, err := optimizeNode(tr, origRight, c)
	if err != nil {
		return ast.NoNode, err
	}

	childTok := tr.Node(childIdx).Tok
	if !isLiteral(childTok) {
		return tr.NewUnary(op, childIdx), nil
	}

	folded, err := eval.Apply(op, nil, &childTok)
	if err != nil {
		return ast.NoNode, fmt.Errorf("optimize: fold %s: %w", op.Kind, err)
	}
	return tr.NewLeaf(folded), nil
}

func optimizeBinary(tr *ast.Tree, idx ast.NodeIndex, c *ast.Container) (ast.NodeIndex, error) {
	n := *tr.Node(idx)
	op := n.Tok

	leftFirst := tr.Node(n.Left).Height <= tr.Node(n.Right).Height

	var firstOld, secondOld ast.NodeIndex
	if leftFirst {
		firstOld, secondOld = n.Left, n.Right
	} else {
		firstOld, secondOld = n.Right, n.Left
	}

	firstNew, err := optimizeNode(tr, firstOld, c)
	if err != nil {
		return ast.NoNode, err
	}
	firstTok := tr.Node(firstNew).Tok

	if isLiteral(firstTok) {
		if short, ok := shortCircuit(op.Kind, firstTok); ok {
			return tr.NewLeaf(short), nil
		}
	}

	secondNew, err := optimizeNode(tr, secondOld, c)
	if err != nil {
		return ast.NoNode, err
	}
	secondTok := tr.Node(secondNew).Tok

	if isLiteral(firstTok) && isLiteral(secondTok) {
		var left, right token.Token
		if leftFirst {
			left, right = firstTok, secondTok
		} else {
			left, right = secondTok, firstTok
		}
		folded, err := eval.Apply(op, &left, &right)
		if err != nil {
			return ast.NoNode, fmt.Errorf("optimize: fold %s: %w", op.Kind, err)
		}
		return tr.NewLeaf(folded), nil
	}

	var newLeft, newRight ast.NodeIndex
	if leftFirst {
		newLeft, newRight = firstNew, secondNew
	} else {
		newLeft, newRight = secondNew, firstNew
	}
	return tr.NewBinary(op, newLeft, newRight), nil
}

// shortCircuit mirrors eval's short-circuit rule: the caller has already
// established that operand is a literal.
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

// isLiteral reports whether tok is a concrete, directly usable value: a
// parser-level literal, or a parameter already resolved by
// defaultUnboundParams/BindParam (affinity != NONE). A surviving free
// identifier (affinity NONE, interned or not yet interned) is never a
// literal.
func isLiteral(tok token.Token) bool {
	if tok.Kind == token.ID {
		return false
	}
	return tok.Aff != token.None
}
