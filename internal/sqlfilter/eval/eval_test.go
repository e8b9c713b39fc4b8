// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/ast"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
)

// buildGreaterThanExpr constructs `2 + 3 > 4` as a tree: (2+3) > 4.
func buildGreaterThanExpr(tr *ast.Tree) ast.NodeIndex {
	two := tr.NewLeaf(token.Int(2))
	three := tr.NewLeaf(token.Int(3))
	sum := tr.NewBinary(token.NewOp(token.PLUS), two, three)
	four := tr.NewLeaf(token.Int(4))
	return tr.NewBinary(token.NewOp(token.GT), sum, four)
}

func TestEval_ArithmeticAndComparison(t *testing.T) {
	tr := ast.New()
	root := buildGreaterThanExpr(tr)
	c := ast.NewContainer(tr)

	out, err := Eval(tr, root, c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.I) // 2+3=5 > 4
}

func TestEval_VariableBinding(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)
	c.Mode = ast.VariableMode
	c.InternVar("speed")
	require.True(t, c.BindVar("speed", token.Int(42)))

	leaf := tr.NewLeaf(token.Ident([]byte("speed")))
	cmp := tr.NewBinary(token.NewOp(token.EQ), leaf, tr.NewLeaf(token.Int(42)))
	tr.SetRoot(cmp)

	out, err := Eval(tr, cmp, c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.I)
}

func TestEval_UnboundVariableErrors(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)
	c.Mode = ast.VariableMode
	c.InternVar("unset")

	leaf := tr.NewLeaf(token.Ident([]byte("unset")))
	out := tr.NewUnary(token.NewOp(token.NOT), leaf)

	_, err := Eval(tr, out, c)
	assert.ErrorIs(t, err, ErrUnboundVariable)
}

func TestEval_ParameterBinding(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)
	c.InternParam(1)
	require.True(t, c.BindParam(1, token.Int(7)))

	leaf := tr.NewLeaf(token.Token{Kind: token.VARIABLE, I: 1})
	cmp := tr.NewBinary(token.NewOp(token.LT), leaf, tr.NewLeaf(token.Int(10)))

	out, err := Eval(tr, cmp, c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.I)
}

func TestEval_AndShortCircuitsOnFalseOperand(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)
	c.Mode = ast.VariableMode
	c.InternVar("unbound") // never bound; would error if evaluated

	zero := tr.NewLeaf(token.Int(0))
	unbound := tr.NewLeaf(token.Ident([]byte("unbound")))
	// unbound has height 0 too, but zero is constructed first so ties
	// break toward the left (leftFirst on equal height).
	and := tr.NewBinary(token.NewOp(token.AND), zero, unbound)

	out, err := Eval(tr, and, c)
	require.NoError(t, err, "AND must short-circuit on a false left operand without touching the unbound right operand")
	assert.Equal(t, int64(0), out.I)
}

func TestEval_OrShortCircuitsOnTrueOperand(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)
	c.Mode = ast.VariableMode
	c.InternVar("unbound")

	one := tr.NewLeaf(token.Int(1))
	unbound := tr.NewLeaf(token.Ident([]byte("unbound")))
	or := tr.NewBinary(token.NewOp(token.OR), one, unbound)

	out, err := Eval(tr, or, c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.I)
}

func TestEval_NonNumericTopLevelResultErrors(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)
	leaf := tr.NewLeaf(token.Str([]byte("abc")))
	tr.SetRoot(leaf)

	_, err := Eval(tr, leaf, c)
	assert.ErrorIs(t, err, ErrNonNumericResult)
}

func TestEval_ParameterSlotIsDuplicatedNotMutated(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)
	c.InternParam(1)
	require.True(t, c.BindParam(1, token.Int(5)))

	// Reference ?1 twice: ?1 + ?1 > 8
	leaf1 := tr.NewLeaf(token.Token{Kind: token.VARIABLE, I: 1})
	leaf2 := tr.NewLeaf(token.Token{Kind: token.VARIABLE, I: 1})
	sum := tr.NewBinary(token.NewOp(token.PLUS), leaf1, leaf2)
	cmp := tr.NewBinary(token.NewOp(token.GT), sum, tr.NewLeaf(token.Int(8)))

	out, err := Eval(tr, cmp, c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.I) // 5+5=10 > 8

	// Slot's stored value must be unaffected by evaluation.
	assert.Equal(t, int64(5), c.ParamSlot(1).Tok.I)
}
