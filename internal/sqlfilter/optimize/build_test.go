// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/ast"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/eval"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
)

func TestBuild_FoldsBothLiteralSubtree(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)

	// 2 + 3 > speed
	two := tr.NewLeaf(token.Int(2))
	three := tr.NewLeaf(token.Int(3))
	sum := tr.NewBinary(token.NewOp(token.PLUS), two, three)
	speed := tr.NewLeaf(token.Ident([]byte("speed")))
	root := tr.NewBinary(token.NewOp(token.GT), sum, speed)

	newRoot, err := Build(tr, root, c)
	require.NoError(t, err)

	n := tr.Node(newRoot)
	assert.Equal(t, token.GT, n.Tok.Kind)
	// The folded left side (2+3=5) must have become a single literal leaf.
	left := tr.Node(n.Left)
	assert.Equal(t, token.INTEGER, left.Tok.Kind)
	assert.Equal(t, int64(5), left.Tok.I)
}

func TestBuild_DefaultsUnboundParameterToZero(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)
	c.InternParam(1) // never bound

	leaf := tr.NewLeaf(token.Token{Kind: token.VARIABLE, I: 1})
	root := tr.NewUnary(token.NewOp(token.NOT), leaf)

	newRoot, err := Build(tr, root, c)
	require.NoError(t, err)

	out, err := eval.Eval(tr, newRoot, c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.I) // NOT 0 == 1
}

func TestBuild_InternsSurvivingVariable(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)

	leaf := tr.NewLeaf(token.Ident([]byte("engine.rpm")))
	root := tr.NewBinary(token.NewOp(token.GT), leaf, tr.NewLeaf(token.Int(1000)))

	_, err := Build(tr, root, c)
	require.NoError(t, err)

	assert.Equal(t, ast.VariableMode, c.Mode)
	assert.Contains(t, c.VarNames(), "engine.rpm")
}

func TestBuild_ShortCircuitsAndWithoutTouchingVariableSide(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)

	zero := tr.NewLeaf(token.Int(0))
	unresolved := tr.NewLeaf(token.Ident([]byte("unresolved")))
	root := tr.NewBinary(token.NewOp(token.AND), zero, unresolved)

	newRoot, err := Build(tr, root, c)
	require.NoError(t, err)

	n := tr.Node(newRoot)
	assert.Equal(t, token.INTEGER, n.Tok.Kind)
	assert.Equal(t, int64(0), n.Tok.I)
	// The short-circuited-away variable must never have been interned.
	assert.Empty(t, c.VarNames())
}

func TestBuild_ShortCircuitsStarOnZero(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)

	zero := tr.NewLeaf(token.Int(0))
	unresolved := tr.NewLeaf(token.Ident([]byte("unresolved")))
	root := tr.NewBinary(token.NewOp(token.STAR), zero, unresolved)

	newRoot, err := Build(tr, root, c)
	require.NoError(t, err)

	n := tr.Node(newRoot)
	assert.Equal(t, int64(0), n.Tok.I)
	assert.Empty(t, c.VarNames())
}

func TestBuild_KeepsOperatorNodeWhenOneSideIsVariable(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)

	speed := tr.NewLeaf(token.Ident([]byte("speed")))
	limit := tr.NewLeaf(token.Int(100))
	root := tr.NewBinary(token.NewOp(token.LE), speed, limit)

	newRoot, err := Build(tr, root, c)
	require.NoError(t, err)

	n := tr.Node(newRoot)
	assert.Equal(t, token.LE, n.Tok.Kind)

	require.True(t, c.BindVar("speed", token.Int(50)))
	out, err := eval.Eval(tr, newRoot, c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.I)
}

func TestBuild_FoldsUnaryOperatorOverLiteral(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)

	five := tr.NewLeaf(token.Int(5))
	root := tr.NewUnary(token.NewOp(token.UMINUS), five)

	newRoot, err := Build(tr, root, c)
	require.NoError(t, err)

	n := tr.Node(newRoot)
	assert.Equal(t, token.INTEGER, n.Tok.Kind)
	assert.Equal(t, int64(-5), n.Tok.I)
}

func TestBuild_WholeTreeFoldsToSingleLiteral(t *testing.T) {
	tr := ast.New()
	c := ast.NewContainer(tr)

	two := tr.NewLeaf(token.Int(2))
	three := tr.NewLeaf(token.Int(3))
	root := tr.NewBinary(token.NewOp(token.PLUS), two, three)

	newRoot, err := Build(tr, root, c)
	require.NoError(t, err)

	out, err := eval.Eval(tr, newRoot, c)
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.I)
}
