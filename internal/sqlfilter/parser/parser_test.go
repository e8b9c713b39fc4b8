// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package parser

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/ast"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
)

func mustParse(t *testing.T, src string) (*ast.Tree, *ast.Container) {
	t.Helper()
	tr, c, err := Parse([]byte(src))
	require.NoError(t, err)
	return tr, c
}

func TestParse_ArithmeticPrecedence(t *testing.T) {
	// 2 + 3 * 4 must fold to 14, not 20: * binds tighter than +.
	tr, _ := mustParse(t, "2 + 3 * 4")
	root := tr.Node(tr.Root())
	assert.Equal(t, token.INTEGER, root.Tok.Kind)
	assert.Equal(t, int64(14), root.Tok.I)
}

func TestParse_ParenthesesOverridePrecedence(t *testing.T) {
	tr, _ := mustParse(t, "(2 + 3) * 4")
	root := tr.Node(tr.Root())
	assert.Equal(t, int64(20), root.Tok.I)
}

func TestParse_ComparisonAndLogicalPrecedence(t *testing.T) {
	// a AND b = 1 must parse as a AND (b = 1), since = binds tighter than AND.
	tr, _ := mustParse(t, "a AND b = 1")
	root := tr.Node(tr.Root())
	require.Equal(t, token.AND, root.Tok.Kind)
	lhs := tr.Node(root.Left)
	assert.Equal(t, token.ID, lhs.Tok.Kind)
	assert.Equal(t, "a", string(lhs.Tok.S))
	rhs := tr.Node(root.Right)
	assert.Equal(t, token.EQ, rhs.Tok.Kind)
}

func TestParse_NotBindsLooserThanComparisonTighterThanAnd(t *testing.T) {
	// NOT a = b AND c must parse as (NOT (a = b)) AND c.
	tr, _ := mustParse(t, "NOT a = b AND c")
	root := tr.Node(tr.Root())
	require.Equal(t, token.AND, root.Tok.Kind)
	lhs := tr.Node(root.Left)
	require.Equal(t, token.NOT, lhs.Tok.Kind)
	inner := tr.Node(lhs.Right)
	assert.Equal(t, token.EQ, inner.Tok.Kind)
}

func TestParse_UnaryMinusFoldsOverLiteral(t *testing.T) {
	tr, _ := mustParse(t, "-5")
	root := tr.Node(tr.Root())
	assert.Equal(t, token.INTEGER, root.Tok.Kind)
	assert.Equal(t, int64(-5), root.Tok.I)
}

func TestParse_DotFlattensToSingleIdentifier(t *testing.T) {
	tr, _ := mustParse(t, "a.b.c > 1")
	root := tr.Node(tr.Root())
	require.Equal(t, token.GT, root.Tok.Kind)
	left := tr.Node(root.Left)
	assert.Equal(t, token.ID, left.Tok.Kind)
	assert.Equal(t, "a.b.c", string(left.Tok.S))
}

func TestParse_ParameterInterningReusesSlotAcrossOccurrences(t *testing.T) {
	tr, c := mustParse(t, "?1 + ?1 > ?2")
	assert.Equal(t, []int{1, 2}, c.ParamIndices())
	_ = tr
}

func TestParse_ConstantFoldsBothLiteralSubexpression(t *testing.T) {
	// The left side is both-literal and folds to 3 at parse time; the right
	// side is a free identifier, so the AND node itself cannot fold yet.
	tr, _ := mustParse(t, "(1 + 2) AND speed")
	root := tr.Node(tr.Root())
	require.Equal(t, token.AND, root.Tok.Kind)
	left := tr.Node(root.Left)
	assert.Equal(t, token.INTEGER, left.Tok.Kind)
	assert.Equal(t, int64(3), left.Tok.I)
	right := tr.Node(root.Right)
	assert.Equal(t, token.ID, right.Tok.Kind)
	assert.Equal(t, "speed", string(right.Tok.S))
}

func TestParse_RejectsLikeAsUnsupported(t *testing.T) {
	_, _, err := Parse([]byte("a LIKE 'b'"))
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "UNSUPPORTED", oopsErr.Code())
}

func TestParse_ErrorOffset_IncompleteParameter(t *testing.T) {
	_, c, err := Parse([]byte("?1 + ?"))
	require.Error(t, err)
	assert.Equal(t, 6, c.ErrPos)
}

func TestParse_ErrorOffset_DeeplyNestedUnexpectedCloseParen(t *testing.T) {
	_, c, err := Parse([]byte("((c == (((6 OR ((7 AND ((8 OR (g == )))))))))"))
	require.Error(t, err)
	assert.Equal(t, 37, c.ErrPos)
}

func TestParse_ErrorOffset_UnexpectedComparisonOperator(t *testing.T) {
	_, c, err := Parse([]byte("0 AND bib -<> bob"))
	require.Error(t, err)
	assert.Equal(t, 13, c.ErrPos)
}

func TestParse_ErrorOffset_LeadingDot(t *testing.T) {
	_, c, err := Parse([]byte(".a"))
	require.Error(t, err)
	assert.Equal(t, 1, c.ErrPos)
}

func TestParse_TrailingGarbageErrors(t *testing.T) {
	_, _, err := Parse([]byte("1 + 1 2"))
	assert.Error(t, err)
}
