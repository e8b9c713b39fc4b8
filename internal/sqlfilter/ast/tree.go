// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Package ast implements the expression tree as an arena of nodes indexed
// by integer handle rather than linked by raw pointer. This sidesteps the
// parent-back-link lifetime tangles the original C tree has around
// constant-folded subtrees (spec §9): a folded subtree's nodes simply
// become unreachable garbage in the arena, collected the normal way, and
// the optimizer rewrites a NodeIndex in the parent rather than freeing and
// relinking pointers.
package ast

import "github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"

// NodeIndex is a handle into a Tree's arena. NoNode means "no child" (used
// for unary operators' unused left child, and for a leaf's two children).
type NodeIndex int

// NoNode is the index of "no node". It is negative so it never collides
// with a real arena index; the first node added to a Tree gets index 0.
const NoNode NodeIndex = -1

// Node is one tree node: an operator or leaf Token, optional children, and
// a cached subtree height used by the optimizer and evaluator to choose a
// short-circuit-friendly visit order. Unary operators (NOT, UMINUS, UPLUS,
// BITNOT) store their single operand in Right; Left is NoNode.
type Node struct {
	Tok    token.Token
	Left   NodeIndex
	Right  NodeIndex
	Height int
}

// Tree owns the node arena for one parsed (or optimized) expression.
type Tree struct {
	nodes []Node
	root  NodeIndex
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{root: NoNode}
}

// Root returns the tree's root node index, or NoNode if the tree is empty.
func (t *Tree) Root() NodeIndex { return t.root }

// SetRoot sets the tree's root node index.
func (t *Tree) SetRoot(n NodeIndex) { t.root = n }

// Node returns the node at index n. Callers must not call this with
// NoNode; Left/Right/Root must be checked against NoNode first.
func (t *Tree) Node(n NodeIndex) *Node {
	return &t.nodes[n]
}

// NewLeaf appends a leaf node (Left = Right = NoNode, Height = 0) and
// returns its index.
func (t *Tree) NewLeaf(tok token.Token) NodeIndex {
	t.nodes = append(t.nodes, Node{Tok: tok, Left: NoNode, Right: NoNode, Height: 0})
	return NodeIndex(len(t.nodes) - 1)
}

// NewUnary appends a unary operator node (Left = NoNode) whose operand is
// child, and returns its index.
func (t *Tree) NewUnary(op token.Token, child NodeIndex) NodeIndex {
	height := 1 + t.heightOf(child)
	t.nodes = append(t.nodes, Node{Tok: op, Left: NoNode, Right: child, Height: height})
	return NodeIndex(len(t.nodes) - 1)
}

// NewBinary appends a binary operator node and returns its index.
func (t *Tree) NewBinary(op token.Token, left, right NodeIndex) NodeIndex {
	height := 1 + maxInt(t.heightOf(left), t.heightOf(right))
	t.nodes = append(t.nodes, Node{Tok: op, Left: left, Right: right, Height: height})
	return NodeIndex(len(t.nodes) - 1)
}

func (t *Tree) heightOf(n NodeIndex) int {
	if n == NoNode {
		return -1
	}
	return t.nodes[n].Height
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Walk visits every node reachable from root in post-order (children
// before parent), calling visit with each node's index. Used by the
// variable-interning and reference-collection passes.
func (t *Tree) Walk(root NodeIndex, visit func(NodeIndex)) {
	if root == NoNode {
		return
	}
	n := t.nodes[root]
	t.Walk(n.Left, visit)
	t.Walk(n.Right, visit)
	visit(root)
}
