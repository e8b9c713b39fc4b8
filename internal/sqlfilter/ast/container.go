// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package ast

import "github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"

// SlotMode distinguishes the two lifecycle phases of a Container's slot
// map, matching spec §3's "Expression container": parameter mode during
// parsing (keyed by 1-based positional index), variable mode after
// optimization (keyed by dotted identifier name).
type SlotMode int

// Slot modes.
const (
	ParameterMode SlotMode = iota
	VariableMode
)

// Slot is an immutable handle into a Container's side table (spec §9):
// tree nodes referencing a parameter or variable store the Slot's index,
// never the Token directly, so rebinding a parameter is a side-table
// rewrite with no tree traversal.
type Slot struct {
	Tok token.Token // IsConst is always true on a slot's Token
}

// Container wraps an expression tree together with its parameter/variable
// slot map and the diagnostic error offset from parsing, if any.
type Container struct {
	Tree *Tree
	Mode SlotMode

	// paramSlots is keyed by 1-based positional index in ParameterMode.
	paramSlots map[int]*Slot
	paramOrder []int

	// varSlots is keyed by dotted identifier name in VariableMode.
	varSlots map[string]*Slot
	varOrder []string

	// ErrPos is the byte offset of the first malformed token encountered
	// while building this container, or -1 if parsing succeeded.
	ErrPos int
}

// NewContainer returns an empty parameter-mode Container over tree.
func NewContainer(tree *Tree) *Container {
	return &Container{
		Tree:       tree,
		Mode:       ParameterMode,
		paramSlots: make(map[int]*Slot),
		varSlots:   make(map[string]*Slot),
		ErrPos:     -1,
	}
}

// InternParam returns the existing slot for positional index n, creating
// one (Token affinity NONE, IsConst true) if this is the first occurrence.
// Per spec §4.3, every subsequent occurrence of the same ?N reuses the
// first slot so binding it once affects every use in the tree.
func (c *Container) InternParam(n int) *Slot {
	if s, ok := c.paramSlots[n]; ok {
		return s
	}
	s := &Slot{Tok: token.Token{Kind: token.VARIABLE, Aff: token.None, IsConst: true}}
	c.paramSlots[n] = s
	c.paramOrder = append(c.paramOrder, n)
	return s
}

// BindParam sets parameter n's value. Returns false if n was never
// interned by the parser (spec §6: "indices ... must each have appeared in
// the expression").
func (c *Container) BindParam(n int, val token.Token) bool {
	s, ok := c.paramSlots[n]
	if !ok {
		return false
	}
	val.IsConst = true
	s.Tok = val
	return true
}

// ParamIndices returns the distinct positional indices interned during
// parsing, in first-occurrence order.
func (c *Container) ParamIndices() []int {
	return append([]int(nil), c.paramOrder...)
}

// ParamSlot returns parameter n's slot, or nil if not interned.
func (c *Container) ParamSlot(n int) *Slot {
	return c.paramSlots[n]
}

// InternVar returns the existing slot for dotted name, creating one if
// this is the first time it has been interned. Used by the optimizer to
// switch the container into VariableMode.
func (c *Container) InternVar(name string) *Slot {
	if s, ok := c.varSlots[name]; ok {
		return s
	}
	s := &Slot{Tok: token.Token{Kind: token.ID, Aff: token.None, IsConst: true}}
	c.varSlots[name] = s
	c.varOrder = append(c.varOrder, name)
	return s
}

// BindVar sets variable name's value. Returns false if name was never
// interned by the optimizer.
func (c *Container) BindVar(name string, val token.Token) bool {
	s, ok := c.varSlots[name]
	if !ok {
		return false
	}
	val.IsConst = true
	s.Tok = val
	return true
}

// VarNames returns the distinct surviving variable names, in
// first-occurrence order. After Build, these correspond one-to-one to the
// sample fields the evaluator needs (spec §4.4).
func (c *Container) VarNames() []string {
	return append([]string(nil), c.varOrder...)
}

// VarSlot returns variable name's slot, or nil if not interned.
func (c *Container) VarSlot(name string) *Slot {
	return c.varSlots[name]
}

// NParams returns the number of surviving distinct slots in the
// container's current mode — parameters in ParameterMode, variables in
// VariableMode (spec §4.4: "nparams equals the number of surviving
// distinct identifier names" after Build).
func (c *Container) NParams() int {
	if c.Mode == ParameterMode {
		return len(c.paramOrder)
	}
	return len(c.varOrder)
}
