// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package luafunc

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Predicate wraps one compiled Lua script exposing a global `accept`
// function, used as the function-filter variant's callback (spec §4.6,
// SPEC_FULL.md §3: "the DSL here has no notion of plugins or events, only
// a single pure predicate call per sample"). Unlike the teacher's plugin
// host, there is no event bus, no registered handler table, and no
// emitted side effects: one script, one function, one boolean return per
// sample. The underlying Lua state is loaded once at Compile and reused
// across calls, matching the façade's single-threaded-per-instance,
// no-reentrancy assumption (spec §5) — callers must not call Accept
// concurrently on the same Predicate.
type Predicate struct {
	state *lua.LState
	fn    *lua.LFunction
}

// Compile loads script into a fresh sandboxed state and verifies it
// defines a callable `accept` global, failing fast at filter-creation
// time rather than on the first sample.
func Compile(ctx context.Context, script string) (*Predicate, error) {
	factory := NewStateFactory()
	L, err := factory.NewState(ctx)
	if err != nil {
		return nil, err
	}
	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("luafunc: loading script: %w", err)
	}

	fn, ok := L.GetGlobal("accept").(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("luafunc: script does not define a function named accept")
	}

	return &Predicate{state: L, fn: fn}, nil
}

// Accept calls accept(sample) over data and returns its boolean result.
func (p *Predicate) Accept(data []byte) (bool, error) {
	if err := p.state.CallByParam(lua.P{
		Fn:      p.fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(data)); err != nil {
		return false, fmt.Errorf("luafunc: accept call failed: %w", err)
	}

	ret := p.state.Get(-1)
	p.state.Pop(1)

	b, ok := ret.(lua.LBool)
	if !ok {
		return false, fmt.Errorf("luafunc: accept must return a boolean, got %s", ret.Type())
	}
	return bool(b), nil
}

// Close releases the predicate's underlying Lua state. Callers must call
// Close when the owning Filter is freed.
func (p *Predicate) Close() {
	p.state.Close()
}
