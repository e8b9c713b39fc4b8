// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package luafunc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_RejectsScriptWithoutAcceptFunction(t *testing.T) {
	_, err := Compile(context.Background(), "x = 1")
	assert.Error(t, err)
}

func TestCompile_RejectsScriptWithSyntaxError(t *testing.T) {
	_, err := Compile(context.Background(), "function accept(s")
	assert.Error(t, err)
}

func TestAccept_ReturnsScriptsBooleanResult(t *testing.T) {
	p, err := Compile(context.Background(), `
		function accept(sample)
			return string.len(sample) > 3
		end
	`)
	require.NoError(t, err)
	defer p.Close()

	ok, err := p.Accept([]byte("hello"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Accept([]byte("hi"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccept_ErrorsOnNonBooleanReturn(t *testing.T) {
	p, err := Compile(context.Background(), `
		function accept(sample)
			return 42
		end
	`)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Accept([]byte("x"))
	assert.Error(t, err)
}

func TestAccept_CannotReachBlockedLibraries(t *testing.T) {
	_, err := Compile(context.Background(), `
		function accept(sample)
			return os.time() > 0
		end
	`)
	require.NoError(t, err) // compiles fine; os is only referenced when called

	p, _ := Compile(context.Background(), `
		function accept(sample)
			return os.time() > 0
		end
	`)
	defer p.Close()
	_, err = p.Accept([]byte("x"))
	assert.Error(t, err) // os is nil in the sandboxed state
}
