package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ua/internal/array"
	"ua/internal/ast"
)

func TestNewAssemblyEmpty(t *testing.T) {
	a := NewAssembly()
	assert.Empty(t, a.Code)
	assert.Empty(t, a.Constants)
	assert.NotNil(t, a.Functions)
	assert.NotNil(t, a.Symbols)
}

func TestEmitReturnsIndex(t *testing.T) {
	a := NewAssembly()
	i0 := a.Emit(Instr{Op: PushConstant, Const: 0})
	i1 := a.Emit(Instr{Op: CallPrimitive, Prim: "+"})
	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)
	require.Len(t, a.Code, 2)
	assert.Equal(t, PushConstant, a.Code[0].Op)
	assert.Equal(t, "+", a.Code[1].Prim)
}

func TestAddConstantAppends(t *testing.T) {
	a := NewAssembly()
	i0 := a.AddConstant(array.ScalarNum(1))
	i1 := a.AddConstant(array.ScalarNum(2))
	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)
	assert.Len(t, a.Constants, 2)
}

func TestOpCodeString(t *testing.T) {
	assert.Equal(t, "PushConstant", PushConstant.String())
	assert.Equal(t, "EndOfAssembly", EndOfAssembly.String())
	assert.Equal(t, "Unknown", OpCode(200).String())
}

func TestFunctionTableRoundTrip(t *testing.T) {
	a := NewAssembly()
	id := ast.NewFunctionID()
	a.Functions[id] = FuncEntry{ID: id, Start: 3, Len: 5, Signature: &ast.Signature{Inputs: 1, Outputs: 1}}
	got := a.Functions[id]
	assert.Equal(t, 3, got.Start)
	assert.Equal(t, 5, got.Len)
}
