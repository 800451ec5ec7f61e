package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ua/internal/bytecode"
	"ua/internal/lexer"
	"ua/internal/parser"
)

func compileSource(t *testing.T, src string) *bytecode.Assembly {
	t.Helper()
	sc := lexer.NewScanner(src, "test.ua")
	toks := sc.ScanTokens()
	require.Empty(t, sc.Errors)
	items := parser.New(toks, "test.ua").Parse()
	asm, errs := Compile(items)
	require.Empty(t, errs)
	return asm
}

func TestCompileNumberLiteral(t *testing.T) {
	asm := compileSource(t, "1 2 +\n")
	require.NotEmpty(t, asm.Code)
	assert.Equal(t, bytecode.PushConstant, asm.Code[0].Op)
	assert.Equal(t, bytecode.PushConstant, asm.Code[1].Op)
	assert.Equal(t, bytecode.CallPrimitive, asm.Code[2].Op)
	assert.Equal(t, "+", asm.Code[2].Prim)
}

func TestCompileBindingValue(t *testing.T) {
	asm := compileSource(t, "x = 1 2 +\n")
	_, ok := asm.Symbols["x"]
	assert.True(t, ok)
	found := false
	for _, i := range asm.Code {
		if i.Op == bytecode.BindGlobal && i.Name == "x" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompileFunctionBinding(t *testing.T) {
	asm := compileSource(t, "addone = (1 +)\naddone\n")
	require.Len(t, asm.Functions, 1)
	foundCall := false
	for _, i := range asm.Code {
		if i.Op == bytecode.CallFunction {
			foundCall = true
		}
	}
	assert.True(t, foundCall)
}

func TestCompileUndefinedName(t *testing.T) {
	toks := lexer.NewScanner("nope\n", "t.ua").ScanTokens()
	items := parser.New(toks, "t.ua").Parse()
	_, errs := Compile(items)
	require.NotEmpty(t, errs)
}

func TestCompileModifierSynthesizesOperand(t *testing.T) {
	asm := compileSource(t, "[1 2 3] fold(+)\n")
	require.NotEmpty(t, asm.Functions)
	foundApply := false
	for _, i := range asm.Code {
		if i.Op == bytecode.ApplyModifier {
			foundApply = true
			require.Len(t, i.Operands, 1)
		}
	}
	assert.True(t, foundApply)
}

func TestCompileArrayLiteral(t *testing.T) {
	asm := compileSource(t, "[1 2 3]\n")
	foundMakeArray := false
	for _, i := range asm.Code {
		if i.Op == bytecode.MakeArray {
			foundMakeArray = true
		}
	}
	assert.True(t, foundMakeArray)
}
