package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ua/internal/compiler"
	"ua/internal/ioeffect"
	"ua/internal/lexer"
	"ua/internal/parser"
)

func run(t *testing.T, src string) (*VM, error) {
	t.Helper()
	sc := lexer.NewScanner(src, "t.ua")
	toks := sc.ScanTokens()
	require.Empty(t, sc.Errors)
	items := parser.New(toks, "t.ua").Parse()
	asm, errs := compiler.Compile(items)
	require.Empty(t, errs)
	m := New(asm, ioeffect.NewSilentBackend())
	err := m.Run()
	return m, err
}

func TestArithmetic(t *testing.T) {
	m, err := run(t, "1 2 +\n")
	require.NoError(t, err)
	require.Len(t, m.Stack(), 1)
	n, _ := m.Stack()[0].Nums()
	assert.Equal(t, []float64{3}, n)
}

func TestStackUnderflow(t *testing.T) {
	_, err := run(t, "1 +\n")
	require.Error(t, err)
}

func TestBindingAndReference(t *testing.T) {
	m, err := run(t, "x = 1 2 +\nx\n")
	require.NoError(t, err)
	require.Len(t, m.Stack(), 1)
}

func TestFunctionCall(t *testing.T) {
	m, err := run(t, "addone = (1 +)\n5 addone\n")
	require.NoError(t, err)
	require.Len(t, m.Stack(), 1)
	n, _ := m.Stack()[0].Nums()
	assert.Equal(t, []float64{6}, n)
}

func TestFoldModifier(t *testing.T) {
	m, err := run(t, "[1 2 3 4] fold(+)\n")
	require.NoError(t, err)
	require.Len(t, m.Stack(), 1)
	n, _ := m.Stack()[0].Nums()
	assert.Equal(t, []float64{10}, n)
}

func TestEachModifier(t *testing.T) {
	m, err := run(t, "[1 2 3] each(dup +)\n")
	require.NoError(t, err)
	require.Len(t, m.Stack(), 1)
	n, _ := m.Stack()[0].Nums()
	assert.Equal(t, []float64{2, 4, 6}, n)
}

func TestDipModifier(t *testing.T) {
	m, err := run(t, "1 2 3 dip(+)\n")
	require.NoError(t, err)
	n, _ := m.Stack()[0].Nums()
	assert.Equal(t, []float64{3}, n)
	n2, _ := m.Stack()[1].Nums()
	assert.Equal(t, []float64{3}, n2)
}

func TestIoWriteStrOperandOrder(t *testing.T) {
	toks := lexer.NewScanner("\"hello\" \"a.txt\" fwritestr\n", "t.ua").ScanTokens()
	items := parser.New(toks, "t.ua").Parse()
	asm, errs := compiler.Compile(items)
	require.Empty(t, errs)
	backend := ioeffect.NewSilentBackend()
	m := New(asm, backend)
	require.NoError(t, m.Run())
	assert.Equal(t, []byte("hello"), backend.Files["a.txt"])
}

func TestIoOpPrintlnToSilentBackend(t *testing.T) {
	toks := lexer.NewScanner("\"hi\" println\n", "t.ua").ScanTokens()
	items := parser.New(toks, "t.ua").Parse()
	asm, errs := compiler.Compile(items)
	require.Empty(t, errs)
	backend := ioeffect.NewSilentBackend()
	m := New(asm, backend)
	require.NoError(t, m.Run())
	assert.Contains(t, backend.Output.String(), "hi")
}
