package primitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ua/internal/array"
)

func TestArityTable(t *testing.T) {
	for name, d := range Table {
		assert.Equal(t, name, d.Name)
		if d.IsModifier() {
			assert.Nil(t, d.Eval, "%s is a modifier, should have no Eval", name)
		}
	}
}

func TestAddEval(t *testing.T) {
	d, ok := Lookup("+")
	require.True(t, ok)
	out, err := d.Eval([]array.Value{array.ScalarNum(1), array.ScalarNum(2)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	n, _ := out[0].Nums()
	assert.Equal(t, []float64{3}, n)
}

func TestBroadcastAdd(t *testing.T) {
	d, _ := Lookup("+")
	a := array.FromNums([]int{3}, []float64{1, 2, 3})
	b := array.ScalarNum(10)
	out, err := d.Eval([]array.Value{a, b})
	require.NoError(t, err)
	n, _ := out[0].Nums()
	assert.Equal(t, []float64{11, 12, 13}, n)
}

func TestReverse(t *testing.T) {
	d, _ := Lookup("reverse")
	a := array.FromNums([]int{3}, []float64{1, 2, 3})
	out, err := d.Eval([]array.Value{a})
	require.NoError(t, err)
	n, _ := out[0].Nums()
	assert.Equal(t, []float64{3, 2, 1}, n)
}

func TestReshape(t *testing.T) {
	d, _ := Lookup("reshape")
	shape := array.FromNums([]int{2}, []float64{2, 3})
	a := array.FromNums([]int{6}, []float64{1, 2, 3, 4, 5, 6})
	out, err := d.Eval([]array.Value{shape, a})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, out[0].Shape())
}

func TestTake(t *testing.T) {
	d, _ := Lookup("take")
	a := array.FromNums([]int{4}, []float64{1, 2, 3, 4})
	out, err := d.Eval([]array.Value{array.ScalarNum(2), a})
	require.NoError(t, err)
	n, _ := out[0].Nums()
	assert.Equal(t, []float64{1, 2}, n)

	out, err = d.Eval([]array.Value{array.ScalarNum(-2), a})
	require.NoError(t, err)
	n, _ = out[0].Nums()
	assert.Equal(t, []float64{3, 4}, n)
}

func TestType(t *testing.T) {
	d, _ := Lookup("type")
	out, err := d.Eval([]array.Value{array.ScalarNum(1)})
	require.NoError(t, err)
	n, _ := out[0].Nums()
	assert.Equal(t, []float64{float64(array.Num)}, n)
}

func TestUnbox(t *testing.T) {
	d, _ := Lookup("unbox")
	a := array.ScalarNum(5)
	out, err := d.Eval([]array.Value{a})
	require.NoError(t, err)
	n, _ := out[0].Nums()
	assert.Equal(t, []float64{5}, n)
}

func TestStackArity(t *testing.T) {
	// spec invariant 5: executing a primitive p with (i,o) on a stack of
	// size n >= i yields a stack of size n - i + o.
	stack := []array.Value{array.ScalarNum(1), array.ScalarNum(2), array.ScalarNum(3)}
	d, _ := Lookup("+")
	args := stack[len(stack)-d.Inputs:]
	out, err := d.Eval(args)
	require.NoError(t, err)
	newStack := append(stack[:len(stack)-d.Inputs], out...)
	assert.Len(t, newStack, len(stack)-d.Inputs+d.Outputs)
}
