package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeInvariant(t *testing.T) {
	v := FromNums([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, v.CheckInvariant())
	assert.Equal(t, 2, v.Rank())
	assert.Equal(t, []int{2, 3}, v.Shape())
}

func TestNewNumsRejectsMismatch(t *testing.T) {
	_, err := NewNums([]int{2, 2}, []float64{1, 2, 3})
	require.Error(t, err)
}

func TestReshape(t *testing.T) {
	v := FromNums([]int{6}, []float64{1, 2, 3, 4, 5, 6})
	r, err := v.Reshape([]int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, r.Shape())

	_, err = v.Reshape([]int{2, 2})
	assert.Error(t, err)
}

func TestRowsAndRow(t *testing.T) {
	v := FromNums([]int{2, 2}, []float64{1, 2, 3, 4})
	rows, err := v.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	n0, _ := rows[0].Nums()
	assert.Equal(t, []float64{1, 2}, n0)

	_, err = v.Row(5)
	assert.Error(t, err)

	scalar := ScalarNum(1)
	_, err = scalar.Row(0)
	assert.Error(t, err)
	var rankErr *RankTooLowError
	assert.ErrorAs(t, err, &rankErr)
}

func TestConcatenateAxis0(t *testing.T) {
	a := FromNums([]int{2, 2}, []float64{1, 2, 3, 4})
	b := FromNums([]int{1, 2}, []float64{5, 6})
	c, err := ConcatenateAxis0(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, c.Shape())

	mismatched := FromNums([]int{1, 3}, []float64{1, 2, 3})
	_, err = ConcatenateAxis0(a, mismatched)
	assert.Error(t, err)
}

func TestEqual(t *testing.T) {
	a := FromNums([]int{2}, []float64{1, 2})
	b := FromNums([]int{2}, []float64{1, 2})
	assert.True(t, a.Equal(b))

	byteVal, err := NewBytes([]int{1}, []byte{3})
	require.NoError(t, err)
	numVal := FromNums([]int{1}, []float64{3})
	assert.True(t, byteVal.Equal(numVal), "byte 3 should equal number 3.0")

	charVal := FromString("a")
	assert.False(t, charVal.Equal(numVal))
}

func TestByteCoercion(t *testing.T) {
	v := FromNums([]int{3}, []float64{-1, 10.9, 300})
	b, err := v.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 10, 255}, b)
}

func TestStringRoundTrip(t *testing.T) {
	v := FromString("hello")
	assert.True(t, v.IsChars())
	s, err := v.AsPath()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	_, err = FromNums([]int{1}, []float64{1}).AsPath()
	assert.Error(t, err)
}

func TestBroadcastShapes(t *testing.T) {
	out, err := BroadcastShapes([]int{3, 1}, []int{1, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, out)

	_, err = BroadcastShapes([]int{3}, []int{4})
	assert.Error(t, err)
}
