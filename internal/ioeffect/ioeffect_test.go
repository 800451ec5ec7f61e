package ioeffect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ua/internal/array"
)

func TestSilentBackendPrintln(t *testing.T) {
	b := NewSilentBackend()
	require.NoError(t, b.Println(array.FromString("hi")))
	assert.Contains(t, b.Output.String(), "hi")
}

func TestSilentBackendScanLineExhausts(t *testing.T) {
	b := NewSilentBackend()
	b.Lines = []string{"one", "two"}
	l1, err := b.ScanLine()
	require.NoError(t, err)
	assert.Equal(t, "one", l1)
	l2, _ := b.ScanLine()
	assert.Equal(t, "two", l2)
	l3, _ := b.ScanLine()
	assert.Equal(t, "", l3)
}

func TestSilentBackendFileRoundTrip(t *testing.T) {
	b := NewSilentBackend()
	require.NoError(t, b.FWriteStr("a.txt", "hello\nworld"))
	s, err := b.FReadStr("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", s)
	lines, err := b.FLines("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, lines)
}

func TestSilentBackendImageRoundTrip(t *testing.T) {
	b := NewSilentBackend()
	data := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 255, 255, 255}
	v, err := array.NewBytes([]int{2, 2, 3}, data)
	require.NoError(t, err)
	require.NoError(t, b.ImWrite("out.png", v))
	got, err := b.ImRead("out.png")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 4}, got.Shape())
}

func TestInvalidImageChannels(t *testing.T) {
	v := array.FromNums([]int{2, 2, 2}, []float64{0, 0, 0, 0, 0, 0, 0, 0})
	_, err := toImage(v)
	require.Error(t, err)
	var ce *InvalidImageChannelsError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.N)
}

func TestImporterCachesByPath(t *testing.T) {
	im := NewImporter()
	calls := 0
	run := func(path string) (ImportResult, error) {
		calls++
		return ImportResult{Stack: []interface{}{path}}, nil
	}
	r1, err := im.Resolve("a.ua", run)
	require.NoError(t, err)
	r2, err := im.Resolve("a.ua", run)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, calls)
}

func TestImporterDetectsCycle(t *testing.T) {
	im := NewImporter()
	var resolveErr error
	var run func(string) (ImportResult, error)
	run = func(path string) (ImportResult, error) {
		_, resolveErr = im.Resolve(path, run)
		return ImportResult{}, resolveErr
	}
	_, err := im.Resolve("self.ua", run)
	require.Error(t, err)
	var cyc *CyclicImportError
	assert.ErrorAs(t, resolveErr, &cyc)
	_ = err
}
