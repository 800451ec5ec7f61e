package driver

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ua/internal/ioeffect"
)

func TestEvalArithmetic(t *testing.T) {
	var out bytes.Buffer
	err := Eval("1 2 +\n", RunOptions{Backend: ioeffect.NewSilentBackend(), Stdout: &out})
	require.NoError(t, err)
	assert.Equal(t, "[3]\n", out.String())
}

func TestCompileRejectsUnmatchedBang(t *testing.T) {
	_, err := compile("1 2 !\n", "t.ua")
	require.Error(t, err)
}
