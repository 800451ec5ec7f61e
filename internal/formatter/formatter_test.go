package formatter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatIdempotent(t *testing.T) {
	cases := []string{
		"1 2 +\n",
		"x = 1 2 +\nx\n",
		"[1 2 3] each(dup +)\n",
		"addone = (1 +)\n5 addone\n",
		"\"hello\" println\n",
	}
	for _, src := range cases {
		once, err := Format(src, "t.ua", DefaultConfig())
		require.NoError(t, err)
		twice, err := Format(once, "t.ua", DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, once, twice, "format not idempotent for %q", src)
	}
}

func TestFormatPreservesNumberText(t *testing.T) {
	out, err := Format("1_000 +\n", "t.ua", DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, out, "1_000")
}

func TestLoadConfigDefaultWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(SearchFile, dir, "")
	require.NoError(t, err)
	assert.Equal(t, "  ", cfg.Indent)
}

func TestLoadConfigSearchFileFindsUpward(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "fmt.ua"), []byte("indent = \\t\n"), 0o644))
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	cfg, err := LoadConfig(SearchFile, sub, "")
	require.NoError(t, err)
	assert.Equal(t, "\t", cfg.Indent)
}

func TestLoadConfigExplicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.ua")
	require.NoError(t, os.WriteFile(path, []byte("indent = ....\n"), 0o644))

	cfg, err := LoadConfig(Explicit, "", path)
	require.NoError(t, err)
	assert.Equal(t, "....", cfg.Indent)
}
