package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.Equal(t, home, ExpandHome("~"))
	require.Equal(t, filepath.Join(home, "data"), ExpandHome("~/data"))
	require.Equal(t, "~other/data", ExpandHome("~other/data"))
	require.Equal(t, "/abs", ExpandHome("/abs"))
}

func TestResolveDataDir(t *testing.T) {
	dir := t.TempDir()
	require.Equal(t, ".buddy", ResolveDataDir(""))
	require.Equal(t, dir, ResolveDataDir(dir+"/"))

	shared := filepath.Join(dir, "shared")
	local := filepath.Join(dir, "local")
	require.NoError(t, os.MkdirAll(local, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(local, "redirect"), []byte("../shared\n"), 0o600))
	require.Equal(t, shared, ResolveDataDir(local))

	abs := filepath.Join(dir, "abs")
	require.NoError(t, os.WriteFile(filepath.Join(local, "redirect"), []byte(abs), 0o600))
	require.Equal(t, abs, ResolveDataDir(local))

	require.NoError(t, os.WriteFile(filepath.Join(local, "redirect"), []byte("  \n"), 0o600))
	require.Equal(t, local, ResolveDataDir(local))
}
