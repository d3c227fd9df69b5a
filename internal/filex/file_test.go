package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("", "cache")
	require.NoError(t, err)

	want := filepath.Join(tmp, "cache")
	gotEval, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	wantEval, err := filepath.EvalSymlinks(want)
	require.NoError(t, err)
	require.Equal(t, wantEval, gotEval)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_NestedAndIdempotent(t *testing.T) {
	base := t.TempDir()

	p1, err := EnsureDir(base, filepath.Join("a", "b"))
	require.NoError(t, err)
	p2, err := EnsureDir(base, filepath.Join("a", "b"))
	require.NoError(t, err)
	require.Equal(t, p1, p2)
}

func TestEnsureDir_FailsWhenFileInTheWay(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "blocked"), []byte("x"), 0o600))

	_, err := EnsureDir(base, "blocked")
	require.Error(t, err)
}

func TestWriteFile_ReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")

	require.NoError(t, WriteFile(path, []byte("old")))
	require.NoError(t, WriteFile(path, []byte("new")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFile_MissingDir(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "nope", "f"), []byte("x"))
	require.Error(t, err)
}
