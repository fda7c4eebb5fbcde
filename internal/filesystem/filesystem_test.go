package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// canonicalTempDir returns a t.TempDir with symlinks resolved, so path
// comparisons are stable even when the temp root is itself a symlink.
func canonicalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestExpandRelativePathAbsoluteIgnoresRoot(t *testing.T) {
	tmp := canonicalTempDir(t)
	target := filepath.Join(tmp, "sub", "file.py")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("x = 1\n"), 0o644))

	for _, root := range []string{"/", tmp, "/nonexistent/root"} {
		expanded, err := ExpandRelativePath(root, target)
		require.NoError(t, err)
		assert.Equal(t, target, expanded)
	}
}

func TestExpandRelativePathJoinsAndCanonicalizes(t *testing.T) {
	tmp := canonicalTempDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "a", "b"), 0o755))

	expanded, err := ExpandRelativePath(tmp, "a/b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "a", "b"), expanded)
	assert.True(t, filepath.IsAbs(expanded))

	// Idempotent: re-expanding with any root is a no-op.
	again, err := ExpandRelativePath("/some/other/root", expanded)
	require.NoError(t, err)
	assert.Equal(t, expanded, again)
}

func TestExpandRelativePathMissingTargetIsNotAnError(t *testing.T) {
	tmp := canonicalTempDir(t)
	expanded, err := ExpandRelativePath(tmp, "does/not/exist")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "does", "not", "exist"), expanded)
}

func TestExpandRelativePathResolvesSymlinks(t *testing.T) {
	tmp := canonicalTempDir(t)
	real := filepath.Join(tmp, "real")
	require.NoError(t, os.MkdirAll(real, 0o755))
	link := filepath.Join(tmp, "link")
	require.NoError(t, os.Symlink(real, link))

	expanded, err := ExpandRelativePath(tmp, "link")
	require.NoError(t, err)
	assert.Equal(t, real, expanded)
}

func TestExpandGlobalRoot(t *testing.T) {
	tmp := canonicalTempDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "sub", "dir"), 0o755))

	expanded, err := ExpandGlobalRoot("//sub/dir", tmp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "sub", "dir"), expanded)

	unchanged, err := ExpandGlobalRoot("rel/dir", tmp)
	require.NoError(t, err)
	assert.Equal(t, "rel/dir", unchanged)

	absolute, err := ExpandGlobalRoot("/abs/dir", tmp)
	require.NoError(t, err)
	assert.Equal(t, "/abs/dir", absolute)
}
