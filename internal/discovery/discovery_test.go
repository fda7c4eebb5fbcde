package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonicalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
}

func TestFindParentDirectoryContainingFile(t *testing.T) {
	tmp := canonicalTempDir(t)
	touch(t, filepath.Join(tmp, "a", "marker"))
	base := filepath.Join(tmp, "a", "b", "c")
	require.NoError(t, os.MkdirAll(base, 0o755))

	found, ok := FindParentDirectoryContainingFile(base, "marker", -1)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(tmp, "a"), found)

	// Closest ancestor wins.
	touch(t, filepath.Join(tmp, "a", "b", "marker"))
	found, ok = FindParentDirectoryContainingFile(base, "marker", -1)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(tmp, "a", "b"), found)

	_, ok = FindParentDirectoryContainingFile(base, "no_such_marker", 4)
	assert.False(t, ok)
}

func TestFindParentDirectoryContainingFileBounded(t *testing.T) {
	tmp := canonicalTempDir(t)
	touch(t, filepath.Join(tmp, "marker"))
	base := filepath.Join(tmp, "a", "b", "c")
	require.NoError(t, os.MkdirAll(base, 0o755))

	// The marker sits three levels up; a bound of one stops short of it.
	_, ok := FindParentDirectoryContainingFile(base, "marker", 1)
	assert.False(t, ok)

	found, ok := FindParentDirectoryContainingFile(base, "marker", 3)
	require.True(t, ok)
	assert.Equal(t, tmp, found)
}

func TestFindParentDirectoryIgnoresDirectories(t *testing.T) {
	tmp := canonicalTempDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "a", "marker"), 0o755))
	base := filepath.Join(tmp, "a")

	_, ok := FindParentDirectoryContainingFile(base, "marker", 1)
	assert.False(t, ok)
}

func TestFindGlobalAndLocalRoot(t *testing.T) {
	tmp := canonicalTempDir(t)
	touch(t, filepath.Join(tmp, "a", ConfigurationFile))
	touch(t, filepath.Join(tmp, "a", "b", LocalConfigurationFile))
	base := filepath.Join(tmp, "a", "b", "c")
	require.NoError(t, os.MkdirAll(base, 0o755))

	found := FindGlobalAndLocalRoot(base)
	require.NotNil(t, found)
	assert.Equal(t, filepath.Join(tmp, "a"), found.GlobalRoot)
	assert.Equal(t, filepath.Join(tmp, "a", "b"), found.LocalRoot)
}

func TestFindGlobalAndLocalRootNoGlobal(t *testing.T) {
	tmp := canonicalTempDir(t)
	touch(t, filepath.Join(tmp, "a", LocalConfigurationFile))
	base := filepath.Join(tmp, "a")

	// Without a global configuration there is no project at all. The walk
	// continues above tmp, so this relies on no ancestor of the temp dir
	// carrying a real configuration file.
	assert.Nil(t, FindGlobalAndLocalRoot(base))
}

func TestFindGlobalAndLocalRootInvertedNesting(t *testing.T) {
	tmp := canonicalTempDir(t)
	// The local file is *above* the global file: the global root is deeper,
	// so the local root must be discarded.
	touch(t, filepath.Join(tmp, "a", LocalConfigurationFile))
	touch(t, filepath.Join(tmp, "a", "b", ConfigurationFile))
	base := filepath.Join(tmp, "a", "b", "c")
	require.NoError(t, os.MkdirAll(base, 0o755))

	found := FindGlobalAndLocalRoot(base)
	require.NotNil(t, found)
	assert.Equal(t, filepath.Join(tmp, "a", "b"), found.GlobalRoot)
	assert.Empty(t, found.LocalRoot)
}

func TestFindGlobalAndLocalRootSameDirectory(t *testing.T) {
	tmp := canonicalTempDir(t)
	touch(t, filepath.Join(tmp, "a", ConfigurationFile))
	touch(t, filepath.Join(tmp, "a", LocalConfigurationFile))
	base := filepath.Join(tmp, "a")

	found := FindGlobalAndLocalRoot(base)
	require.NotNil(t, found)
	assert.Equal(t, filepath.Join(tmp, "a"), found.GlobalRoot)
	assert.Empty(t, found.LocalRoot)
}

func TestRelativeLocalRoot(t *testing.T) {
	assert.Equal(t, "b/c", RelativeLocalRoot("/a", "/a/b/c"))
	assert.Equal(t, "", RelativeLocalRoot("/a", ""))
	assert.Equal(t, "", RelativeLocalRoot("/a/b", "/a"))
	assert.Equal(t, "", RelativeLocalRoot("/a/b", "/x/y"))
}
