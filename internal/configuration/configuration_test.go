package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrecheck/pyre-client/internal/discovery"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestExpandRelativePathsLayer(t *testing.T) {
	tmp := canonicalTempDir(t)
	partial := &PartialConfiguration{
		Binary:              stringPointer("bin/pyre.bin"),
		Logger:              stringPointer("/usr/bin/logger"),
		Typeshed:            stringPointer("typeshed"),
		DoNotIgnoreErrorsIn: []string{"core"},
		IgnoreAllErrors:     []string{"legacy"},
		OtherCriticalFiles:  []string{"setup.py"},
		TaintModelsPath:     []string{"models"},
		SearchPath:          []SimpleRawElement{{Root: "stubs"}, {Root: "//typings"}},
		SourceDirectories:   []SimpleRawElement{{Root: "src"}},
		UnwatchedDependency: &UnwatchedDependency{
			ChangeIndicator: "indicator",
			Files:           UnwatchedFiles{Root: "third_party", ChecksumPath: "CHECKSUMS"},
		},
	}

	expanded, err := partial.ExpandRelativePaths(tmp)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmp, "bin", "pyre.bin"), *expanded.Binary)
	// Already-absolute paths are untouched.
	assert.Equal(t, "/usr/bin/logger", *expanded.Logger)
	assert.Equal(t, filepath.Join(tmp, "typeshed"), *expanded.Typeshed)
	assert.Equal(t, []string{filepath.Join(tmp, "core")}, expanded.DoNotIgnoreErrorsIn)
	assert.Equal(t, []string{filepath.Join(tmp, "legacy")}, expanded.IgnoreAllErrors)
	assert.Equal(t, []string{filepath.Join(tmp, "setup.py")}, expanded.OtherCriticalFiles)
	assert.Equal(t, []string{filepath.Join(tmp, "models")}, expanded.TaintModelsPath)
	assert.Equal(t, filepath.Join(tmp, "stubs"), expanded.SearchPath[0].Root)
	// Project-root-relative entries wait for assembly.
	assert.Equal(t, "//typings", expanded.SearchPath[1].Root)
	assert.Equal(t, filepath.Join(tmp, "src"), expanded.SourceDirectories[0].Root)
	assert.Equal(t, filepath.Join(tmp, "third_party"), expanded.UnwatchedDependency.Files.Root)
	assert.Equal(t, "CHECKSUMS", expanded.UnwatchedDependency.Files.ChecksumPath)

	// The input layer is never mutated.
	assert.Equal(t, "bin/pyre.bin", *partial.Binary)
	assert.Equal(t, "third_party", partial.UnwatchedDependency.Files.Root)

	// Re-expanding is a no-op regardless of root.
	again, err := expanded.ExpandRelativePaths("/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, *expanded.Binary, *again.Binary)
	assert.Equal(t, expanded.DoNotIgnoreErrorsIn, again.DoNotIgnoreErrorsIn)
}

func TestCreateLayeredProject(t *testing.T) {
	tmp := canonicalTempDir(t)
	writeFile(t, filepath.Join(tmp, "a", discovery.ConfigurationFile), `{
		"strict": true,
		"workers": 4,
		"binary": "bin/pyre.bin",
		"search_path": ["stubs"],
		"do_not_ignore_errors_in": ["core"]
	}`)
	writeFile(t, filepath.Join(tmp, "a", "b", discovery.LocalConfigurationFile), `{
		"workers": 8,
		"do_not_ignore_errors_in": ["local_core"]
	}`)
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "a", "stubs"), 0o755))
	base := filepath.Join(tmp, "a", "b", "c")
	require.NoError(t, os.MkdirAll(base, 0o755))

	resolved, warnings, err := Create(CommandArguments{}, base)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, filepath.Join(tmp, "a"), resolved.ProjectRoot)
	assert.Equal(t, "b", resolved.RelativeLocalRoot)
	assert.True(t, resolved.Strict)
	// The local layer overrides workers.
	assert.Equal(t, 8, resolved.NumberOfWorkers)
	assert.Equal(t, filepath.Join(tmp, "a", "bin", "pyre.bin"), resolved.Binary)
	assert.Equal(t, []string{filepath.Join(tmp, "a", "stubs")}, resolved.SearchPath)
	// Accumulating field: both layers contribute, base first.
	assert.Equal(t,
		[]string{filepath.Join(tmp, "a", "core"), filepath.Join(tmp, "a", "b", "local_core")},
		resolved.DoNotIgnoreErrorsIn)
	assert.Equal(t, filepath.Join(tmp, "a", discovery.LogDirectory), resolved.DotPyreDirectory)
}

func TestCreateCommandLineOverridesFiles(t *testing.T) {
	tmp := canonicalTempDir(t)
	writeFile(t, filepath.Join(tmp, discovery.ConfigurationFile), `{"workers": 4, "strict": false}`)

	workers := 32
	resolved, _, err := Create(CommandArguments{
		NumberOfWorkers: &workers,
		Strict:          true,
	}, tmp)
	require.NoError(t, err)
	assert.Equal(t, 32, resolved.NumberOfWorkers)
	assert.True(t, resolved.Strict)
}

func TestCreateEnvironmentBetweenFilesAndCommandLine(t *testing.T) {
	tmp := canonicalTempDir(t)
	writeFile(t, filepath.Join(tmp, discovery.ConfigurationFile), `{"workers": 4, "oncall": "pyre"}`)
	t.Setenv("PYRE_NUMBER_OF_WORKERS", "16")

	// Environment beats the file.
	resolved, _, err := Create(CommandArguments{}, tmp)
	require.NoError(t, err)
	assert.Equal(t, 16, resolved.NumberOfWorkers)
	assert.Equal(t, "pyre", resolved.Oncall)

	// The command line beats the environment.
	workers := 32
	resolved, _, err = Create(CommandArguments{NumberOfWorkers: &workers}, tmp)
	require.NoError(t, err)
	assert.Equal(t, 32, resolved.NumberOfWorkers)
}

func TestCreateGlobalRootRelativeSearchPath(t *testing.T) {
	tmp := canonicalTempDir(t)
	writeFile(t, filepath.Join(tmp, discovery.ConfigurationFile), `{"search_path": ["//typings"]}`)
	writeFile(t, filepath.Join(tmp, "sub", discovery.LocalConfigurationFile), `{}`)
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "typings"), 0o755))

	// Even from the local subtree, `//` resolves against the global root.
	resolved, warnings, err := Create(CommandArguments{}, filepath.Join(tmp, "sub"))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{filepath.Join(tmp, "typings")}, resolved.SearchPath)
}

func TestCreateGlobSearchPath(t *testing.T) {
	tmp := canonicalTempDir(t)
	writeFile(t, filepath.Join(tmp, discovery.ConfigurationFile), `{
		"search_path": ["stubs-*", "missing-*"]
	}`)
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "stubs-b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "stubs-a"), 0o755))

	resolved, warnings, err := Create(CommandArguments{}, tmp)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{filepath.Join(tmp, "stubs-a"), filepath.Join(tmp, "stubs-b")},
		resolved.SearchPath)
	// The pattern matching nothing is a warning, not an error.
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "missing-*")
	assert.Contains(t, warnings[0], "does not match any paths")
}

func TestCreateMissingLocalConfigurationIsFatal(t *testing.T) {
	tmp := canonicalTempDir(t)
	writeFile(t, filepath.Join(tmp, discovery.ConfigurationFile), `{}`)
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "sub"), 0o755))

	local := "sub"
	_, _, err := Create(CommandArguments{LocalConfiguration: &local}, tmp)
	require.Error(t, err)
	var missing *MissingLocalConfigurationError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, discovery.LocalConfigurationFile, missing.Filename)
}

func TestCreateMissingGlobalWithExplicitLocalIsFatal(t *testing.T) {
	tmp := canonicalTempDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "sub"), 0o755))

	// Relies on no ancestor of the temp dir carrying a configuration file.
	local := "sub"
	_, _, err := Create(CommandArguments{LocalConfiguration: &local}, tmp)
	require.Error(t, err)
	var missing *MissingLocalConfigurationError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, discovery.ConfigurationFile, missing.Filename)
}

func TestCreateWithoutProjectFallsBackToWorkingDirectory(t *testing.T) {
	tmp := canonicalTempDir(t)
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	cwd, err := os.Getwd()
	require.NoError(t, err)

	resolved, _, err := Create(CommandArguments{Strict: true}, tmp)
	require.NoError(t, err)
	assert.Equal(t, cwd, resolved.ProjectRoot)
	assert.Empty(t, resolved.RelativeLocalRoot)
	assert.True(t, resolved.Strict)
	assert.Equal(t, filepath.Join(cwd, discovery.LogDirectory), resolved.DotPyreDirectory)
}

func TestCreateDecodeFailureAbortsWholeResolution(t *testing.T) {
	tmp := canonicalTempDir(t)
	writeFile(t, filepath.Join(tmp, discovery.ConfigurationFile), `{"workers": "four"}`)

	_, _, err := Create(CommandArguments{}, tmp)
	require.Error(t, err)
	var decodeError *DecodeError
	assert.ErrorAs(t, err, &decodeError)
}

func TestCreateLocalDecodeFailureAborts(t *testing.T) {
	tmp := canonicalTempDir(t)
	writeFile(t, filepath.Join(tmp, discovery.ConfigurationFile), `{"workers": 4}`)
	writeFile(t, filepath.Join(tmp, "sub", discovery.LocalConfigurationFile), `{"strict": "yes"}`)

	// A clean global layer does not rescue a broken local layer.
	_, _, err := Create(CommandArguments{}, filepath.Join(tmp, "sub"))
	require.Error(t, err)
	var decodeError *DecodeError
	assert.ErrorAs(t, err, &decodeError)
}

func TestCreateDotPyreDirectoryOverride(t *testing.T) {
	tmp := canonicalTempDir(t)
	writeFile(t, filepath.Join(tmp, discovery.ConfigurationFile), `{"dot_pyre_directory": "/var/custom_pyre"}`)

	resolved, _, err := Create(CommandArguments{}, tmp)
	require.NoError(t, err)
	assert.Equal(t, "/var/custom_pyre", resolved.DotPyreDirectory)
}

func TestCreateUnwatchedDependencyInvariant(t *testing.T) {
	tmp := canonicalTempDir(t)
	writeFile(t, filepath.Join(tmp, discovery.ConfigurationFile), `{
		"unwatched_dependency": {
			"change_indicator": "indicator",
			"files": {"root": "third_party", "checksum_path": "../CHECKSUMS"}
		}
	}`)

	_, _, err := Create(CommandArguments{}, tmp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum path")
}

func TestCreateDefaults(t *testing.T) {
	tmp := canonicalTempDir(t)
	writeFile(t, filepath.Join(tmp, discovery.ConfigurationFile), `{}`)

	resolved, _, err := Create(CommandArguments{}, tmp)
	require.NoError(t, err)
	assert.False(t, resolved.Strict)
	assert.False(t, resolved.UseBuck2)
	assert.Equal(t, SearchStrategyNone, resolved.SitePackageSearchStrategy)
	assert.Equal(t, filepath.Join(tmp, discovery.LogDirectory), resolved.DotPyreDirectory)
	assert.Empty(t, resolved.Binary)
}
