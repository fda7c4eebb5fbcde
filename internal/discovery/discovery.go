// Package discovery locates the global and local configuration files by
// walking the directory ancestry of a base directory.
package discovery

import (
	"os"
	"path/filepath"

	"github.com/pyrecheck/pyre-client/internal/logging"
)

// Well-known file and directory names.
const (
	// ConfigurationFile marks the project root.
	ConfigurationFile = ".pyre_configuration"
	// LocalConfigurationFile marks a subtree-specific override.
	LocalConfigurationFile = ".pyre_configuration.local"
	// LogDirectory is the tool's private state directory, created under the
	// project root unless configured otherwise.
	LogDirectory = ".pyre"
)

// FoundRoot is the result of a successful root search. LocalRoot is empty
// when no local configuration applies; when set it is always a strict
// descendant of GlobalRoot.
type FoundRoot struct {
	GlobalRoot string
	LocalRoot  string
}

// FindParentDirectoryContainingFile walks base and its ancestors, closest
// first, and returns the first directory containing a readable regular file
// named target. stopSearchAfter bounds the number of ancestors examined and
// exists for deterministic tests; pass a negative value for an unbounded
// search.
func FindParentDirectoryContainingFile(base, target string, stopSearchAfter int) (string, bool) {
	current := base
	for i := 0; ; i++ {
		if containsReadableFile(current, target) {
			return current, true
		}
		if stopSearchAfter >= 0 && i >= stopSearchAfter {
			return "", false
		}
		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root.
			return "", false
		}
		current = parent
	}
}

// containsReadableFile reports whether dir holds a regular file named target
// that the current process can open. Unreadable candidates are treated as
// absent rather than surfacing a permission error.
func containsReadableFile(dir, target string) bool {
	candidate := filepath.Join(dir, target)
	info, err := os.Stat(candidate)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(candidate)
	if err != nil {
		logging.Debug().Str("path", candidate).Msg("Skipping unreadable configuration candidate")
		return false
	}
	f.Close()
	return true
}

// FindGlobalAndLocalRoot walks upwards from base looking for both
// configuration files. It returns nil when no global configuration exists.
// A local configuration root is reported only when it sits strictly below
// the global root; if the global root is the same directory or deeper, the
// local root is discarded and the global file wins alone.
func FindGlobalAndLocalRoot(base string) *FoundRoot {
	globalRoot, ok := FindParentDirectoryContainingFile(base, ConfigurationFile, -1)
	if !ok {
		return nil
	}
	localRoot, ok := FindParentDirectoryContainingFile(base, LocalConfigurationFile, -1)
	if !ok {
		return &FoundRoot{GlobalRoot: globalRoot}
	}
	if localRoot == globalRoot || isAncestorOf(localRoot, globalRoot) {
		logging.Debug().
			Str("global_root", globalRoot).
			Str("local_root", localRoot).
			Msg("Local configuration is not below the global root; ignoring it")
		return &FoundRoot{GlobalRoot: globalRoot}
	}
	return &FoundRoot{GlobalRoot: globalRoot, LocalRoot: localRoot}
}

// isAncestorOf reports whether dir is a proper ancestor of descendant.
func isAncestorOf(dir, descendant string) bool {
	current := descendant
	for {
		parent := filepath.Dir(current)
		if parent == current {
			return false
		}
		if parent == dir {
			return true
		}
		current = parent
	}
}

// RelativeLocalRoot computes localRoot relative to globalRoot. It returns ""
// when localRoot is empty or not actually under globalRoot; the latter should
// not happen given the FindGlobalAndLocalRoot invariant.
func RelativeLocalRoot(globalRoot, localRoot string) string {
	if localRoot == "" {
		return ""
	}
	relative, err := filepath.Rel(globalRoot, localRoot)
	if err != nil || relative == ".." || len(relative) >= 3 && relative[:3] == ".."+string(filepath.Separator) {
		return ""
	}
	return relative
}
