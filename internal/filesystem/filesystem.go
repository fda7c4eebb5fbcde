// Package filesystem provides path canonicalization helpers shared by the
// configuration layers.
package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GlobalRootMarker prefixes paths that are written relative to the project
// root rather than the directory whose configuration mentions them.
const GlobalRootMarker = "//"

// PathError reports a path that could not be canonicalized.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("cannot resolve path `%s`: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// ExpandRelativePath turns path into a canonical absolute path. An absolute
// path is canonicalized as-is; a relative path is joined to root first.
// Missing files are fine (configuration may name paths that do not exist
// yet), but any other resolution failure is fatal for the field being
// expanded.
func ExpandRelativePath(root, path string) (string, error) {
	expanded := path
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(root, expanded)
	}
	expanded, err := filepath.Abs(expanded)
	if err != nil {
		return "", &PathError{Path: path, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return expanded, nil
		}
		return "", &PathError{Path: expanded, Err: err}
	}
	return resolved, nil
}

// ExpandGlobalRoot resolves the `//` project-root prefix. A path starting
// with the marker is expanded relative to globalRoot; any other path is
// returned unchanged.
func ExpandGlobalRoot(path, globalRoot string) (string, error) {
	if strings.HasPrefix(path, GlobalRootMarker) {
		return ExpandRelativePath(globalRoot, path[len(GlobalRootMarker):])
	}
	return path, nil
}
