package configuration

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pyrecheck/pyre-client/internal/filesystem"
)

// RawElement is a path-like configuration value before expansion. Its root
// may be absolute, relative, `//`-prefixed (project-root-relative), or
// contain glob metacharacters.
type RawElement interface {
	// ExpandGlobalRoot resolves a `//` prefix against the project root.
	ExpandGlobalRoot(globalRoot string) (RawElement, error)
	// ExpandRelativeRoot resolves a relative root against the directory the
	// element's layer originated from. `//`-prefixed roots are left alone
	// for ExpandGlobalRoot.
	ExpandRelativeRoot(relativeRoot string) (RawElement, error)
	// ExpandGlob expands glob metacharacters against the filesystem,
	// lexicographically sorted. A pattern matching nothing yields an empty
	// result.
	ExpandGlob() ([]RawElement, error)
}

// Element is a fully-expanded path-like value, ready to hand to the backend.
type Element interface {
	Path() string
	CommandLineArgument() string
}

// SimpleRawElement is a plain directory entry.
type SimpleRawElement struct {
	Root string `json:"root"`
}

func (e SimpleRawElement) ExpandGlobalRoot(globalRoot string) (RawElement, error) {
	root, err := filesystem.ExpandGlobalRoot(e.Root, globalRoot)
	if err != nil {
		return nil, err
	}
	return SimpleRawElement{Root: root}, nil
}

func (e SimpleRawElement) ExpandRelativeRoot(relativeRoot string) (RawElement, error) {
	if len(e.Root) >= len(filesystem.GlobalRootMarker) &&
		e.Root[:len(filesystem.GlobalRootMarker)] == filesystem.GlobalRootMarker {
		return e, nil
	}
	root, err := filesystem.ExpandRelativePath(relativeRoot, e.Root)
	if err != nil {
		return nil, err
	}
	return SimpleRawElement{Root: root}, nil
}

func (e SimpleRawElement) ExpandGlob() ([]RawElement, error) {
	matches, err := doublestar.FilepathGlob(e.Root)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	expanded := make([]RawElement, 0, len(matches))
	for _, match := range matches {
		expanded = append(expanded, SimpleRawElement{Root: match})
	}
	return expanded, nil
}

// ToElement finalizes the element. The root must hold no unexpanded markers
// by the time this is called.
func (e SimpleRawElement) ToElement() Element {
	return SimpleElement{Root: e.Root}
}

// SimpleElement is the expanded counterpart of SimpleRawElement; its root is
// an absolute path with no unexpanded markers.
type SimpleElement struct {
	Root string `json:"root"`
}

func (e SimpleElement) Path() string { return e.Root }

func (e SimpleElement) CommandLineArgument() string { return e.Root }
