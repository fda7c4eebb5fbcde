package configuration

import (
	"fmt"
	"path/filepath"
	"strings"
)

// UnwatchedFiles locates a checksum file describing the contents of an
// unwatched dependency tree.
type UnwatchedFiles struct {
	Root         string `json:"root"`
	ChecksumPath string `json:"checksum_path"`
}

// UnwatchedDependency is a dependency tree not covered by the filesystem
// watcher, tracked via a checksum file instead.
type UnwatchedDependency struct {
	ChangeIndicator string         `json:"change_indicator"`
	Files           UnwatchedFiles `json:"files"`
}

// Validate checks that the checksum path stays under the files root once
// joined; a checksum file outside the tree it describes is a configuration
// mistake.
func (d *UnwatchedDependency) Validate() error {
	checksum := d.Files.ChecksumPath
	if filepath.IsAbs(checksum) {
		checksum, _ = filepath.Rel(d.Files.Root, checksum)
	}
	joined := filepath.Clean(filepath.Join(d.Files.Root, checksum))
	if joined != d.Files.Root && !strings.HasPrefix(joined, d.Files.Root+string(filepath.Separator)) {
		return fmt.Errorf(
			"unwatched dependency checksum path `%s` does not resolve under root `%s`",
			d.Files.ChecksumPath, d.Files.Root)
	}
	return nil
}
