package configuration

import (
	"github.com/pyrecheck/pyre-client/internal/filesystem"
)

// ExpandRelativePaths resolves every path-valued field against the directory
// this layer originated from (its configuration file's directory, or the
// working directory for the CLI and environment layers). `//`-prefixed
// search-path and source-directory entries are left for project-root
// expansion during assembly. The receiver is not mutated; expanding an
// already-absolute layer is a no-op.
func (p *PartialConfiguration) ExpandRelativePaths(root string) (*PartialConfiguration, error) {
	expanded := *p

	var err error
	if expanded.Binary, err = expandOptionalPath(root, p.Binary); err != nil {
		return nil, err
	}
	if expanded.Logger, err = expandOptionalPath(root, p.Logger); err != nil {
		return nil, err
	}
	if expanded.Typeshed, err = expandOptionalPath(root, p.Typeshed); err != nil {
		return nil, err
	}
	if expanded.DoNotIgnoreErrorsIn, err = expandPathList(root, p.DoNotIgnoreErrorsIn); err != nil {
		return nil, err
	}
	if expanded.IgnoreAllErrors, err = expandPathList(root, p.IgnoreAllErrors); err != nil {
		return nil, err
	}
	if expanded.OtherCriticalFiles, err = expandPathList(root, p.OtherCriticalFiles); err != nil {
		return nil, err
	}
	if expanded.TaintModelsPath, err = expandPathList(root, p.TaintModelsPath); err != nil {
		return nil, err
	}
	if expanded.SearchPath, err = expandElementList(root, p.SearchPath); err != nil {
		return nil, err
	}
	if expanded.SourceDirectories, err = expandElementList(root, p.SourceDirectories); err != nil {
		return nil, err
	}
	if p.UnwatchedDependency != nil {
		fileRoot, err := filesystem.ExpandRelativePath(root, p.UnwatchedDependency.Files.Root)
		if err != nil {
			return nil, err
		}
		expanded.UnwatchedDependency = &UnwatchedDependency{
			ChangeIndicator: p.UnwatchedDependency.ChangeIndicator,
			Files: UnwatchedFiles{
				Root:         fileRoot,
				ChecksumPath: p.UnwatchedDependency.Files.ChecksumPath,
			},
		}
	}

	return &expanded, nil
}

func expandOptionalPath(root string, path *string) (*string, error) {
	if path == nil {
		return nil, nil
	}
	expanded, err := filesystem.ExpandRelativePath(root, *path)
	if err != nil {
		return nil, err
	}
	return &expanded, nil
}

func expandPathList(root string, paths []string) ([]string, error) {
	if paths == nil {
		return nil, nil
	}
	expanded := make([]string, 0, len(paths))
	for _, path := range paths {
		result, err := filesystem.ExpandRelativePath(root, path)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, result)
	}
	return expanded, nil
}

func expandElementList(root string, elements []SimpleRawElement) ([]SimpleRawElement, error) {
	if elements == nil {
		return nil, nil
	}
	expanded := make([]SimpleRawElement, 0, len(elements))
	for _, element := range elements {
		result, err := element.ExpandRelativeRoot(root)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, result.(SimpleRawElement))
	}
	return expanded, nil
}
